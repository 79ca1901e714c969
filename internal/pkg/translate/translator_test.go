package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe_community/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	args := m.Called(ctx, text, targetLang)
	return args.String(0), args.Error(1)
}

func TestCachedTranslator(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	t.Run("SecondCallServedFromCache", func(t *testing.T) {
		next := new(MockTranslator)
		next.On("Translate", ctx, "Boil the pasta", "it").Return("Bollire la pasta", nil).Once()

		tr := NewCachedTranslator(next, cache.NewRedisCache(rdb, "test:"), time.Hour)

		out, err := tr.Translate(ctx, "Boil the pasta", "it")
		require.NoError(t, err)
		assert.Equal(t, "Bollire la pasta", out)

		out, err = tr.Translate(ctx, "Boil the pasta", "it")
		require.NoError(t, err)
		assert.Equal(t, "Bollire la pasta", out)
		next.AssertNumberOfCalls(t, "Translate", 1)
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		next := new(MockTranslator)
		next.On("Translate", ctx, "Salt", "fr").Return("", errors.New("quota")).Once()
		next.On("Translate", ctx, "Salt", "fr").Return("Sel", nil).Once()

		tr := NewCachedTranslator(next, cache.NewMemoryCache(), time.Hour)

		_, err := tr.Translate(ctx, "Salt", "fr")
		assert.Error(t, err)

		out, err := tr.Translate(ctx, "Salt", "fr")
		require.NoError(t, err)
		assert.Equal(t, "Sel", out)
	})
}

func TestCacheKey(t *testing.T) {
	assert.NotEqual(t, cacheKey("a", "it"), cacheKey("a", "fr"))
	assert.Equal(t, cacheKey("a", "it"), cacheKey("a", "it"))
}
