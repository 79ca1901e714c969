package repository

import (
	"context"
	"sync"
	"testing"

	"recipe_community/internal/pkg/testdb"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleSQL(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesExisting", func(t *testing.T) {
		db, mock := testdb.NewMock(t)
		repo := NewLikeRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "likes" WHERE user_id = \$1 AND likeable_id = \$2 AND likeable_type = \$3`).
			WithArgs("u1", "l1", "post").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		liked, err := repo.Toggle(ctx, "u1", "l1", "post")
		require.NoError(t, err)
		assert.False(t, liked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertsWhenAbsent", func(t *testing.T) {
		db, mock := testdb.NewMock(t)
		repo := NewLikeRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "likes"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO "likes" .* ON CONFLICT \("user_id","likeable_id","likeable_type"\) DO NOTHING`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new"))
		mock.ExpectCommit()

		liked, err := repo.Toggle(ctx, "u1", "l1", "post")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConflictReportsLiked", func(t *testing.T) {
		db, mock := testdb.NewMock(t)
		repo := NewLikeRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "likes"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO "likes"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()

		liked, err := repo.Toggle(ctx, "u1", "l1", "post")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestToggleIntegration(t *testing.T) {
	db := testdb.StartPostgres(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	user := testdb.SeedUser(t, db, "Zia")
	target := uuid.New().String()

	liked, err := repo.Toggle(ctx, user, target, "thread")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.Toggle(ctx, user, target, "thread")
	require.NoError(t, err)
	assert.False(t, liked)

	count, err := repo.Count(ctx, target, "thread")
	require.NoError(t, err)
	assert.Zero(t, count)

	// 并发切换不会产生重复行
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Toggle(ctx, user, target, "post")
		}()
	}
	wg.Wait()

	count, err = repo.Count(ctx, target, "post")
	require.NoError(t, err)
	assert.LessOrEqual(t, count, int64(1))

	has, err := repo.HasLiked(ctx, user, target, "post")
	require.NoError(t, err)
	assert.Equal(t, count == 1, has)
}
