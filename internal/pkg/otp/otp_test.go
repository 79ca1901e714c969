package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, fixed string) (*miniredis.Miniredis, OTPService) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewOTPService(rdb, fixed)
}

func TestOTP_SendAndVerify(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t, "")

	code, err := svc.Send(ctx, "13800000000")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.False(t, svc.Verify(ctx, "13800000000", "wrong!"))
	assert.True(t, svc.Verify(ctx, "13800000000", code))
	// 验证后失效
	assert.False(t, svc.Verify(ctx, "13800000000", code))
}

func TestOTP_ResendThrottled(t *testing.T) {
	ctx := context.Background()
	mr, svc := setup(t, "123456")

	_, err := svc.Send(ctx, "13800000001")
	require.NoError(t, err)

	_, err = svc.Send(ctx, "13800000001")
	assert.ErrorIs(t, err, ErrTooFrequent)

	mr.FastForward(90 * time.Second)
	code, err := svc.Send(ctx, "13800000001")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}
