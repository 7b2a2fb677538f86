package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&types.ProvisionedThroughputExceededException{}))
	assert.True(t, IsRetryableError(&types.InternalServerError{}))
	assert.True(t, IsRetryableError(&types.RequestLimitExceeded{}))

	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(fmt.Errorf("plain error")))
	assert.False(t, IsRetryableError(NewConditionFailed("sale", "s1", "exists")))
}

func TestRetryWithBackoffSucceedsAfterThrottle(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
		attempts++
		if attempts < 3 {
			return &types.ProvisionedThroughputExceededException{}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
		attempts++
		return fmt.Errorf("permanent failure")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
		attempts++
		return &types.ProvisionedThroughputExceededException{}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, fastRetry(), func() error {
		t.Fatal("operation must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
