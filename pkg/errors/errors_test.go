package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypes(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("bad input")))
	assert.True(t, IsNotFound(NewNotFound("no such sale")))
	assert.True(t, IsThrottling(NewThrottling("slow down", nil)))
	assert.True(t, IsConditionFailed(NewConditionFailed("already exists")))
	assert.True(t, IsUnavailable(NewUnavailable("store down", nil)))
	assert.True(t, IsInternal(NewInternal("boom", nil)))

	assert.False(t, IsValidation(NewNotFound("no such sale")))
	assert.False(t, IsNotFound(fmt.Errorf("plain error")))
	assert.False(t, IsThrottling(nil))
}

func TestErrorMessage(t *testing.T) {
	err := NewValidation("missing tenant")
	assert.Equal(t, "VALIDATION: missing tenant", err.Error())

	wrapped := NewUnavailable("memory store unreachable", fmt.Errorf("connection refused"))
	assert.Equal(t, "UNAVAILABLE: memory store unreachable: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewUnavailable("memory store unreachable", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapPreservesType(t *testing.T) {
	inner := NewThrottling("query throttled", nil)
	wrapped := Wrap(inner, "pattern detection")

	assert.True(t, IsThrottling(wrapped))
	assert.Contains(t, wrapped.Error(), "pattern detection")

	var appErr *AppError
	require.True(t, stderrors.As(Wrap(fmt.Errorf("plain"), "context"), &appErr))
	assert.Equal(t, ErrorTypeInternal, appErr.Type)

	assert.Nil(t, Wrap(nil, "context"))
}
