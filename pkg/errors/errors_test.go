package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_ErrorStringIncludesWrappedCause(t *testing.T) {
	base := stderrors.New("connection refused")
	e := Wrap(base, "DB_ERROR", http.StatusInternalServerError, "failed to load activities")
	assert.Equal(t, "failed to load activities: connection refused", e.Error())
}

func TestError_ErrorStringWithoutWrappedCause(t *testing.T) {
	e := New("NOT_FOUND", http.StatusNotFound, "resource not found")
	assert.Equal(t, "resource not found", e.Error())
}

func TestError_NilReceiverErrorStringIsNil(t *testing.T) {
	var e *Error
	assert.Equal(t, "<nil>", e.Error())
	assert.NoError(t, e.Unwrap())
}

func TestError_UnwrapReturnsWrappedCause(t *testing.T) {
	base := stderrors.New("boom")
	e := Wrap(base, "X", 500, "wrapped")
	assert.Equal(t, base, e.Unwrap())
	assert.True(t, stderrors.Is(e, base))
}

func TestFromError_PassesThroughExistingAppError(t *testing.T) {
	got := FromError(ErrValidation)
	assert.Same(t, ErrValidation, got)
}

func TestFromError_WrapsPlainErrorAsInternal(t *testing.T) {
	got := FromError(stderrors.New("unexpected"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, "unexpected", got.Unwrap().Error())
}

func TestFromError_NilIsNil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}

func TestClone_OverridesMessageWithoutMutatingOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "activity A1 not found")
	assert.Equal(t, "activity A1 not found", clone.Error())
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
}

func TestClone_NilIsNil(t *testing.T) {
	assert.Nil(t, Clone(nil, "x"))
}

func TestClone_EmptyMessageKeepsOriginal(t *testing.T) {
	clone := Clone(ErrConflict, "")
	assert.Equal(t, ErrConflict.Message, clone.Message)
}
