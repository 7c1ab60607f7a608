package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "group id required"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "group id required", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("boom")

	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneLeavesOriginalUntouched(t *testing.T) {
	clone := Clone(ErrPayloadTooLarge, "too many groups")

	assert.Equal(t, "too many groups", clone.Message)
	assert.Equal(t, "payload exceeds configured limits", ErrPayloadTooLarge.Message)
	assert.Equal(t, "too many groups", clone.Error())
}

func TestWrapFormatsCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp"), ErrInternal.Code, ErrInternal.Status, "cache unavailable")

	assert.Equal(t, "cache unavailable: dial tcp", err.Error())
}

func TestWithDetailsCopies(t *testing.T) {
	base := Clone(ErrValidation, "invalid grade payload")
	detailed := WithDetails(base, "assignment_groups[0].id: required")
	more := WithDetails(detailed, "assignment_groups[1].id: required")

	assert.Empty(t, base.Details)
	assert.Equal(t, []string{"assignment_groups[0].id: required"}, detailed.Details)
	assert.Len(t, more.Details, 2)
	assert.Nil(t, WithDetails(nil, "x"))
}
