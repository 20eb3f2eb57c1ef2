package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	clone := Clone(ErrValidation, "No folders selected.")

	assert.Equal(t, "No folders selected.", clone.Message)
	assert.Equal(t, ErrValidation.Code, clone.Code)
	assert.Equal(t, http.StatusBadRequest, clone.Status)
	assert.ErrorIs(t, clone, ErrValidation)
	assert.NotErrorIs(t, clone, ErrNotFound)
}

func TestFromError(t *testing.T) {
	raw := errors.New("boom")
	e := FromError(raw)
	require.NotNil(t, e)
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.ErrorIs(t, e, raw)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrSessionMissing, ""))
	e = FromError(wrapped)
	assert.Equal(t, ErrSessionMissing.Code, e.Code)

	assert.Nil(t, FromError(nil))
}
