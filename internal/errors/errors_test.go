package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeSetupIncomplete, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := NotFound("post not found")
	wrapped := fmt.Errorf("get post: %w", err)

	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrValidation))
}

func TestSetupIncompleteCarriesRedirect(t *testing.T) {
	err := SetupIncomplete("display name required", "/profile/display-name")

	assert.Equal(t, CodeSetupIncomplete, err.Code)
	assert.Equal(t, "/profile/display-name", err.Redirect)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
}

func TestStorageHidesCause(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := Storage(cause)

	assert.Equal(t, "internal storage error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	detailed := ErrValidation.WithDetails(map[string]string{"body": "too long"})

	assert.NotNil(t, detailed.Details)
	assert.Nil(t, ErrValidation.Details)
}
