package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{InvalidStatement("no transaction table found"), http.StatusBadRequest},
		{Unauthorized("Unauthorized"), http.StatusUnauthorized},
		{Forbidden("Forbidden"), http.StatusForbidden},
		{NotFound("Client not found"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Processing(errors.New("boom")), http.StatusInternalServerError},
		{Internal("Failed", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
			assert.Equal(t, tt.want < 500, tt.err.Public())
		})
	}
}

func TestProcessing_KeepsCauseWithStack(t *testing.T) {
	cause := errors.New("model timeout")
	err := Processing(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to process statement", err.Message)

	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	var st stackTracer
	require.True(t, errors.As(err.Cause, &st))
	assert.NotEmpty(t, st.StackTrace())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("Client reference already exists for this user."))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestInvalidStatement_Error(t *testing.T) {
	err := InvalidStatement("no transaction table found")
	assert.Equal(t, "no transaction table found", err.Reason)
	assert.Equal(t, "Invalid statement: no transaction table found", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := Validation("Invalid input").WithDetail("name", "must be at least 2 characters")
	assert.Equal(t, map[string]string{"name": "must be at least 2 characters"}, err.Details)
}
