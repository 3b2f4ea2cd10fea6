package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_MapToSentinels(t *testing.T) {
	assert.True(t, errors.Is(NotFound("user", "u-1"), ErrNotFound))
	assert.True(t, errors.Is(AlreadyExists("user", "username", "alice"), ErrAlreadyExists))
	assert.True(t, errors.Is(InvalidInput("bad"), ErrInvalidInput))
	assert.True(t, errors.Is(Unauthorized("nope"), ErrUnauthorized))
	assert.True(t, errors.Is(Forbidden("nope"), ErrForbidden))
	assert.True(t, errors.Is(Upstream("provider down", errors.New("boom")), ErrUpstream))
}

func TestUpstream_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("provider down", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestAppError_Error(t *testing.T) {
	err := NotFound("user", "u-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "u-1")

	wrapped := Upstream("call failed", errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error not found", NotFound("user", "u-1"), http.StatusNotFound},
		{"app error conflict", AlreadyExists("user", "email", "a@b.c"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("get user: %w", Unauthorized("bad token")), http.StatusUnauthorized},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel conflict", ErrAlreadyExists, http.StatusConflict},
		{"sentinel invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"sentinel forbidden", ErrForbidden, http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "lookup user")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "lookup user")
}
