package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"tahaworld/shared/failure"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "bad request", err: failure.BadRequest(errors.New("bad body")), code: http.StatusBadRequest, message: "bad body"},
		{name: "bad request from string", err: failure.BadRequestFromString("invalid slot"), code: http.StatusBadRequest, message: "invalid slot"},
		{name: "unauthorized", err: failure.Unauthorized("missing token"), code: http.StatusUnauthorized, message: "missing token"},
		{name: "forbidden", err: failure.Forbidden("not yours"), code: http.StatusForbidden, message: "not yours"},
		{name: "not found", err: failure.NotFound("booking not found"), code: http.StatusNotFound, message: "booking not found"},
		{name: "conflict", err: failure.Conflict("slot unavailable"), code: http.StatusConflict, message: "slot unavailable"},
		{name: "gone", err: failure.Gone("certificate revoked"), code: http.StatusGone, message: "certificate revoked"},
		{name: "unprocessable", err: failure.UnprocessableEntity("transition not allowed"), code: http.StatusUnprocessableEntity, message: "transition not allowed"},
		{name: "too many requests", err: failure.TooManyRequests("slow down"), code: http.StatusTooManyRequests, message: "slow down"},
		{name: "internal", err: failure.InternalError(errors.New("boom")), code: http.StatusInternalServerError, message: "boom"},
		{name: "unimplemented", err: failure.Unimplemented("Export"), code: http.StatusNotImplemented, message: "Export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, failure.GetCode(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNilErrorsStayNil(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(errors.New("plain")))
	assert.Equal(t, http.StatusConflict, failure.GetCode(fmt.Errorf("wrapped: %w", failure.Conflict("dup"))))
	assert.Equal(t, http.StatusForbidden, failure.GetCode(failure.ForbiddenError))
}
