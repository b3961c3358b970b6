package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeInvalidTransition: http.StatusBadRequest,
		CodePrecondition:      http.StatusBadRequest,
		CodeForbidden:         http.StatusForbidden,
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodePersistence:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(E(code, "op", "msg", nil)), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestWrappedCode(t *testing.T) {
	inner := E(CodeNotFound, "Store.GetByID", "session not found", nil)
	err := fmt.Errorf("handler: %w", inner)
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, "session not found", Message(err))
	assert.Equal(t, "Internal Server Error", Message(errors.New("boom")))
}

func TestErrorString(t *testing.T) {
	cause := errors.New("connection refused")
	err := E(CodePersistence, "Repository.Create", "failed to save session", cause)
	assert.Equal(t, "Repository.Create: failed to save session: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
