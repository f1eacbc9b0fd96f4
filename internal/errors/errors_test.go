package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", New(KindUnauthorized, "no"), http.StatusForbidden, ErrCodeForbidden},
		{"not found", New(KindNotFound, "missing"), http.StatusNotFound, ErrCodeNotFound},
		{"invalid input", New(KindInvalidInput, "bad"), http.StatusBadRequest, ErrCodeInvalidInput},
		{"conflict", New(KindConflict, "taken"), http.StatusConflict, ErrCodeConflict},
		{"transition", New(KindInvalidTransition, "illegal"), http.StatusConflict, ErrCodeInvalidTransition},
		{"blocked", New(KindBlockedByDependency, "assigned"), http.StatusConflict, ErrCodeBlockedByDependency},
		{"credentials", New(KindInvalidCredentials, "wrong"), http.StatusUnauthorized, ErrCodeInvalidCredentials},
		{"wrapped", fmt.Errorf("outer: %w", New(KindNotFound, "missing")), http.StatusNotFound, ErrCodeNotFound},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Respond(c, tt.err)

			require.Equal(t, tt.status, w.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestRespondCascadeStep(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Respond(c, CascadeDeleteFailed("task_edges", fmt.Errorf("db down")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeCascadeDeleteFailed, body.Code)
	assert.Equal(t, "task_edges", body.Details["step"])
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(KindConflict, "dup"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindConflict))
}
