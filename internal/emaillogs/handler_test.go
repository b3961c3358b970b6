package emaillogs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
)

func TestHandler_ListBySession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryStore()
	sessionID := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()
	for _, el := range []*models.EmailLog{
		{SessionID: &sessionID, EmailType: models.EmailTypeSessionReminder, RecipientEmail: "a@example.com", Status: models.EmailLogStatusSent, SentAt: &now},
		{SessionID: &sessionID, EmailType: models.EmailTypeSessionReminder, RecipientEmail: "b@example.com", Status: models.EmailLogStatusFailed, ErrorMessage: "550"},
		{SessionID: &other, EmailType: models.EmailTypeSessionReminder, RecipientEmail: "c@example.com", Status: models.EmailLogStatusSent},
	} {
		require.NoError(t, store.Insert(context.Background(), el))
	}

	r := gin.New()
	r.GET("/sessions/:id/emails", NewHandler(store, nil).ListBySession)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID.String()+"/emails", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool               `json:"success"`
		Data    []*models.EmailLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	for _, el := range body.Data {
		assert.Equal(t, sessionID, *el.SessionID)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString()+"/emails", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/nope/emails", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"session not found"}`, w.Body.String())
}
