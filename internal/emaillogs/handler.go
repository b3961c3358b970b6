package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// ListBySession handles GET /sessions/:id/emails. Returns reminder deliveries for the session.
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	logs, err := h.store.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to load email logs")
		return
	}
	if logs == nil {
		logs = []*models.EmailLog{}
	}
	response.OK(c, logs)
}
