package livesessions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/apperr"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/metrics"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/middleware"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/pkg/response"
)

// AutogenSecretHeader carries the shared secret for POST /sessions/autogenerate.
const AutogenSecretHeader = "X-Autogen-Secret"

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	CourseID    string  `json:"course_id" binding:"required,uuid"`
	Title       string  `json:"title" binding:"required"`
	JoinLink    string  `json:"join_link" binding:"required"`
	ScheduledAt string  `json:"scheduled_at" binding:"required"`
	ExpiresAt   *string `json:"expires_at"`
}

// UpdateStatusRequest is the body for PATCH /sessions/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles live session HTTP endpoints.
type Handler struct {
	controller *Controller
	generator  *Generator
	logger     *zap.Logger
}

// NewHandler creates a live session handler.
func NewHandler(controller *Controller, generator *Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, generator: generator, logger: logger}
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	courseID, _ := uuid.Parse(req.CourseID)
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		response.BadRequest(c, "invalid scheduled_at")
		return
	}
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			response.BadRequest(c, "invalid expires_at")
			return
		}
		t = t.UTC()
		expiresAt = &t
	}

	actor := middleware.Actor(c)
	s, err := h.controller.Create(c.Request.Context(), &models.LiveSession{
		CourseID:    courseID,
		Title:       req.Title,
		JoinLink:    req.JoinLink,
		ScheduledAt: scheduledAt.UTC(),
		ExpiresAt:   expiresAt,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.RecordSessionCreated("manual")
	response.Created(c, s)
}

// Autogenerate handles POST /sessions/autogenerate. Authorized by shared secret, not JWT.
func (h *Handler) Autogenerate(c *gin.Context) {
	s, err := h.generator.Generate(c.Request.Context(), c.GetHeader(AutogenSecretHeader))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"session": s})
}

// List handles GET /sessions. Optional query: course_id, status (repeatable), limit.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	if v := c.Query("course_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid course_id")
			return
		}
		f.CourseID = &id
	}
	for _, v := range c.QueryArray("status") {
		st, ok := models.ParseSessionStatus(v)
		if !ok {
			response.BadRequest(c, "invalid status "+strconv.Quote(v))
			return
		}
		f.Statuses = append(f.Statuses, st)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}
	list, err := h.controller.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []*models.LiveSession{}
	}
	response.OK(c, list)
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := h.controller.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, s)
}

// Start handles POST /sessions/:id/start.
func (h *Handler) Start(c *gin.Context) {
	h.transition(c, models.StatusLive, "Live session started")
}

// End handles POST /sessions/:id/end.
func (h *Handler) End(c *gin.Context) {
	h.transition(c, models.StatusEnded, "Live session ended")
}

// UpdateStatus handles PATCH /sessions/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	st, ok := models.ParseSessionStatus(req.Status)
	if !ok {
		response.BadRequest(c, "invalid status "+strconv.Quote(req.Status))
		return
	}
	h.transition(c, st, "Live session status updated to "+string(st))
}

// Status handles GET /sessions/:id/status. Public polling endpoint; the body is the
// bare projection rather than the response envelope.
func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "unknown"})
		return
	}
	p, err := h.controller.Projection(c.Request.Context(), id)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "unknown"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) transition(c *gin.Context, target models.SessionStatus, message string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := h.controller.Transition(c.Request.Context(), id, target, middleware.Actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"message": message, "session": s})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("live session request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	response.Error(c, status, apperr.Message(err))
}

// parseID treats a malformed id like an unknown one: 404, matching the status route.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "session not found")
		return uuid.Nil, false
	}
	return id, true
}
