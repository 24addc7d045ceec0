package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/middleware"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

// ActivityReader returns mirrored activity for a thread.
type ActivityReader interface {
	History(ctx context.Context, threadID string, limit int) ([]model.InboxEvent, error)
}

// ThreadHandler handles thread endpoints.
type ThreadHandler struct {
	service  *service.InboxService
	activity ActivityReader
	logger   *logger.Logger
}

// NewThreadHandler creates a thread handler. activity may be nil.
func NewThreadHandler(svc *service.InboxService, activity ActivityReader, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		service:  svc,
		activity: activity,
		logger:   log,
	}
}

// List handles GET /api/v1/threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListThreads(r.Context()))
}

// Get handles GET /api/v1/threads/{id}
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadParam(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetThread(r.Context(), threadID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Select handles POST /api/v1/threads/{id}/select
func (h *ThreadHandler) Select(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().SelectThread)
}

// Archive handles POST /api/v1/threads/{id}/archive
func (h *ThreadHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().ArchiveThread)
}

// Reopen handles POST /api/v1/threads/{id}/reopen
func (h *ThreadHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().ReopenThread)
}

// Block handles POST /api/v1/threads/{id}/block
func (h *ThreadHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().BlockThread)
}

// Unblock handles POST /api/v1/threads/{id}/unblock
func (h *ThreadHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().UnblockThread)
}

// MarkUnread handles POST /api/v1/threads/{id}/unread
func (h *ThreadHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.service.Store().MarkThreadAsUnread)
}

// Activity handles GET /api/v1/threads/{id}/activity
func (h *ThreadHandler) Activity(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadParam(w, r)
	if !ok {
		return
	}
	if h.activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity mirror disabled")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	events, err := h.activity.History(r.Context(), threadID, limit)
	if err != nil {
		h.logger.WithThread(threadID).Error("failed to read activity", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to read activity")
		return
	}
	if events == nil {
		events = []model.InboxEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"thread_id": threadID,
		"events":    events,
	})
}

// command runs a fire-and-forget thread command and answers with the
// resulting UI state. Unknown ids are not an error.
func (h *ThreadHandler) command(w http.ResponseWriter, r *http.Request, fn func(string)) {
	threadID, ok := threadParam(w, r)
	if !ok {
		return
	}
	fn(threadID)
	writeJSON(w, http.StatusOK, h.service.Store().State())
}

func threadParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	threadID := chi.URLParam(r, "id")
	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return threadID, true
}
