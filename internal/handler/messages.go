package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/internal/store"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.InboxService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.InboxService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/threads/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadParam(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ListMessages(r.Context(), threadID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/threads/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	threadID, ok := threadParam(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.SendMessage(r.Context(), threadID, &req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithThread(threadID).Error("failed to send message", zap.Error(err))
		}
		if errors.Is(err, store.ErrThreadNotFound) {
			writeError(w, status, "thread not found")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
