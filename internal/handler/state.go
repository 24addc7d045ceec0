package handler

import (
	"net/http"

	"github.com/capitalize-ai/guest-messaging/internal/middleware"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

// StateHandler handles UI state and compose endpoints.
type StateHandler struct {
	service *service.InboxService
	logger  *logger.Logger
}

// NewStateHandler creates a state handler.
func NewStateHandler(svc *service.InboxService, log *logger.Logger) *StateHandler {
	return &StateHandler{
		service: svc,
		logger:  log,
	}
}

type viewRequest struct {
	View model.View `json:"view"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type aiRequest struct {
	Enabled bool `json:"enabled"`
}

type typingRequest struct {
	ThreadID string `json:"thread_id"`
}

// Snapshot handles GET /api/v1/state
func (h *StateHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Store().Snapshot())
}

// SetView handles PUT /api/v1/view
func (h *StateHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.View.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "view must be inbox, archived or blocked")
		return
	}
	h.service.Store().SetCurrentView(req.View)
	h.writeState(w)
}

// SetSearch handles PUT /api/v1/search
func (h *StateHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateSearchQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.service.Store().SetSearchQuery(req.Query)
	h.writeState(w)
}

// SetAI handles PUT /api/v1/ai
func (h *StateHandler) SetAI(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.service.Store().SetAIEnabled(req.Enabled)
	h.writeState(w)
}

// SetTyping handles PUT /api/v1/typing. An empty thread id clears the
// indicator.
func (h *StateHandler) SetTyping(w http.ResponseWriter, r *http.Request) {
	var req typingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ThreadID != "" {
		if err := middleware.ValidateThreadID(req.ThreadID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	h.service.Store().SetGuestTyping(req.ThreadID)
	h.writeState(w)
}

// ToggleGuestInfo handles POST /api/v1/guest-info/toggle
func (h *StateHandler) ToggleGuestInfo(w http.ResponseWriter, r *http.Request) {
	h.service.Store().ToggleGuestInfo()
	h.writeState(w)
}

// CloseGuestInfo handles DELETE /api/v1/guest-info
func (h *StateHandler) CloseGuestInfo(w http.ResponseWriter, r *http.Request) {
	h.service.Store().CloseGuestInfo()
	h.writeState(w)
}

// StartCompose handles POST /api/v1/compose
func (h *StateHandler) StartCompose(w http.ResponseWriter, r *http.Request) {
	h.service.Store().StartNewConversation()
	h.writeState(w)
}

// UpdateCompose handles PUT /api/v1/compose. The draft is stored as typed;
// it is checked only when a thread is created from it.
func (h *StateHandler) UpdateCompose(w http.ResponseWriter, r *http.Request) {
	var req model.CreateThreadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.service.Store().UpdateComposingPhone(req.Phone)
	h.writeState(w)
}

// CreateThread handles POST /api/v1/compose/thread. Without a phone in
// the body the current draft is used.
func (h *StateHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req model.CreateThreadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	phone := req.Phone
	if phone == "" {
		phone = h.service.Store().State().ComposingPhone
	}
	if err := middleware.ValidatePhoneInput(phone); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.CreateThread(r.Context(), phone)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// CancelCompose handles DELETE /api/v1/compose
func (h *StateHandler) CancelCompose(w http.ResponseWriter, r *http.Request) {
	h.service.Store().CancelComposing()
	h.writeState(w)
}

func (h *StateHandler) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.service.Store().State())
}
