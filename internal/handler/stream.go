package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/middleware"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
)

// StreamHandler handles the SSE event stream.
type StreamHandler struct {
	service   *service.InboxService
	heartbeat time.Duration
	logger    *logger.Logger
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(svc *service.InboxService, heartbeat time.Duration, log *logger.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		service:   svc,
		heartbeat: heartbeat,
		logger:    log,
	}
}

// Stream handles GET /api/v1/stream. It sends a snapshot first, then every
// store event as it is committed, with periodic heartbeats.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, cancel := h.service.Store().Subscribe(256)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	log := h.logger.WithCorrelation(middleware.GetCorrelationID(ctx))
	log.Debug("SSE client connected")

	if err := sendSSEEvent(w, flusher, "snapshot", h.service.Store().Snapshot()); err != nil {
		log.Warn("failed to send snapshot", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("SSE client disconnected")
			return

		case ev, ok := <-events:
			if !ok {
				// Subscription dropped. The client reconnects for a new snapshot.
				log.Info("SSE client fell behind, requesting resync")
				_ = sendSSEEvent(w, flusher, "resync", &model.HeartbeatEvent{Timestamp: time.Now()})
				return
			}
			if err := sendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				log.Warn("failed to send event", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			if err := sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			}); err != nil {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
