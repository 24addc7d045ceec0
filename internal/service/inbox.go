// Package service composes store commands and reads for the presentation
// layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/store"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

// MaxContentLength bounds a single message, roughly ten SMS segments.
const MaxContentLength = 1600

// ErrInvalidContent is returned for blank, oversized or non-UTF-8 content.
var ErrInvalidContent = errors.New("invalid message content")

// AutoReplier starts the simulated guest reply for a thread.
type AutoReplier interface {
	Trigger(threadID string) error
}

// InboxService is the presentation-facing inbox API.
type InboxService struct {
	store     *store.Store
	autoReply AutoReplier
	loc       *time.Location
	logger    *logger.Logger
}

// Option configures an InboxService.
type Option func(*InboxService)

// WithLocation sets the zone used for date separators and time labels.
func WithLocation(loc *time.Location) Option {
	return func(s *InboxService) { s.loc = loc }
}

// NewInboxService creates an inbox service. autoReply may be nil.
func NewInboxService(st *store.Store, autoReply AutoReplier, log *logger.Logger, opts ...Option) *InboxService {
	s := &InboxService{
		store:     st,
		autoReply: autoReply,
		loc:       time.Local,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying conversation store.
func (s *InboxService) Store() *store.Store {
	return s.store
}

// ValidateContent checks message content.
func ValidateContent(content string) error {
	switch {
	case strings.TrimSpace(content) == "":
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidContent)
	case len(content) > MaxContentLength:
		return fmt.Errorf("%w: content exceeds %d bytes", ErrInvalidContent, MaxContentLength)
	case !utf8.ValidString(content):
		return fmt.Errorf("%w: content must be valid UTF-8", ErrInvalidContent)
	}
	return nil
}

// SendStaffMessage sends content as staff and, when the AI toggle is on and
// the thread's guest resolves, starts the auto-reply sequence.
func (s *InboxService) SendStaffMessage(ctx context.Context, threadID, content string) (*model.SendMessageResponse, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	msg, err := s.store.SendMessage(threadID, content, model.SenderStaff)
	if err != nil {
		return nil, fmt.Errorf("send staff message: %w", err)
	}

	resp := &model.SendMessageResponse{Message: &msg}
	if s.autoReply == nil || !s.store.State().AIEnabled {
		return resp, nil
	}

	if err := s.autoReply.Trigger(threadID); err != nil {
		s.logger.WithThread(threadID).Debug("auto-reply not started", zap.Error(err))
		return resp, nil
	}
	resp.AutoReply = true
	return resp, nil
}

// SendMessage sends a message from any sender. Staff messages go through
// SendStaffMessage; guest and ai messages are appended as-is.
func (s *InboxService) SendMessage(ctx context.Context, threadID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	if req.Sender == "" || req.Sender == model.SenderStaff {
		return s.SendStaffMessage(ctx, threadID, req.Content)
	}
	if err := ValidateContent(req.Content); err != nil {
		return nil, err
	}

	msg, err := s.store.SendMessage(threadID, req.Content, req.Sender)
	if err != nil {
		return nil, fmt.Errorf("send %s message: %w", req.Sender, err)
	}
	return &model.SendMessageResponse{Message: &msg}, nil
}

// CreateThread opens a thread for a phone number.
func (s *InboxService) CreateThread(ctx context.Context, phone string) (*model.CreateThreadResponse, error) {
	id, err := s.store.CreateThreadFromPhone(phone)
	if err != nil {
		return nil, err
	}
	return &model.CreateThreadResponse{ThreadID: id}, nil
}

// ListThreads returns the active view narrowed by the current search.
func (s *InboxService) ListThreads(ctx context.Context) *model.ListThreadsResponse {
	snap := s.store.Snapshot()
	visible := store.FilterThreads(snap.Threads, snap.State.CurrentView, snap.State.SearchQuery, s.store.Lookup())

	summaries := make([]model.ThreadSummary, len(visible))
	for i, t := range visible {
		summaries[i] = model.ThreadSummary{
			Thread:   t,
			Time:     store.TimeLabel(t.LastMessageAt, s.loc),
			IsTyping: snap.State.TypingThreadID == t.ID,
		}
		if g, ok := s.store.Lookup().Guest(t.GuestID); ok {
			summaries[i].Guest = &g
		}
	}

	return &model.ListThreadsResponse{
		View:        snap.State.CurrentView,
		Query:       snap.State.SearchQuery,
		Threads:     summaries,
		UnreadCount: snap.UnreadCount,
	}
}

// GetThread returns a thread with its guest and reservation. Either may be
// missing if it does not resolve.
func (s *InboxService) GetThread(ctx context.Context, threadID string) (*model.ThreadDetailResponse, error) {
	t, ok := s.store.Thread(threadID)
	if !ok {
		return nil, store.ErrThreadNotFound
	}

	dir := s.store.Lookup()
	resp := &model.ThreadDetailResponse{Thread: t, Reservations: []model.Reservation{}}
	if g, ok := dir.Guest(t.GuestID); ok {
		resp.Guest = &g
		if rs := dir.ReservationsForGuest(g.ID); len(rs) > 0 {
			resp.Reservations = rs
		}
	}
	if r, ok := dir.Reservation(t.ReservationID); ok {
		resp.Reservation = &r
	}
	return resp, nil
}

// ListMessages returns a thread's log grouped by local calendar day.
func (s *InboxService) ListMessages(ctx context.Context, threadID string) (*model.ListMessagesResponse, error) {
	if _, ok := s.store.Thread(threadID); !ok {
		return nil, store.ErrThreadNotFound
	}

	msgs := s.store.Messages(threadID)
	groups := store.GroupByDay(msgs, s.store.Now().In(s.loc))
	if groups == nil {
		groups = []model.DayGroup{}
	}

	return &model.ListMessagesResponse{
		ThreadID: threadID,
		Groups:   groups,
		Total:    len(msgs),
		Typing:   s.store.State().TypingThreadID == threadID,
	}, nil
}
