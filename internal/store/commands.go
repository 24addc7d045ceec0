package store

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
)

// minPhoneDigits is the fewest digits a new conversation's phone may have.
const minPhoneDigits = 10

// SelectThread selects a thread and marks it read. Unknown ids are stored
// as the selection and render nothing.
func (s *Store) SelectThread(threadID string) {
	s.apply(func() []model.InboxEvent {
		return s.selectLocked(threadID)
	})
}

func (s *Store) selectLocked(threadID string) []model.InboxEvent {
	s.ui.SelectedThreadID = threadID
	events := []model.InboxEvent{s.event(model.EventSelection, threadID, nil)}

	if t, ok := s.index[threadID]; ok && t.IsUnread {
		t.IsUnread = false
		s.refreshUnreadGauge()
		events = append(events, s.event(model.EventThreadRead, threadID, nil))
	}
	return events
}

// SetAIEnabled toggles whether staff sends trigger the auto-reply sequence.
func (s *Store) SetAIEnabled(enabled bool) {
	s.apply(func() []model.InboxEvent {
		s.ui.AIEnabled = enabled
		return []model.InboxEvent{s.event(model.EventAIToggle, "", map[string]any{"enabled": enabled})}
	})
}

// SendMessage reopens an archived or blocked thread, appends a new message
// and refreshes the thread preview, all as one transition.
func (s *Store) SendMessage(threadID, content string, sender model.Sender) (model.Message, error) {
	if !sender.Valid() {
		return model.Message{}, ErrInvalidSender
	}

	var (
		msg model.Message
		err error
	)
	s.apply(func() []model.InboxEvent {
		t, ok := s.index[threadID]
		if !ok {
			err = ErrThreadNotFound
			return nil
		}

		var events []model.InboxEvent
		if t.Status == model.StatusArchived || t.Status == model.StatusBlocked {
			events = append(events, s.setStatusLocked(t, model.StatusInbox))
		}

		msg = model.Message{
			ID:        s.newID(),
			ThreadID:  threadID,
			Sender:    sender,
			Content:   content,
			Timestamp: s.now(),
			Channel:   model.ChannelSMS,
			Status:    model.MessageStatusDelivered,
		}
		s.messages[threadID] = append(s.messages[threadID], msg)

		t.LastMessage = msg.Content
		t.LastMessageAt = msg.Timestamp
		t.IsUnread = sender == model.SenderGuest
		s.refreshUnreadGauge()

		metrics.MessagesTotal.WithLabelValues(string(sender)).Inc()

		return append(events, s.event(model.EventMessageSent, threadID, map[string]any{
			"message_id": msg.ID,
			"sender":     string(sender),
		}))
	})
	if err != nil {
		return model.Message{}, err
	}

	s.logger.Debug("message sent",
		zap.String("thread_id", threadID),
		zap.String("message_id", msg.ID),
		zap.String("sender", string(sender)),
	)
	return msg, nil
}

// StartNewConversation enters composing mode and clears the selection.
func (s *Store) StartNewConversation() {
	s.apply(func() []model.InboxEvent {
		s.ui.IsComposingNew = true
		s.ui.ComposingPhone = ""
		s.ui.SelectedThreadID = ""
		return []model.InboxEvent{
			s.event(model.EventComposing, "", map[string]any{"composing": true}),
			s.event(model.EventSelection, "", nil),
		}
	})
}

// UpdateComposingPhone stores the draft phone number verbatim.
func (s *Store) UpdateComposingPhone(phone string) {
	s.apply(func() []model.InboxEvent {
		s.ui.ComposingPhone = phone
		return []model.InboxEvent{s.event(model.EventComposing, "", map[string]any{"composing": s.ui.IsComposingNew})}
	})
}

// CreateThreadFromPhone opens a thread for a bare phone number, creating an
// ad-hoc guest for it. It returns ErrInvalidPhone without touching state
// when fewer than 10 digits remain after stripping everything else.
func (s *Store) CreateThreadFromPhone(phone string) (string, error) {
	if countDigits(phone) < minPhoneDigits {
		return "", ErrInvalidPhone
	}

	var threadID string
	s.apply(func() []model.InboxEvent {
		now := s.now()
		id := s.newID()
		guestID := "guest-phone-" + id
		threadID = "thread-" + id

		s.lookup.UpsertGuest(model.Guest{
			ID:    guestID,
			Name:  phone,
			Phone: phone,
		})

		t := &model.Thread{
			ID:            threadID,
			GuestID:       guestID,
			LastMessageAt: now,
			Status:        model.StatusInbox,
		}
		s.threads = append([]*model.Thread{t}, s.threads...)
		s.index[threadID] = t
		s.messages[threadID] = []model.Message{}

		s.ui.SelectedThreadID = threadID
		s.ui.IsComposingNew = false
		s.ui.ComposingPhone = ""

		metrics.ThreadsCreatedTotal.Inc()

		return []model.InboxEvent{
			s.event(model.EventThreadCreated, threadID, map[string]any{"guest_id": guestID}),
			s.event(model.EventSelection, threadID, nil),
			s.event(model.EventComposing, "", map[string]any{"composing": false}),
		}
	})

	s.logger.Info("thread created from phone", zap.String("thread_id", threadID))
	return threadID, nil
}

// CancelComposing leaves composing mode and discards the draft.
func (s *Store) CancelComposing() {
	s.apply(func() []model.InboxEvent {
		s.ui.IsComposingNew = false
		s.ui.ComposingPhone = ""
		return []model.InboxEvent{s.event(model.EventComposing, "", map[string]any{"composing": false})}
	})
}

// SetGuestTyping sets the typing indicator target. An empty id clears it.
func (s *Store) SetGuestTyping(threadID string) {
	s.apply(func() []model.InboxEvent {
		s.ui.TypingThreadID = threadID
		return []model.InboxEvent{s.event(model.EventTyping, threadID, map[string]any{"typing": threadID != ""})}
	})
}

// ClearGuestTyping clears the typing indicator only if it still points at
// threadID, so a late beat cannot clear another thread's indicator.
func (s *Store) ClearGuestTyping(threadID string) {
	s.apply(func() []model.InboxEvent {
		if s.ui.TypingThreadID != threadID {
			return nil
		}
		s.ui.TypingThreadID = ""
		return []model.InboxEvent{s.event(model.EventTyping, threadID, map[string]any{"typing": false})}
	})
}

// ToggleGuestInfo flips the guest info panel.
func (s *Store) ToggleGuestInfo() {
	s.apply(func() []model.InboxEvent {
		s.ui.IsGuestInfoOpen = !s.ui.IsGuestInfoOpen
		return []model.InboxEvent{s.event(model.EventGuestInfo, "", map[string]any{"open": s.ui.IsGuestInfoOpen})}
	})
}

// CloseGuestInfo closes the guest info panel.
func (s *Store) CloseGuestInfo() {
	s.apply(func() []model.InboxEvent {
		return s.closeGuestInfoLocked()
	})
}

func (s *Store) closeGuestInfoLocked() []model.InboxEvent {
	s.ui.IsGuestInfoOpen = false
	return []model.InboxEvent{s.event(model.EventGuestInfo, "", map[string]any{"open": false})}
}

// SetCurrentView switches the active view and selects its first thread,
// or clears the selection when the view is empty.
func (s *Store) SetCurrentView(view model.View) {
	if !view.Valid() {
		return
	}
	s.apply(func() []model.InboxEvent {
		s.ui.CurrentView = view
		events := []model.InboxEvent{s.event(model.EventView, "", map[string]any{"view": string(view)})}
		return append(events, s.selectFirstLocked(view)...)
	})
}

func (s *Store) selectFirstLocked(view model.View) []model.InboxEvent {
	for _, t := range s.threads {
		if t.Status == view {
			return s.selectLocked(t.ID)
		}
	}
	s.ui.SelectedThreadID = ""
	return []model.InboxEvent{s.event(model.EventSelection, "", nil)}
}

// ArchiveThread moves a thread to the archived view.
func (s *Store) ArchiveThread(threadID string) {
	s.removeFromInbox(threadID, model.StatusArchived)
}

// BlockThread moves a thread to the blocked view.
func (s *Store) BlockThread(threadID string) {
	s.removeFromInbox(threadID, model.StatusBlocked)
}

// removeFromInbox marks the thread read, closes the guest panel and falls
// the selection back to the first inbox thread.
func (s *Store) removeFromInbox(threadID string, status model.ThreadStatus) {
	s.apply(func() []model.InboxEvent {
		t, ok := s.index[threadID]
		if !ok {
			return nil
		}

		var events []model.InboxEvent
		if t.Status != status {
			events = append(events, s.setStatusLocked(t, status))
		}
		t.IsUnread = false
		s.refreshUnreadGauge()

		events = append(events, s.closeGuestInfoLocked()...)
		return append(events, s.selectFirstLocked(model.StatusInbox)...)
	})
}

// ReopenThread moves an archived thread back to the inbox.
func (s *Store) ReopenThread(threadID string) {
	s.returnToInbox(threadID)
}

// UnblockThread moves a blocked thread back to the inbox.
func (s *Store) UnblockThread(threadID string) {
	s.returnToInbox(threadID)
}

func (s *Store) returnToInbox(threadID string) {
	s.apply(func() []model.InboxEvent {
		t, ok := s.index[threadID]
		if !ok || t.Status == model.StatusInbox {
			return nil
		}
		return []model.InboxEvent{s.setStatusLocked(t, model.StatusInbox)}
	})
}

// MarkThreadAsUnread forces the unread flag on.
func (s *Store) MarkThreadAsUnread(threadID string) {
	s.apply(func() []model.InboxEvent {
		t, ok := s.index[threadID]
		if !ok {
			return nil
		}
		t.IsUnread = true
		s.refreshUnreadGauge()
		return []model.InboxEvent{s.event(model.EventThreadUnread, threadID, nil)}
	})
}

// SetSearchQuery stores the free-text thread filter.
func (s *Store) SetSearchQuery(query string) {
	s.apply(func() []model.InboxEvent {
		s.ui.SearchQuery = query
		return []model.InboxEvent{s.event(model.EventSearch, "", map[string]any{"query": query})}
	})
}

// setStatusLocked changes status only; callers own every other field.
func (s *Store) setStatusLocked(t *model.Thread, to model.ThreadStatus) model.InboxEvent {
	from := t.Status
	t.Status = to
	s.refreshUnreadGauge()
	metrics.RecordTransition(string(from), string(to))

	return s.event(model.EventThreadStatus, t.ID, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
}

func countDigits(s string) int {
	return len(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s))
}

// isBlank reports whether s has no visible characters.
func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
