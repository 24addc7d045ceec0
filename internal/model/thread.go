// Package model defines data structures for the guest messaging inbox.
package model

import (
	"time"
)

// ThreadStatus is the view a thread currently belongs to.
type ThreadStatus string

const (
	StatusInbox    ThreadStatus = "inbox"
	StatusArchived ThreadStatus = "archived"
	StatusBlocked  ThreadStatus = "blocked"
)

// View selects one of the three mutually exclusive thread buckets.
type View = ThreadStatus

// Valid reports whether s is one of the known statuses.
func (s ThreadStatus) Valid() bool {
	switch s {
	case StatusInbox, StatusArchived, StatusBlocked:
		return true
	}
	return false
}

// Thread is a conversation with exactly one guest.
type Thread struct {
	ID            string `json:"id"`
	GuestID       string `json:"guest_id"`
	ReservationID string `json:"reservation_id"`

	// Cached preview of the most recent message
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`

	IsUnread bool         `json:"is_unread"`
	Status   ThreadStatus `json:"status"`
}

// UIState holds the process-wide presentation state.
type UIState struct {
	SelectedThreadID string `json:"selected_thread_id"`
	AIEnabled        bool   `json:"ai_enabled"`
	IsComposingNew   bool   `json:"is_composing_new"`
	ComposingPhone   string `json:"composing_phone"`
	TypingThreadID   string `json:"typing_thread_id"`
	IsGuestInfoOpen  bool   `json:"is_guest_info_open"`
	CurrentView      View   `json:"current_view"`
	SearchQuery      string `json:"search_query"`
}

// ThreadSummary is a thread row joined with its guest for rendering.
type ThreadSummary struct {
	Thread
	Guest    *Guest `json:"guest,omitempty"`
	Time     string `json:"time"`
	IsTyping bool   `json:"is_typing"`
}

// ListThreadsResponse is the response for listing the active view.
type ListThreadsResponse struct {
	View        View            `json:"view"`
	Query       string          `json:"query,omitempty"`
	Threads     []ThreadSummary `json:"threads"`
	UnreadCount int             `json:"unread_count"`
}

// ThreadDetailResponse is a thread joined with its guest and reservation.
// Reservations lists every stay the guest holds, for the guest info panel.
type ThreadDetailResponse struct {
	Thread       Thread        `json:"thread"`
	Guest        *Guest        `json:"guest,omitempty"`
	Reservation  *Reservation  `json:"reservation,omitempty"`
	Reservations []Reservation `json:"reservations"`
}

// CreateThreadRequest is the request to open a thread for a phone number.
type CreateThreadRequest struct {
	Phone string `json:"phone"`
}

// CreateThreadResponse is the response after creating an ad-hoc thread.
type CreateThreadResponse struct {
	ThreadID string `json:"thread_id"`
}
