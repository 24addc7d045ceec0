package model

import (
	"time"
)

// EventType represents the kind of inbox state change.
type EventType string

const (
	EventMessageSent   EventType = "message_sent"
	EventThreadCreated EventType = "thread_created"
	EventThreadStatus  EventType = "thread_status"
	EventThreadRead    EventType = "thread_read"
	EventThreadUnread  EventType = "thread_unread"
	EventTyping        EventType = "typing"
	EventSelection     EventType = "selection"
	EventView          EventType = "view"
	EventAIToggle      EventType = "ai_toggle"
	EventComposing     EventType = "composing"
	EventGuestInfo     EventType = "guest_info"
	EventSearch        EventType = "search"
)

// InboxEvent is emitted after a command has changed inbox state.
type InboxEvent struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	ThreadID string         `json:"thread_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	At       time.Time      `json:"at"`
}

// HeartbeatEvent keeps an idle event stream open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent represents an error sent over an event stream.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
