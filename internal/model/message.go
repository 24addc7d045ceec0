package model

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderGuest Sender = "guest"
	SenderStaff Sender = "staff"
	SenderAI    Sender = "ai"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	switch s {
	case SenderGuest, SenderStaff, SenderAI:
		return true
	}
	return false
}

// Channel is the advisory delivery channel of a message.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WhatsApp"
	ChannelEmail    Channel = "Email"
	ChannelWeb      Channel = "Web"
)

// MessageStatus is advisory delivery metadata. There is no real transport.
type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message is a single immutable entry in a thread's log.
type Message struct {
	// Identity
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`

	// Content
	Sender  Sender `json:"sender"`
	Content string `json:"content"`

	Timestamp time.Time `json:"timestamp"`

	// Delivery metadata
	Channel Channel       `json:"channel,omitempty"`
	Status  MessageStatus `json:"status,omitempty"`
}

// SendMessageRequest is the request to send a staff message.
type SendMessageRequest struct {
	Content string `json:"content"`
	Sender  Sender `json:"sender,omitempty"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message   *Message `json:"message"`
	AutoReply bool     `json:"auto_reply"`
}

// DayGroup is a run of messages sharing one local calendar day.
type DayGroup struct {
	Label    string    `json:"label"`
	Messages []Message `json:"messages"`
}

// ListMessagesResponse is the response for listing a thread's messages.
type ListMessagesResponse struct {
	ThreadID string     `json:"thread_id"`
	Groups   []DayGroup `json:"groups"`
	Total    int        `json:"total"`
	Typing   bool       `json:"typing"`
}
