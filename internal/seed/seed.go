// Package seed loads demo guests, reservations, threads and messages from
// YAML.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/guest-messaging/internal/model"
)

//go:embed data/demo.yaml
var demo []byte

// Data is a loaded seed, ready for lookup.NewDirectory and store.New.
type Data struct {
	Guests       []model.Guest
	Reservations []model.Reservation
	Threads      []model.Thread
	Messages     []model.Message
}

type document struct {
	Guests       []model.Guest       `yaml:"guests"`
	Reservations []model.Reservation `yaml:"reservations"`
	Threads      []threadDoc         `yaml:"threads"`
}

type threadDoc struct {
	ID            string             `yaml:"id"`
	GuestID       string             `yaml:"guest_id"`
	ReservationID string             `yaml:"reservation_id"`
	Status        model.ThreadStatus `yaml:"status"`
	Unread        bool               `yaml:"unread"`
	// Ago places an empty thread in time.
	Ago      time.Duration `yaml:"ago"`
	Messages []messageDoc  `yaml:"messages"`
}

type messageDoc struct {
	Sender  model.Sender  `yaml:"sender"`
	Content string        `yaml:"content"`
	Ago     time.Duration `yaml:"ago"`
}

// Default returns the embedded demo seed relative to now.
func Default(now time.Time) (*Data, error) {
	return Load(bytes.NewReader(demo), now)
}

// LoadFile reads a seed file relative to now.
func LoadFile(path string, now time.Time) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f, now)
}

// Load decodes a seed document. Message times are now minus each ago, and
// each thread's preview is taken from its latest message.
func Load(r io.Reader, now time.Time) (*Data, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	data := &Data{
		Guests:       doc.Guests,
		Reservations: doc.Reservations,
		Threads:      make([]model.Thread, 0, len(doc.Threads)),
	}

	seen := make(map[string]bool, len(doc.Threads))
	for _, td := range doc.Threads {
		if td.ID == "" || td.GuestID == "" {
			return nil, fmt.Errorf("thread %q: id and guest_id are required", td.ID)
		}
		if seen[td.ID] {
			return nil, fmt.Errorf("thread %q: duplicate id", td.ID)
		}
		seen[td.ID] = true

		status := td.Status
		if status == "" {
			status = model.StatusInbox
		}
		if !status.Valid() {
			return nil, fmt.Errorf("thread %q: unknown status %q", td.ID, status)
		}

		th := model.Thread{
			ID:            td.ID,
			GuestID:       td.GuestID,
			ReservationID: td.ReservationID,
			LastMessageAt: now.Add(-td.Ago),
			IsUnread:      td.Unread,
			Status:        status,
		}

		for i, md := range td.Messages {
			if !md.Sender.Valid() {
				return nil, fmt.Errorf("thread %q message %d: unknown sender %q", td.ID, i, md.Sender)
			}
			if md.Ago < 0 {
				return nil, fmt.Errorf("thread %q message %d: ago must not be negative", td.ID, i)
			}
			msg := model.Message{
				ID:        fmt.Sprintf("%s-m%d", td.ID, i+1),
				ThreadID:  td.ID,
				Sender:    md.Sender,
				Content:   md.Content,
				Timestamp: now.Add(-md.Ago),
				Channel:   model.ChannelSMS,
				Status:    model.MessageStatusDelivered,
			}
			data.Messages = append(data.Messages, msg)

			if i == 0 || !msg.Timestamp.Before(th.LastMessageAt) {
				th.LastMessage = msg.Content
				th.LastMessageAt = msg.Timestamp
			}
		}
		data.Threads = append(data.Threads, th)
	}
	return data, nil
}
