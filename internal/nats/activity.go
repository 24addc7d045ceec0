package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
)

const (
	// StreamName is the name of the inbox activity stream.
	StreamName = "INBOX_ACTIVITY"

	// SubjectPrefix is the prefix for all activity subjects.
	SubjectPrefix = "inbox"

	// noThread stands in for events that are not about one thread.
	noThread = "_"
)

// publisher is the part of JetStream the mirror writes through.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// ActivityStream mirrors inbox events into JetStream. It is advisory: the
// in-memory store stays the source of truth and nothing is read back into it.
type ActivityStream struct {
	js  jetstream.JetStream
	pub publisher
}

// NewActivityStream creates an activity stream on client.
func NewActivityStream(client *Client) *ActivityStream {
	return &ActivityStream{js: client.JetStream(), pub: client.JetStream()}
}

// EnsureStream creates the activity stream if it does not exist.
func (a *ActivityStream) EnsureStream(ctx context.Context) error {
	if _, err := a.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := a.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
		Description: "Guest inbox activity mirror",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// ActivitySubject returns the subject for an event on a thread.
func ActivitySubject(threadID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(threadID), eventType)
}

// ThreadFilter returns the filter subject for all activity on a thread.
func ThreadFilter(threadID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, subjectToken(threadID))
}

// subjectToken makes an id safe to use as one subject token.
func subjectToken(id string) string {
	if id == "" {
		return noThread
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}

// Publish implements store.EventSink.
func (a *ActivityStream) Publish(ctx context.Context, event *model.InboxEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := a.pub.Publish(ctx, ActivitySubject(event.ThreadID, event.Type), data, jetstream.WithMsgID(event.ID)); err != nil {
		metrics.ActivityPublishErrors.Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// History returns up to limit mirrored events for a thread, oldest first.
func (a *ActivityStream) History(ctx context.Context, threadID string, limit int) ([]model.InboxEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	consumer, err := a.js.OrderedConsumer(ctx, StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{ThreadFilter(threadID)},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.FetchNoWait(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}

	var events []model.InboxEvent
	for msg := range batch.Messages() {
		var ev model.InboxEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("batch error: %w", err)
	}
	return events, nil
}
