// Package store holds the inbox conversation state and the commands that
// mutate it.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
)

var (
	// ErrThreadNotFound is returned when a message targets an unknown thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrInvalidPhone is returned when a phone number has fewer than 10 digits.
	ErrInvalidPhone = errors.New("phone number must contain at least 10 digits")
	// ErrInvalidSender is returned for a sender outside guest, staff and ai.
	ErrInvalidSender = errors.New("invalid message sender")
)

// EventSink receives inbox events after each committed command.
type EventSink interface {
	Publish(ctx context.Context, event *model.InboxEvent) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.logger = log }
}

// WithSink adds an event sink. Each sink is drained by its own goroutine,
// so a slow sink never holds up commands or reads.
func WithSink(sink EventSink) Option {
	return func(s *Store) { s.sinks = append(s.sinks, &sinkWorker{sink: sink}) }
}

// WithSinkBuffer sets how many events may queue for each sink before new
// ones are dropped.
func WithSinkBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.sinkBuffer = n
		}
	}
}

// WithAIEnabled sets the initial auto-reply toggle.
func WithAIEnabled(enabled bool) Option {
	return func(s *Store) { s.ui.AIEnabled = enabled }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store owns the thread list, per-thread message logs and UI state.
// Commands are serialized; readers get copies.
type Store struct {
	lookup lookup.Service

	mu       sync.Mutex
	threads  []*model.Thread
	index    map[string]*model.Thread
	messages map[string][]model.Message
	ui       model.UIState

	// dispatchMu keeps event delivery in commit order. Nothing blocks
	// while holding it.
	dispatchMu sync.Mutex
	sinks      []*sinkWorker
	sinkBuffer int
	subs       map[int]chan model.InboxEvent
	nextSub    int
	closed     bool
	sinkWG     sync.WaitGroup

	now    func() time.Time
	newID  func() string
	logger *logger.Logger
}

// New creates a store seeded with threads (in list order) and messages.
func New(dir lookup.Service, threads []model.Thread, messages []model.Message, opts ...Option) *Store {
	s := &Store{
		lookup:     dir,
		index:      make(map[string]*model.Thread, len(threads)),
		messages:   make(map[string][]model.Message, len(threads)),
		ui:         model.UIState{CurrentView: model.StatusInbox},
		subs:       make(map[int]chan model.InboxEvent),
		sinkBuffer: 1024,
		now:        time.Now,
		newID:      func() string { return uuid.Must(uuid.NewV7()).String() },
		logger:     logger.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range threads {
		t := threads[i]
		if !t.Status.Valid() {
			t.Status = model.StatusInbox
		}
		if _, dup := s.index[t.ID]; dup {
			continue
		}
		s.threads = append(s.threads, &t)
		s.index[t.ID] = &t
	}

	for _, m := range messages {
		s.messages[m.ThreadID] = append(s.messages[m.ThreadID], m)
	}
	for id := range s.messages {
		log := s.messages[id]
		sort.SliceStable(log, func(i, j int) bool { return log[i].Timestamp.Before(log[j].Timestamp) })
	}

	for _, w := range s.sinks {
		w.queue = make(chan model.InboxEvent, s.sinkBuffer)
		s.sinkWG.Add(1)
		go w.run(&s.sinkWG, s.logger)
	}

	s.refreshUnreadGauge()
	return s
}

// Close stops event delivery and waits for every sink to drain what was
// already queued. Subscriber channels are closed. Commands issued after
// Close still mutate state but emit nothing.
func (s *Store) Close() {
	s.dispatchMu.Lock()
	if s.closed {
		s.dispatchMu.Unlock()
		return
	}
	s.closed = true
	for _, w := range s.sinks {
		close(w.queue)
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.dispatchMu.Unlock()

	s.sinkWG.Wait()
}

// Lookup returns the reference data service the store resolves guests with.
func (s *Store) Lookup() lookup.Service {
	return s.lookup
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Threads returns every thread in list order.
func (s *Store) Threads() []model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Thread, len(s.threads))
	for i, t := range s.threads {
		out[i] = *t
	}
	return out
}

// Thread returns one thread.
func (s *Store) Thread(id string) (model.Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.index[id]
	if !ok {
		return model.Thread{}, false
	}
	return *t, true
}

// Messages returns a thread's log in timestamp order.
func (s *Store) Messages(threadID string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Message(nil), s.messages[threadID]...)
}

// State returns the UI state.
func (s *Store) State() model.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ui
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	State       model.UIState   `json:"state"`
	Threads     []model.Thread  `json:"threads"`
	Selected    *model.Thread   `json:"selected,omitempty"`
	Messages    []model.Message `json:"messages"`
	UnreadCount int             `json:"unread_count"`
}

// Snapshot returns all state under one lock acquisition.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.ui,
		Threads:     make([]model.Thread, len(s.threads)),
		UnreadCount: s.unreadCountLocked(),
	}
	for i, t := range s.threads {
		snap.Threads[i] = *t
	}
	if t, ok := s.index[s.ui.SelectedThreadID]; ok {
		sel := *t
		snap.Selected = &sel
		snap.Messages = append([]model.Message(nil), s.messages[t.ID]...)
	}
	return snap
}

// Subscribe returns a channel of events and a cancel function. A subscriber
// that falls behind by more than buffer events has its channel closed, so
// the consumer knows to resynchronize from a fresh Snapshot.
func (s *Store) Subscribe(buffer int) (<-chan model.InboxEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan model.InboxEvent, buffer)

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
		if cur, ok := s.subs[id]; ok && cur == ch {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// apply runs fn under the state lock and hands the events it returns to
// subscribers and sink queues in commit order. dispatchMu is taken before
// mu is released so two commands cannot interleave their events; every
// send under it is non-blocking.
func (s *Store) apply(fn func() []model.InboxEvent) {
	s.mu.Lock()
	events := fn()
	s.dispatchMu.Lock()
	s.mu.Unlock()
	defer s.dispatchMu.Unlock()

	if s.closed {
		return
	}

	for _, ev := range events {
		for id, ch := range s.subs {
			select {
			case ch <- ev:
			default:
				delete(s.subs, id)
				close(ch)
				metrics.RecordDroppedEvent("subscriber")
				s.logger.Warn("subscriber fell behind, closing subscription",
					zap.String("event", string(ev.Type)),
				)
			}
		}
		for _, w := range s.sinks {
			select {
			case w.queue <- ev:
			default:
				metrics.RecordDroppedEvent("sink")
				s.logger.Warn("sink queue full, dropping inbox event",
					zap.String("event", string(ev.Type)),
					zap.String("thread_id", ev.ThreadID),
				)
			}
		}
	}
}

type sinkWorker struct {
	sink  EventSink
	queue chan model.InboxEvent
}

func (w *sinkWorker) run(wg *sync.WaitGroup, log *logger.Logger) {
	defer wg.Done()
	for ev := range w.queue {
		if err := w.sink.Publish(context.Background(), &ev); err != nil {
			log.Warn("failed to publish inbox event",
				zap.String("event", string(ev.Type)),
				zap.String("thread_id", ev.ThreadID),
				zap.Error(err),
			)
		}
	}
}

func (s *Store) event(typ model.EventType, threadID string, meta map[string]any) model.InboxEvent {
	return model.InboxEvent{
		ID:       s.newID(),
		Type:     typ,
		ThreadID: threadID,
		Metadata: meta,
		At:       s.now(),
	}
}

func (s *Store) unreadCountLocked() int {
	n := 0
	for _, t := range s.threads {
		if t.Status == model.StatusInbox && t.IsUnread {
			n++
		}
	}
	return n
}

func (s *Store) refreshUnreadGauge() {
	metrics.UnreadThreads.Set(float64(s.unreadCountLocked()))
}
