// Package autoreply plays the scripted guest reply that follows a staff
// message when the AI toggle is on: the guest starts typing, a staff
// suggestion is generated and discarded, the guest types again and finally
// a generated guest reply lands in the thread.
package autoreply

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/textgen"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
	"github.com/capitalize-ai/guest-messaging/pkg/metrics"
)

var (
	// ErrThreadNotFound is returned when triggering on an unknown thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrGuestNotFound is returned when the thread's guest does not resolve.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("orchestrator stopped")
)

// Outcome labels for metrics.AutoReplyTotal.
const (
	outcomeSent             = "sent"
	outcomeSuggestionFailed = "suggestion_failed"
	outcomeReplyFailed      = "reply_failed"
	outcomeSendFailed       = "send_failed"
	outcomeCanceled         = "canceled"
)

// Store is the subset of the conversation store the sequence drives.
type Store interface {
	Thread(id string) (model.Thread, bool)
	Messages(threadID string) []model.Message
	Lookup() lookup.Service
	SetGuestTyping(threadID string)
	ClearGuestTyping(threadID string)
	SendMessage(threadID, content string, sender model.Sender) (model.Message, error)
}

// Config holds the delay before each beat.
type Config struct {
	TypingDelay       time.Duration
	SuggestDelay      time.Duration
	SecondTypingDelay time.Duration
	ReplyDelay        time.Duration
}

// DefaultConfig returns the demo pacing.
func DefaultConfig() Config {
	return Config{
		TypingDelay:       500 * time.Millisecond,
		SuggestDelay:      1500 * time.Millisecond,
		SecondTypingDelay: 1500 * time.Millisecond,
		ReplyDelay:        2000 * time.Millisecond,
	}
}

// Orchestrator schedules auto-reply sequences.
type Orchestrator struct {
	store  Store
	gen    textgen.Service
	sched  Scheduler
	cfg    Config
	logger *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[uint64]Timer
	nextID  uint64
	stopped bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScheduler replaces the timer-based scheduler.
func WithScheduler(s Scheduler) Option {
	return func(o *Orchestrator) { o.sched = s }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = log }
}

// New creates an orchestrator.
func New(st Store, gen textgen.Service, cfg Config, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:   st,
		gen:     gen,
		sched:   TimerScheduler{},
		cfg:     cfg,
		logger:  logger.Global(),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("autoreply")
	return o
}

// Trigger starts a sequence for threadID. The guest, reservation and the
// last messages of the thread are captured now; later beats use that
// snapshot.
func (o *Orchestrator) Trigger(threadID string) error {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return ErrThreadNotFound
	}
	guest, ok := o.store.Lookup().Guest(th.GuestID)
	if !ok {
		return ErrGuestNotFound
	}
	var res *model.Reservation
	if r, ok := o.store.Lookup().Reservation(th.ReservationID); ok {
		res = &r
	}

	r := &run{
		o:        o,
		threadID: threadID,
		guest:    guest,
		res:      res,
		window:   textgen.Window(textgen.TurnsFromMessages(o.store.Messages(threadID))),
		log:      o.logger.WithThread(threadID),
	}
	return o.schedule(o.cfg.TypingDelay, r.startTyping)
}

// Stop cancels every pending beat and any in-flight generation. Triggers
// after Stop return ErrStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	n := 0
	for id, t := range o.pending {
		if t.Stop() {
			n++
		}
		delete(o.pending, id)
	}
	o.mu.Unlock()

	o.cancel()
	if n > 0 {
		metrics.AutoReplyTotal.WithLabelValues(outcomeCanceled).Add(float64(n))
		o.logger.Info("canceled pending auto-reply beats", zap.Int("count", n))
	}
}

// Pending reports how many beats are waiting to fire.
func (o *Orchestrator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Orchestrator) schedule(d time.Duration, fn func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return ErrStopped
	}
	id := o.nextID
	o.nextID++
	o.pending[id] = o.sched.AfterFunc(d, func() {
		o.mu.Lock()
		delete(o.pending, id)
		stopped := o.stopped
		o.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	return nil
}

// run is one sequence. Each beat schedules the next only once its own work
// has finished.
type run struct {
	o          *Orchestrator
	threadID   string
	guest      model.Guest
	res        *model.Reservation
	window     []textgen.Turn
	suggestion string
	log        *logger.Logger
}

func (r *run) startTyping() {
	r.o.store.SetGuestTyping(r.threadID)
	r.next(r.o.cfg.SuggestDelay, r.suggest)
}

// suggest generates the staff suggestion. It is only used as context for
// the guest reply and is never added to the thread.
func (r *run) suggest() {
	text, err := r.o.gen.Generate(r.o.ctx, textgen.StaffPersona(r.guest, r.res), r.window)
	r.o.store.ClearGuestTyping(r.threadID)
	if err != nil {
		r.abort(outcomeSuggestionFailed, err)
		return
	}
	r.suggestion = text
	r.next(r.o.cfg.SecondTypingDelay, r.typeAgain)
}

func (r *run) typeAgain() {
	r.o.store.SetGuestTyping(r.threadID)
	r.next(r.o.cfg.ReplyDelay, r.reply)
}

func (r *run) reply() {
	history := append(append([]textgen.Turn(nil), r.window...), textgen.Turn{
		Role: textgen.RoleAssistant,
		Text: r.suggestion,
	})

	text, err := r.o.gen.Generate(r.o.ctx, textgen.GuestPersona(r.guest, r.res), history)
	r.o.store.ClearGuestTyping(r.threadID)
	if err != nil {
		r.abort(outcomeReplyFailed, err)
		return
	}

	msg, err := r.o.store.SendMessage(r.threadID, text, model.SenderGuest)
	if err != nil {
		r.abort(outcomeSendFailed, err)
		return
	}
	metrics.AutoReplyTotal.WithLabelValues(outcomeSent).Inc()
	r.log.Info("auto-reply delivered", zap.String("message_id", msg.ID))
}

func (r *run) next(d time.Duration, fn func()) {
	if err := r.o.schedule(d, fn); err != nil {
		r.o.store.ClearGuestTyping(r.threadID)
		r.log.Debug("auto-reply not rescheduled", zap.Error(err))
	}
}

func (r *run) abort(outcome string, err error) {
	metrics.AutoReplyTotal.WithLabelValues(outcome).Inc()
	r.log.Warn("auto-reply aborted", zap.String("outcome", outcome), zap.Error(err))
}
