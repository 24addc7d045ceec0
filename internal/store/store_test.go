package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/store"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

// recordingSink collects published events. release, when set, holds every
// Publish until it is closed.
type recordingSink struct {
	release chan struct{}

	mu     sync.Mutex
	events []model.InboxEvent
}

func (r *recordingSink) Publish(_ context.Context, ev *model.InboxEvent) error {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordingSink) Events() []model.InboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.InboxEvent(nil), r.events...)
}

func eventTypes(events []model.InboxEvent) []model.EventType {
	out := make([]model.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func seedDirectory() *lookup.Directory {
	return lookup.NewDirectory(
		[]model.Guest{
			{ID: "guest-emily", Name: "Emily Smith", Phone: "+15005550012", Email: "emily.smith@gmail.com"},
			{ID: "guest-miguel", Name: "Miguel Santana", Phone: "+15005550013", Email: "miguel.santana@example.com"},
			{ID: "guest-brooklyn", Name: "Brooklyn Simmons", Phone: "+15005550014", Email: "brooklyn.simmons@example.com"},
			{ID: "guest-sarah", Name: "Sarah Martinez", Phone: "+15005550020"},
			{ID: "guest-robert", Name: "Robert Thompson", Phone: "+15005550023"},
		},
		[]model.Reservation{
			{ID: "res-emily-jul", GuestID: "guest-emily", Room: "153"},
		},
	)
}

func newTestStore(t *testing.T, opts ...store.Option) (*store.Store, *testClock) {
	t.Helper()

	clock := &testClock{t: time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)}
	threads := []model.Thread{
		{ID: "t-emily", GuestID: "guest-emily", ReservationID: "res-emily-jul", LastMessage: "Can I get towels?", IsUnread: true, Status: model.StatusInbox},
		{ID: "t-miguel", GuestID: "guest-miguel", LastMessage: "Thanks!", IsUnread: true, Status: model.StatusInbox},
		{ID: "t-brooklyn", GuestID: "guest-brooklyn", Status: model.StatusInbox},
		{ID: "t-sarah", GuestID: "guest-sarah", Status: model.StatusArchived},
		{ID: "t-robert", GuestID: "guest-robert", Status: model.StatusBlocked},
		{ID: "t-ghost", GuestID: "guest-missing", Status: model.StatusInbox},
	}
	messages := []model.Message{
		{ID: "m2", ThreadID: "t-emily", Sender: model.SenderGuest, Content: "Can I get towels?", Timestamp: clock.t.Add(-time.Hour)},
		{ID: "m1", ThreadID: "t-emily", Sender: model.SenderStaff, Content: "Welcome!", Timestamp: clock.t.Add(-2 * time.Hour)},
	}

	base := []store.Option{
		store.WithClock(clock.Now),
		store.WithIDGenerator(sequentialIDs()),
		store.WithLogger(logger.NewNop()),
	}
	s := store.New(seedDirectory(), threads, messages, append(base, opts...)...)
	t.Cleanup(s.Close)
	return s, clock
}

func mustThread(t *testing.T, s *store.Store, id string) model.Thread {
	t.Helper()
	th, ok := s.Thread(id)
	require.True(t, ok, "thread %s not found", id)
	return th
}

func TestNewOrdersMessagesByTimestamp(t *testing.T) {
	s, _ := newTestStore(t)

	msgs := s.Messages("t-emily")
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestSendMessageReturnsThreadToInbox(t *testing.T) {
	tests := []struct {
		name     string
		threadID string
	}{
		{name: "archived", threadID: "t-sarah"},
		{name: "blocked", threadID: "t-robert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock := newTestStore(t)
			clock.Advance(time.Minute)

			msg, err := s.SendMessage(tt.threadID, "Following up", model.SenderStaff)
			require.NoError(t, err)

			th := mustThread(t, s, tt.threadID)
			assert.Equal(t, model.StatusInbox, th.Status)
			assert.Equal(t, "Following up", th.LastMessage)
			assert.True(t, th.LastMessageAt.Equal(clock.t), "preview time %v", th.LastMessageAt)

			log := s.Messages(tt.threadID)
			require.Len(t, log, 1)
			assert.Equal(t, msg.ID, log[0].ID)
			assert.Equal(t, model.ChannelSMS, msg.Channel)
			assert.Equal(t, model.MessageStatusDelivered, msg.Status)
		})
	}
}

func TestSendMessageUnreadFollowsSender(t *testing.T) {
	tests := []struct {
		sender model.Sender
		unread bool
	}{
		{sender: model.SenderGuest, unread: true},
		{sender: model.SenderStaff, unread: false},
		{sender: model.SenderAI, unread: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.sender), func(t *testing.T) {
			s, _ := newTestStore(t)

			_, err := s.SendMessage("t-emily", "hello", tt.sender)
			require.NoError(t, err)
			assert.Equal(t, tt.unread, mustThread(t, s, "t-emily").IsUnread)
		})
	}
}

func TestSendMessageUnknownThread(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.SendMessage("t-nope", "hello", model.SenderStaff)
	require.ErrorIs(t, err, store.ErrThreadNotFound)
	assert.Empty(t, s.Messages("t-nope"))
}

func TestSendMessageInvalidSender(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.SendMessage("t-emily", "hello", model.Sender("bot"))
	require.ErrorIs(t, err, store.ErrInvalidSender)
	assert.Len(t, s.Messages("t-emily"), 2, "log should be unchanged")
}

func TestSendMessageEventsInCommitOrder(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestStore(t, store.WithSink(sink))

	_, err := s.SendMessage("t-sarah", "hi again", model.SenderGuest)
	require.NoError(t, err)
	s.Close()

	events := sink.Events()
	require.Equal(t, []model.EventType{model.EventThreadStatus, model.EventMessageSent}, eventTypes(events))
	assert.Equal(t, "archived", events[0].Metadata["from"])
	assert.Equal(t, "inbox", events[0].Metadata["to"])
}

func TestSlowSinkDoesNotBlockCommandsOrReads(t *testing.T) {
	sink := &recordingSink{release: make(chan struct{})}
	s, _ := newTestStore(t, store.WithSink(sink))

	done := make(chan model.UIState, 1)
	go func() {
		s.ArchiveThread("t-emily")
		s.SetAIEnabled(true)
		done <- s.State()
	}()

	select {
	case st := <-done:
		assert.True(t, st.AIEnabled)
	case <-time.After(time.Second):
		close(sink.release)
		t.Fatal("commands and reads waited on a blocked sink")
	}

	close(sink.release)
	s.Close()

	types := eventTypes(sink.Events())
	require.NotEmpty(t, types)
	assert.Equal(t, model.EventThreadStatus, types[0])
	assert.Equal(t, model.EventAIToggle, types[len(types)-1])
}

func TestFullSinkQueueDropsEvents(t *testing.T) {
	sink := &recordingSink{release: make(chan struct{})}
	s, _ := newTestStore(t, store.WithSink(sink), store.WithSinkBuffer(1))

	for i := 0; i < 10; i++ {
		s.SetSearchQuery(fmt.Sprintf("q%d", i))
	}
	assert.Equal(t, "q9", s.State().SearchQuery)

	close(sink.release)
	s.Close()

	// At most one event is in flight and one more queued.
	events := sink.Events()
	assert.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 2)
}

func TestCloseIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestStore(t, store.WithSink(sink))

	s.Close()
	s.Close()

	s.SetAIEnabled(true)
	assert.True(t, s.State().AIEnabled, "commands still apply after Close")
	assert.Empty(t, sink.Events())

	events, cancel := s.Subscribe(4)
	defer cancel()
	_, ok := <-events
	assert.False(t, ok, "subscriptions after Close start closed")
}

func TestCreateThreadFromPhoneRejectsShortNumbers(t *testing.T) {
	s, _ := newTestStore(t)
	s.StartNewConversation()
	s.UpdateComposingPhone("555-1234")

	id, err := s.CreateThreadFromPhone("555-1234")
	require.ErrorIs(t, err, store.ErrInvalidPhone)
	assert.Empty(t, id)
	assert.Len(t, s.Threads(), 6)

	st := s.State()
	assert.True(t, st.IsComposingNew)
	assert.Equal(t, "555-1234", st.ComposingPhone)
}

func TestCreateThreadFromPhone(t *testing.T) {
	s, clock := newTestStore(t)
	s.StartNewConversation()

	const phone = "+1 (555) 012-3456"
	id, err := s.CreateThreadFromPhone(phone)
	require.NoError(t, err)

	threads := s.Threads()
	require.Len(t, threads, 7)
	assert.Equal(t, id, threads[0].ID, "new thread goes to the top of the list")

	th := threads[0]
	assert.Equal(t, model.StatusInbox, th.Status)
	assert.Empty(t, th.ReservationID)
	assert.False(t, th.IsUnread)
	assert.True(t, th.LastMessageAt.Equal(clock.t), "LastMessageAt %v", th.LastMessageAt)
	assert.Empty(t, s.Messages(id))

	g, ok := s.Lookup().Guest(th.GuestID)
	require.True(t, ok)
	assert.Equal(t, phone, g.Name)
	assert.Equal(t, phone, g.Phone)
	assert.Empty(t, g.Initials)

	st := s.State()
	assert.Equal(t, id, st.SelectedThreadID)
	assert.False(t, st.IsComposingNew)
	assert.Empty(t, st.ComposingPhone)
}

func TestArchiveSelectedThreadFallsBackToInbox(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectThread("t-emily")
	s.ToggleGuestInfo()
	s.MarkThreadAsUnread("t-emily")

	s.ArchiveThread("t-emily")

	th := mustThread(t, s, "t-emily")
	assert.Equal(t, model.StatusArchived, th.Status)
	assert.False(t, th.IsUnread)

	st := s.State()
	assert.Equal(t, "t-miguel", st.SelectedThreadID)
	assert.False(t, st.IsGuestInfoOpen)
	assert.False(t, mustThread(t, s, "t-miguel").IsUnread, "newly selected thread is marked read")
}

func TestBlockLastInboxThreadClearsSelection(t *testing.T) {
	s := store.New(seedDirectory(),
		[]model.Thread{{ID: "t-only", GuestID: "guest-emily", Status: model.StatusInbox, IsUnread: true}},
		nil,
		store.WithLogger(logger.NewNop()),
	)
	defer s.Close()
	s.SelectThread("t-only")

	s.BlockThread("t-only")

	got := mustThread(t, s, "t-only")
	assert.Equal(t, model.StatusBlocked, got.Status)
	assert.False(t, got.IsUnread)
	assert.Empty(t, s.State().SelectedThreadID)
}

func TestReopenAndUnblockTouchOnlyStatus(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectThread("t-brooklyn")
	s.MarkThreadAsUnread("t-sarah")
	before := mustThread(t, s, "t-sarah")

	s.ReopenThread("t-sarah")
	s.UnblockThread("t-robert")

	after := mustThread(t, s, "t-sarah")
	assert.Equal(t, model.StatusInbox, after.Status)
	assert.True(t, after.IsUnread)
	assert.Equal(t, before.LastMessage, after.LastMessage)
	assert.Equal(t, model.StatusInbox, mustThread(t, s, "t-robert").Status)
	assert.Equal(t, "t-brooklyn", s.State().SelectedThreadID)
}

func TestSelectThread(t *testing.T) {
	s, _ := newTestStore(t)

	s.SelectThread("t-emily")
	assert.False(t, mustThread(t, s, "t-emily").IsUnread)

	s.SelectThread("t-unknown")
	assert.Equal(t, "t-unknown", s.State().SelectedThreadID)

	snap := s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.Messages)
}

func TestSetCurrentView(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetCurrentView(model.StatusArchived)
	st := s.State()
	assert.Equal(t, model.StatusArchived, st.CurrentView)
	assert.Equal(t, "t-sarah", st.SelectedThreadID)

	s.UnblockThread("t-robert")
	s.SetCurrentView(model.StatusBlocked)
	assert.Empty(t, s.State().SelectedThreadID, "empty view clears selection")

	s.SetCurrentView(model.View("spam"))
	assert.Equal(t, model.StatusBlocked, s.State().CurrentView, "unknown view is ignored")
}

func TestComposingFlow(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectThread("t-emily")

	s.StartNewConversation()
	st := s.State()
	assert.True(t, st.IsComposingNew)
	assert.Empty(t, st.SelectedThreadID)
	assert.Empty(t, st.ComposingPhone)

	s.UpdateComposingPhone("  +1 555")
	assert.Equal(t, "  +1 555", s.State().ComposingPhone)

	s.CancelComposing()
	st = s.State()
	assert.False(t, st.IsComposingNew)
	assert.Empty(t, st.ComposingPhone)
}

func TestGuestTyping(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetGuestTyping("t-emily")
	s.ClearGuestTyping("t-miguel")
	assert.Equal(t, "t-emily", s.State().TypingThreadID, "stale clear is ignored")

	s.ClearGuestTyping("t-emily")
	assert.Empty(t, s.State().TypingThreadID)

	s.SetGuestTyping("t-miguel")
	s.SetGuestTyping("")
	assert.Empty(t, s.State().TypingThreadID)
}

func TestGuestInfoPanel(t *testing.T) {
	s, _ := newTestStore(t)

	s.ToggleGuestInfo()
	assert.True(t, s.State().IsGuestInfoOpen)
	s.ToggleGuestInfo()
	assert.False(t, s.State().IsGuestInfoOpen)
	s.ToggleGuestInfo()
	s.CloseGuestInfo()
	assert.False(t, s.State().IsGuestInfoOpen)
}

func TestEveryThreadInExactlyOneView(t *testing.T) {
	s, _ := newTestStore(t)

	s.ArchiveThread("t-emily")
	s.BlockThread("t-miguel")
	_, _ = s.SendMessage("t-robert", "unblock me", model.SenderGuest)
	s.ReopenThread("t-sarah")
	s.BlockThread("t-sarah")
	_, _ = s.CreateThreadFromPhone("5005550199")

	threads := s.Threads()
	seen := make(map[string]int)
	for _, view := range []model.View{model.StatusInbox, model.StatusArchived, model.StatusBlocked} {
		for _, th := range store.FilterThreads(threads, view, "", s.Lookup()) {
			seen[th.ID]++
		}
	}
	for _, th := range threads {
		assert.True(t, th.Status.Valid(), "thread %s has invalid status %q", th.ID, th.Status)
		assert.Equal(t, 1, seen[th.ID], "thread %s view count", th.ID)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s, _ := newTestStore(t)

	threads := s.Threads()
	threads[0].Status = model.StatusBlocked
	msgs := s.Messages("t-emily")
	msgs[0].Content = "tampered"

	assert.Equal(t, model.StatusInbox, mustThread(t, s, "t-emily").Status)
	assert.Equal(t, "Welcome!", s.Messages("t-emily")[0].Content)
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)
	events, cancel := s.Subscribe(8)

	s.SetSearchQuery("emily")
	s.SetAIEnabled(true)

	for _, want := range []model.EventType{model.EventSearch, model.EventAIToggle} {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev.Type)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok, "channel closed after cancel")

	st := s.State()
	assert.Equal(t, "emily", st.SearchQuery)
	assert.True(t, st.AIEnabled)
}

func TestSubscriberThatFallsBehindIsClosed(t *testing.T) {
	s, _ := newTestStore(t)
	slow, cancelSlow := s.Subscribe(2)
	defer cancelSlow()
	fast, cancelFast := s.Subscribe(16)
	defer cancelFast()

	for i := 0; i < 3; i++ {
		s.SetSearchQuery(fmt.Sprintf("q%d", i))
	}

	var got []model.InboxEvent
	for ev := range slow {
		got = append(got, ev)
	}
	assert.Len(t, got, 2, "buffered events are still delivered before close")

	for i := 0; i < 3; i++ {
		ev, ok := <-fast
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("q%d", i), ev.Metadata["query"])
	}

	cancelSlow()
}
