package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/store"
)

func ids(threads []model.Thread) []string {
	out := make([]string, len(threads))
	for i, t := range threads {
		out[i] = t.ID
	}
	return out
}

func TestFilterThreads(t *testing.T) {
	s, _ := newTestStore(t)
	threads := s.Threads()

	tests := []struct {
		name  string
		view  model.View
		query string
		want  []string
	}{
		{name: "inbox", view: model.StatusInbox, want: []string{"t-emily", "t-miguel", "t-brooklyn", "t-ghost"}},
		{name: "archived", view: model.StatusArchived, want: []string{"t-sarah"}},
		{name: "blocked", view: model.StatusBlocked, want: []string{"t-robert"}},
		{name: "name case-insensitive", view: model.StatusInbox, query: "EMILY", want: []string{"t-emily"}},
		{name: "phone substring", view: model.StatusInbox, query: "0013", want: []string{"t-miguel"}},
		{name: "email", view: model.StatusInbox, query: "@example.com", want: []string{"t-miguel", "t-brooklyn"}},
		{name: "match in other view", view: model.StatusInbox, query: "sarah", want: []string{}},
		{name: "blank query", view: model.StatusInbox, query: "   ", want: []string{"t-emily", "t-miguel", "t-brooklyn", "t-ghost"}},
		{name: "no match", view: model.StatusInbox, query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(store.FilterThreads(threads, tt.view, tt.query, s.Lookup())))
		})
	}
}

func TestVisibleThreadsFollowsState(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetSearchQuery("simmons")
	assert.Equal(t, []string{"t-brooklyn"}, ids(s.VisibleThreads()))

	s.SetCurrentView(model.StatusArchived)
	assert.Empty(t, s.VisibleThreads())
}

func TestUnreadCount(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, 2, s.UnreadCount())

	s.MarkThreadAsUnread("t-sarah")
	assert.Equal(t, 2, s.UnreadCount(), "archived unread threads do not count")

	s.SelectThread("t-emily")
	assert.Equal(t, 1, store.UnreadCount(s.Threads()))
}
