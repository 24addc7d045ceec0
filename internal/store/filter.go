package store

import (
	"strings"

	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
)

// FilterThreads returns the threads in view, narrowed by a case-insensitive
// search over guest name, phone and email. Threads whose guest cannot be
// resolved never match a search. A blank query disables searching.
func FilterThreads(threads []model.Thread, view model.View, query string, dir lookup.Service) []model.Thread {
	out := make([]model.Thread, 0, len(threads))
	q := strings.ToLower(query)
	search := !isBlank(query)

	for _, t := range threads {
		if t.Status != view {
			continue
		}
		if search && !guestMatches(dir, t.GuestID, q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func guestMatches(dir lookup.Service, guestID, q string) bool {
	g, ok := dir.Guest(guestID)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(g.Name), q) ||
		strings.Contains(strings.ToLower(g.Phone), q) ||
		strings.Contains(strings.ToLower(g.Email), q)
}

// UnreadCount counts inbox threads with an unread flag.
func UnreadCount(threads []model.Thread) int {
	n := 0
	for _, t := range threads {
		if t.Status == model.StatusInbox && t.IsUnread {
			n++
		}
	}
	return n
}

// VisibleThreads returns the active view filtered by the current search.
func (s *Store) VisibleThreads() []model.Thread {
	s.mu.Lock()
	view, query := s.ui.CurrentView, s.ui.SearchQuery
	threads := make([]model.Thread, len(s.threads))
	for i, t := range s.threads {
		threads[i] = *t
	}
	s.mu.Unlock()

	return FilterThreads(threads, view, query, s.lookup)
}

// UnreadCount returns the inbox unread badge count.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.unreadCountLocked()
}
