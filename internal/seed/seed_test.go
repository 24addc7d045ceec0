package seed_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	"github.com/capitalize-ai/guest-messaging/internal/seed"
)

var now = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func TestDefaultSeedResolves(t *testing.T) {
	data, err := seed.Default(now)
	require.NoError(t, err)
	assert.Len(t, data.Guests, 13)
	assert.Len(t, data.Reservations, 13)

	dir := lookup.NewDirectory(data.Guests, data.Reservations)
	views := make(map[model.ThreadStatus]int)
	for _, th := range data.Threads {
		_, ok := dir.Guest(th.GuestID)
		assert.True(t, ok, "thread %s: guest %s resolves", th.ID, th.GuestID)
		_, ok = dir.Reservation(th.ReservationID)
		assert.True(t, ok, "thread %s: reservation %s resolves", th.ID, th.ReservationID)
		views[th.Status]++
	}
	for _, status := range []model.ThreadStatus{model.StatusInbox, model.StatusArchived, model.StatusBlocked} {
		assert.NotZero(t, views[status], "view %s populated", status)
	}

	emily, ok := dir.Guest("guest-emily")
	require.True(t, ok)
	require.NotNil(t, emily.StatusTag)
	assert.Equal(t, "DIAMOND ELITE", emily.StatusTag.Label)
}

func TestLoadDerivesPreviewAndTimes(t *testing.T) {
	doc := `
threads:
  - id: t1
    guest_id: g1
    unread: true
    messages:
      - {sender: guest, ago: 26h, content: first}
      - {sender: staff, ago: 10m, content: latest}
  - id: t2
    guest_id: g2
    status: blocked
    ago: 2h
`
	data, err := seed.Load(strings.NewReader(doc), now)
	require.NoError(t, err)
	require.Len(t, data.Threads, 2)
	require.NotEmpty(t, data.Messages)

	t1 := data.Threads[0]
	assert.Equal(t, "latest", t1.LastMessage)
	assert.True(t, t1.LastMessageAt.Equal(now.Add(-10*time.Minute)), "t1 LastMessageAt %v", t1.LastMessageAt)
	assert.True(t, t1.IsUnread)
	assert.Equal(t, model.StatusInbox, t1.Status, "status defaults to inbox")
	assert.Equal(t, "t1-m1", data.Messages[0].ID)
	assert.True(t, data.Messages[0].Timestamp.Equal(now.Add(-26*time.Hour)), "first message at %v", data.Messages[0].Timestamp)

	t2 := data.Threads[1]
	assert.Equal(t, model.StatusBlocked, t2.Status)
	assert.Empty(t, t2.LastMessage)
	assert.True(t, t2.LastMessageAt.Equal(now.Add(-2*time.Hour)), "t2 LastMessageAt %v", t2.LastMessageAt)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"missing guest":    "threads:\n  - id: t1\n",
		"duplicate thread": "threads:\n  - {id: t1, guest_id: g}\n  - {id: t1, guest_id: g}\n",
		"bad status":       "threads:\n  - {id: t1, guest_id: g, status: spam}\n",
		"bad sender":       "threads:\n  - id: t1\n    guest_id: g\n    messages:\n      - {sender: bot, ago: 1h, content: x}\n",
		"unknown field":    "hotels: []\n",
		"bad duration":     "threads:\n  - id: t1\n    guest_id: g\n    messages:\n      - {sender: guest, ago: yesterday, content: x}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Load(strings.NewReader(doc), now)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("guests:\n  - {id: g1, name: Test Guest, initials: TG}\n"), 0o600))

	data, err := seed.LoadFile(path, now)
	require.NoError(t, err)
	require.Len(t, data.Guests, 1)
	assert.Equal(t, "Test Guest", data.Guests[0].Name)

	_, err = seed.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), now)
	assert.Error(t, err)
}
