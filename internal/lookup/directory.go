// Package lookup provides the guest and reservation reference data the inbox
// consults but does not own.
package lookup

import (
	"sort"
	"sync"

	"github.com/capitalize-ai/guest-messaging/internal/model"
)

// Service is the read-mostly view of guest and reservation master data.
type Service interface {
	Guest(id string) (model.Guest, bool)
	Reservation(id string) (model.Reservation, bool)
	ReservationsForGuest(guestID string) []model.Reservation
	// UpsertGuest is the only write path. It exists for ad-hoc guests
	// created from a bare phone number.
	UpsertGuest(g model.Guest)
}

// Directory is an in-memory Service.
type Directory struct {
	mu           sync.RWMutex
	guests       map[string]model.Guest
	reservations map[string]model.Reservation
}

// NewDirectory creates a directory from seed records.
func NewDirectory(guests []model.Guest, reservations []model.Reservation) *Directory {
	d := &Directory{
		guests:       make(map[string]model.Guest, len(guests)),
		reservations: make(map[string]model.Reservation, len(reservations)),
	}
	for _, g := range guests {
		d.guests[g.ID] = g
	}
	for _, r := range reservations {
		d.reservations[r.ID] = r
	}
	return d
}

// Guest returns the guest with the given id.
func (d *Directory) Guest(id string) (model.Guest, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.guests[id]
	if ok && g.StatusTag != nil {
		tag := *g.StatusTag
		g.StatusTag = &tag
	}
	return g, ok
}

// Reservation returns the reservation with the given id. An empty id never
// resolves.
func (d *Directory) Reservation(id string) (model.Reservation, bool) {
	if id == "" {
		return model.Reservation{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.reservations[id]
	return r, ok
}

// UpsertGuest inserts or replaces a guest record.
func (d *Directory) UpsertGuest(g model.Guest) {
	d.mu.Lock()
	d.guests[g.ID] = g
	d.mu.Unlock()
}

// ReservationsForGuest returns every reservation held by a guest, ordered
// by id.
func (d *Directory) ReservationsForGuest(guestID string) []model.Reservation {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []model.Reservation
	for _, r := range d.reservations {
		if r.GuestID == guestID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
