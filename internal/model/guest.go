package model

// StatusTag is a loyalty tier badge.
type StatusTag struct {
	Label     string `json:"label" yaml:"label"`
	Color     string `json:"color" yaml:"color"`
	TextColor string `json:"text_color,omitempty" yaml:"text_color,omitempty"`
}

// Guest is a hotel guest. Owned by the lookup service.
type Guest struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Initials          string     `json:"initials" yaml:"initials"`
	Avatar            string     `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Phone             string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email             string     `json:"email,omitempty" yaml:"email,omitempty"`
	PreferredLanguage string     `json:"preferred_language,omitempty" yaml:"preferred_language,omitempty"`
	StatusTag         *StatusTag `json:"status_tag,omitempty" yaml:"status_tag,omitempty"`
}

// ReservationStatus is the lifecycle state of a stay.
type ReservationStatus string

const (
	ReservationUpcoming   ReservationStatus = "upcoming"
	ReservationCheckedIn  ReservationStatus = "checked-in"
	ReservationCheckedOut ReservationStatus = "checked-out"
	ReservationCancelled  ReservationStatus = "cancelled"
	ReservationNoShow     ReservationStatus = "no-show"
)

// Progress is the check-in or check-out progress of a reservation.
type Progress string

const (
	ProgressNotStarted Progress = "Not Started"
	ProgressInProgress Progress = "In Progress"
	ProgressSubmitted  Progress = "Submitted"
	ProgressCompleted  Progress = "Completed"
)

// Reservation links a guest to a stay. Read-only to the inbox.
type Reservation struct {
	ID               string            `json:"id" yaml:"id"`
	GuestID          string            `json:"guest_id" yaml:"guest_id"`
	Room             string            `json:"room,omitempty" yaml:"room,omitempty"`
	RoomType         string            `json:"room_type,omitempty" yaml:"room_type,omitempty"`
	CheckInDate      string            `json:"check_in_date" yaml:"check_in_date"`
	CheckOutDate     string            `json:"check_out_date" yaml:"check_out_date"`
	ConfirmationCode string            `json:"confirmation_code" yaml:"confirmation_code"`
	Status           ReservationStatus `json:"status" yaml:"status"`
	CheckInStatus    Progress          `json:"check_in_status,omitempty" yaml:"check_in_status,omitempty"`
	CheckOutStatus   Progress          `json:"check_out_status,omitempty" yaml:"check_out_status,omitempty"`
	Notes            string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	RequestCount     int               `json:"request_count,omitempty" yaml:"request_count,omitempty"`
}
