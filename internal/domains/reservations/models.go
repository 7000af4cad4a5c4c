package reservations

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no reservation.
	ErrNotFound = errors.New("reservation not found")
	// ErrInvalidNumGuests is returned for a party size below one.
	ErrInvalidNumGuests = errors.New("number of guests must be at least 1")
)

// Reservation is a booking for a party at a given time. The owning customer is
// fixed at construction: there is deliberately no way to reassign it. Guest
// count and notes are the only fields the update path revises.
type Reservation struct {
	ID      int64
	StartAt time.Time

	customerID int64
	numGuests  int
	notes      string
}

// New builds an unsaved reservation. The guest count is validated here, so an
// invalid party size never produces a Reservation value at all.
func New(customerID int64, startAt time.Time, numGuests int, notes string) (*Reservation, error) {
	r := &Reservation{
		StartAt:    startAt,
		customerID: customerID,
	}
	if err := r.SetNumGuests(numGuests); err != nil {
		return nil, err
	}
	r.SetNotes(notes)
	return r, nil
}

func (r *Reservation) CustomerID() int64 {
	return r.customerID
}

func (r *Reservation) NumGuests() int {
	return r.numGuests
}

// SetNumGuests rejects values below one and leaves the prior value unchanged.
func (r *Reservation) SetNumGuests(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidNumGuests, n)
	}
	r.numGuests = n
	return nil
}

func (r *Reservation) Notes() string {
	return r.notes
}

func (r *Reservation) SetNotes(notes string) {
	r.notes = notes
}

// Validate runs before every insert and update, so a reservation that was
// mutated through some future path still cannot reach the store invalid.
func (r *Reservation) Validate() error {
	if r.customerID == 0 {
		return errors.New("reservation has no customer")
	}
	if r.numGuests < 1 {
		return ErrInvalidNumGuests
	}
	if r.StartAt.IsZero() {
		return errors.New("reservation has no start time")
	}
	return nil
}

// FormattedStartAt renders the start time as e.g. "March 4th 2026, 7:30 pm".
func (r *Reservation) FormattedStartAt() string {
	return FormatStartAt(r.StartAt)
}

func FormatStartAt(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("%s %d%s %d, %s",
		t.Month(), day, ordinalSuffix(day), t.Year(),
		strings.ToLower(t.Format("3:04 PM")))
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// ReminderDetails is a reservation joined with its customer, as the reminder
// worker needs it.
type ReminderDetails struct {
	ReservationID     int64
	StartAt           time.Time
	NumGuests         int
	CustomerID        int64
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
}
