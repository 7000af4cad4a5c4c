package reservations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mwangip/reservation-service/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	ForCustomer(ctx context.Context, customerID int64) ([]*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id int64) error
	DeleteForCustomer(ctx context.Context, customerID int64) error
	ClaimDueReminders(ctx context.Context, lead time.Duration) ([]int64, error)
	GetReminderDetails(ctx context.Context, id int64) (ReminderDetails, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	var res Reservation
	err := r.db.QueryRowContext(ctx, `
        SELECT id, customer_id, start_at, num_guests, notes
        FROM reservations
        WHERE id = $1`, id).
		Scan(&res.ID, &res.customerID, &res.StartAt, &res.numGuests, &res.notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no such reservation %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &res, nil
}

// ForCustomer returns every reservation owned by the customer. No ordering is
// guaranteed beyond what the store happens to produce.
func (r *repository) ForCustomer(ctx context.Context, customerID int64) ([]*Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, customer_id, start_at, num_guests, notes
        FROM reservations
        WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := []*Reservation{}
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.customerID, &res.StartAt, &res.numGuests, &res.notes); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}

// Save inserts when the reservation has no ID yet and updates otherwise. The
// update revises only guest count and notes: customer and start time are
// fixed once a reservation exists.
func (r *repository) Save(ctx context.Context, res *Reservation) error {
	if err := res.Validate(); err != nil {
		return err
	}

	if res.ID == 0 {
		return r.db.QueryRowContext(ctx, `
            INSERT INTO reservations (customer_id, start_at, num_guests, notes)
            VALUES ($1, $2, $3, $4)
            RETURNING id`,
			res.customerID, res.StartAt, res.numGuests, res.notes).
			Scan(&res.ID)
	}

	_, err := r.db.ExecContext(ctx, `
        UPDATE reservations
        SET num_guests = $1, notes = $2
        WHERE id = $3`,
		res.numGuests, res.notes, res.ID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	return err
}

func (r *repository) DeleteForCustomer(ctx context.Context, customerID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE customer_id = $1`, customerID)
	return err
}

// ClaimDueReminders marks and returns reservations starting within the lead
// window that have not had a reminder yet. Selecting and marking in one
// statement keeps a second scheduler from claiming the same rows.
func (r *repository) ClaimDueReminders(ctx context.Context, lead time.Duration) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
        UPDATE reservations
        SET reminder_sent_at = NOW()
        WHERE id IN (
            SELECT id FROM reservations
            WHERE reminder_sent_at IS NULL
              AND start_at > NOW()
              AND start_at <= NOW() + make_interval(secs => $1)
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id`, lead.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) GetReminderDetails(ctx context.Context, id int64) (ReminderDetails, error) {
	var d ReminderDetails
	err := r.db.QueryRowContext(ctx, `
        SELECT r.id, r.start_at, r.num_guests,
               c.id, c.first_name, c.last_name, c.phone
        FROM reservations AS r
        JOIN customers AS c ON c.id = r.customer_id
        WHERE r.id = $1`, id).
		Scan(&d.ReservationID, &d.StartAt, &d.NumGuests,
			&d.CustomerID, &d.CustomerFirstName, &d.CustomerLastName, &d.CustomerPhone)
	if err != nil {
		if err == sql.ErrNoRows {
			return ReminderDetails{}, fmt.Errorf("no such reservation %d: %w", id, ErrNotFound)
		}
		return ReminderDetails{}, err
	}
	return d, nil
}
