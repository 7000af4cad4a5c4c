package customers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mwangip/reservation-service/internal/db"
)

type Repository interface {
	ListAll(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (Customer, error)
	Search(ctx context.Context, term string) ([]Customer, error)
	TopByReservationCount(ctx context.Context, limit int) ([]Customer, error)
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

// ListAll returns every customer ordered by last name, then first name.
func (r *repository) ListAll(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, first_name, last_name, phone, notes
        FROM customers
        ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (r *repository) GetByID(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.db.QueryRowContext(ctx, `
        SELECT id, first_name, last_name, phone, notes
        FROM customers
        WHERE id = $1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return Customer{}, fmt.Errorf("no such customer %d: %w", id, ErrNotFound)
		}
		return Customer{}, err
	}
	return c, nil
}

// Search matches term as a case-insensitive substring of either name.
// An empty result set is ErrNotFound, unlike ListAll.
func (r *repository) Search(ctx context.Context, term string) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, first_name, last_name, phone, notes
        FROM customers
        WHERE first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'
        ORDER BY last_name, first_name`, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers, err := scanCustomers(rows)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("no customers matching %q: %w", term, ErrNotFound)
	}
	return customers, nil
}

// TopByReservationCount ranks customers by how many reservations they hold.
// The inner join excludes customers with no reservations at all.
func (r *repository) TopByReservationCount(ctx context.Context, limit int) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT c.id, c.first_name, c.last_name, c.phone, c.notes
        FROM customers AS c
        JOIN reservations AS r ON c.id = r.customer_id
        GROUP BY c.id
        ORDER BY COUNT(r.id) DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// Save inserts when the customer has no ID yet and updates otherwise.
// On insert the generated ID is written back to c. Last writer wins.
func (r *repository) Save(ctx context.Context, c *Customer) error {
	if c.ID == 0 {
		return r.db.QueryRowContext(ctx, `
            INSERT INTO customers (first_name, last_name, phone, notes)
            VALUES ($1, $2, $3, $4)
            RETURNING id`,
			c.FirstName, c.LastName, c.Phone, c.Notes).
			Scan(&c.ID)
	}

	_, err := r.db.ExecContext(ctx, `
        UPDATE customers
        SET first_name = $1, last_name = $2, phone = $3, notes = $4
        WHERE id = $5`,
		c.FirstName, c.LastName, c.Phone, c.Notes, c.ID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return err
}

func scanCustomers(rows *sql.Rows) ([]Customer, error) {
	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Notes); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
