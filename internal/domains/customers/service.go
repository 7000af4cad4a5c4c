package customers

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

// Service composes the customer repository with transaction-scoped work that a
// single repository cannot express.
type Service struct {
	db   *sql.DB
	repo Repository
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, repo: NewRepository(db)}
}

// DeleteWithReservations removes a customer and all of their reservations in
// one transaction, so a crash between the two deletes cannot orphan rows.
func (s *Service) DeleteWithReservations(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reservations.NewRepository(tx).DeleteForCustomer(ctx, id); err != nil {
		return err
	}
	if err := NewRepository(tx).Delete(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Int64("customer_id", id).Msg("deleted customer and reservations")
	return nil
}
