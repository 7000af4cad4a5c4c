package customers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

// The cascade delete owns its transaction, so these tests run against the
// test database directly rather than inside a rolled-back tx. They only
// touch rows they create.

func TestDeleteWithReservations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	ctx := context.Background()
	svc := NewService(db)
	repo := NewRepository(db)
	resRepo := reservations.NewRepository(db)

	c := saveTestCustomer(t, ctx, repo, "Doomed", "Qqcascade-test")
	for i := 0; i < 2; i++ {
		res, err := reservations.New(c.ID, time.Now().Add(72*time.Hour), 2, "")
		if err != nil {
			t.Fatalf("Failed to build reservation: %v", err)
		}
		if err := resRepo.Save(ctx, res); err != nil {
			t.Fatalf("Failed to save reservation: %v", err)
		}
	}

	if err := svc.DeleteWithReservations(ctx, c.ID); err != nil {
		t.Fatalf("Cascade delete failed: %v", err)
	}

	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected customer gone after delete, got %v", err)
	}

	left, err := resRepo.ForCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("Failed to list reservations: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("Expected no reservations after cascade delete, got %d", len(left))
	}
}

func TestDeleteWithReservations_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := connectTestDB(t)
	defer db.Close()

	err := NewService(db).DeleteWithReservations(context.Background(), 99999999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
