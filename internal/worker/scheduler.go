package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

// ReminderPublisher pushes a claimed reservation onto the reminder queue.
type ReminderPublisher interface {
	PublishReminder(reservationID int64) error
}

// Scheduler claims reservations due for a reminder and queues them.
type Scheduler struct {
	repo     reservations.Repository
	queue    ReminderPublisher
	lead     time.Duration
	interval time.Duration
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler. lead is how far before the start time
// a reminder goes out.
func NewScheduler(
	repo reservations.Repository,
	queue ReminderPublisher,
	lead time.Duration,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		repo:     repo,
		queue:    queue,
		lead:     lead,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	log.Info().Msgf("starting reminder scheduler with interval %v", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processDueReminders()
		case <-s.stopChan:
			log.Info().Msg("stopping reminder scheduler")
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) processDueReminders() {
	ctx := context.Background()

	// The claim marks reminder_sent_at in the same statement that selects,
	// so a second scheduler instance cannot pick up the same reservations.
	ids, err := s.repo.ClaimDueReminders(ctx, s.lead)
	if err != nil {
		log.Error().Err(err).Msg("failed to claim due reminders")
		return
	}

	if len(ids) == 0 {
		return
	}

	log.Info().Int("count", len(ids)).Msg("found reservations due for a reminder")

	queuedCount := 0
	for _, id := range ids {
		if err := s.queue.PublishReminder(id); err != nil {
			log.Error().Err(err).Int64("reservation_id", id).Msg("failed to publish reminder")
			continue
		}
		queuedCount++
	}

	log.Info().Int("queued", queuedCount).Msg("reminder scheduling complete")
}
