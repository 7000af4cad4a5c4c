package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/mwangip/reservation-service/internal/db"
	"github.com/mwangip/reservation-service/internal/domains/reservations"
	"github.com/mwangip/reservation-service/internal/queue"
)

// Worker consumes reminder deliveries and sends one reminder per reservation.
type Worker struct {
	rabbitMQ *queue.RabbitMQ
	repo     reservations.Repository
	sender   Sender
}

func NewWorker(rabbitMQ *queue.RabbitMQ, dbtx db.DBTX, sender Sender) *Worker {
	return &Worker{
		rabbitMQ: rabbitMQ,
		repo:     reservations.NewRepository(dbtx),
		sender:   sender,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.rabbitMQ.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	log.Info().Msg("reminder worker started, waiting for messages")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reminder worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitMQ channel closed")
			}
			w.processDelivery(ctx, d)
		}
	}
}

func (w *Worker) processDelivery(ctx context.Context, d amqp091.Delivery) {
	var msg queue.ReservationReminderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal reminder message")
		d.Reject(false)
		return
	}

	log.Info().Int64("reservation_id", msg.ReservationID).Msg("processing reminder")

	details, err := w.repo.GetReminderDetails(ctx, msg.ReservationID)
	if err != nil {
		// A reservation deleted after it was queued is gone for good: reject.
		// Anything else might be a transient store failure worth a requeue.
		if errors.Is(err, reservations.ErrNotFound) {
			log.Warn().Int64("reservation_id", msg.ReservationID).Msg("reservation no longer exists, dropping reminder")
			d.Reject(false)
		} else {
			log.Error().Err(err).Int64("reservation_id", msg.ReservationID).Msg("failed to fetch reminder details")
			d.Nack(false, true)
		}
		return
	}

	content := ComposeReminder(details)

	if _, err := w.sender.Send(content, details.CustomerPhone); err != nil {
		w.handleFailure(d, details, err)
		return
	}

	log.Info().Int64("reservation_id", details.ReservationID).Msg("reminder sent successfully")
	d.Ack(false)
}

func (w *Worker) handleFailure(d amqp091.Delivery, details reservations.ReminderDetails, sendErr error) {
	log.Warn().Err(sendErr).Int64("reservation_id", details.ReservationID).Msg("failed to send reminder")

	// One retry: a fresh delivery is requeued, a redelivered one is dropped.
	if d.Redelivered {
		log.Warn().Int64("reservation_id", details.ReservationID).Msg("retry failed too, giving up")
		d.Reject(false)
		return
	}
	d.Nack(false, true)
}

// ComposeReminder renders the reminder text for a reservation.
func ComposeReminder(d reservations.ReminderDetails) string {
	return fmt.Sprintf("Hi %s, a reminder about your reservation for %d on %s. See you then!",
		d.CustomerFirstName, d.NumGuests, reservations.FormatStartAt(d.StartAt))
}
