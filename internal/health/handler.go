package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mwangip/reservation-service/internal/queue"
)

type Handler struct {
	db       *sql.DB
	rabbitMQ *queue.RabbitMQ
}

func NewHandler(db *sql.DB, rabbitMQ *queue.RabbitMQ) *Handler {
	return &Handler{
		db:       db,
		rabbitMQ: rabbitMQ,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents a single health check
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health performs health checks on the database and RabbitMQ
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	overallHealthy := true

	dbCheck := h.checkDatabase(ctx)
	checks["database"] = dbCheck
	if dbCheck.Status != "healthy" {
		overallHealthy = false
	}

	queueCheck := h.checkQueue()
	checks["queue"] = queueCheck
	if queueCheck.Status != "healthy" {
		overallHealthy = false
	}

	status := "healthy"
	if !overallHealthy {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now(),
	}

	statusCode := http.StatusOK
	if !overallHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase checks if the database is accessible
func (h *Handler) checkDatabase(ctx context.Context) Check {
	if h.db == nil {
		return Check{
			Status:  "unhealthy",
			Message: "database connection is nil",
		}
	}

	if err := h.db.PingContext(ctx); err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "database connection failed: " + err.Error(),
		}
	}

	// A simple query to verify the database is actually working
	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "database query failed: " + err.Error(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "database is accessible",
	}
}

// checkQueue checks if RabbitMQ is accessible
func (h *Handler) checkQueue() Check {
	if h.rabbitMQ == nil {
		return Check{
			Status:  "unhealthy",
			Message: "queue connection is nil",
		}
	}

	if err := h.rabbitMQ.Ping(); err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "queue connection failed: " + err.Error(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "queue is accessible",
	}
}
