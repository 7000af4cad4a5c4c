package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mwangip/reservation-service/internal/config"
	"github.com/mwangip/reservation-service/internal/db"
	"github.com/mwangip/reservation-service/internal/domains/reservations"
	"github.com/mwangip/reservation-service/internal/health"
	"github.com/mwangip/reservation-service/internal/queue"
	"github.com/mwangip/reservation-service/internal/web"
	"github.com/mwangip/reservation-service/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := db.ConnectAndMigrate(cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize RabbitMQ
	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rabbitMQ.Close()

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	webHandler, err := web.NewHandler(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize web handler")
	}
	webHandler.RegisterRoutes(r)

	healthHandler := health.NewHandler(db, rabbitMQ)
	r.Get("/health", healthHandler.Health)

	// Start reminder scheduler
	reservationsRepo := reservations.NewRepository(db)
	scheduler := worker.NewScheduler(reservationsRepo, rabbitMQ, cfg.ReminderLead, cfg.SchedulerInterval)
	go scheduler.Start()
	defer scheduler.Stop()

	log.Info().Msg("server starting on :" + cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
