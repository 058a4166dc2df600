package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/c-moralesv/lexagenda/internal/booking"
	"github.com/c-moralesv/lexagenda/internal/calendar"
	"github.com/c-moralesv/lexagenda/internal/handlers"
	"github.com/c-moralesv/lexagenda/internal/notify"
	"github.com/c-moralesv/lexagenda/internal/outbox"
	"github.com/c-moralesv/lexagenda/internal/schedule"
	"github.com/c-moralesv/lexagenda/internal/storage"
	"github.com/c-moralesv/lexagenda/libs/config"
	"github.com/c-moralesv/lexagenda/libs/db"
	"github.com/c-moralesv/lexagenda/libs/httpx"
	"github.com/c-moralesv/lexagenda/libs/kafkax"
	otelx "github.com/c-moralesv/lexagenda/libs/otel"
	"github.com/c-moralesv/lexagenda/libs/runtime"
)

func main() {
	logger := runtime.NewLogger("lexagenda")
	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := runtime.SignalContext()
	defer stop()

	port, err := config.Port("PORT", "8080")
	if err != nil {
		return err
	}
	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		return err
	}
	kafkaBrokers := config.String("KAFKA_BROKERS", "")

	shutdownTracing, err := otelx.Setup(ctx, otelx.ConfigFromEnv("lexagenda"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		return err
	}

	outboxRepo := outbox.NewRepository(pool)
	appointments := storage.NewAppointmentRepository(pool, outboxRepo)
	blackouts := storage.NewBlackoutRepository(pool, outboxRepo)
	catalog := storage.NewCatalogRepository(pool)

	calculator := schedule.NewCalculator(schedule.Default(), appointments, blackouts)

	var calClient calendar.Client = calendar.NewNoopClient()
	if url := config.String("CALENDAR_URL", ""); url != "" {
		calClient = calendar.NewWebhookClient(url, config.String("CALENDAR_TOKEN", ""))
	}

	var mailer notify.Sender = notify.NewNoopSender()
	if host := config.String("SMTP_HOST", ""); host != "" {
		mailer = notify.NewSMTPSender(host, config.String("SMTP_PORT", "1025"), config.String("MAIL_FROM", ""))
	}

	machine := booking.NewMachine(appointments, catalog, calClient, mailer, logger)
	resolver := booking.NewResolver(appointments, machine, logger)

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: time.Duration(config.Int("OUTBOX_POLL_MS", 2000)) * time.Millisecond,
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	readyChecks := []runtime.ReadyCheck{
		{Name: "postgres", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	publicLimit := publicRateLimit(ctx, logger)
	requireStaff := httpx.RequireStaff(jwtSecret)

	appointmentHandler := handlers.NewAppointmentHandler(appointments, catalog, calculator, blackouts, machine, logger)
	blackoutHandler := handlers.NewBlackoutHandler(blackouts, resolver, logger)
	catalogHandler := handlers.NewCatalogHandler(catalog, logger)

	public := func(h http.HandlerFunc) http.Handler { return httpx.Chain(h, publicLimit) }
	staff := func(h http.HandlerFunc) http.Handler { return httpx.Chain(h, requireStaff) }

	mux.Handle("GET /api/v1/lawyers", public(catalogHandler.Lawyers))
	mux.Handle("GET /api/v1/lawyers/{id}", public(catalogHandler.Lawyer))
	mux.Handle("GET /api/v1/services", public(catalogHandler.Services))
	mux.Handle("GET /api/v1/services/{id}", public(catalogHandler.Service))
	mux.Handle("GET /api/v1/appointments/availability", public(appointmentHandler.Availability))
	mux.Handle("POST /api/v1/appointments", public(appointmentHandler.Create))
	mux.Handle("GET /api/v1/blackouts/check", public(blackoutHandler.Check))

	mux.Handle("GET /api/v1/appointments", staff(appointmentHandler.List))
	mux.Handle("GET /api/v1/appointments/{id}", staff(appointmentHandler.Get))
	mux.Handle("PATCH /api/v1/appointments/{id}", staff(appointmentHandler.UpdateStatus))
	mux.Handle("POST /api/v1/blackouts", staff(blackoutHandler.Create))
	mux.Handle("POST /api/v1/blackouts/preview", staff(blackoutHandler.Preview))
	mux.Handle("GET /api/v1/blackouts", staff(blackoutHandler.List))
	mux.Handle("DELETE /api/v1/blackouts/{id}", staff(blackoutHandler.Delete))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", "*"), ","),
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// publicRateLimit protects the unauthenticated booking endpoints. With
// REDIS_ADDR set the window is shared across instances; otherwise a
// per-instance in-memory limiter is used.
func publicRateLimit(ctx context.Context, logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-memory rate limiting", "err", err)
		} else {
			return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "lexagenda").Middleware(logger, true)
		}
	}
	return httpx.NewRateLimiter(limit, time.Minute).Middleware()
}
