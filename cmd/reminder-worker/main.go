package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/config"
	"github.com/bizflowhq/bizflow-platform/internal/messaging/twilioclient"
	"github.com/bizflowhq/bizflow-platform/internal/reminders"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// senderAdapter narrows the Twilio client to the send signature the
// reminder service needs.
type senderAdapter struct {
	client *twilioclient.Client
}

func (a senderAdapter) SendWhatsApp(ctx context.Context, to, body string) error {
	_, err := a.client.SendWhatsApp(ctx, to, body)
	return err
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.TwilioAccountSID == "" {
		logger.Error("reminder worker requires DATABASE_URL and TWILIO_ACCOUNT_SID")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	twilioClient, err := twilioclient.New(twilioclient.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
		Timeout:    10 * time.Second,
		MaxRetries: cfg.TwilioRetryAttempts,
		Backoff:    cfg.TwilioRetryDelay,
		Logger:     logger.Logger,
	})
	if err != nil {
		logger.Error("failed to create twilio client", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.TenantTimezone)
	if err != nil {
		logger.Error("invalid tenant timezone", "timezone", cfg.TenantTimezone, "error", err)
		os.Exit(1)
	}

	service := reminders.NewService(reminders.Config{
		Bookings: bookings.NewRepository(pool),
		Tenants:  tenancy.NewRepository(pool),
		Sender:   senderAdapter{client: twilioClient},
		Location: location,
		Logger:   logger,
	})

	go service.Run(ctx, cfg.ReminderInterval)
	logger.Info("reminder worker started", "interval", cfg.ReminderInterval.String())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
