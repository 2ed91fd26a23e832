package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/debtrail/debtrail/internal/auth"
	"github.com/debtrail/debtrail/internal/config"
	"github.com/debtrail/debtrail/internal/notify"
	"github.com/debtrail/debtrail/internal/server"
	"github.com/debtrail/debtrail/internal/service"
	"github.com/debtrail/debtrail/internal/storage/sqlite"
	"github.com/debtrail/debtrail/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.NotifierURL != "" {
		notifier = notify.NewHTTPNotifier(cfg.NotifierURL, slog.Default())
		slog.Info("Notifier enabled", "url", cfg.NotifierURL)
	}

	linking := service.NewLinkingService(store)
	debts := service.NewDebtService(store, linking, notifier)
	payments := service.NewPaymentService(store, notifier)
	profiles := service.NewProfileService(store, linking)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	if cfg.LinkSweepInterval > 0 {
		go runLinkSweep(context.Background(), linking, cfg.LinkSweepInterval)
	}
	if cfg.ReminderInterval > 0 {
		go runReminders(context.Background(), debts, cfg.ReminderInterval)
	}

	srv := server.New(debts, payments, profiles, linking, jwtManager, cfg.GatewayWebhookSecret)

	// Wrap with h2c so gateway callbacks can use HTTP/2 without TLS behind
	// the ingress.
	handler := h2c.NewHandler(srv.Router(), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// runLinkSweep periodically re-links unlinked debts to registered
// identities. The sweep is idempotent, so overlapping with the registration
// hot path is harmless.
func runLinkSweep(ctx context.Context, linking *service.LinkingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := linking.LinkAllUnlinkedDebts(ctx); err != nil {
				slog.Error("Link sweep failed", "error", err)
			}
		}
	}
}

// runReminders periodically dispatches overdue-debt reminders.
func runReminders(ctx context.Context, debts *service.DebtService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := debts.SendOverdueReminders(ctx); err != nil {
				slog.Error("Reminder sweep failed", "error", err)
			}
		}
	}
}
