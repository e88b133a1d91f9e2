package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/netdiag/internal/config"
	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/httpapi"
	"github.com/hamed0406/netdiag/internal/httpapi/middleware"
	"github.com/hamed0406/netdiag/internal/logging"
	"github.com/hamed0406/netdiag/internal/notify"
	"github.com/hamed0406/netdiag/internal/probe"
	"github.com/hamed0406/netdiag/internal/repo"
	"github.com/hamed0406/netdiag/internal/repo/bolt"
	"github.com/hamed0406/netdiag/internal/repo/memory"
	"github.com/hamed0406/netdiag/internal/scheduler"
)

type stores struct {
	targets repo.TargetStore
	results repo.ResultStore
	reports repo.ReportStore
	alerts  repo.AlertStore
	closer  interface{ Close() error }
}

func openStores(cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.DBPath == "" {
		logger.Info("store_memory")
		m := memory.New()
		return stores{targets: m, results: m, reports: m, alerts: m}, nil
	}
	b, err := bolt.New(cfg.DBPath)
	if err != nil {
		return stores{}, err
	}
	logger.Info("store_bolt", zap.String("path", cfg.DBPath))
	return stores{targets: b, results: b, reports: b, alerts: b, closer: b}, nil
}

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}

	diag := probe.NewDiagnostics(logger, probe.Timeouts{
		Ping: cfg.PingTimeout,
		HTTP: cfg.HTTPTimeout,
		Port: cfg.PortTimeout,
		TLS:  cfg.TLSTimeout,
	})

	api := httpapi.NewServer(logger, diag, st.targets, st.results, st.reports)
	router := api.Router(httpapi.RouterConfig{
		Keys: middleware.Keys{
			Public: middleware.ParseKeys(strings.Join(cfg.PublicAPIKeys, ",")),
			Admin:  middleware.ParseKeys(strings.Join(cfg.AdminAPIKeys, ",")),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		PublicRPM:      cfg.PublicRPM,
		PublicBurst:    cfg.PublicBurst,
		AdminRPM:       cfg.AdminRPM,
		AdminBurst:     cfg.AdminBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := &scheduler.RetryChecker{
		Inner:    checkerFunc(diag.CheckHTTP),
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
	}
	rechecker := scheduler.NewRechecker(
		logger, st.targets, st.results, checker,
		cfg.CheckInterval, cfg.HTTPTimeout, cfg.MaxConcurrentChecks,
	)
	go rechecker.Run(ctx)

	notifier := notify.Multi{notify.NewLog(logger)}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = append(notifier, slack)
	}
	alerter := scheduler.NewAlerter(st.targets, st.results, st.alerts, diag, notifier, scheduler.AlerterConfig{
		AlertOnRecovery:   cfg.AlertOnRecovery,
		Cooldown:          cfg.AlertCooldown,
		PollInterval:      cfg.AlertPollInterval,
		WatchCertificates: cfg.WatchCertificates,
	})
	go func() { _ = alerter.Run(ctx) }()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting_down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen_failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closeErr := srv.Shutdown(shutdownCtx)
	if st.closer != nil {
		closeErr = multierr.Append(closeErr, st.closer.Close())
	}
	if closeErr != nil {
		logger.Warn("shutdown_errors", zap.Error(closeErr))
	}
	logger.Info("stopped")
}

// checkerFunc adapts the diagnostics method to the scheduler interface.
type checkerFunc func(ctx context.Context, url string) (domain.HTTPCheckResult, error)

func (f checkerFunc) Check(ctx context.Context, url string) (domain.HTTPCheckResult, error) {
	return f(ctx, url)
}
