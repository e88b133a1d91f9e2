package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/probe"
	"github.com/hamed0406/netdiag/internal/repo"
)

// Notifier is the outbound alert channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Inspector is the slice of the probe engine the certificate watcher drives.
type Inspector interface {
	InspectSSL(ctx context.Context, dom string) (domain.SSLResult, error)
}

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
	// WatchCertificates enables the TLS expiry sweep over https targets.
	WatchCertificates bool
}

// Alerter watches the latest check per target and sends a notification when
// a target flips state, plus (optionally) when a certificate is expired or
// within 30 days of expiry. Certificate alerts use their own cooldown key
// ("<target id>:cert") so they never suppress up/down alerts.
type Alerter struct {
	targets   repo.TargetStore
	results   repo.ResultStore
	alertDB   repo.AlertStore
	inspector Inspector
	notifier  Notifier
	cfg       AlerterConfig
}

func NewAlerter(
	targets repo.TargetStore,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	inspector Inspector,
	notifier Notifier,
	cfg AlerterConfig,
) *Alerter {
	return &Alerter{
		targets:   targets,
		results:   results,
		alertDB:   alertDB,
		inspector: inspector,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	_ = a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = a.scanOnce(ctx)
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	if err := a.scanStates(ctx); err != nil {
		return err
	}
	if a.cfg.WatchCertificates && a.inspector != nil {
		return a.scanCertificates(ctx)
	}
	return nil
}

func (a *Alerter) scanStates(ctx context.Context) error {
	rows, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, r := range rows {
		rec, _ := a.alertDB.Get(ctx, r.TargetID)

		// Has the up/down state changed compared to what we last recorded?
		stateChanged := rec == nil || rec.LastState != r.Up

		// Cooldown only matters for DOWN alerts (suppresses noisy repeats).
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		downAlert := stateChanged && !r.Up && cooled
		recoveryAlert := stateChanged && r.Up && a.cfg.AlertOnRecovery // bypass cooldown

		if downAlert || recoveryAlert {
			title := "🔴 Target DOWN"
			if r.Up {
				title = "🟢 Target RECOVERED"
			}

			httpTxt := "n/a"
			if r.HTTPStatus != nil {
				httpTxt = fmt.Sprintf("%d", *r.HTTPStatus)
			}
			latencyTxt := "n/a"
			if r.ResponseTimeMs != nil {
				latencyTxt = fmt.Sprintf("%d ms", *r.ResponseTimeMs)
			}

			text := fmt.Sprintf(
				"URL: %s\nHTTP: %s\nResponse time: %s\nReason: %s\nChecked: %s",
				r.URL, httpTxt, latencyTxt, r.Reason, r.CheckedAt.Format(time.RFC3339),
			)

			// Best-effort send and record the send time.
			_ = a.notifier.Send(ctx, title, text)
			_ = a.alertDB.Set(ctx, r.TargetID, r.Up, now)
			continue
		}

		// If state changed but we did not send (DOWN within cooldown or
		// recovery alerts disabled), still record the new state without a
		// send time.
		if stateChanged {
			_ = a.alertDB.Set(ctx, r.TargetID, r.Up, time.Time{})
		}
	}

	return nil
}

func (a *Alerter) scanCertificates(ctx context.Context) error {
	ts, err := a.targets.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, t := range ts {
		host, ok := strings.CutPrefix(t.URL, "https://")
		if !ok {
			continue
		}
		key := string(t.ID) + ":cert"

		res, err := a.inspector.InspectSSL(ctx, host)
		if err != nil {
			// Unreachable hosts already surface through the down alert.
			continue
		}

		expired := probe.IsCertificateExpired(res.DaysUntilExpiry)
		expiring := probe.IsExpiringWithin30Days(res.DaysUntilExpiry)
		problem := expired || expiring

		rec, _ := a.alertDB.Get(ctx, key)
		if !problem {
			if rec != nil && rec.LastState {
				_ = a.alertDB.Set(ctx, key, false, time.Time{})
			}
			continue
		}

		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}
		if !cooled {
			continue
		}

		title := "⚠️ Certificate expiring soon"
		if expired {
			title = "🔴 Certificate EXPIRED"
		}
		text := fmt.Sprintf(
			"Domain: %s\nIssuer: %s\nExpires: %s\nDays left: %d",
			res.Domain, res.Issuer, res.ValidTo.Format(time.RFC3339), res.DaysUntilExpiry,
		)

		_ = a.notifier.Send(ctx, title, text)
		_ = a.alertDB.Set(ctx, key, true, now)
	}

	return nil
}
