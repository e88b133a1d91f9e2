package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/repo"
)

// ---- shared helpers ----

func row(id, url string, up bool, httpStatus *int, ms int64) repo.LatestRow {
	msCopy := ms
	return repo.LatestRow{
		TargetID:       id,
		URL:            url,
		Up:             up,
		HTTPStatus:     httpStatus,
		ResponseTimeMs: &msCopy,
		Reason:         "",
		CheckedAt:      time.Now(),
	}
}

type memAlerts struct {
	m map[string]repo.AlertRecord
}

func (m *memAlerts) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	if m.m == nil {
		m.m = map[string]repo.AlertRecord{}
	}
	r, ok := m.m[key]
	if !ok {
		return nil, nil
	}
	rr := r
	return &rr, nil
}
func (m *memAlerts) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	if m.m == nil {
		m.m = map[string]repo.AlertRecord{}
	}
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.m[key] = repo.AlertRecord{Key: key, LastState: lastState, LastSentAt: ts}
	return nil
}

type memNotifier struct {
	n      int
	titles []string
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.n++
	m.titles = append(m.titles, title)
	return nil
}

type fakeInspector struct {
	res domain.SSLResult
	err error
}

func (f *fakeInspector) InspectSSL(ctx context.Context, dom string) (domain.SSLResult, error) {
	return f.res, f.err
}

// ---- tests ----

func TestAlerter_SendsOnDown_RespectsCooldown(t *testing.T) {
	results := &fakeResults{
		rows: []repo.LatestRow{
			row("A", "https://a", false, intp(500), 100),
		},
	}
	alerts := &memAlerts{}
	nt := &memNotifier{}
	al := NewAlerter(&fakeTargets{}, results, alerts, nil, nt, AlerterConfig{
		AlertOnRecovery: true,
		Cooldown:        1 * time.Minute,
		PollInterval:    10 * time.Millisecond,
	})

	// first scan -> should alert
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want 1 alert, got %d", nt.n)
	}

	// second scan same DOWN within cooldown -> no new alert
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want cooldown to suppress, got %d", nt.n)
	}

	// flip to UP -> recovery alert allowed
	results.rows = []repo.LatestRow{row("A", "https://a", true, intp(200), 90)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 2 {
		t.Fatalf("want recovery alert, got %d", nt.n)
	}
}

func TestAlerter_NoRecoveryIfDisabled(t *testing.T) {
	results := &fakeResults{rows: []repo.LatestRow{row("B", "https://b", true, intp(200), 50)}}
	alerts := &memAlerts{}
	nt := &memNotifier{}
	al := NewAlerter(&fakeTargets{}, results, alerts, nil, nt, AlerterConfig{
		AlertOnRecovery: false,
		Cooldown:        0,
		PollInterval:    0,
	})

	// first time UP (no previous) -> state changes nil->UP but recovery off -> no alert
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 0 {
		t.Fatalf("unexpected alert: %d", nt.n)
	}

	// go DOWN -> should alert
	results.rows = []repo.LatestRow{row("B", "https://b", false, intp(500), 120)}
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want one down alert, got %d", nt.n)
	}
}

func TestAlerter_CertificateExpiryAlerts(t *testing.T) {
	targets := &fakeTargets{t: []*domain.Target{
		{ID: "C1", URL: "https://c.example"},
		{ID: "C2", URL: "http://plain.example"}, // no TLS, never inspected
	}}
	insp := &fakeInspector{res: domain.SSLResult{
		Domain: "c.example",
		CertificateInfo: domain.CertificateInfo{
			Issuer:          "Example CA",
			ValidTo:         time.Now().Add(10 * 24 * time.Hour),
			DaysUntilExpiry: 10,
		},
	}}
	alerts := &memAlerts{}
	nt := &memNotifier{}
	al := NewAlerter(targets, &fakeResults{}, alerts, insp, nt, AlerterConfig{
		Cooldown:          time.Minute,
		PollInterval:      time.Millisecond,
		WatchCertificates: true,
	})

	// expiring soon -> one alert under the cert key
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want 1 cert alert, got %d", nt.n)
	}
	if rec, _ := alerts.Get(context.Background(), "C1:cert"); rec == nil || !rec.LastState {
		t.Fatalf("expected cert alert state recorded, got %+v", rec)
	}

	// same problem inside cooldown -> suppressed
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("want cooldown to suppress cert alert, got %d", nt.n)
	}

	// certificate renewed -> state cleared, no alert
	insp.res.DaysUntilExpiry = 200
	if err := al.scanOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if nt.n != 1 {
		t.Fatalf("renewed certificate must not alert, got %d", nt.n)
	}
	if rec, _ := alerts.Get(context.Background(), "C1:cert"); rec == nil || rec.LastState {
		t.Fatalf("expected cert alert state cleared, got %+v", rec)
	}
}

func intp(i int) *int { return &i }
