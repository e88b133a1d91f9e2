package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/netdiag/internal/domain"
	"github.com/hamed0406/netdiag/internal/httpapi/middleware"
	"github.com/hamed0406/netdiag/internal/probe"
	"github.com/hamed0406/netdiag/internal/repo"
)

// Engine is the slice of the diagnostics facade the API needs.
type Engine interface {
	Ping(ctx context.Context, host string, vantagePoints []string) ([]domain.ReachabilityResult, error)
	CheckHTTP(ctx context.Context, url string) (domain.HTTPCheckResult, error)
	ScanPorts(ctx context.Context, host string, ports []int) (domain.PortScanResult, error)
	InspectSSL(ctx context.Context, dom string) (domain.SSLResult, error)
	Report(ctx context.Context, host string) (domain.Report, error)
}

type Server struct {
	Logger  *zap.Logger
	Engine  Engine
	Targets repo.TargetStore
	Results repo.ResultStore
	Reports repo.ReportStore
}

func NewServer(l *zap.Logger, e Engine, ts repo.TargetStore, rs repo.ResultStore, ps repo.ReportStore) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Engine: e, Targets: ts, Results: rs, Reports: ps}
}

// RouterConfig carries the middleware knobs the router needs.
type RouterConfig struct {
	Keys           middleware.Keys
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	c := cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
	}
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowedOrigins = cfg.AllowedOrigins
	} else {
		c.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(c))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAny(cfg.Keys))
		r.Use(middleware.RateLimit(cfg.PublicRPM, cfg.PublicBurst))

		r.Post("/api/diag/ping", s.handlePing)
		r.Post("/api/diag/http", s.handleHTTPCheck)
		r.Post("/api/diag/ports", s.handlePortScan)
		r.Post("/api/diag/ssl", s.handleSSLInspect)
		r.Post("/api/diag/report", s.handleReport)
		r.Get("/api/reports/{host}", s.handleLatestReport)

		r.Get("/api/targets", s.handleListTargets)
		r.Get("/api/results/latest", s.handleLatestResults)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(cfg.Keys))
		r.Use(middleware.RateLimit(cfg.AdminRPM, cfg.AdminBurst))

		r.Post("/api/targets", s.handleAddTarget)
	})

	return r
}

type hostPayload struct {
	Host          string   `json:"host"`
	VantagePoints []string `json:"vantage_points,omitempty"`
	Ports         []int    `json:"ports,omitempty"`
}

type urlPayload struct {
	URL string `json:"url"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var p hostPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badPayload(w)
		return
	}
	out, err := s.Engine.Ping(r.Context(), p.Host, p.VantagePoints)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"host": p.Host, "reachability": out})
}

func (s *Server) handleHTTPCheck(w http.ResponseWriter, r *http.Request) {
	var p urlPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badPayload(w)
		return
	}
	out, err := s.Engine.CheckHTTP(r.Context(), p.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePortScan(w http.ResponseWriter, r *http.Request) {
	var p hostPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badPayload(w)
		return
	}
	out, err := s.Engine.ScanPorts(r.Context(), p.Host, p.Ports)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSSLInspect(w http.ResponseWriter, r *http.Request) {
	var p hostPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badPayload(w)
		return
	}
	out, err := s.Engine.InspectSSL(r.Context(), p.Host)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var p hostPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badPayload(w)
		return
	}
	rep, err := s.Engine.Report(r.Context(), p.Host)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.Reports != nil {
		if err := s.Reports.SaveReport(r.Context(), &rep); err != nil {
			s.Logger.Warn("report_save_failed", zap.String("host", rep.Host), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	rep, err := s.Reports.LatestReport(r.Context(), host)
	if err != nil {
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	}
	if rep == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report for host"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// normalizeTargetURL canonicalizes a monitored URL: scheme must be http or
// https, host is lowercased, a bare trailing slash is dropped.
func normalizeTargetURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", errors.New("url must be http(s) with a host")
	}
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p urlPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		badPayload(w)
		return
	}
	normalized, err := normalizeTargetURL(p.URL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid url"})
		return
	}
	p.URL = normalized

	if existing, err := s.Targets.GetByURL(r.Context(), p.URL); err != nil {
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	} else if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "target already exists"})
		return
	}

	t := &domain.Target{URL: p.URL, CreatedAt: time.Now().UTC()}
	if err := s.Targets.Add(r.Context(), t); err != nil {
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	// Run a single check synchronously for immediate feedback.
	out, err := s.Engine.CheckHTTP(r.Context(), p.URL)
	cr := &domain.CheckResult{
		TargetID:       t.ID,
		Up:             err == nil && out.StatusCode >= 200 && out.StatusCode < 400,
		HTTPStatus:     out.StatusCode,
		ResponseTimeMs: out.ResponseTimeMs,
		CheckedAt:      time.Now().UTC(),
	}
	if err != nil {
		cr.Reason = err.Error()
	} else {
		cr.Reason = http.StatusText(out.StatusCode)
	}
	_ = s.Results.Append(r.Context(), cr)

	s.Logger.Info("added_target",
		zap.String("url", p.URL),
		zap.Bool("up", cr.Up),
		zap.Int64("response_time_ms", cr.ResponseTimeMs),
	)

	writeJSON(w, http.StatusCreated, map[string]any{"target": t, "result": cr})
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeError maps a probe error kind to a response status, keeping the
// kind visible to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := probe.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case probe.KindValidation:
		status = http.StatusBadRequest
	case probe.KindTimeout:
		status = http.StatusGatewayTimeout
	case probe.KindHostUnreachable, probe.KindDomainNotFound, probe.KindSSLNotAvailable,
		probe.KindInvalidCertificate, probe.KindHTTPCheckFailed, probe.KindSSLCheckFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func badPayload(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad payload"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
