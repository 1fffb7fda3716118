// Package status serves the HTTP monitoring surface of a game backend: a
// JSON status endpoint and a small auto-refreshing dashboard.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
	"github.com/openarcade/tugofwar/internal/game"
)

// RoomSource supplies the room snapshots the endpoints render.
type RoomSource interface {
	Snapshots() []game.Snapshot
}

// Server is the status HTTP server.
type Server struct {
	cfg    config.HTTPConfig
	source RoomSource
	logger *zap.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewServer creates a status server over the given room source.
//
// Precondition: source and logger must be non-nil.
func NewServer(cfg config.HTTPConfig, source RoomSource, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, source: source, logger: logger}
}

// Routes builds the HTTP handler. Exposed for handler-level tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/status", s.handleStatus)
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/dashboard", http.StatusFound)
	})
	return r
}

// Start runs the HTTP listener. It blocks until Stop is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("status server listening",
		zap.String("addr", listener.Addr().String()),
	)
	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("status server shutdown", zap.Error(err))
	}
}

// Addr returns the actual listening address, or empty string if not yet
// listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusPayload is the /api/status response body.
type statusPayload struct {
	Rooms        []game.Snapshot `json:"rooms"`
	RoomCount    int             `json:"room_count"`
	TotalClients int             `json:"total_clients"`
}

func (s *Server) buildPayload() statusPayload {
	snaps := s.source.Snapshots()
	total := 0
	for _, snap := range snaps {
		total += snap.TotalClients
	}
	if snaps == nil {
		snaps = []game.Snapshot{}
	}
	return statusPayload{
		Rooms:        snaps,
		RoomCount:    len(snaps),
		TotalClients: total,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.buildPayload()); err != nil {
		s.logger.Warn("encoding status", zap.Error(err))
	}
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>Tug of War</title>
<style>
body { font-family: monospace; background: #1e1e1e; color: #d4d4d4; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 0.4em 0.8em; text-align: right; }
th { background: #2d2d2d; }
.active { color: #6a9955; }
.idle { color: #808080; }
</style>
</head>
<body>
<h1>Tug of War &mdash; {{.RoomCount}} rooms, {{.TotalClients}} clients</h1>
<table>
<tr><th>Room</th><th>Bar</th><th>Timer</th><th>Left</th><th>Right</th><th>State</th><th>Winner</th></tr>
{{range .Rooms}}
<tr>
<td>{{.RoomID}}</td>
<td>{{.BarPosition}}</td>
<td>{{.Timer}}</td>
<td>{{.LeftCount}}</td>
<td>{{.RightCount}}</td>
{{if .GameActive}}<td class="active">playing</td>{{else}}<td class="idle">waiting</td>{{end}}
<td>{{.Winner}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, s.buildPayload()); err != nil {
		s.logger.Warn("rendering dashboard", zap.Error(err))
	}
}
