// Package api exposes the backtest runner over HTTP and websocket.
package api

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/oracle"
	"backtest-lab/internal/strategy"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server serves backtest, prediction, health and status endpoints.
type Server struct {
	runner         *backtest.Runner
	predictor      oracle.Oracle
	archiveBackend string
	limiter        *rate.Limiter
	logger         zerolog.Logger
	started        time.Time

	// mock series for short /predict inputs
	mockMu  sync.Mutex
	mockRng *rand.Rand

	// State
	mu         sync.Mutex
	runs       int
	failedRuns int
	lastRun    time.Time
	wsActive   int
}

// Options configures a Server.
type Options struct {
	Runner         *backtest.Runner
	Predictor      oracle.Oracle // nil → heuristic oracle
	ArchiveBackend string        // reported by /status
	RateLimit      float64       // requests per second, 0 disables
	RateBurst      int
	MockSeed       uint64
	Logger         zerolog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	predictor := opts.Predictor
	if predictor == nil {
		predictor = oracle.NewHeuristicOracle()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Server{
		runner:         opts.Runner,
		predictor:      predictor,
		archiveBackend: opts.ArchiveBackend,
		limiter:        limiter,
		logger:         opts.Logger,
		started:        time.Now(),
		mockRng:        rand.New(rand.NewPCG(opts.MockSeed, opts.MockSeed)),
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "POST /api/backtest", "/api/backtest", http.HandlerFunc(s.handleBacktest))
	s.handle(mux, "POST /predict", "/predict", http.HandlerFunc(s.handlePredict))
	s.handle(mux, "GET /ws/backtest", "/ws/backtest", http.HandlerFunc(s.handleWSBacktest))
	s.handle(mux, "GET /health", "/health", http.HandlerFunc(s.handleHealth))
	s.handle(mux, "GET /status", "/status", http.HandlerFunc(s.handleStatus))
	s.handle(mux, "GET /metrics", "/metrics", observability.Handler())

	return corsMiddleware(s.rateLimitMiddleware(mux))
}

// handle registers h under pattern with request metrics labeled by route.
func (s *Server) handle(mux *http.ServeMux, pattern, route string, h http.Handler) {
	mux.Handle(pattern, s.instrument(route, h))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	StartedAt      time.Time `json:"started_at"`
	LastRun        time.Time `json:"last_run,omitempty"`
	Runs           int       `json:"runs"`
	FailedRuns     int       `json:"failed_runs"`
	WSSessions     int       `json:"ws_sessions"`
	ArchiveBackend string    `json:"archive_backend"`
	Strategies     []string  `json:"strategies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		StartedAt:      s.started,
		LastRun:        s.lastRun,
		Runs:           s.runs,
		FailedRuns:     s.failedRuns,
		WSSessions:     s.wsActive,
		ArchiveBackend: s.archiveBackend,
		Strategies:     strategy.Names(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// recordRun updates run counters for /status.
func (s *Server) recordRun(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if err != nil {
		s.failedRuns++
	}
	s.lastRun = time.Now()
}

func (s *Server) wsSession(delta int) {
	s.mu.Lock()
	s.wsActive += delta
	s.mu.Unlock()
	if delta > 0 {
		observability.WSSessionOpened()
	} else {
		observability.WSSessionClosed()
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// messageResponse is the error body of the backtest endpoints.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
