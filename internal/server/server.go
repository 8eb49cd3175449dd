package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/studiowebux/perfscope/internal/collector"
	"github.com/studiowebux/perfscope/internal/filter"
	"github.com/studiowebux/perfscope/internal/logging"
	"github.com/studiowebux/perfscope/internal/source"
	"github.com/studiowebux/perfscope/internal/types"
)

const (
	// DefaultAddr is used when no address is configured
	DefaultAddr = "127.0.0.1:8787"

	maxBodyBytes    = 10 << 20
	maxLogs         = 1000
	shutdownTimeout = 5 * time.Second
)

// RequestLog represents a handled request
type RequestLog struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// Server serves analysis over HTTP
type Server struct {
	collector  *collector.Collector
	synthetic  source.Source
	logger     *log.Logger
	httpServer *http.Server
	listener   net.Listener

	logs      []RequestLog
	logsMutex sync.RWMutex
}

// New creates a server. synthetic backs GET /api/synthetic.
func New(c *collector.Collector, synthetic source.Source, logger *log.Logger) *Server {
	return &Server{
		collector: c,
		synthetic: synthetic,
		logger:    logging.OrDiscard(logger),
		logs:      make([]RequestLog, 0),
	}
}

// Handler returns the routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/synthetic", s.handleSynthetic)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.withLogging(mux)
}

// Start binds addr and serves in the background
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "err", err)
		}
	}()

	s.logger.Info("listening", "addr", s.GetAddress())
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// GetAddress returns the server base URL
func (s *Server) GetAddress() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// handleAnalyze analyzes a posted snapshot (JSON or JSONC).
// ?format=har accepts a HAR document instead; ?q= applies a JMESPath query.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	var snap *types.Snapshot
	if r.URL.Query().Get("format") == "har" {
		var har source.HARFile
		if err := json.Unmarshal(data, &har); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse HAR: %w", err))
			return
		}
		snap, err = source.FromHAR(&har)
	} else {
		snap, err = source.DecodeSnapshot(data, ".json")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.collector.Analyze(snap)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeReport(w, r, report)
}

func (s *Server) handleSynthetic(w http.ResponseWriter, r *http.Request) {
	report, err := s.collector.Run(r.Context(), s.synthetic)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeReport(w, r, report)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetLogs())
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, report *collector.Report) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, report)
		return
	}
	if filter.IsShellCommand(query) {
		writeError(w, http.StatusBadRequest, errors.New("shell queries are not accepted over HTTP"))
		return
	}

	out, err := filter.Apply(report, query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

// statusRecorder captures the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := RequestLog{
			Timestamp: start,
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    rec.status,
			Duration:  time.Since(start),
		}
		s.logRequest(entry)
		s.logger.Debug("request", "method", entry.Method, "path", entry.Path, "status", entry.Status, "duration", entry.Duration)
	})
}

// logRequest adds a request to the log, keeping the last maxLogs
func (s *Server) logRequest(entry RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// GetLogs returns a copy of the handled requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
