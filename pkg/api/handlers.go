package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/ersave/pkg/fixer"
	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/save"
)

// Server holds the API server state
type Server struct {
	inspector Inspector
	config    ServerConfig
	metrics   *Metrics
	logger    *slog.Logger

	mu       sync.RWMutex
	current  *save.Container
	loadErr  error
	loadedAt time.Time
}

// NewServer creates a new API server. Call Reload before serving.
func NewServer(inspector Inspector, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	return &Server{
		inspector: inspector,
		config:    config,
		metrics:   metrics,
		logger:    logging.OrNop(logger),
	}
}

// Reload reads the save file again. A failed load keeps serving the last
// good container and reports the error on the health endpoint.
func (s *Server) Reload() error {
	c, err := s.inspector.Load(s.config.SavePath)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
	if err != nil {
		s.metrics.RecordReload(false, 0, 0)
		s.logger.Warn("api.reload_failed", slog.String("path", s.config.SavePath), slog.String("error", err.Error()))
		return err
	}
	s.current = c
	s.loadedAt = time.Now()

	mismatches := len(s.inspector.Integrity(c))
	s.metrics.RecordReload(true, len(c.ActiveSlotIndices()), mismatches)
	s.logger.Info("api.reload",
		slog.String("path", s.config.SavePath),
		slog.Int("active_slots", len(c.ActiveSlotIndices())),
		slog.Int("checksum_mismatches", mismatches),
	)
	return nil
}

// container returns the current save under the read lock, or writes a 503.
func (s *Server) container(w http.ResponseWriter) (*save.Container, func()) {
	s.mu.RLock()
	if s.current == nil {
		msg := "save not loaded"
		if s.loadErr != nil {
			msg = s.loadErr.Error()
		}
		s.mu.RUnlock()
		sendError(w, msg, http.StatusServiceUnavailable)
		return nil, nil
	}
	return s.current, s.mu.RUnlock
}

// handleHealth reports whether a save is loaded
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := HealthResponse{Status: "healthy", SavePath: s.config.SavePath}
	if s.current != nil {
		resp.LoadedAt = s.loadedAt
		resp.Platform = s.current.Layout.Platform.String()
		resp.ActiveSlots = len(s.current.ActiveSlotIndices())
	}
	if s.loadErr != nil {
		resp.Status = "degraded"
		resp.LoadError = s.loadErr.Error()
	}
	s.metrics.RecordHealthCheck(s.current != nil)
	sendSuccess(w, resp)
}

// handleCharacters lists the decoded characters
func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	c, done := s.container(w)
	if c == nil {
		return
	}
	defer done()

	out := []CharacterResponse{}
	for _, ch := range s.inspector.ListCharacters(c) {
		out = append(out, CharacterResponse{
			Slot:  ch.Slot + 1,
			Name:  ch.Name,
			Map:   ch.MapID.String(),
			MapID: ch.MapID,
			Level: ch.Level,
		})
	}
	sendSuccess(w, out)
}

// handleIssues runs detection on one slot
func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	slot, err := fixer.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, done := s.container(w)
	if c == nil {
		return
	}
	defer done()

	report, err := s.inspector.Report(c, slot)
	if errors.Is(err, fixer.ErrSlotUnavailable) {
		sendError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := IssuesResponse{Slot: slot + 1, Issues: []IssueResponse{}}
	for _, k := range report.Issues {
		resp.Issues = append(resp.Issues, IssueResponse{Kind: k.String(), Description: k.Describe()})
		s.metrics.RecordIssue(k.String())
	}
	for _, k := range report.Unavailable {
		resp.Unavailable = append(resp.Unavailable, k.String())
	}
	if report.TailErr != nil {
		resp.TailError = report.TailErr.Error()
	}
	sendSuccess(w, resp)
}

// handleChecksums verifies every stored digest
func (s *Server) handleChecksums(w http.ResponseWriter, r *http.Request) {
	c, done := s.container(w)
	if c == nil {
		return
	}
	defer done()

	resp := ChecksumResponse{Checked: c.Layout.HasChecksums(), Mismatches: []ChecksumMismatch{}}
	for _, e := range s.inspector.Integrity(c) {
		section := "common"
		if e.Slot != save.CommonSlot {
			section = fmt.Sprintf("slot %d", e.Slot+1)
		}
		resp.Mismatches = append(resp.Mismatches, ChecksumMismatch{
			Section:  section,
			Stored:   fmt.Sprintf("%X", e.Stored[:]),
			Computed: fmt.Sprintf("%X", e.Computed[:]),
		})
	}
	resp.Valid = len(resp.Mismatches) == 0
	sendSuccess(w, resp)
}
