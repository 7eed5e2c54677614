// Package api exposes the honeypot over HTTP: one endpoint to feed
// scammer messages in, and a handful of endpoints to pull intelligence,
// manage sessions and scrape metrics.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/baitline/baitline/pkg/archive"
	"github.com/baitline/baitline/pkg/engine"
	"github.com/baitline/baitline/pkg/intel"
	"github.com/baitline/baitline/pkg/memory"
	"github.com/baitline/baitline/pkg/observability"
	"github.com/baitline/baitline/pkg/ocr"
	"github.com/baitline/baitline/pkg/osint"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server wires the engine and its collaborators behind a fiber app.
type Server struct {
	app      *fiber.App
	log      *zap.Logger
	apiKey   string
	agent    *engine.Agent
	manager  *engine.Manager
	store    intel.Store
	archiver archive.Archiver
	enricher *osint.Enricher
	ocr      *ocr.Client
	metrics  *observability.Metrics
	now      func() time.Time
}

// Options carries the collaborators a Server needs. Only Agent, Manager
// and Store are required; the rest degrade to no-ops when nil.
type Options struct {
	APIKey   string
	Agent    *engine.Agent
	Manager  *engine.Manager
	Store    intel.Store
	Archiver archive.Archiver
	Enricher *osint.Enricher
	OCR      *ocr.Client
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Clock    func() time.Time
}

// NewServer builds the fiber app and registers all routes.
func NewServer(log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:      log,
		apiKey:   opts.APIKey,
		agent:    opts.Agent,
		manager:  opts.Manager,
		store:    opts.Store,
		archiver: opts.Archiver,
		enricher: opts.Enricher,
		ocr:      opts.OCR,
		metrics:  opts.Metrics,
		now:      opts.Clock,
	}
	if s.archiver == nil {
		s.archiver = archive.NopArchive{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName: "baitline",
	})

	app.Get("/healthz", s.handleHealth)
	if opts.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}),
		))
	}

	v1 := app.Group("/api/v1", s.requireAPIKey)
	v1.Post("/process", s.handleProcess)
	v1.Get("/export/:session", s.handleExport)
	v1.Post("/reset/:session", s.handleReset)
	v1.Get("/sessions", s.handleSessions)

	s.app = app
	return s
}

// App exposes the underlying fiber app for Listen and tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) requireAPIKey(c fiber.Ctx) error {
	if s.apiKey == "" {
		return c.Next()
	}
	if c.Get("x-api-key") != s.apiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
	}
	return c.Next()
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  Version,
		"sessions": s.manager.Len(),
	})
}

type historyEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type processRequest struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	ImageB64  string         `json:"image_b64"`
	History   []historyEntry `json:"history"`
}

type processResponse struct {
	SessionID       string            `json:"session_id"`
	Reply           string            `json:"reply"`
	State           string            `json:"state"`
	Composite       float64           `json:"composite"`
	Escalation      float64           `json:"escalation"`
	Analysis        engine.Analysis   `json:"analysis"`
	Artifacts       *extractedPayload `json:"artifacts"`
	ScamDetected    bool              `json:"scam_detected"`
	ScammerMessages int               `json:"scammer_messages"`
}

type extractedPayload struct {
	Turn    any `json:"turn"`
	Session any `json:"session"`
}

func (s *Server) handleProcess(c fiber.Ctx) error {
	var req processRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message field is required"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	fresh := s.manager.Get(req.SessionID) == nil
	sess, err := s.manager.GetOrCreate(req.SessionID)
	if err != nil {
		if errors.Is(err, engine.ErrTooManySessions) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "session limit reached"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session unavailable"})
	}
	if fresh && len(req.History) > 0 {
		turns := make([]memory.Turn, 0, len(req.History))
		for _, h := range req.History {
			role := memory.RoleScammer
			if h.Sender == string(memory.RoleAgent) {
				role = memory.RoleAgent
			}
			turns = append(turns, memory.Turn{Role: role, Text: h.Text})
		}
		s.agent.ReplayHistory(sess, turns)
	}

	message := req.Message
	if req.ImageB64 != "" && s.ocr != nil && s.ocr.Enabled() {
		if image, decErr := base64.StdEncoding.DecodeString(req.ImageB64); decErr == nil {
			message = s.ocr.Augment(c.Context(), message, image)
		} else {
			s.log.Warn("image payload not base64, ignored", zap.String("session_id", req.SessionID))
		}
	}

	wasScam := false
	if !fresh {
		wasScam = sess.Snapshot().ScamDetected
	}

	start := s.now()
	result := s.agent.Process(c.Context(), sess, message)
	s.observeTurn(result, wasScam, s.now().Sub(start))

	snap := sess.Snapshot()
	rec := intel.FromSnapshot(snap, s.now())
	s.persist(c.Context(), rec)
	s.archiveTurn(c.Context(), result, message)

	if s.enricher != nil && result.Extracted.HasArtifacts() {
		s.enricher.Enrich(req.SessionID, result.Extracted)
	}

	return c.JSON(processResponse{
		SessionID:  result.SessionID,
		Reply:      result.Reply,
		State:      string(result.Analysis.State),
		Composite:  result.Analysis.Behavior.Composite,
		Escalation: result.Escalation,
		Analysis:   result.Analysis,
		Artifacts: &extractedPayload{
			Turn:    result.Extracted,
			Session: snap.Artifacts,
		},
		ScamDetected:    result.ScamDetected,
		ScammerMessages: result.ScammerMessages,
	})
}

func (s *Server) observeTurn(result *engine.TurnResult, wasScam bool, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.MessagesProcessed.WithLabelValues(string(result.Analysis.State)).Inc()
	s.metrics.TurnDuration.Observe(elapsed.Seconds())
	s.metrics.ObserveArtifacts(result.Extracted)
	if result.Analysis.Jailbreak {
		s.metrics.JailbreakAttempts.Inc()
	}
	if result.Analysis.ForcedExtract {
		s.metrics.ForceExtracts.Inc()
	}
	if result.ScamDetected && !wasScam {
		s.metrics.ScamSessions.Inc()
	}
}

// archiveTurn appends both directions of the exchange to the archive.
// Failures are logged, not surfaced; the reply already left the engine.
func (s *Server) archiveTurn(ctx context.Context, result *engine.TurnResult, message string) {
	state := string(result.Analysis.State)
	composite := result.Analysis.Behavior.Composite
	rows := []archive.Turn{
		{SessionID: result.SessionID, Turn: result.ScammerMessages, Direction: "inbound", Text: message, State: state, Composite: composite},
		{SessionID: result.SessionID, Turn: result.ScammerMessages, Direction: "outbound", Text: result.Reply, State: state, Composite: composite},
	}
	for _, row := range rows {
		if err := s.archiver.SaveTurn(ctx, row); err != nil {
			s.log.Error("archive turn write failed", zap.String("session_id", row.SessionID), zap.Error(err))
		}
	}
}

// persist merges the record with any stored predecessor and writes it to
// the store and the archive. Neither failure aborts the request; the
// live session still holds the state.
func (s *Server) persist(ctx context.Context, rec *intel.SessionIntel) {
	if prev, err := s.store.Get(ctx, rec.SessionID); err == nil {
		rec.Merge(prev)
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.log.Error("intel store write failed", zap.String("session_id", rec.SessionID), zap.Error(err))
	}
	if err := s.archiver.Save(ctx, rec); err != nil {
		s.log.Error("archive write failed", zap.String("session_id", rec.SessionID), zap.Error(err))
	}
}

func (s *Server) handleExport(c fiber.Ctx) error {
	sessionID := c.Params("session")

	if sess := s.manager.Get(sessionID); sess != nil {
		// Flush the live aggregate so the export reflects every turn.
		s.persist(c.Context(), intel.FromSnapshot(sess.Snapshot(), s.now()))
	}

	rec, err := s.store.Get(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, intel.ErrNotFound) {
			return c.JSON(intel.BuildMissingExport(sessionID))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "export unavailable"})
	}

	if s.metrics != nil {
		s.metrics.ExportsServed.Inc()
	}
	return c.JSON(intel.BuildExport(rec, s.now()))
}

func (s *Server) handleReset(c fiber.Ctx) error {
	sessionID := c.Params("session")

	existed := s.manager.Delete(sessionID)
	if err := s.store.Delete(c.Context(), sessionID); err != nil && !errors.Is(err, intel.ErrNotFound) {
		s.log.Error("intel delete failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"reset":      true,
		"existed":    existed,
	})
}

type sessionSummary struct {
	SessionID        string  `json:"session_id"`
	ScamDetected     bool    `json:"scam_detected"`
	ScammerMessages  int     `json:"scammer_messages"`
	State            string  `json:"state"`
	BehaviorScore    float64 `json:"behavior_score"`
	JailbreakBlocked int     `json:"jailbreak_blocked"`
	LastActive       string  `json:"last_active"`
}

func (s *Server) handleSessions(c fiber.Ctx) error {
	ids := s.manager.IDs()
	summaries := make([]sessionSummary, 0, len(ids))
	for _, id := range ids {
		sess := s.manager.Get(id)
		if sess == nil {
			continue
		}
		snap := sess.Snapshot()
		summaries = append(summaries, sessionSummary{
			SessionID:        snap.SessionID,
			ScamDetected:     snap.ScamDetected,
			ScammerMessages:  snap.ScammerMessages,
			State:            string(snap.State),
			BehaviorScore:    snap.BehaviorScore,
			JailbreakBlocked: snap.JailbreakBlocked,
			LastActive:       snap.LastActive.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{
		"count":    len(summaries),
		"sessions": summaries,
	})
}
