package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/baitline/baitline/pkg/archive"
	"github.com/baitline/baitline/pkg/engine"
	"github.com/baitline/baitline/pkg/intel"
	"github.com/baitline/baitline/pkg/observability"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *engine.Manager, intel.Store) {
	t.Helper()
	agent := engine.NewAgent(nil)
	manager := engine.NewManager(agent, nil)
	t.Cleanup(manager.Close)
	store := intel.NewMemoryStore()

	srv := NewServer(nil, Options{
		APIKey:  apiKey,
		Agent:   agent,
		Manager: manager,
		Store:   store,
	})
	return srv, manager, store
}

func postJSON(t *testing.T, srv *Server, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, srv *Server, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp := getJSON(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestAPIKeyEnforced(t *testing.T) {
	srv, _, _ := newTestServer(t, "hunter2")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{"message": "hello"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv, "/api/v1/process", map[string]string{"message": "hello"},
		map[string]string{"x-api-key": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// Health stays open.
	resp = getJSON(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProcessValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProcessEngagesAndStoresIntel(t *testing.T) {
	srv, _, store := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{
		"session_id": "sess-1",
		"message":    "Your KYC is expired, pay to support@paytm immediately",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body processResponse
	decode(t, resp, &body)
	if body.SessionID != "sess-1" {
		t.Errorf("session_id = %q", body.SessionID)
	}
	if body.Reply == "" {
		t.Error("reply should not be empty")
	}
	if body.State == "" {
		t.Error("state should be set")
	}
	if !body.ScamDetected {
		t.Error("scam indicators should be detected")
	}
	if body.ScammerMessages != 1 {
		t.Errorf("scammer_messages = %d", body.ScammerMessages)
	}

	rec, err := store.Get(t.Context(), "sess-1")
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if len(rec.Artifacts.UPIIDs) != 1 || rec.Artifacts.UPIIDs[0] != "support@paytm" {
		t.Errorf("stored UPI IDs = %v", rec.Artifacts.UPIIDs)
	}
}

type recordingArchive struct {
	turns []archive.Turn
}

func (r *recordingArchive) Save(context.Context, *intel.SessionIntel) error { return nil }

func (r *recordingArchive) SaveTurn(_ context.Context, turn archive.Turn) error {
	r.turns = append(r.turns, turn)
	return nil
}

func (r *recordingArchive) Close() {}

func TestProcessCountsForceExtracts(t *testing.T) {
	agent := engine.NewAgent(nil)
	manager := engine.NewManager(agent, nil)
	t.Cleanup(manager.Close)
	reg := prometheus.NewRegistry()
	metrics := observability.New(reg, func() float64 { return 0 })

	srv := NewServer(nil, Options{
		Agent:    agent,
		Manager:  manager,
		Store:    intel.NewMemoryStore(),
		Metrics:  metrics,
		Registry: reg,
	})

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{
		"session_id": "sess-fx",
		"message":    "please pay with a gift card",
	}, nil)
	resp.Body.Close()

	if got := testutil.ToFloat64(metrics.ForceExtracts); got != 1 {
		t.Errorf("force_extracts_total = %v, want 1", got)
	}
}

func TestProcessArchivesTurnRows(t *testing.T) {
	agent := engine.NewAgent(nil)
	manager := engine.NewManager(agent, nil)
	t.Cleanup(manager.Close)
	arc := &recordingArchive{}
	srv := NewServer(nil, Options{
		Agent:    agent,
		Manager:  manager,
		Store:    intel.NewMemoryStore(),
		Archiver: arc,
	})

	messages := []string{"your account is blocked", "pay the verification fee now"}
	for _, msg := range messages {
		resp := postJSON(t, srv, "/api/v1/process", map[string]string{
			"session_id": "sess-arc",
			"message":    msg,
		}, nil)
		resp.Body.Close()
	}

	// Both directions of both exchanges, appended in order.
	if len(arc.turns) != 4 {
		t.Fatalf("archived turns = %d, want 4", len(arc.turns))
	}
	for i, msg := range messages {
		in, out := arc.turns[2*i], arc.turns[2*i+1]
		if in.Direction != "inbound" || out.Direction != "outbound" {
			t.Errorf("exchange %d directions = %q/%q", i+1, in.Direction, out.Direction)
		}
		if in.Turn != i+1 || out.Turn != i+1 {
			t.Errorf("exchange %d turn numbers = %d/%d, want %d", i+1, in.Turn, out.Turn, i+1)
		}
		if in.Text != msg {
			t.Errorf("exchange %d inbound text = %q", i+1, in.Text)
		}
		if out.Text == "" {
			t.Errorf("exchange %d outbound text empty", i+1)
		}
		if in.State == "" || in.SessionID != "sess-arc" {
			t.Errorf("exchange %d row metadata = %+v", i+1, in)
		}
	}
}

func TestProcessGeneratesSessionID(t *testing.T) {
	srv, manager, _ := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{"message": "hello there"}, nil)
	var body processResponse
	decode(t, resp, &body)

	if body.SessionID == "" {
		t.Fatal("session_id should be generated")
	}
	if manager.Get(body.SessionID) == nil {
		t.Error("generated session should be live")
	}
}

func TestProcessReplaysHistoryForNewSessions(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]any{
		"session_id": "sess-h",
		"message":    "did you send the money yet",
		"history": []map[string]string{
			{"sender": "scammer", "text": "Hello, I am calling from your bank about your account"},
			{"sender": "agent", "text": "which account? I use my-decoy@upi for everything"},
			{"sender": "scammer", "text": "You must verify your details at http://verify-kyc.in/refund now"},
		},
	}, nil)
	var body processResponse
	decode(t, resp, &body)

	// Two replayed scammer messages plus the live one; the agent turn
	// in the history must not count.
	if body.ScammerMessages != 3 {
		t.Errorf("scammer_messages = %d, want 3", body.ScammerMessages)
	}

	// Replayed scammer turns still feed extraction; the agent turn does
	// not, so its decoy UPI handle never shows up as an artifact.
	var sess struct {
		PhishingLinks []string `json:"phishing_links"`
		UPIIDs        []string `json:"upi_ids"`
	}
	raw, err := json.Marshal(body.Artifacts.Session)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &sess); err != nil {
		t.Fatal(err)
	}
	if len(sess.PhishingLinks) != 1 {
		t.Errorf("session phishing links = %v", sess.PhishingLinks)
	}
	if len(sess.UPIIDs) != 0 {
		t.Errorf("session upi ids = %v, want none harvested from agent turns", sess.UPIIDs)
	}

	// History on an existing session is ignored.
	resp = postJSON(t, srv, "/api/v1/process", map[string]any{
		"session_id": "sess-h",
		"message":    "answer me",
		"history": []map[string]string{
			{"sender": "scammer", "text": "again"},
			{"sender": "scammer", "text": "again"},
		},
	}, nil)
	decode(t, resp, &body)
	if body.ScammerMessages != 4 {
		t.Errorf("scammer_messages after second turn = %d, want 4", body.ScammerMessages)
	}
}

func TestExport(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{
		"session_id": "sess-x",
		"message":    "urgent, send money to support@paytm",
	}, nil)
	resp.Body.Close()

	resp = getJSON(t, srv, "/api/v1/export/sess-x")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var export intel.Export
	decode(t, resp, &export)
	if export.Status != "completed" {
		t.Errorf("status = %q", export.Status)
	}
	if export.SessionID != "sess-x" {
		t.Errorf("sessionId = %q", export.SessionID)
	}
	if export.TotalMessagesExchanged != 2 {
		t.Errorf("totalMessagesExchanged = %d, want 2", export.TotalMessagesExchanged)
	}
	if len(export.ExtractedIntelligence.UPIIDs) != 1 {
		t.Errorf("upiIds = %v", export.ExtractedIntelligence.UPIIDs)
	}
	if export.EngagementMetrics.EngagementDurationSeconds < 61 {
		t.Errorf("duration = %d, want >= 61", export.EngagementMetrics.EngagementDurationSeconds)
	}
}

func TestExportUnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp := getJSON(t, srv, "/api/v1/export/ghost")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var export intel.Export
	decode(t, resp, &export)
	if export.AgentNotes != "No session data found." {
		t.Errorf("agentNotes = %q", export.AgentNotes)
	}
	if export.ExtractedIntelligence.PhoneNumbers == nil {
		t.Error("phoneNumbers should be an empty array, not null")
	}
}

func TestReset(t *testing.T) {
	srv, manager, store := newTestServer(t, "")

	resp := postJSON(t, srv, "/api/v1/process", map[string]string{
		"session_id": "sess-r",
		"message":    "hello",
	}, nil)
	resp.Body.Close()

	resp = postJSON(t, srv, "/api/v1/reset/sess-r", nil, nil)
	var body map[string]any
	decode(t, resp, &body)
	if body["existed"] != true {
		t.Errorf("existed = %v", body["existed"])
	}
	if manager.Get("sess-r") != nil {
		t.Error("session should be gone")
	}
	if _, err := store.Get(t.Context(), "sess-r"); err == nil {
		t.Error("intel record should be gone")
	}

	resp = postJSON(t, srv, "/api/v1/reset/sess-r", nil, nil)
	decode(t, resp, &body)
	if body["existed"] != false {
		t.Errorf("second reset existed = %v", body["existed"])
	}
}

func TestSessionsListing(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	for _, id := range []string{"b", "a"} {
		resp := postJSON(t, srv, "/api/v1/process", map[string]string{
			"session_id": id,
			"message":    "hello",
		}, nil)
		resp.Body.Close()
	}

	resp := getJSON(t, srv, "/api/v1/sessions")
	var body struct {
		Count    int              `json:"count"`
		Sessions []sessionSummary `json:"sessions"`
	}
	decode(t, resp, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d", body.Count)
	}
	if body.Sessions[0].SessionID != "a" || body.Sessions[1].SessionID != "b" {
		t.Errorf("sessions not sorted: %v", body.Sessions)
	}
	for _, s := range body.Sessions {
		if _, err := time.Parse(time.RFC3339, s.LastActive); err != nil {
			t.Errorf("last_active %q not RFC3339: %v", s.LastActive, err)
		}
	}
}
