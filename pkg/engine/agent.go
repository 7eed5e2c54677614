package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/baitline/baitline/pkg/extract"
	"github.com/baitline/baitline/pkg/lexicon"
	"github.com/baitline/baitline/pkg/memory"
	"github.com/baitline/baitline/pkg/patterns"
	"github.com/baitline/baitline/pkg/textnorm"
)

// Completer generates a persona reply from a prompt. Implementations
// must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Session is the live state of one engagement. All access goes through
// its mutex; the manager hands out sessions to one request at a time but
// background sweeps may inspect timestamps concurrently.
type Session struct {
	ID string

	mu         sync.Mutex
	createdAt  time.Time
	lastActive time.Time

	machine  *Machine
	renderer *Renderer
	conv     *memory.Conversation

	artifacts    extract.Artifacts
	keywords     []string
	keywordSeen  map[string]struct{}
	scamDetected bool
	survivalIdx  int
}

// Snapshot is a consistent read of a session's accumulated intelligence.
type Snapshot struct {
	SessionID        string
	CreatedAt        time.Time
	LastActive       time.Time
	ScamDetected     bool
	ScammerMessages  int
	Artifacts        extract.Artifacts
	Keywords         []string
	State            State
	BehaviorScore    float64
	JailbreakBlocked int
}

// TurnResult is everything one processed message produced.
type TurnResult struct {
	SessionID       string
	Reply           string
	Analysis        Analysis
	Escalation      float64
	Extracted       *extract.Artifacts
	ScamDetected    bool
	ScammerMessages int
}

// Agent turns inbound scammer messages into persona replies. Stateless
// across sessions; per-session state lives in Session.
type Agent struct {
	lex       *lexicon.Bundle
	registry  *patterns.Registry
	extractor *extract.Extractor
	pack      *TemplatePack
	completer Completer
	onFailure func()
	onRepair  func()
	log       *zap.Logger
	now       func() time.Time
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithCompleter plugs in a language model. Without one the agent runs
// fully deterministic on templates.
func WithCompleter(c Completer) AgentOption {
	return func(a *Agent) { a.completer = c }
}

// WithFailureHook registers a callback invoked whenever a completion
// fails and the agent falls back to a survival line.
func WithFailureHook(fn func()) AgentOption {
	return func(a *Agent) { a.onFailure = fn }
}

// WithRepairHook registers a callback invoked whenever a model reply
// fails the outbound contract and gets rewritten.
func WithRepairHook(fn func()) AgentOption {
	return func(a *Agent) { a.onRepair = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AgentOption {
	return func(a *Agent) { a.now = now }
}

// WithTemplatePack overrides the persona templates.
func WithTemplatePack(p *TemplatePack) AgentOption {
	return func(a *Agent) { a.pack = p }
}

// NewAgent wires an agent with the default lexicons and patterns.
func NewAgent(log *zap.Logger, opts ...AgentOption) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Agent{
		lex:      lexicon.DefaultBundle(),
		registry: patterns.Get(),
		log:      log,
		now:      time.Now,
	}
	a.extractor = extract.New(a.lex)
	for _, opt := range opts {
		opt(a)
	}
	if a.pack == nil {
		a.pack = DefaultTemplatePack()
	}
	return a
}

// NewSession creates a fresh session with the given id.
func (a *Agent) NewSession(id string) *Session {
	now := a.now()
	return &Session{
		ID:          id,
		createdAt:   now,
		lastActive:  now,
		machine:     NewMachine(a.lex, a.registry, a.pack),
		renderer:    NewRenderer(),
		conv:        memory.NewConversation(),
		keywordSeen: make(map[string]struct{}),
	}
}

// ReplayHistory feeds prior turns through extraction and the transcript
// only. Replayed turns never touch the state machine or the scorer, so a
// replayed session resumes with clean rotation state. Agent-side turns
// land in the transcript but are never mined for artifacts; the honeypot
// does not harvest from its own replies.
func (a *Agent) ReplayHistory(s *Session, history []memory.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, turn := range history {
		text := textnorm.Fold(turn.Text)
		if turn.Role == memory.RoleAgent {
			s.conv.AddAgent(text, a.now())
			continue
		}
		s.conv.AddScammer(text, a.now())
		a.absorb(s, text)
	}
}

// Process handles one inbound message end to end: score, pick a state,
// extract artifacts and render the persona reply.
func (a *Agent) Process(ctx context.Context, s *Session, text string) *TurnResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fold adversarial unicode up front so every downstream matcher
	// sees the same canonical text.
	text = textnorm.Fold(text)

	now := a.now()
	s.lastActive = now
	s.conv.AddScammer(text, now)

	extracted := a.absorb(s, text)

	analysis := s.machine.ProcessTurn(text)

	reply := a.reply(ctx, s, analysis)
	s.conv.AddAgent(reply, a.now())

	a.log.Debug("turn processed",
		zap.String("session_id", s.ID),
		zap.String("state", string(analysis.State)),
		zap.Bool("jailbreak", analysis.Jailbreak),
		zap.Bool("has_artifacts", extracted.HasArtifacts()),
	)

	return &TurnResult{
		SessionID:       s.ID,
		Reply:           reply,
		Analysis:        analysis,
		Escalation:      s.machine.Scorer().EscalationMultiplier(),
		Extracted:       extracted,
		ScamDetected:    s.scamDetected,
		ScammerMessages: s.conv.ScammerTurns(),
	}
}

// absorb extracts artifacts and scam indicators from one message into
// the session aggregate. Caller holds s.mu.
func (a *Agent) absorb(s *Session, text string) *extract.Artifacts {
	extracted := a.extractor.Extract(text)
	s.artifacts.Merge(extracted)

	for _, kw := range a.extractor.SuspiciousKeywords(text) {
		if _, dup := s.keywordSeen[kw]; !dup {
			s.keywordSeen[kw] = struct{}{}
			s.keywords = append(s.keywords, kw)
		}
	}
	if len(s.keywords) > 0 {
		s.scamDetected = true
	}
	return extracted
}

// reply renders the outbound line. Jailbreak turns always answer from
// the canned deflections; otherwise the language model is tried first
// with the template path as fallback.
func (a *Agent) reply(ctx context.Context, s *Session, analysis Analysis) string {
	if analysis.Jailbreak {
		return s.machine.TemplateFor(analysis)
	}

	if a.completer != nil {
		if reply, ok := a.completeReply(ctx, s, analysis); ok {
			return reply
		}
		// Model unavailable: keep the caller engaged with a survival
		// line and carry on next turn.
		if a.onFailure != nil {
			a.onFailure()
		}
		line := a.pack.SurvivalLines[s.survivalIdx%len(a.pack.SurvivalLines)]
		s.survivalIdx++
		return line
	}

	return s.machine.TemplateFor(analysis)
}

func (a *Agent) completeReply(ctx context.Context, s *Session, analysis Analysis) (string, bool) {
	prompt := a.buildPrompt(s, analysis)
	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.log.Warn("completion failed", zap.String("session_id", s.ID), zap.Error(err))
		return "", false
	}

	turnCount := s.machine.TurnCount()
	before := s.renderer.Repairs()
	reply := s.renderer.Finalize(raw, turnCount, func() string {
		again, rerr := a.completer.Complete(ctx, prompt)
		if rerr != nil {
			return ""
		}
		return again
	})
	if s.renderer.Repairs() > before && a.onRepair != nil {
		a.onRepair()
	}
	return reply, true
}

var stateDirectives = map[State]string{
	StateClarify: "Ask them to repeat or explain what they said. You are hard of hearing.",
	StateConfuse: "Mix up their request with an unrelated personal errand.",
	StateStall:   "Find a small reason to make them wait.",
	StateExtract: "Ask who they are: company, name, employee ID, callback number.",
	StateDeflect: "Change the subject to something from your daily life.",
}

func (a *Agent) buildPrompt(s *Session, analysis Analysis) string {
	var b strings.Builder
	b.WriteString("You are a confused elderly person answering an unsolicited call. ")
	b.WriteString("You never share real numbers, codes or personal details. ")
	b.WriteString(stateDirectives[analysis.State])
	b.WriteString("\n\nConversation so far:\n")
	for _, t := range s.conv.Turns() {
		if t.Role == memory.RoleScammer {
			b.WriteString("Caller: ")
		} else {
			b.WriteString("You: ")
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	b.WriteString("\nReply with one short spoken line.")
	return b.String()
}

// Snapshot returns a consistent copy of the session's aggregate state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:        s.ID,
		CreatedAt:        s.createdAt,
		LastActive:       s.lastActive,
		ScamDetected:     s.scamDetected,
		ScammerMessages:  s.conv.ScammerTurns(),
		Artifacts:        *s.artifacts.Clone(),
		Keywords:         append([]string(nil), s.keywords...),
		State:            s.machine.LastState(),
		BehaviorScore:    s.machine.Scorer().SessionBehaviorScore(),
		JailbreakBlocked: s.machine.JailbreakAttempts(),
	}
}

// LastActive returns the session's last activity time.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
