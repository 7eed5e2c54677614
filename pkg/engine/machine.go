package engine

import (
	"strings"

	"github.com/baitline/baitline/pkg/behavior"
	"github.com/baitline/baitline/pkg/lexicon"
	"github.com/baitline/baitline/pkg/patterns"
)

// Analysis is the per-turn breakdown the machine derives before choosing
// a state. It is exported verbatim in session debug output.
type Analysis struct {
	State            State              `json:"state"`
	Urgency          int                `json:"urgency"`
	Money            bool               `json:"money_mention"`
	InfoRequest      bool               `json:"info_request"`
	Threat           bool               `json:"threat_level"`
	IsQuestion       bool               `json:"is_question"`
	TransactionVerb  bool               `json:"transaction_verb"`
	Jailbreak        bool               `json:"jailbreak_detected,omitempty"`
	JailbreakPattern string             `json:"jailbreak_pattern,omitempty"`
	ForcedExtract    bool               `json:"forced_extract,omitempty"`
	ForcedPattern    string             `json:"forced_pattern,omitempty"`
	Behavior         behavior.TurnScore `json:"behavior"`
}

// machineContext is the accumulated state of one conversation.
type machineContext struct {
	turns                []string
	lastState            State
	stateCounts          map[State]int
	urgencyLevel         int
	transactionVerbCount int
	forcedExtractCount   int
	jailbreakAttempts    int
	defaultRotationIndex int
	templateIndex        map[string]int
}

const jailbreakTemplateKey = "__jailbreak__"

// Machine selects the engagement state for each inbound message. One
// Machine per conversation; not safe for concurrent use.
type Machine struct {
	lex      *lexicon.Bundle
	registry *patterns.Registry
	scorer   *behavior.Scorer
	pack     *TemplatePack
	ctx      machineContext
}

// NewMachine wires a fresh machine. A nil pack selects the default
// persona.
func NewMachine(lex *lexicon.Bundle, registry *patterns.Registry, pack *TemplatePack) *Machine {
	if pack == nil {
		pack = DefaultTemplatePack()
	}
	return &Machine{
		lex:      lex,
		registry: registry,
		scorer:   behavior.NewScorer(lex),
		pack:     pack,
		ctx: machineContext{
			stateCounts:   make(map[State]int),
			templateIndex: make(map[string]int),
		},
	}
}

// Scorer exposes the machine's behavior scorer for session rollups.
func (m *Machine) Scorer() *behavior.Scorer { return m.scorer }

// TurnCount returns the number of scammer turns processed.
func (m *Machine) TurnCount() int { return len(m.ctx.turns) }

// JailbreakAttempts returns how many jailbreak probes were deflected.
func (m *Machine) JailbreakAttempts() int { return m.ctx.jailbreakAttempts }

// ForcedExtractCount returns how many turns short-circuited to EXTRACT on
// a high-value pattern.
func (m *Machine) ForcedExtractCount() int { return m.ctx.forcedExtractCount }

// LastState returns the most recently selected state, empty before the
// first turn.
func (m *Machine) LastState() State { return m.ctx.lastState }

// ProcessTurn consumes one scammer message and returns the analysis with
// the chosen state filled in. Scoring always runs, even for turns that
// short-circuit on a pattern match.
func (m *Machine) ProcessTurn(text string) Analysis {
	m.ctx.turns = append(m.ctx.turns, text)

	score := m.scorer.ScoreTurn(text)

	textLower := strings.ToLower(text)

	// Transaction verbs count across the whole session and must be
	// tallied before state selection so the current turn participates.
	transactionVerb := m.lex.TransactionVerbs.ContainsAny(textLower)
	if transactionVerb {
		m.ctx.transactionVerbCount++
	}

	// Jailbreak probes preempt everything: deflect in persona, reveal
	// nothing, record the attempt.
	if p, _ := m.registry.FindFirst(text, patterns.CategoryJailbreak); p != nil {
		m.ctx.jailbreakAttempts++
		a := Analysis{
			State:            StateDeflect,
			Jailbreak:        true,
			JailbreakPattern: p.Name,
			IsQuestion:       strings.Contains(text, "?"),
			TransactionVerb:  transactionVerb,
			Behavior:         score,
		}
		m.updateContext(a)
		return a
	}

	a := Analysis{
		Urgency:         m.lex.Urgency.CountWeighted(textLower, 2),
		Money:           m.lex.Money.ContainsAny(textLower),
		InfoRequest:     m.lex.InfoRequest.ContainsAny(textLower),
		Threat:          m.lex.Threat.ContainsAny(textLower),
		IsQuestion:      strings.Contains(text, "?"),
		TransactionVerb: transactionVerb,
		Behavior:        score,
	}

	// High-value payment artifacts force immediate probing.
	if p, _ := m.registry.FindFirst(text, patterns.CategoryForceExtract); p != nil {
		m.ctx.forcedExtractCount++
		a.State = StateExtract
		a.ForcedExtract = true
		a.ForcedPattern = p.Name
		m.updateContext(a)
		return a
	}

	a.State = m.selectState(a)
	m.updateContext(a)
	return a
}

// selectState applies the rule cascade in priority order, falling back to
// a deterministic rotation that never repeats the previous state.
func (m *Machine) selectState(a Analysis) State {
	switch {
	case a.InfoRequest:
		return StateDeflect
	case m.scorer.ShouldForceExtract():
		return StateExtract
	case a.Urgency >= 6 || a.Threat:
		return StateStall
	case a.TransactionVerb && m.ctx.transactionVerbCount >= 2 &&
		len(m.ctx.turns) > 1 && m.ctx.lastState == StateClarify:
		return StateConfuse
	case a.Money:
		if m.ctx.lastState == StateClarify {
			return StateConfuse
		}
		return StateClarify
	case m.scorer.PreferExtract():
		return StateExtract
	case a.IsQuestion && m.ctx.stateCounts[StateExtract] < 3:
		return StateExtract
	}

	candidate := AllStates[m.ctx.defaultRotationIndex%len(AllStates)]
	m.ctx.defaultRotationIndex++
	if candidate == m.ctx.lastState {
		candidate = AllStates[m.ctx.defaultRotationIndex%len(AllStates)]
		m.ctx.defaultRotationIndex++
	}
	return candidate
}

func (m *Machine) updateContext(a Analysis) {
	if a.Urgency > m.ctx.urgencyLevel {
		m.ctx.urgencyLevel = a.Urgency
	}
	m.ctx.lastState = a.State
	m.ctx.stateCounts[a.State]++
}

// TemplateFor renders the persona reply for the analysed turn. Templates
// cycle per state and fill slots rotate with the turn count, so the same
// transcript always renders the same replies.
func (m *Machine) TemplateFor(a Analysis) string {
	if a.Jailbreak {
		idx := m.ctx.templateIndex[jailbreakTemplateKey]
		m.ctx.templateIndex[jailbreakTemplateKey]++
		return m.pack.JailbreakLines[idx%len(m.pack.JailbreakLines)]
	}

	templates, ok := m.pack.StateTemplates[a.State]
	if !ok || len(templates) == 0 {
		return m.pack.Fallback
	}

	idx := m.ctx.templateIndex[string(a.State)]
	m.ctx.templateIndex[string(a.State)]++
	tmpl := templates[idx%len(templates)]

	return m.fill(tmpl)
}

func (m *Machine) fill(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	turn := len(m.ctx.turns)
	for key, options := range m.pack.Fills {
		if len(options) == 0 {
			continue
		}
		slot := "{" + key + "}"
		if strings.Contains(tmpl, slot) {
			tmpl = strings.ReplaceAll(tmpl, slot, options[turn%len(options)])
		}
	}
	return tmpl
}
