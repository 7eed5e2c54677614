// Package behavior accumulates per-turn intent signals into an
// explainable composite score. Pure string matching and arithmetic; no
// model calls, no randomness, so identical transcripts always score
// identically.
//
// Per-turn formula:
//
//	composite = 0.35*dUrgency + 0.25*pressure + 0.20*credentialRepeat
//	          + 0.10*(1-delayTolerance) + 0.10*politenessShift
//
// The session behavior score is the running peak of composite and
// cumulative values and never decreases: once risk is observed the sender
// cannot talk it back down.
package behavior

import (
	"math"
	"sort"
	"strings"

	"github.com/baitline/baitline/pkg/lexicon"
)

// Composite weights. They sum to 1.0 so the composite stays in [0,1].
const (
	wUrgency    = 0.35
	wPressure   = 0.25
	wCredential = 0.20
	wDelay      = 0.10
	wPoliteness = 0.10
)

// Decision thresholds.
const (
	forceExtractCumulative = 0.60
	forceExtractLatest     = 0.70
	preferExtractThreshold = 0.40
)

// Signals are the raw counts extracted from a single turn.
type Signals struct {
	UrgencyCount    int
	PressureCount   int
	CredentialHits  int
	PolitenessCount int
	ImpatienceCount int
	DelayAccepted   bool
	WordCount       int
}

// TurnScore is the scored breakdown for a single turn. Every component is
// in [0,1]; values are rounded to three decimals for stable export.
type TurnScore struct {
	DeltaUrgency     float64 `json:"delta_urgency"`
	PressureLex      float64 `json:"pressure_lex"`
	CredentialRepeat float64 `json:"credential_repeat"`
	DelayTolerance   float64 `json:"delay_tolerance"`
	PolitenessShift  float64 `json:"politeness_shift"`
	Composite        float64 `json:"composite"`
}

// Scorer tracks sender behaviour across turns. Not safe for concurrent
// use; each conversation owns its own Scorer.
type Scorer struct {
	lex *lexicon.Bundle

	history []Signals
	scores  []TurnScore

	credentialSeen  map[string]struct{}
	cumulative      float64
	sessionPeak     float64 // monotonically non-decreasing
	dimensionsFired map[string]struct{}
}

// NewScorer returns a Scorer wired to the given lexicons.
func NewScorer(lex *lexicon.Bundle) *Scorer {
	return &Scorer{
		lex:             lex,
		credentialSeen:  make(map[string]struct{}),
		dimensionsFired: make(map[string]struct{}),
	}
}

// ScoreTurn analyses one scammer message, accumulates session state and
// returns the turn's score breakdown.
func (s *Scorer) ScoreTurn(text string) TurnScore {
	signals := s.extractSignals(text)
	s.history = append(s.history, signals)

	var ts TurnScore

	// Urgency delta against the previous turn, normalised to [0,1].
	// First turn scores against zero.
	if len(s.history) >= 2 {
		prev := s.history[len(s.history)-2].UrgencyCount
		delta := signals.UrgencyCount - prev
		if delta < 0 {
			delta = 0
		}
		ts.DeltaUrgency = math.Min(float64(delta)/3.0, 1.0)
	} else {
		ts.DeltaUrgency = math.Min(float64(signals.UrgencyCount)/3.0, 1.0)
	}

	ts.PressureLex = math.Min(float64(signals.PressureCount)/4.0, 1.0)

	// Credential repeat fires when a credential keyword recurs versus the
	// running seen-set; new keywords only register after scoring.
	textLower := strings.ToLower(text)
	current := s.lex.Credential.Matches(textLower)
	for _, kw := range current {
		if _, ok := s.credentialSeen[kw]; ok {
			ts.CredentialRepeat = 1.0
			break
		}
	}
	for _, kw := range current {
		s.credentialSeen[kw] = struct{}{}
	}

	if signals.DelayAccepted {
		ts.DelayTolerance = 1.0
	}

	// Politeness shift: impatience share of all tone markers, neutral 0.5
	// when neither side shows up.
	ts.PolitenessShift = 0.5
	if total := signals.PolitenessCount + signals.ImpatienceCount; total > 0 {
		ts.PolitenessShift = float64(signals.ImpatienceCount) / float64(total)
	}

	composite := wUrgency*ts.DeltaUrgency +
		wPressure*ts.PressureLex +
		wCredential*ts.CredentialRepeat +
		wDelay*(1.0-ts.DelayTolerance) +
		wPoliteness*ts.PolitenessShift
	ts.Composite = round3(math.Min(composite, 1.0))

	ts.DeltaUrgency = round3(ts.DeltaUrgency)
	ts.PressureLex = round3(ts.PressureLex)
	ts.CredentialRepeat = round3(ts.CredentialRepeat)
	ts.DelayTolerance = round3(ts.DelayTolerance)
	ts.PolitenessShift = round3(ts.PolitenessShift)

	s.scores = append(s.scores, ts)

	var sum float64
	for _, sc := range s.scores {
		sum += sc.Composite
	}
	s.cumulative = sum / float64(len(s.scores))

	s.sessionPeak = math.Max(s.sessionPeak, math.Max(ts.Composite, s.cumulative))

	if ts.DeltaUrgency > 0 {
		s.dimensionsFired["urgency"] = struct{}{}
	}
	if ts.PressureLex > 0 {
		s.dimensionsFired["pressure"] = struct{}{}
	}
	if ts.CredentialRepeat > 0 {
		s.dimensionsFired["credential"] = struct{}{}
	}
	if 1.0-ts.DelayTolerance > 0 {
		s.dimensionsFired["delay"] = struct{}{}
	}
	if ts.PolitenessShift > 0.5 {
		s.dimensionsFired["politeness"] = struct{}{}
	}

	return ts
}

// Cumulative returns the rolling average composite across all turns.
func (s *Scorer) Cumulative() float64 { return round3(s.cumulative) }

// SessionBehaviorScore returns the monotonically non-decreasing peak risk
// signal observed in the session.
func (s *Scorer) SessionBehaviorScore() float64 { return round3(s.sessionPeak) }

// EscalationMultiplier returns attack breadth as firedDimensions/5.
// Range [0,1] with granularity exactly 0.2.
func (s *Scorer) EscalationMultiplier() float64 {
	return round3(float64(len(s.dimensionsFired)) / 5.0)
}

// LatestScore returns the most recent turn's composite, or zero before
// the first turn.
func (s *Scorer) LatestScore() float64 {
	if len(s.scores) == 0 {
		return 0
	}
	return s.scores[len(s.scores)-1].Composite
}

// TurnCount returns the number of turns scored so far.
func (s *Scorer) TurnCount() int { return len(s.history) }

// ShouldForceExtract reports high-confidence scammer intent.
func (s *Scorer) ShouldForceExtract() bool {
	return s.Cumulative() >= forceExtractCumulative || s.LatestScore() >= forceExtractLatest
}

// PreferExtract reports medium-confidence scammer intent.
func (s *Scorer) PreferExtract() bool {
	return s.Cumulative() >= preferExtractThreshold
}

// Summary is the explainable session rollup for logs and export.
type Summary struct {
	TurnsScored          int         `json:"turns_scored"`
	CumulativeScore      float64     `json:"cumulative_score"`
	SessionBehaviorScore float64     `json:"session_behavior_score"`
	EscalationMultiplier float64     `json:"escalation_multiplier"`
	DimensionsFired      []string    `json:"dimensions_fired"`
	LatestScore          float64     `json:"latest_score"`
	ForceExtract         bool        `json:"force_extract"`
	PreferExtract        bool        `json:"prefer_extract"`
	CredentialsSeen      []string    `json:"credentials_seen"`
	PerTurn              []TurnScore `json:"per_turn"`
}

// Summarize returns the session rollup with sorted, stable slices.
func (s *Scorer) Summarize() Summary {
	return Summary{
		TurnsScored:          s.TurnCount(),
		CumulativeScore:      s.Cumulative(),
		SessionBehaviorScore: s.SessionBehaviorScore(),
		EscalationMultiplier: s.EscalationMultiplier(),
		DimensionsFired:      sortedKeys(s.dimensionsFired),
		LatestScore:          s.LatestScore(),
		ForceExtract:         s.ShouldForceExtract(),
		PreferExtract:        s.PreferExtract(),
		CredentialsSeen:      sortedKeys(s.credentialSeen),
		PerTurn:              append([]TurnScore(nil), s.scores...),
	}
}

// Reset clears all accumulated state for a fresh conversation.
func (s *Scorer) Reset() {
	s.history = s.history[:0]
	s.scores = s.scores[:0]
	s.credentialSeen = make(map[string]struct{})
	s.cumulative = 0
	s.sessionPeak = 0
	s.dimensionsFired = make(map[string]struct{})
}

func (s *Scorer) extractSignals(text string) Signals {
	textLower := strings.ToLower(text)
	return Signals{
		UrgencyCount:    s.lex.ScorerUrgency.Count(textLower),
		PressureCount:   s.lex.Pressure.Count(textLower),
		CredentialHits:  s.lex.Credential.Count(textLower),
		PolitenessCount: s.lex.Politeness.Count(textLower),
		ImpatienceCount: s.lex.Impatience.Count(textLower),
		DelayAccepted:   s.lex.DelayAcceptance.ContainsAny(textLower),
		WordCount:       len(strings.Fields(textLower)),
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
