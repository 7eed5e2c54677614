package behavior

import (
	"math"
	"testing"

	"github.com/baitline/baitline/pkg/lexicon"
)

const aggressiveTurn = "urgent hurry now immediately must arrest police warrant just send stop wasting"

func newTestScorer() *Scorer {
	return NewScorer(lexicon.DefaultBundle())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreTurnFirstTurnComponents(t *testing.T) {
	s := newTestScorer()

	// Four urgency keywords saturate delta urgency on the first turn.
	ts := s.ScoreTurn("urgent hurry now immediately")

	if !almostEqual(ts.DeltaUrgency, 1.0) {
		t.Errorf("DeltaUrgency = %v, want 1.0", ts.DeltaUrgency)
	}
	if !almostEqual(ts.PressureLex, 0) {
		t.Errorf("PressureLex = %v, want 0", ts.PressureLex)
	}
	if !almostEqual(ts.CredentialRepeat, 0) {
		t.Errorf("CredentialRepeat = %v, want 0", ts.CredentialRepeat)
	}
	if !almostEqual(ts.DelayTolerance, 0) {
		t.Errorf("DelayTolerance = %v, want 0", ts.DelayTolerance)
	}
	if !almostEqual(ts.PolitenessShift, 0.5) {
		t.Errorf("PolitenessShift = %v, want neutral 0.5", ts.PolitenessShift)
	}
	// 0.35*1 + 0.10*1 + 0.10*0.5
	if !almostEqual(ts.Composite, 0.5) {
		t.Errorf("Composite = %v, want 0.5", ts.Composite)
	}
}

func TestScoreTurnDeltaUrgencyUsesPreviousTurn(t *testing.T) {
	s := newTestScorer()

	s.ScoreTurn("urgent hurry now immediately")
	// Same urgency level as before: delta is zero, not re-counted.
	ts := s.ScoreTurn("urgent hurry now immediately")

	if !almostEqual(ts.DeltaUrgency, 0) {
		t.Errorf("DeltaUrgency on flat repeat = %v, want 0", ts.DeltaUrgency)
	}

	// Dropping to calm then spiking again scores the spike.
	s.ScoreTurn("hello there")
	ts = s.ScoreTurn("urgent hurry now")
	if !almostEqual(ts.DeltaUrgency, 1.0) {
		t.Errorf("DeltaUrgency after calm turn = %v, want 1.0", ts.DeltaUrgency)
	}
}

func TestCredentialRepeatRequiresRecurrence(t *testing.T) {
	s := newTestScorer()

	ts := s.ScoreTurn("tell me the otp")
	if !almostEqual(ts.CredentialRepeat, 0) {
		t.Fatalf("first mention scored CredentialRepeat = %v, want 0", ts.CredentialRepeat)
	}

	ts = s.ScoreTurn("share the otp quickly")
	if !almostEqual(ts.CredentialRepeat, 1.0) {
		t.Errorf("repeated mention scored CredentialRepeat = %v, want 1.0", ts.CredentialRepeat)
	}
}

func TestDelayToleranceAndPolitenessShift(t *testing.T) {
	s := newTestScorer()

	ts := s.ScoreTurn("sure, take your time")
	if !almostEqual(ts.DelayTolerance, 1.0) {
		t.Errorf("DelayTolerance = %v, want 1.0", ts.DelayTolerance)
	}

	ts = s.ScoreTurn("just send it, stop wasting my day")
	if !almostEqual(ts.PolitenessShift, 1.0) {
		t.Errorf("PolitenessShift all-impatience = %v, want 1.0", ts.PolitenessShift)
	}

	ts = s.ScoreTurn("please sir kindly do it, just send it now")
	// 1 impatience hit ("just send") vs 3 politeness hits.
	if ts.PolitenessShift >= 0.5 {
		t.Errorf("PolitenessShift politeness-heavy = %v, want < 0.5", ts.PolitenessShift)
	}
}

func TestSessionBehaviorScoreMonotone(t *testing.T) {
	s := newTestScorer()

	s.ScoreTurn(aggressiveTurn)
	peak := s.SessionBehaviorScore()
	if peak < 0.7 {
		t.Fatalf("peak after aggressive turn = %v, want >= 0.7", peak)
	}

	for i := 0; i < 5; i++ {
		s.ScoreTurn("sure, take your time")
		if got := s.SessionBehaviorScore(); got < peak {
			t.Fatalf("session score dropped from %v to %v after calm turn", peak, got)
		}
	}
}

func TestForceExtractThresholds(t *testing.T) {
	s := newTestScorer()

	if s.ShouldForceExtract() {
		t.Fatal("fresh scorer should not force extract")
	}

	ts := s.ScoreTurn(aggressiveTurn)
	if !almostEqual(ts.Composite, 0.8) {
		t.Fatalf("aggressive composite = %v, want 0.8", ts.Composite)
	}
	if !s.ShouldForceExtract() {
		t.Error("latest 0.8 should force extract")
	}
	if !s.PreferExtract() {
		t.Error("cumulative 0.8 should prefer extract")
	}
}

func TestEscalationMultiplierGranularity(t *testing.T) {
	s := newTestScorer()

	if got := s.EscalationMultiplier(); !almostEqual(got, 0) {
		t.Fatalf("fresh multiplier = %v, want 0", got)
	}

	s.ScoreTurn(aggressiveTurn)
	got := s.EscalationMultiplier()
	// urgency, pressure, delay and politeness fired; credential did not.
	if !almostEqual(got, 0.8) {
		t.Errorf("multiplier = %v, want 0.8", got)
	}

	valid := map[float64]bool{0: true, 0.2: true, 0.4: true, 0.6: true, 0.8: true, 1: true}
	if !valid[got] {
		t.Errorf("multiplier %v not a multiple of 0.2", got)
	}
}

func TestSummarizeStable(t *testing.T) {
	s := newTestScorer()
	s.ScoreTurn("tell me the otp and your pin now")
	s.ScoreTurn("the otp, quickly")

	a := s.Summarize()
	b := s.Summarize()

	if a.TurnsScored != 2 || b.TurnsScored != 2 {
		t.Fatalf("TurnsScored = %d/%d, want 2", a.TurnsScored, b.TurnsScored)
	}
	if len(a.CredentialsSeen) != len(b.CredentialsSeen) {
		t.Fatal("CredentialsSeen not stable across calls")
	}
	for i := range a.CredentialsSeen {
		if a.CredentialsSeen[i] != b.CredentialsSeen[i] {
			t.Fatalf("CredentialsSeen order differs at %d: %q vs %q", i, a.CredentialsSeen[i], b.CredentialsSeen[i])
		}
	}
	if len(a.PerTurn) != 2 {
		t.Errorf("PerTurn len = %d, want 2", len(a.PerTurn))
	}
}

func TestDeterministicAcrossInstances(t *testing.T) {
	turns := []string{
		"hello, this is bank security calling",
		"your account is blocked, verify your otp immediately",
		"just send the otp now, stop wasting time",
		"sure, take your time sir",
	}

	s1, s2 := newTestScorer(), newTestScorer()
	for _, turn := range turns {
		a := s1.ScoreTurn(turn)
		b := s2.ScoreTurn(turn)
		if a != b {
			t.Fatalf("turn %q scored differently: %+v vs %+v", turn, a, b)
		}
	}
	if s1.SessionBehaviorScore() != s2.SessionBehaviorScore() {
		t.Error("session scores diverged")
	}
}

func TestResetClearsState(t *testing.T) {
	s := newTestScorer()
	s.ScoreTurn(aggressiveTurn)
	s.Reset()

	if s.TurnCount() != 0 {
		t.Errorf("TurnCount after reset = %d, want 0", s.TurnCount())
	}
	if got := s.SessionBehaviorScore(); !almostEqual(got, 0) {
		t.Errorf("SessionBehaviorScore after reset = %v, want 0", got)
	}
	if s.ShouldForceExtract() {
		t.Error("reset scorer should not force extract")
	}
}
