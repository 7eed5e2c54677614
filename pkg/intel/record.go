// Package intel persists what each engagement yielded: extracted
// artifacts, scam indicators and engagement counters, with a JSON export
// projection for downstream reporting.
package intel

import (
	"time"

	"github.com/baitline/baitline/pkg/engine"
	"github.com/baitline/baitline/pkg/extract"
)

// SessionIntel is the durable record for one session.
type SessionIntel struct {
	SessionID        string            `json:"session_id"`
	ScamDetected     bool              `json:"scam_detected"`
	ScammerMessages  int               `json:"scammer_messages"`
	Artifacts        extract.Artifacts `json:"artifacts"`
	Keywords         []string          `json:"keywords"`
	State            string            `json:"state"`
	BehaviorScore    float64           `json:"behavior_score"`
	JailbreakBlocked int               `json:"jailbreak_blocked"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Merge folds a previously stored record into r. Artifacts and keywords
// keep prev's first-seen order, booleans latch true, counters and scores
// keep their maxima. Merging the same record twice changes nothing.
func (r *SessionIntel) Merge(prev *SessionIntel) {
	if prev == nil {
		return
	}

	combined := *prev.Artifacts.Clone()
	combined.Merge(&r.Artifacts)
	r.Artifacts = combined

	seen := make(map[string]struct{}, len(prev.Keywords))
	keywords := append([]string(nil), prev.Keywords...)
	for _, kw := range prev.Keywords {
		seen[kw] = struct{}{}
	}
	for _, kw := range r.Keywords {
		if _, dup := seen[kw]; !dup {
			seen[kw] = struct{}{}
			keywords = append(keywords, kw)
		}
	}
	r.Keywords = keywords

	r.ScamDetected = r.ScamDetected || prev.ScamDetected
	if prev.ScammerMessages > r.ScammerMessages {
		r.ScammerMessages = prev.ScammerMessages
	}
	if prev.BehaviorScore > r.BehaviorScore {
		r.BehaviorScore = prev.BehaviorScore
	}
	if prev.JailbreakBlocked > r.JailbreakBlocked {
		r.JailbreakBlocked = prev.JailbreakBlocked
	}
	if !prev.CreatedAt.IsZero() && prev.CreatedAt.Before(r.CreatedAt) {
		r.CreatedAt = prev.CreatedAt
	}
}

// FromSnapshot converts a live session snapshot into its durable record.
func FromSnapshot(snap engine.Snapshot, updatedAt time.Time) *SessionIntel {
	return &SessionIntel{
		SessionID:        snap.SessionID,
		ScamDetected:     snap.ScamDetected,
		ScammerMessages:  snap.ScammerMessages,
		Artifacts:        snap.Artifacts,
		Keywords:         snap.Keywords,
		State:            string(snap.State),
		BehaviorScore:    snap.BehaviorScore,
		JailbreakBlocked: snap.JailbreakBlocked,
		CreatedAt:        snap.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}
