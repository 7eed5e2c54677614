package intel

import (
	"reflect"
	"testing"
	"time"

	"github.com/baitline/baitline/pkg/extract"
)

func TestMergeKeepsPrevOrderAndLatches(t *testing.T) {
	prev := sampleRecord("s1")

	fresh := &SessionIntel{
		SessionID:       "s1",
		ScamDetected:    false,
		ScammerMessages: 1,
		Artifacts: extract.Artifacts{
			UPIIDs: []string{"new@paytm", "scammer@upi"},
		},
		Keywords:      []string{"urgent", "refund"},
		State:         "CLARIFY",
		BehaviorScore: 0.2,
		CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC),
	}

	fresh.Merge(prev)

	if got := fresh.Artifacts.UPIIDs; !reflect.DeepEqual(got, []string{"scammer@upi", "new@paytm"}) {
		t.Errorf("UPIIDs = %v, want prev-first order", got)
	}
	if len(fresh.Artifacts.PhoneNumbers) != 1 {
		t.Errorf("PhoneNumbers = %v, want prev artifact kept", fresh.Artifacts.PhoneNumbers)
	}
	if got := fresh.Keywords; !reflect.DeepEqual(got, []string{"account", "urgent", "refund"}) {
		t.Errorf("Keywords = %v", got)
	}
	if !fresh.ScamDetected {
		t.Error("scam flag should latch from prev")
	}
	if fresh.ScammerMessages != 3 {
		t.Errorf("ScammerMessages = %d, want max 3", fresh.ScammerMessages)
	}
	if fresh.BehaviorScore != 0.6 {
		t.Errorf("BehaviorScore = %v, want max 0.6", fresh.BehaviorScore)
	}
	if !fresh.CreatedAt.Equal(prev.CreatedAt) {
		t.Errorf("CreatedAt = %v, want earliest", fresh.CreatedAt)
	}
	// The current turn's state and update time survive the merge.
	if fresh.State != "CLARIFY" {
		t.Errorf("State = %q", fresh.State)
	}
}

func TestMergeIdempotent(t *testing.T) {
	prev := sampleRecord("s1")

	a := sampleRecord("s1")
	a.Merge(prev)
	once := *a

	a.Merge(prev)
	if !reflect.DeepEqual(*a, once) {
		t.Error("second merge of the same record changed the result")
	}
}

func TestMergeNil(t *testing.T) {
	rec := sampleRecord("s1")
	before := *rec
	rec.Merge(nil)
	if !reflect.DeepEqual(*rec, before) {
		t.Error("merging nil should be a no-op")
	}
}
