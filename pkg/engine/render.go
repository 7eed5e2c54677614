package engine

import (
	"regexp"
	"strings"
)

// Reply hygiene lives here: scrub model artifacts, redact anything that
// looks like real credentials or numbers, block persona breaks, and make
// sure every outbound line signals suspicion and probes for identity.

var redFlagKeywords = []string{
	"otp", "account compromise", "suspicious", "fraud", "unauthorized",
	"verification code", "security risk",
}

var investigativePhrases = []string{
	"employee id", "branch", "manager", "callback number", "case id",
}

var personaBreakMarkers = []string{
	"ai language model", "i cannot", "i am just an ai", "i'm an ai",
	"i am an ai", "as an ai", "chatbot", "programmed to", "designed to",
	"algorithm", "virtual assistant", "digital assistant",
	"i cannot provide financial advice", "language model",
}

var redFlagOpeners = []string{
	"This sounds like an account compromise attempt.",
	"That seems very suspicious to me.",
	"I think this might be fraud.",
	"This feels like an unauthorized request.",
	"You mentioned an OTP and that worries me.",
	"Are you asking for a verification code from me?",
	"This sounds like a security risk.",
}

var followupQuestions = []string{
	"What is your employee ID?",
	"Which branch are you calling from?",
	"What is your manager's name?",
	"Can you give me your official callback number?",
	"Do you have a case ID for this?",
	"What branch did you say you were at?",
	"Who is your manager there?",
}

const personaBreakReplacement = "I'm confused. You mentioned an OTP and that worries me."

// Lines starting with these are instruction echo, not persona speech.
var echoPrefixes = []string{
	"rules:", "response rules:", "red flag", "investigative", "engagement",
	"behaviour:", "behavior:", "system:", "note:", "instruction", "reminder",
	"never:", "always:",
}

const (
	maxReplyLen         = 150
	similarityThreshold = 0.70
	replyHistoryDepth   = 4
)

var (
	bracketRe    = regexp.MustCompile(`\[[^\]]*\]`)
	codeBlockRe  = regexp.MustCompile("```[^`]*```")
	boldRe       = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]*)\*`)
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	headerRe     = regexp.MustCompile(`(?m)^#+\s*`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*]\s+`)
	rolePrefixRe = regexp.MustCompile(`(?i)^(you|me|agent|assistant|elderly|person)\s*:\s*`)
	aiRevealRe   = regexp.MustCompile(`(?i)\b(as an ai[^.!?]*|i am an ai[^.!?]*|i'm an ai[^.!?]*|i am a language model[^.!?]*)[.!?]?\s*`)
	wsRe         = regexp.MustCompile(`\s+`)

	blockedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{10,}\b`),
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{4,6}\b`),
		regexp.MustCompile(`(?i)\botp\b`),
		regexp.MustCompile(`(?i)\bpin\b`),
		regexp.MustCompile(`(?i)\bpassword\b`),
		regexp.MustCompile(`(?i)\bssn\b`),
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	}
	longDigitsRe = regexp.MustCompile(`\b\d{4,}\b`)
)

// Renderer finalises outbound replies. One per conversation; it tracks
// recent replies for the anti-repetition check.
type Renderer struct {
	pastReplies []string
	repairs     int
}

// NewRenderer returns a renderer with empty reply history.
func NewRenderer() *Renderer { return &Renderer{} }

// SanitizeOutput strips model artifacts from a raw completion: stage
// directions, echoed instruction lines, markdown and role prefixes.
func SanitizeOutput(raw string) string {
	text := bracketRe.ReplaceAllString(raw, "")
	text = codeBlockRe.ReplaceAllString(text, "")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		echo := false
		for _, p := range echoPrefixes {
			if strings.HasPrefix(lower, p) {
				echo = true
				break
			}
		}
		if !echo {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, " ")

	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = rolePrefixRe.ReplaceAllString(text, "")
	text = aiRevealRe.ReplaceAllString(text, "")

	text = dropLeadingDuplicateSentence(text)

	return strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
}

// dropLeadingDuplicateSentence removes the second sentence when it
// repeats the first verbatim, a common completion artifact.
func dropLeadingDuplicateSentence(text string) string {
	parts := strings.SplitAfterN(text, ".", 3)
	if len(parts) < 2 {
		return text
	}
	first := strings.TrimSpace(parts[0])
	second := strings.TrimSpace(parts[1])
	if first != "" && first == second {
		return strings.TrimSpace(parts[0] + " " + strings.Join(parts[2:], ""))
	}
	return text
}

// RedactSensitive removes anything resembling real numbers or
// credentials so the honeypot can never leak plausible data back, then
// caps the reply length on a word boundary.
func RedactSensitive(text string) string {
	for _, re := range blockedPatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = longDigitsRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))

	if len(text) > maxReplyLen {
		cut := text[:maxReplyLen]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		text = cut + "..."
	}
	return text
}

// Validate reports whether a reply satisfies the outbound contract: at
// least one red-flag keyword, at least one investigative phrase, a
// question mark, and no persona break.
func Validate(text string) bool {
	lower := strings.ToLower(text)
	return containsAnyOf(lower, redFlagKeywords) &&
		containsAnyOf(lower, investigativePhrases) &&
		strings.Contains(text, "?") &&
		!containsAnyOf(lower, personaBreakMarkers)
}

// Enforce repairs a reply so Validate always passes. Persona breaks get
// a full replacement; otherwise missing elements are injected with
// turn-rotated phrasing.
func Enforce(text string, turnCount int) string {
	lower := strings.ToLower(text)

	if containsAnyOf(lower, personaBreakMarkers) || text == "" {
		text = personaBreakReplacement
		lower = strings.ToLower(text)
	}

	if !containsAnyOf(lower, redFlagKeywords) {
		text = redFlagOpeners[turnCount%len(redFlagOpeners)] + " " + text
		lower = strings.ToLower(text)
	}

	if !(containsAnyOf(lower, investigativePhrases) && strings.HasSuffix(strings.TrimSpace(text), "?")) {
		text = strings.TrimSpace(text) + " " + followupQuestions[turnCount%len(followupQuestions)]
	}

	return text
}

// Finalize runs the full outbound pipeline on a candidate reply. regen,
// when non-nil, is invoked at most once if the candidate is too close to
// a recent reply.
func (r *Renderer) Finalize(candidate string, turnCount int, regen func() string) string {
	reply := RedactSensitive(SanitizeOutput(candidate))

	if r.tooSimilar(reply) && regen != nil {
		if alt := RedactSensitive(SanitizeOutput(regen())); alt != "" && !r.tooSimilar(alt) {
			reply = alt
		}
	}

	if !Validate(reply) {
		r.repairs++
	}
	reply = Enforce(reply, turnCount)

	r.pastReplies = append(r.pastReplies, reply)
	if len(r.pastReplies) > replyHistoryDepth {
		r.pastReplies = r.pastReplies[len(r.pastReplies)-replyHistoryDepth:]
	}
	return reply
}

// Repairs returns how many candidates failed the outbound contract and
// had to be rewritten.
func (r *Renderer) Repairs() int { return r.repairs }

// tooSimilar checks the candidate against the two most recent replies.
func (r *Renderer) tooSimilar(reply string) bool {
	recent := r.pastReplies
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	for _, prev := range recent {
		if similarityRatio(strings.ToLower(reply), strings.ToLower(prev)) >= similarityThreshold {
			return true
		}
	}
	return false
}

func containsAnyOf(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
