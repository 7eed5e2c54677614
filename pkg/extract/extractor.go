// Package extract pulls actionable artifacts out of raw scammer messages:
// UPI handles, bank details, phishing links, phone numbers, crypto wallets
// and email addresses. Extraction runs on the raw text (not the folded
// form) so captured evidence matches what the sender actually wrote.
//
// Categories are independent: a category that finds nothing contributes an
// empty slice and never blocks the others. Extracted artifacts are logged
// and exported, never echoed back to the sender.
package extract

import (
	"regexp"
	"strings"

	"github.com/baitline/baitline/pkg/lexicon"
)

// Extractor holds the compiled patterns. Safe for concurrent use.
type Extractor struct {
	lex *lexicon.Bundle

	upiPatterns  []*regexp.Regexp
	emailDomains map[string]struct{}
	upiDomains   map[string]struct{}

	accountNumberRe *regexp.Regexp
	ifscRe          *regexp.Regexp
	swiftRe         *regexp.Regexp
	routingRe       *regexp.Regexp
	ibanRe          *regexp.Regexp

	urlPatterns []*regexp.Regexp

	phonePatterns []*regexp.Regexp

	cryptoPatterns []*regexp.Regexp

	emailRe *regexp.Regexp

	normStripRe *regexp.Regexp
}

// New builds an Extractor wired to the given lexicons.
func New(lex *lexicon.Bundle) *Extractor {
	return &Extractor{
		lex: lex,

		upiPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b([a-zA-Z0-9._-]+@[a-zA-Z]{2,})\b`),
			regexp.MustCompile(`(?i)\b([a-zA-Z0-9._-]+@(?:paytm|gpay|phonepe|ybl|okaxis|oksbi|okhdfcbank|axl|ibl|upi|apl|fbl|boi|kotak|sbi|icici|hdfcbank|airtel|jio|postbank|unionbank|pnb|bob|canara|idbi|rbl|indus|federal|jupiter|kbl|freecharge|mobikwik|slice|cred|amazonpay|abfspay|waicici|wahdfcbank|wasbi|waaxis))\b`),
		},
		emailDomains: toSet(
			"gmail", "yahoo", "outlook", "hotmail", "aol", "icloud", "protonmail",
			"mail", "email", "msn", "live", "tutanota", "zoho", "yandex", "gmx",
			"rediffmail", "inbox", "rocketmail", "pm", "fastmail", "hey",
		),
		upiDomains: toSet(
			"paytm", "gpay", "phonepe", "ybl", "okaxis", "oksbi", "okhdfcbank", "axl", "ibl", "upi",
		),

		accountNumberRe: regexp.MustCompile(`\b(\d{9,18})\b`),
		ifscRe:          regexp.MustCompile(`\b([A-Z]{4}0[A-Z0-9]{6})\b`),
		swiftRe:         regexp.MustCompile(`\b([A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?)\b`),
		routingRe:       regexp.MustCompile(`(?i)\brouting[:\s#]*(\d{9})\b`),
		ibanRe:          regexp.MustCompile(`\b([A-Z]{2}\d{2}[A-Z0-9]{4,30})\b`),

		urlPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(https?://[^\s<>"{}|\\^` + "`" + `\[\]]+)`),
			regexp.MustCompile(`(?i)(www\.[^\s<>"{}|\\^` + "`" + `\[\]]+)`),
			regexp.MustCompile(`(?i)\b([a-zA-Z0-9-]+\.(?:com|org|net|in|co|io|xyz|info|biz|tk|ml|ga|cf|gq|top|online|site|website|link|click)(?:/[^\s]*)?)\b`),
		},

		// Order matters: the bare 10-digit pattern is last and gets the
		// strictest acceptance rules.
		phonePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})\b`), // US/Canada
			regexp.MustCompile(`(\+91[-.\s]?\d{10})`),                                  // India +91
			regexp.MustCompile(`(\+\d{1,3}[-.\s]?\d{6,14})`),                           // International
			regexp.MustCompile(`\b(\d{10})\b`),                                         // Bare 10-digit (contextual)
		},

		cryptoPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(1[a-km-zA-HJ-NP-Z1-9]{25,34})\b`),  // Bitcoin
			regexp.MustCompile(`\b(3[a-km-zA-HJ-NP-Z1-9]{25,34})\b`),  // Bitcoin (P2SH)
			regexp.MustCompile(`\b(bc1[a-zA-HJ-NP-Z0-9]{25,90})\b`),   // Bitcoin (Bech32)
			regexp.MustCompile(`\b(0x[a-fA-F0-9]{40})\b`),             // Ethereum
			regexp.MustCompile(`\b(T[A-Za-z1-9]{33})\b`),              // Tron
		},

		emailRe: regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`),

		normStripRe: regexp.MustCompile(`[-.\s()]`),
	}
}

// Extract runs every category over text. A 10-digit token ends up in at
// most one of phone or bank: phones run first and claim their tokens,
// bank extraction never touches a claimed token.
func (e *Extractor) Extract(text string) *Artifacts {
	a := &Artifacts{}
	a.UPIIDs = e.extractUPI(text)
	phones, claimed := e.extractPhones(text)
	a.PhoneNumbers = phones
	a.BankAccounts = e.extractBankDetails(text, claimed)
	a.PhishingLinks = e.extractURLs(text)
	a.CryptoWallets = e.extractCrypto(text)
	a.Emails = e.extractEmails(text, a.UPIIDs)
	return a
}

// SuspiciousKeywords returns the scam-indicator keywords present in text,
// lowercase, deduplicated and sorted.
func (e *Extractor) SuspiciousKeywords(text string) []string {
	return e.lex.Suspicious.Matches(strings.ToLower(text))
}

// ScamDetected reports whether text carries any suspicious keyword.
func (e *Extractor) ScamDetected(text string) bool {
	return e.lex.Suspicious.ContainsAny(strings.ToLower(text))
}

func (e *Extractor) extractUPI(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range e.upiPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			id := strings.ToLower(m[1])
			at := strings.IndexByte(id, '@')
			if at < 0 {
				continue
			}
			handle, domain := id[:at], id[at+1:]
			if len(handle) < 2 {
				continue
			}
			if _, isEmail := e.emailDomains[domain]; isEmail {
				continue
			}
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

func (e *Extractor) extractBankDetails(text string, phoneClaimed map[string]struct{}) []BankAccount {
	textLower := strings.ToLower(text)
	bankingContext := e.lex.BankingContext.ContainsAny(textLower)

	var acct BankAccount

	if m := e.accountNumberRe.FindStringSubmatch(text); m != nil && bankingContext {
		num := m[1]

		// Phone wins: a token the phone extractor claimed is never an
		// account, and 10-digit Indian mobiles never are either.
		if _, taken := phoneClaimed[num]; taken {
			num = ""
		}
		if len(num) == 10 && ValidateMobile(num).IsMobile {
			num = ""
		}

		// Reject placeholder-looking numbers (leading zeros, repeated digits)
		if num != "" && len(num) >= 9 && !strings.HasPrefix(num, "0000") && distinctDigits(num) > 2 {
			acct.AccountNumber = num
		}
	}

	if m := e.ifscRe.FindStringSubmatch(text); m != nil {
		acct.IFSC = m[1]
	}

	if m := e.swiftRe.FindStringSubmatch(text); m != nil {
		if l := len(m[1]); l == 8 || l == 11 {
			acct.SWIFT = m[1]
		}
	}

	if m := e.routingRe.FindStringSubmatch(text); m != nil {
		acct.RoutingNumber = m[1]
	}

	if m := e.ibanRe.FindStringSubmatch(text); m != nil {
		if l := len(m[1]); l >= 15 && l <= 34 {
			acct.IBAN = m[1]
		}
	}

	if acct.Empty() {
		return nil
	}
	return []BankAccount{acct}
}

func normalizeURL(url string) string {
	url = strings.ToLower(url)
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "www.")
	return strings.TrimRight(url, "/")
}

func (e *Extractor) extractURLs(text string) []string {
	rawSeen := make(map[string]struct{})
	var raw []string

	for _, re := range e.urlPatterns {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]
			// Skip the domain part of an email address
			if start > 0 && text[start-1] == '@' {
				continue
			}
			url := strings.TrimRight(text[start:end], ".,;:!?)")
			if len(url) <= 8 {
				continue
			}
			if _, dup := rawSeen[url]; !dup {
				rawSeen[url] = struct{}{}
				raw = append(raw, url)
			}
		}
	}

	// Collapse protocol/no-protocol duplicates, preferring the variant
	// that carries the protocol.
	byNorm := make(map[string]string)
	var order []string
	for _, url := range raw {
		norm := normalizeURL(url)
		if prev, ok := byNorm[norm]; !ok {
			byNorm[norm] = url
			order = append(order, norm)
		} else if !strings.HasPrefix(prev, "http") && strings.HasPrefix(url, "http") {
			byNorm[norm] = url
		}
	}

	if len(order) == 0 {
		return nil
	}
	out := make([]string, 0, len(order))
	for _, norm := range order {
		out = append(out, byNorm[norm])
	}
	return out
}

// extractPhones returns the phones found in text plus the set of bare
// digit tokens they were built from, so bank extraction can honor the
// phone-wins rule on 10-digit collisions.
func (e *Extractor) extractPhones(text string) ([]Phone, map[string]struct{}) {
	textLower := strings.ToLower(text)
	phoneContext := e.lex.PhoneContext.ContainsAny(textLower)

	seen := make(map[string]struct{})
	claimed := make(map[string]struct{})
	var out []Phone

	add := func(p Phone) {
		if _, dup := seen[p.Number]; !dup {
			seen[p.Number] = struct{}{}
			out = append(out, p)
		}
	}
	claim := func(normalized string) {
		switch {
		case len(normalized) == 10:
			claimed[normalized] = struct{}{}
		case len(normalized) == 12 && strings.HasPrefix(normalized, "91"):
			claimed[normalized[2:]] = struct{}{}
		}
	}

	for i, re := range e.phonePatterns {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]

			// The +91 and international patterns have no \b anchor (a word
			// boundary never precedes '+'), so enforce the boundary here.
			if i == 1 || i == 2 {
				if start > 0 && isWordByte(text[start-1]) {
					continue
				}
				if end < len(text) && text[end] >= '0' && text[end] <= '9' {
					continue
				}
			}

			phone := text[start:end]
			normalized := e.normStripRe.ReplaceAllString(phone, "")

			if len(normalized) == 10 && allDigits(normalized) {
				v := ValidateMobile(normalized)
				// An unformatted 10-digit run needs phone context unless
				// the prefix table recognizes it; bank extraction may
				// claim it instead.
				bare := len(phone) == len(normalized)
				switch {
				case v.IsMobile:
					add(Phone{Number: "+91" + normalized, Carrier: v.Carrier, Confidence: v.Confidence})
					claim(normalized)
					continue
				case bare && !phoneContext:
					continue
				case normalized[0] >= '6' && normalized[0] <= '9':
					add(Phone{Number: "+91" + normalized, Confidence: 0.7})
					claim(normalized)
					continue
				}
			}

			if len(normalized) >= 10 && len(normalized) <= 15 {
				add(Phone{Number: normalized, Confidence: 0.95})
				claim(normalized)
			}
		}
	}
	return out, claimed
}

func (e *Extractor) extractCrypto(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, re := range e.cryptoPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if _, dup := seen[m[1]]; !dup {
				seen[m[1]] = struct{}{}
				out = append(out, m[1])
			}
		}
	}
	return out
}

func (e *Extractor) extractEmails(text string, excludeUPI []string) []string {
	excluded := make(map[string]struct{}, len(excludeUPI))
	for _, id := range excludeUPI {
		excluded[strings.ToLower(id)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range e.emailRe.FindAllStringSubmatch(text, -1) {
		email := strings.ToLower(m[1])
		if _, skip := excluded[email]; skip {
			continue
		}
		if at := strings.IndexByte(email, '@'); at >= 0 {
			if _, isUPI := e.upiDomains[email[at+1:]]; isUPI {
				continue
			}
		}
		if _, dup := seen[email]; !dup {
			seen[email] = struct{}{}
			out = append(out, email)
		}
	}
	return out
}

func distinctDigits(s string) int {
	var seen [10]bool
	n := 0
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if d <= 9 && !seen[d] {
			seen[d] = true
			n++
		}
	}
	return n
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func toSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
