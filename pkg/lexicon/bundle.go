package lexicon

// Bundle groups every lexicon the pipeline needs. Consumers receive a
// *Bundle at construction time instead of reaching for package globals.
type Bundle struct {
	// State machine signals
	Urgency          Set // weighted 2x when scoring urgency pressure
	Money            Set
	InfoRequest      Set
	Threat           Set
	TransactionVerbs WordSet

	// Behavior scorer dimensions
	ScorerUrgency   Set
	Pressure        Set
	Credential      Set
	Politeness      Set
	Impatience      Set
	DelayAcceptance Set

	// Artifact / intel signals
	Suspicious     Set
	BankingContext Set
	PhoneContext   Set
}

// DefaultBundle returns the canonical lexicons tuned for phone and chat
// scam traffic.
func DefaultBundle() *Bundle {
	return &Bundle{
		Urgency: NewSet(
			"immediately", "urgent", "now", "quickly", "hurry",
			"limited time", "expire", "deadline", "act fast",
			"police", "arrest", "warrant", "legal action",
		),
		Money: NewSet(
			"payment", "transfer", "wire", "gift card", "bitcoin",
			"account", "money", "fee", "tax", "refund", "owe", "debt",
		),
		InfoRequest: NewSet(
			"social security", "ssn", "date of birth", "address",
			"credit card", "password", "pin", "mother's maiden",
			"verify", "confirm your", "your number",
		),
		Threat: NewSet(
			"arrest", "jail", "police", "court", "lawsuit",
			"suspend", "terminate", "cancel", "fraud", "illegal",
		),
		TransactionVerbs: NewWordSet("send", "transfer", "pay", "deposit"),

		ScorerUrgency: NewSet(
			"immediately", "urgent", "now", "quickly", "hurry", "fast",
			"limited time", "expire", "deadline", "act fast", "right now",
			"as soon as possible", "asap", "time is running out", "last chance",
			"today only", "don't delay", "within the hour",
		),
		Pressure: NewSet(
			"must", "have to", "required", "mandatory", "compulsory",
			"arrest", "warrant", "police", "court", "jail", "legal action",
			"suspend", "terminate", "cancel", "block", "freeze",
			"penalty", "fine", "consequences", "action will be taken",
			"failure to comply", "non-compliance",
		),
		Credential: NewSet(
			"otp", "pin", "password", "ssn", "social security",
			"date of birth", "dob", "mother's maiden", "cvv", "card number",
			"expiry", "security code", "verify", "confirm your",
			"your account", "your number", "your details", "your information",
			"aadhaar", "pan card", "pan number",
		),
		Politeness: NewSet(
			"sir", "ma'am", "madam", "please", "kindly", "dear",
			"respected", "thank you", "sorry to bother",
		),
		Impatience: NewSet(
			"listen", "look", "pay attention", "i said", "i told you",
			"are you deaf", "don't waste", "stop wasting", "enough",
			"just do it", "just send", "just give", "why aren't you",
			"what's wrong with you", "how many times",
		),
		DelayAcceptance: NewSet(
			"okay", "sure", "take your time", "no problem", "no rush",
			"i'll wait", "go ahead", "alright", "that's fine",
		),

		Suspicious: NewSet(
			"urgent", "immediately", "hurry", "deadline", "expire",
			"officer", "police", "arrest", "warrant", "court", "legal",
			"penalty", "fraud", "illegal", "lawsuit",
			"account", "bank", "upi", "transfer", "payment", "wire",
			"blocked", "suspended", "restricted", "locked", "compromised",
			"unauthorized", "hacked", "terminated",
			"refund", "prize", "lottery", "winner", "reward",
			"verify", "confirm", "password", "otp", "pin", "ssn",
			"virus", "malware", "infected", "secure",
			"click", "download", "install",
			"bitcoin", "crypto", "gift card",
		),
		BankingContext: NewSet(
			"account", "acct", "a/c", "beneficiary", "transfer",
			"ifsc", "swift", "routing", "iban", "bank", "wire",
			"neft", "rtgs", "imps",
		),
		PhoneContext: NewSet(
			"call", "phone", "number", "mobile", "contact", "dial", "reach",
			"whatsapp", "sms", "text", "msg", "ring",
		),
	}
}
