package patterns

// =============================================================================
// PATTERN DEFINITIONS BY CATEGORY
// All patterns are registered here and compiled once at first use.
// This is the single source of truth for detection patterns.
// =============================================================================

// --- JAILBREAK / PROMPT INJECTION PATTERNS ---
// A hit forces DEFLECT and skips every downstream rule. The persona must
// never acknowledge the manipulation attempt.
func (r *Registry) registerJailbreakPatterns() {
	cat := CategoryJailbreak

	// Instruction override attempts
	r.register("instruction_override", `(?i)ignore\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|rules?|prompts?)`, cat, 95, "Ignore previous instructions")
	r.register("forget_everything", `(?i)forget\s+(everything|all|your|previous)`, cat, 90, "Forget instructions")
	r.register("disregard", `(?i)disregard\s+(all|your|previous|the)`, cat, 90, "Disregard instructions")
	r.register("override", `(?i)override\s+(your|the|all)`, cat, 90, "Override instructions")
	r.register("new_instructions", `(?i)new\s+instructions?`, cat, 85, "New instructions injection")
	r.register("from_now_on", `(?i)from\s+now\s+on`, cat, 75, "Behavioral redirection")
	r.register("act_as", `(?i)act\s+as\s+(if|a|an)`, cat, 85, "Role reassignment")
	r.register("pretend", `(?i)pretend\s+(you|to\s+be|that)`, cat, 85, "Pretend directive")
	r.register("you_are_now", `(?i)you\s+are\s+now`, cat, 90, "Identity override")
	r.register("switch_persona", `(?i)switch\s+(to|into)\s+(a|an)?`, cat, 75, "Persona switch")
	r.register("change_role", `(?i)change\s+your\s+(role|persona|behavior|personality)`, cat, 90, "Role change demand")

	// Role probing
	r.register("bot_accusation", `(?i)you\s+are\s+(not\s+)?(a|an)\s+(bot|ai|assistant|computer|robot|machine)`, cat, 85, "Bot accusation")
	r.register("stop_being", `(?i)stop\s+being\s+(a|an)?`, cat, 75, "Stop-the-act demand")
	r.register("drop_act", `(?i)drop\s+(the|your)\s+(act|persona|character)`, cat, 85, "Drop the act")
	r.register("be_honest", `(?i)be\s+(honest|truthful|real)\s+with\s+me`, cat, 70, "Honesty probe")
	r.register("tell_truth", `(?i)tell\s+me\s+(the\s+)?truth`, cat, 70, "Truth probe")
	r.register("what_really", `(?i)what\s+are\s+you\s+really`, cat, 75, "Identity probe")
	r.register("are_you_bot", `(?i)are\s+you\s+(a|an)?\s*(bot|ai|robot|computer|human|real)`, cat, 80, "Bot probe question")
	r.register("prove_human", `(?i)prove\s+(you|that\s+you)\s*(are|'re)`, cat, 80, "Humanity proof demand")

	// Repetition / captcha tests
	r.register("repeat_after", `(?i)repeat\s+(after|this|the\s+following|what\s+i)`, cat, 80, "Repetition test")
	r.register("say_exactly", `(?i)say\s+(this|the\s+following|exactly|after\s+me)`, cat, 80, "Forced repetition")
	r.register("say_quoted", `(?i)say\s+["'].*["']`, cat, 80, "Quoted repetition")
	r.register("recite", `(?i)recite\s+(this|the|a)`, cat, 75, "Recitation test")
	r.register("echo", `(?i)echo\s+(this|back|my)`, cat, 75, "Echo test")
	r.register("copy", `(?i)copy\s+(this|what|my)`, cat, 70, "Copy test")
	r.register("write_following", `(?i)write\s+(this|the\s+following)`, cat, 70, "Dictation test")

	// Direct command attempts
	r.register("tell_joke", `(?i)tell\s+me\s+(a|an)?\s*(joke|poem|story|riddle)`, cat, 75, "Entertainment command")
	r.register("perform", `(?i)(sing|recite|perform)\s+(a|an|me)`, cat, 70, "Performance command")
	r.register("math_question", `(?i)what\s+is\s+\d+\s*[+\-*/]\s*\d+`, cat, 75, "Math captcha")
	r.register("calculate", `(?i)calculate\s+`, cat, 70, "Calculation command")
	r.register("solve", `(?i)solve\s+`, cat, 70, "Solve command")
	r.register("answer_question", `(?i)answer\s+(this|my)\s+question`, cat, 65, "Answer demand")
	r.register("help_me", `(?i)help\s+me\s+(with|to)`, cat, 60, "Assistant-style request")
	r.register("can_you", `(?i)can\s+you\s+(help|assist|do)`, cat, 60, "Capability probe")
	r.register("i_need_you_to", `(?i)i\s+need\s+you\s+to`, cat, 60, "Direct tasking")

	// System prompt extraction
	r.register("prompt_extraction", `(?i)(what|show|reveal|display|print)\s+(me\s+)?(is|are)?\s*(your)?\s*(system|initial|original)\s*(prompt|instructions?)`, cat, 95, "System prompt extraction")
	r.register("what_told", `(?i)what\s+were\s+you\s+told`, cat, 85, "Instruction probe")
	r.register("your_rules", `(?i)what\s+are\s+your\s+(rules|instructions|guidelines)`, cat, 85, "Rules probe")
	r.register("how_programmed", `(?i)how\s+were\s+you\s+(programmed|trained|instructed)`, cat, 85, "Training probe")

	// Developer mode / DAN attempts
	r.register("developer_mode", `(?i)developer\s+mode`, cat, 90, "Developer mode request")
	r.register("admin_mode", `(?i)admin\s+(mode|access)`, cat, 90, "Admin mode request")
	r.register("jailbreak_word", `(?i)jailbreak`, cat, 95, "Explicit jailbreak")
	r.register("dan", `\bDAN\b`, cat, 90, "DAN persona request")
	r.register("do_anything_now", `(?i)do\s+anything\s+now`, cat, 90, "Do-anything-now request")
	r.register("no_restrictions", `(?i)no\s+(restrictions?|limits?|rules?)`, cat, 85, "Restriction removal")
	r.register("unrestricted_mode", `(?i)unrestricted\s+mode`, cat, 90, "Unrestricted mode request")
}

// --- FORCE-EXTRACT PATTERNS ---
// A hit forces the EXTRACT state so the persona starts probing for more
// payment details. Checked after jailbreak, before everything else.
func (r *Registry) registerForceExtractPatterns() {
	cat := CategoryForceExtract

	// UPI (Indian payment rails)
	r.register("upi_handle", `\b[a-zA-Z0-9._-]+@[a-zA-Z]{3,}\b`, cat, 90, "UPI handle shape")
	r.register("upi_word", `(?i)\bUPI\b`, cat, 80, "UPI mention")
	r.register("paytm", `(?i)\bpaytm\b`, cat, 80, "Paytm mention")
	r.register("phonepe", `(?i)\bphonepe\b`, cat, 80, "PhonePe mention")
	r.register("gpay", `(?i)\bgpay\b`, cat, 80, "GPay mention")
	r.register("bhim", `(?i)\bbhim\b`, cat, 80, "BHIM mention")

	// Bank rails
	r.register("bank_account", `(?i)\bbank\s*account\b`, cat, 85, "Bank account mention")
	r.register("account_number", `(?i)\baccount\s*number\b`, cat, 85, "Account number mention")
	r.register("ifsc", `(?i)\bIFSC\b`, cat, 85, "IFSC mention")
	r.register("swift", `(?i)\bSWIFT\b`, cat, 85, "SWIFT mention")
	r.register("routing_number", `(?i)\brouting\s*number\b`, cat, 85, "Routing number mention")
	r.register("wire_transfer", `(?i)\bwire\s*transfer\b`, cat, 85, "Wire transfer mention")

	// URLs
	r.register("url_protocol", `(?i)https?://\S+`, cat, 85, "Explicit URL")
	r.register("url_www", `(?i)\bwww\.\S+`, cat, 80, "www URL")
	r.register("tld_com", `(?i)\.com\b`, cat, 70, ".com mention")
	r.register("tld_in", `(?i)\.in\b`, cat, 70, ".in mention")
	r.register("tld_org", `(?i)\.org\b`, cat, 70, ".org mention")

	// Crypto
	r.register("bitcoin", `(?i)\bbitcoin\b`, cat, 80, "Bitcoin mention")
	r.register("crypto", `(?i)\bcrypto\b`, cat, 80, "Crypto mention")
	r.register("wallet_address", `(?i)\bwallet\s*address\b`, cat, 85, "Wallet address mention")

	// Gift cards
	r.register("gift_card", `(?i)\bgift\s*card\b`, cat, 80, "Gift card mention")
	r.register("itunes", `(?i)\bitunes\b`, cat, 75, "iTunes card mention")
	r.register("google_play", `(?i)\bgoogle\s*play\b`, cat, 75, "Google Play card mention")
	r.register("amazon_card", `(?i)\bamazon\s*card\b`, cat, 75, "Amazon card mention")
}
