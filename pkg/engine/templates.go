package engine

// TemplatePack bundles every canned persona line the engine can emit.
// Replies are chosen by deterministic cycling, never by random draw, so
// the pack's ordering is part of the engine's contract.
type TemplatePack struct {
	StateTemplates map[State][]string
	Fills          map[string][]string
	JailbreakLines []string
	SurvivalLines  []string
	Fallback       string
}

// DefaultTemplatePack returns the built-in confused-elderly persona.
func DefaultTemplatePack() *TemplatePack {
	return &TemplatePack{
		StateTemplates: map[State][]string{
			StateClarify: {
				"I'm sorry, could you repeat that? My hearing isn't what it used to be.",
				"What was that about the {topic}? I didn't quite catch that.",
				"I'm sorry dear, you'll have to speak up. What did you say about {topic}?",
				"Pardon? The {topic}? Could you say that again?",
			},
			StateConfuse: {
				"Oh, is this about my {random_topic}? I thought you were calling about that.",
				"Wait, I already {random_action}. Are you sure you have the right person?",
				"My {relative} handles all that. Should I get them? They're {excuse}.",
				"I think you want my neighbor. They're always getting calls about {topic}.",
			},
			StateStall: {
				"Hold on, let me find my {item}...",
				"One moment, someone's at the door...",
				"Let me get a pen to write this down... now where did I put it...",
				"Just a second, I need to {action}...",
			},
			StateExtract: {
				"And where did you say you were calling from?",
				"What company is this again? I want to write it down.",
				"Can I have your name and employee ID? For my records.",
				"What's the phone number I can call you back at?",
			},
			StateDeflect: {
				"That reminds me, have I told you about my {topic}?",
				"Speaking of which, do you know a good {random_thing}?",
				"Oh my, I just remembered I need to {action}.",
				"Before we continue, let me tell you about {topic}.",
			},
		},
		Fills: map[string][]string{
			"topic":         {"doctor", "prescription", "appointment", "cable bill", "grandson"},
			"random_topic":  {"library books", "doctor's appointment", "cable bill", "prescription"},
			"random_action": {"paid that", "talked to them", "sent that check", "called about that"},
			"relative":      {"son", "daughter", "nephew", "neighbor"},
			"excuse":        {"at work", "not home right now", "busy cooking", "taking a nap"},
			"item":          {"glasses", "notepad", "pen", "hearing aid", "phone book"},
			"action":        {"turn off the stove", "check on something", "find my notepad", "sit down"},
			"random_thing":  {"recipe for pie", "plumber", "TV repair person", "dentist"},
		},
		JailbreakLines: []string{
			"Poem? Beta, I can't see properly, what are you saying?",
			"Why are you asking me strange things?",
			"My hearing is weak, say again slowly.",
			"I don't understand these computer things, beta.",
			"What bot? I'm just an old person trying to understand.",
			"Repeat what? I can barely hear you as it is.",
			"I'm sorry, I don't know what you mean by that.",
			"Are you trying to confuse me? My head is already spinning.",
			"Instructions? I just answered the phone, beta.",
			"I think you have the wrong number, I don't do poems.",
			"My grandson knows about these things, not me.",
			"What kind of test is this? I'm too old for tests.",
			"I can't do math anymore, my memory is not good.",
			"You young people speak so strangely these days.",
			"Are you feeling okay? You're asking odd questions.",
		},
		SurvivalLines: []string{
			"Hello? Is someone there? The line is very bad.",
			"I'm sorry, I couldn't hear that. Can you say it again?",
			"One moment dear, I need to adjust my hearing aid.",
			"Hmm, the phone is making strange noises. Are you still there?",
			"I think we got disconnected for a second. What were you saying?",
		},
		Fallback: "I'm sorry, what?",
	}
}
