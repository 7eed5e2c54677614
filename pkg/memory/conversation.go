// Package memory holds per-session conversation history. A Conversation
// is owned by exactly one session and is not safe for concurrent use; the
// session manager serialises access.
package memory

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleScammer Role = "scammer"
	RoleAgent   Role = "agent"
)

// Turn is a single message in the conversation.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Conversation is an append-only transcript.
type Conversation struct {
	turns []Turn
}

// NewConversation returns an empty transcript.
func NewConversation() *Conversation {
	return &Conversation{}
}

// AddScammer appends an inbound scammer message.
func (c *Conversation) AddScammer(text string, at time.Time) {
	c.turns = append(c.turns, Turn{Role: RoleScammer, Text: text, At: at})
}

// AddAgent appends an outbound agent reply.
func (c *Conversation) AddAgent(text string, at time.Time) {
	c.turns = append(c.turns, Turn{Role: RoleAgent, Text: text, At: at})
}

// Turns returns the full transcript in order. The returned slice is a
// copy; mutating it does not affect the conversation.
func (c *Conversation) Turns() []Turn {
	return append([]Turn(nil), c.turns...)
}

// Len returns the total number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// ScammerTurns returns how many inbound messages have been recorded.
func (c *Conversation) ScammerTurns() int {
	n := 0
	for _, t := range c.turns {
		if t.Role == RoleScammer {
			n++
		}
	}
	return n
}

// LastAgentReplies returns up to n most recent agent replies, oldest
// first.
func (c *Conversation) LastAgentReplies(n int) []string {
	var replies []string
	for _, t := range c.turns {
		if t.Role == RoleAgent {
			replies = append(replies, t.Text)
		}
	}
	if len(replies) > n {
		replies = replies[len(replies)-n:]
	}
	return replies
}

// ScammerTexts returns every inbound message in order.
func (c *Conversation) ScammerTexts() []string {
	var texts []string
	for _, t := range c.turns {
		if t.Role == RoleScammer {
			texts = append(texts, t.Text)
		}
	}
	return texts
}

// StartedAt returns the timestamp of the first turn, or the zero time for
// an empty conversation.
func (c *Conversation) StartedAt() time.Time {
	if len(c.turns) == 0 {
		return time.Time{}
	}
	return c.turns[0].At
}
