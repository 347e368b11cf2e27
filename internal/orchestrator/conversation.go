package orchestrator

import "fmt"

// Conversation is the append-only message log that forms the oracle's
// context. Full history is replayed to the oracle on every request, trading
// request size for correctness of context; there is deliberately no deletion
// or truncation operation.
//
// Only the session loop mutates a Conversation, so no locking is needed.
type Conversation struct {
	msgs []Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the log.
func (c *Conversation) Append(msg Message) error {
	if msg.Role == "" {
		return fmt.Errorf("message role cannot be empty")
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

// Snapshot returns the full ordered message sequence. The returned slice is
// a copy; callers cannot mutate the log through it.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.msgs)
}
