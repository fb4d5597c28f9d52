package securexchat

import "context"

// ConversationID returns the id of the one-to-one conversation between a
// and b: the lexicographically smaller-or-equal id followed by the other.
// It is symmetric, so both parties derive the same id.
func ConversationID(a, b string) string {
	if a <= b {
		return a + b
	}
	return b + a
}

// MessageLog stores envelopes per conversation.
type MessageLog interface {
	// Append stores env and returns it with CreatedAt assigned by the log.
	Append(ctx context.Context, conversationID string, env *MessageEnvelope) (*MessageEnvelope, error)
	// List returns the conversation's envelopes ordered by CreatedAt.
	List(ctx context.Context, conversationID string) ([]*MessageEnvelope, error)
}
