package event

import "relay/internal/constants"

// Facts holds the typed fields pulled out of one webhook payload.
// Optional fields are nil when the payload did not carry them in the expected shape.
type Facts struct {
	EventType      string
	SenderName     *string
	SenderBlocked  bool
	AssigneeName   *string
	AccountID      *int64
	ConversationID *int64
}

// Applicable reports whether the event type is one the relay acts on.
func (f Facts) Applicable() bool {
	return f.EventType == constants.EventMessageCreated
}
