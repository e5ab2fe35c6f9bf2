package policy

// Reason explains why an event was suppressed.
type Reason string

const (
	ReasonWrongEvent       Reason = "wrong-event"
	ReasonSenderBlocked    Reason = "sender-blocked"
	ReasonNoSenderName     Reason = "no-sender-name"
	ReasonSelfNotification Reason = "self-notification"
	ReasonMissingIDs       Reason = "missing-ids"
)

// Decision is either a suppression with a reason or a notification with its
// rendered message. The zero value is not a valid decision.
type Decision struct {
	reason  Reason
	message string
	link    string
}

func Suppress(reason Reason) Decision {
	return Decision{reason: reason}
}

func Notify(message, link string) Decision {
	return Decision{message: message, link: link}
}

func (d Decision) Suppressed() bool {
	return d.reason != ""
}

func (d Decision) Reason() Reason {
	return d.reason
}

// Message is empty for suppressed decisions.
func (d Decision) Message() string {
	return d.message
}

func (d Decision) Link() string {
	return d.link
}

func (d Decision) String() string {
	if d.Suppressed() {
		return "suppress(" + string(d.reason) + ")"
	}
	return "notify"
}
