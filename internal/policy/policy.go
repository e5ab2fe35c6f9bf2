package policy

import (
	"fmt"
	"html"

	"relay/internal/constants"
	"relay/internal/event"
)

// Renderer produces the localized text for a template key.
type Renderer interface {
	Render(locale, key string, vars map[string]string) string
}

type Config struct {
	BaseURL string
	Locale  string
	// TemplateKey defaults to constants.TemplateKeyNewMessage.
	TemplateKey string
}

// Policy decides whether an event should notify the admins.
// Decide does no I/O beyond the renderer, which is expected to be pure.
type Policy struct {
	cfg      Config
	renderer Renderer
}

func New(cfg Config, renderer Renderer) *Policy {
	if cfg.TemplateKey == "" {
		cfg.TemplateKey = constants.TemplateKeyNewMessage
	}
	return &Policy{cfg: cfg, renderer: renderer}
}

// Decide applies the rules in order; the first one that matches wins.
func (p *Policy) Decide(facts event.Facts) Decision {
	if !facts.Applicable() {
		return Suppress(ReasonWrongEvent)
	}
	if facts.SenderBlocked {
		return Suppress(ReasonSenderBlocked)
	}

	senderName := deref(facts.SenderName)
	if senderName == "" {
		return Suppress(ReasonNoSenderName)
	}

	// An agent's own reply has the conversation assignee as its sender.
	assigneeName := deref(facts.AssigneeName)
	if senderName == assigneeName {
		return Suppress(ReasonSelfNotification)
	}

	if facts.AccountID == nil || facts.ConversationID == nil {
		return Suppress(ReasonMissingIDs)
	}

	link := ConversationLink(p.cfg.BaseURL, *facts.AccountID, *facts.ConversationID)
	message := p.renderer.Render(p.cfg.Locale, p.cfg.TemplateKey, map[string]string{
		"user_name":     html.EscapeString(senderName),
		"assignee_name": html.EscapeString(assigneeName),
		"link":          link,
	})
	return Notify(message, link)
}

// ConversationLink builds the deep link to a conversation in the support web UI.
func ConversationLink(baseURL string, accountID, conversationID int64) string {
	return fmt.Sprintf("%s/app/accounts/%d/conversations/%d", baseURL, accountID, conversationID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
