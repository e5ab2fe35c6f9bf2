package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	apperrors "relay/pkg/errors"
)

type object = map[string]interface{}

// Parse decodes a raw webhook body. The top-level value must be a JSON object.
func Parse(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, apperrors.ErrInvalidPayload.WithCause(fmt.Errorf("decode body: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperrors.ErrInvalidPayload.WithDetail("message", "trailing data after JSON document")
	}

	obj, ok := body.(object)
	if !ok {
		return nil, apperrors.ErrInvalidPayload.WithDetail("message", "top-level value is not an object")
	}
	return obj, nil
}

// ExtractBytes parses raw and extracts its facts.
func ExtractBytes(raw []byte) (Facts, error) {
	body, err := Parse(raw)
	if err != nil {
		return Facts{}, err
	}
	return Extract(body), nil
}

// Extract walks a decoded payload. It never fails: every field that is missing
// or has an unexpected shape is left absent.
func Extract(body map[string]interface{}) Facts {
	facts := Facts{}
	if s, ok := stringField(body, "event"); ok {
		facts.EventType = s
	}
	if !facts.Applicable() {
		return facts
	}

	conversation := objectField(body, "conversation")
	meta := objectField(conversation, "meta")

	sender, ok := body["sender"].(object)
	if !ok {
		sender = objectField(meta, "sender")
	}
	assignee := objectField(meta, "assignee")

	if blocked, ok := sender["blocked"].(bool); ok {
		facts.SenderBlocked = blocked
	}
	if name, ok := stringField(sender, "name"); ok {
		facts.SenderName = &name
	}
	if name, ok := stringField(assignee, "name"); ok {
		facts.AssigneeName = &name
	}

	facts.AccountID = firstInt(
		func() (int64, bool) { return intField(conversation, "account_id") },
		func() (int64, bool) { return intField(assignee, "account_id") },
		func() (int64, bool) { return intField(assignee, "id") },
		func() (int64, bool) { return intField(objectField(body, "account"), "id") },
	)
	facts.ConversationID = firstInt(
		func() (int64, bool) { return intField(conversation, "id") },
		func() (int64, bool) { return intField(firstMessage(conversation), "conversation_id") },
	)

	return facts
}

func firstInt(candidates ...func() (int64, bool)) *int64 {
	for _, candidate := range candidates {
		if v, ok := candidate(); ok {
			return &v
		}
	}
	return nil
}

// objectField returns parent[key] when it is an object, or nil. Lookups on a
// nil map are safe, so callers can chain without checks.
func objectField(parent object, key string) object {
	if parent == nil {
		return nil
	}
	child, _ := parent[key].(object)
	return child
}

func stringField(parent object, key string) (string, bool) {
	s, ok := parent[key].(string)
	return s, ok
}

// intField accepts only integral JSON numbers, so 5.0 is not an ID. Decoded
// bodies carry json.Number; int and int64 only appear in maps built by
// callers of Extract.
func intField(parent object, key string) (int64, bool) {
	switch v := parent[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

func firstMessage(conversation object) object {
	messages, ok := conversation["messages"].([]interface{})
	if !ok || len(messages) == 0 {
		return nil
	}
	first, _ := messages[0].(object)
	return first
}
