package constants

import "time"

const (
	ServiceName = "relay-service"
)

const (
	EventMessageCreated = "message_created"
)

const (
	TemplateKeyNewMessage = "notifications.support_new_message"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	ResponseSuccess = "success"
	ResponseOK      = "ok"
)

const (
	MaxWebhookBodyBytes = 1 << 20
)
