package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"relay/internal/constants"
	"relay/internal/dispatch"
	"relay/internal/locale"
	"relay/internal/logger"
	"relay/internal/policy"
	apperrors "relay/pkg/errors"
	"relay/pkg/ratelimit"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[int64]string
	fail map[int64]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[int64]string), fail: make(map[int64]error)}
}

func (s *recordingSender) Send(ctx context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[chatID]; ok {
		return err
	}
	s.sent[chatID] = text
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fixture struct {
	sender  *recordingSender
	service *Service
	router  *gin.Engine
}

func newFixture(t *testing.T, admins ...int64) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, logger.NopLogger(), admins...)
}

func newFixtureWithLogger(t *testing.T, log logger.Logger, admins ...int64) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yml"),
		[]byte("notifications:\n  support_new_message: \"{user_name} wrote, assigned to {assignee_name}: {link}\"\n"), 0o644))

	limiter, err := ratelimit.New(ratelimit.Config{PerSecond: 1000})
	require.NoError(t, err)

	sender := newRecordingSender()
	decider := policy.New(policy.Config{BaseURL: "https://support.example.com", Locale: "en"}, locale.NewCatalog(dir, "en", log))
	dispatcher := dispatch.New(dispatch.Config{Recipients: admins, SendTimeout: time.Second}, sender, limiter, log)
	service := NewService(decider, dispatcher, log)

	router := gin.New()
	NewHandler(service, []string{"chatwoot"}, log).RegisterRoutes(router)

	return &fixture{sender: sender, service: service, router: router}
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

const notifiablePayload = `{
	"event": "message_created",
	"sender": {"name": "Alice", "blocked": false},
	"conversation": {"id": 5, "account_id": 9, "meta": {"assignee": {"name": "Bob"}}}
}`

func TestWebhookNotifiesAllAdmins(t *testing.T) {
	f := newFixture(t, 101, 102, 103)

	w := f.post("/webhooks/chatwoot", notifiablePayload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
	require.Equal(t, 3, f.sender.count())
	for _, id := range []int64{101, 102, 103} {
		assert.Equal(t, "Alice wrote, assigned to Bob: https://support.example.com/app/accounts/9/conversations/5", f.sender.sent[id])
	}
}

func TestWebhookSelfNotificationSuppressed(t *testing.T) {
	f := newFixture(t, 101)

	body := strings.Replace(notifiablePayload, `"Alice"`, `"Bob"`, 1)
	w := f.post("/webhooks/chatwoot", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Zero(t, f.sender.count())
}

func TestWebhookMalformedBody(t *testing.T) {
	f := newFixture(t, 101)

	for _, body := range []string{"", "not json", "[1,2]", `"text"`} {
		w := f.post("/webhooks/chatwoot", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, "invalid payload", w.Body.String())
	}
	assert.Zero(t, f.sender.count())
}

func TestWebhookBlockedSenderSuppressed(t *testing.T) {
	f := newFixture(t, 101)

	body := strings.Replace(notifiablePayload, `"blocked": false`, `"blocked": true`, 1)
	w := f.post("/webhooks/chatwoot", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Zero(t, f.sender.count())
}

func TestWebhookWrongEventAcknowledged(t *testing.T) {
	f := newFixture(t, 101)

	w := f.post("/webhooks/chatwoot", `{"event": "conversation_created"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Zero(t, f.sender.count())
}

func TestWebhookFailedSendsStillAcknowledged(t *testing.T) {
	f := newFixture(t, 101, 102)
	f.sender.fail[101] = errors.New("forbidden")
	f.sender.fail[102] = errors.New("forbidden")

	w := f.post("/webhooks/chatwoot", notifiablePayload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
}

func TestWebhookWithoutAdmins(t *testing.T) {
	f := newFixture(t)

	w := f.post("/webhooks/chatwoot", notifiablePayload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
}

func TestWebhookUnknownProvider(t *testing.T) {
	f := newFixture(t, 101)

	w := f.post("/webhooks/intercom", notifiablePayload)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, f.sender.count())
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestServiceHandleResult(t *testing.T) {
	f := newFixture(t, 7)
	f.sender.fail[7] = errors.New("boom")

	result, err := f.service.Handle(context.Background(), "chatwoot", []byte(notifiablePayload))
	require.NoError(t, err)
	assert.True(t, result.Notified())
	assert.Equal(t, 1, result.Report.Attempted)
	assert.Zero(t, result.Report.Delivered)
	require.Len(t, result.Report.Failures, 1)
	assert.Equal(t, int64(7), result.Report.Failures[0].Recipient)

	_, err = f.service.Handle(context.Background(), "chatwoot", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestServiceIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t, 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.Handle(ctx, "chatwoot", []byte(notifiablePayload))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Report.Delivered)
}

func TestWebhookOversizedBodyRejected(t *testing.T) {
	f := newFixture(t, 101)

	body := `{"event":"message_created","padding":"` + strings.Repeat("x", constants.MaxWebhookBodyBytes) + `"}`
	w := f.post("/webhooks/chatwoot", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payload", w.Body.String())
	assert.Zero(t, f.sender.count())
}

func TestHandleErrorMapsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, []string{"chatwoot"}, logger.NopLogger())

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "invalid payload", err: apperrors.ErrInvalidPayload.WithCause(errors.New("eof")), status: http.StatusBadRequest, body: "invalid payload"},
		{name: "delivery failed", err: apperrors.ErrDeliveryFailed, status: http.StatusBadGateway, body: "notification delivery failed"},
		{name: "unknown error", err: errors.New("token 123:abc leaked"), status: http.StatusInternalServerError, body: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/webhooks/chatwoot", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestServiceLogsCarryTraceID(t *testing.T) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	core, logs := observer.New(zapcore.InfoLevel)
	f := newFixtureWithLogger(t, logger.FromZap(zap.New(core)), 101)

	w := f.post("/webhooks/chatwoot", notifiablePayload)
	require.Equal(t, http.StatusOK, w.Code)

	received := logs.FilterMessage("Webhook received").All()
	require.Len(t, received, 1)
	fields := received[0].ContextMap()
	traceID, ok := fields["trace_id"].(string)
	require.True(t, ok, "trace_id missing from %v", fields)
	assert.Len(t, traceID, 32)
	assert.NotEqual(t, strings.Repeat("0", 32), traceID)
	assert.Equal(t, "chatwoot", fields["provider"])
	assert.Equal(t, int64(5), fields["conversation_id"])

	dispatched := logs.FilterMessage("Notification dispatched").All()
	require.Len(t, dispatched, 1)
	assert.Equal(t, traceID, dispatched[0].ContextMap()["trace_id"])
}

func TestServiceLogsWithoutTracing(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := newFixtureWithLogger(t, logger.FromZap(zap.New(core)), 101)

	f.post("/webhooks/chatwoot", notifiablePayload)

	received := logs.FilterMessage("Webhook received").All()
	require.Len(t, received, 1)
	assert.NotContains(t, received[0].ContextMap(), "trace_id")
}
