// Package relay ties the extractor, the policy and the dispatcher together
// for one inbound webhook.
package relay

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"relay/internal/constants"
	"relay/internal/dispatch"
	"relay/internal/event"
	"relay/internal/logger"
	"relay/internal/policy"
	"relay/pkg/logging"
	"relay/pkg/metrics"
	"relay/pkg/tracing"
)

const (
	outcomeInvalid    = "invalid"
	outcomeSuppressed = "suppressed"
	outcomeNotified   = "notified"
)

type Decider interface {
	Decide(facts event.Facts) policy.Decision
}

type Dispatcher interface {
	Dispatch(ctx context.Context, text string) dispatch.Report
}

type Result struct {
	Decision policy.Decision
	// Report is zero when the decision suppressed the event.
	Report dispatch.Report
}

func (r Result) Notified() bool {
	return !r.Decision.Suppressed()
}

type Service struct {
	policy     Decider
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewService(decider Decider, dispatcher Dispatcher, log logger.Logger) *Service {
	return &Service{
		policy:     decider,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Handle processes one raw webhook body. The only error it returns is
// ErrInvalidPayload; delivery failures are reported in the Result.
func (s *Service) Handle(ctx context.Context, provider string, raw []byte) (Result, error) {
	ctx = logging.WithProvider(ctx, provider)
	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "relay.handle")
	defer span.End()
	span.SetAttributes(attribute.String("relay.provider", provider))
	if sc := span.SpanContext(); sc.IsValid() {
		ctx = logging.WithTraceID(ctx, sc.TraceID().String())
	}

	start := time.Now()

	facts, err := event.ExtractBytes(raw)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Rejected webhook body", "error", err)
		s.record(provider, outcomeInvalid, start)
		return Result{}, err
	}
	if facts.ConversationID != nil {
		ctx = logging.WithConversationID(ctx, *facts.ConversationID)
	}

	s.logger.InfowCtx(ctx, "Webhook received", "event", facts.EventType)

	decision := s.policy.Decide(facts)
	if decision.Suppressed() {
		span.SetAttributes(attribute.String("relay.suppressed", string(decision.Reason())))
		s.logger.InfowCtx(ctx, "Notification suppressed", "reason", decision.Reason())
		s.record(provider, outcomeSuppressed, start)
		return Result{Decision: decision}, nil
	}

	// The caller hanging up must not abort deliveries already underway.
	report := s.dispatcher.Dispatch(context.WithoutCancel(ctx), decision.Message())

	s.logger.InfowCtx(ctx, "Notification dispatched",
		"link", decision.Link(),
		"attempted", report.Attempted,
		"delivered", report.Delivered,
		"failed", len(report.Failures),
	)
	s.record(provider, outcomeNotified, start)
	return Result{Decision: decision, Report: report}, nil
}

func (s *Service) record(provider, outcome string, start time.Time) {
	metrics.IncWebhookEvent(provider, outcome)
	metrics.ObserveWebhookDuration(time.Since(start), outcome)
}
