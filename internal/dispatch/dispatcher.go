// Package dispatch fans a notification out to every configured recipient
// under a shared outbound rate limit.
package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"relay/internal/constants"
	"relay/internal/logger"
	"relay/pkg/tracing"
)

// Sender delivers text to a single recipient.
type Sender interface {
	Send(ctx context.Context, recipient int64, text string) error
}

// Limiter grants one permit per call, blocking until one is available.
type Limiter interface {
	Wait(ctx context.Context) error
}

type Config struct {
	Recipients []int64
	// SendTimeout bounds each send call; zero means no bound beyond ctx.
	SendTimeout time.Duration
}

type Dispatcher struct {
	recipients  []int64
	sender      Sender
	limiter     Limiter
	sendTimeout time.Duration
	logger      logger.Logger
}

func New(cfg Config, sender Sender, limiter Limiter, log logger.Logger) *Dispatcher {
	recipients := make([]int64, len(cfg.Recipients))
	copy(recipients, cfg.Recipients)

	return &Dispatcher{
		recipients:  recipients,
		sender:      sender,
		limiter:     limiter,
		sendTimeout: cfg.SendTimeout,
		logger:      log,
	}
}

// Failure records why delivery to one recipient did not succeed.
type Failure struct {
	Recipient int64
	Err       error
}

type Report struct {
	Attempted int
	Delivered int
	Failures  []Failure
}

func (r Report) AllDelivered() bool {
	return r.Delivered == r.Attempted
}

func (d *Dispatcher) Recipients() []int64 {
	out := make([]int64, len(d.recipients))
	copy(out, d.recipients)
	return out
}

// Dispatch runs one delivery task per recipient concurrently and returns once
// every task has finished. Failures are isolated per recipient and reported,
// never returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Report {
	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "dispatch.fanout")
	defer span.End()
	span.SetAttributes(attribute.Int("relay.recipients", len(d.recipients)))

	results := make([]error, len(d.recipients))

	var g errgroup.Group
	for i, recipient := range d.recipients {
		task := deliveryTask{
			recipient: recipient,
			text:      text,
			limiter:   d.limiter,
			sender:    d.sender,
			timeout:   d.sendTimeout,
		}
		g.Go(func() error {
			results[i] = task.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Attempted: len(d.recipients)}
	for i, err := range results {
		if err == nil {
			report.Delivered++
			continue
		}
		report.Failures = append(report.Failures, Failure{Recipient: d.recipients[i], Err: err})
		d.logger.ErrorwCtx(ctx, "Delivery failed",
			"recipient", d.recipients[i],
			"error", err,
		)
	}

	span.SetAttributes(
		attribute.Int("relay.delivered", report.Delivered),
		attribute.Int("relay.failed", len(report.Failures)),
	)
	return report
}
