package dispatch

import (
	"context"
	"fmt"
	"time"

	apperrors "relay/pkg/errors"
	"relay/pkg/metrics"
)

// deliveryTask sends one message to one recipient. It carries everything it
// needs so concurrent tasks share nothing but the limiter and the sender.
type deliveryTask struct {
	recipient int64
	text      string
	limiter   Limiter
	sender    Sender
	timeout   time.Duration
}

func (t deliveryTask) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r)
		}
	}()

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("acquire permit: %w", err)
	}

	sendCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	err = t.sender.Send(sendCtx, t.recipient, t.text)
	metrics.ObserveDelivery(time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("send to %d: %w", t.recipient, err)
	}
	return nil
}
