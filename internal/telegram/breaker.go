package telegram

import (
	"context"
	"errors"

	"relay/pkg/circuitbreaker"
)

// Sender is the send primitive the dispatcher fans out over.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// BreakerSender fails fast while the Bot API looks unhealthy. Per-chat
// rejections and cancellations by the caller do not count as failures.
type BreakerSender struct {
	next    Sender
	breaker *circuitbreaker.Wrapper
}

func NewBreakerSender(next Sender, cfg circuitbreaker.Config) *BreakerSender {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || IsPermanent(err) || errors.Is(err, context.Canceled)
	}
	return &BreakerSender{
		next:    next,
		breaker: circuitbreaker.NewWrapper(cfg),
	}
}

func (s *BreakerSender) Send(ctx context.Context, chatID int64, text string) error {
	return s.breaker.Run(ctx, func(ctx context.Context) error {
		return s.next.Send(ctx, chatID, text)
	})
}

func (s *BreakerSender) Breaker() *circuitbreaker.Wrapper {
	return s.breaker
}
