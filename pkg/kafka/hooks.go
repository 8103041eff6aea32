package kafka

import "context"

// ConsumerHook observes message handling. BeforeHandle may replace the
// context and payload; a non-nil error skips the handler and routes the
// message through error handling.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, data []byte) (context.Context, []byte, error)
	AfterHandle(ctx context.Context, topic string, data []byte, err error)
	OnError(ctx context.Context, topic string, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, data []byte) (context.Context, []byte, error) {
	return ctx, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, data []byte, err error) {}

func (NoopHook) OnError(ctx context.Context, topic string, data []byte, err error) {}
