package redisbus

import "context"

const KindVectorSync = "vector_sync"

// Event is a small wake-up notice; consumers re-read durable state instead of
// trusting the payload.
type Event struct {
	Kind   string `json:"kind"`
	TaskID string `json:"task_id,omitempty"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}

// NoopBus is used when no Redis is configured.
type NoopBus struct{}

func (NoopBus) Publish(context.Context, Event) error { return nil }
func (NoopBus) StartForwarder(context.Context, func(ev Event)) error { return nil }
func (NoopBus) Close() error { return nil }
