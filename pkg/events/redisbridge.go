package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBridge relays Redis pub/sub messages to the local ConnectionManager,
// replacing the teacher's NotifyListener (PostgreSQL LISTEN/NOTIFY) per
// spec.md §2's explicit "Redis pub/sub bridge" requirement. go-redis's
// *redis.PubSub already reconnects and re-subscribes internally, so this
// bridge is considerably simpler than the teacher's hand-rolled
// reconnect/generation-counter machinery — there is no dedicated-connection
// command-queue to serialize.
type RedisBridge struct {
	client  *redis.Client
	manager *ConnectionManager

	mu     sync.Mutex
	pubsub *redis.PubSub

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisBridge creates a bridge bound to client and manager. Call Start
// before the first Subscribe.
func NewRedisBridge(client *redis.Client, manager *ConnectionManager) *RedisBridge {
	return &RedisBridge{client: client, manager: manager}
}

// Start opens the underlying Redis subscription (initially to no channels)
// and begins the receive loop.
func (b *RedisBridge) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	b.mu.Lock()
	b.pubsub = b.client.Subscribe(loopCtx)
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		b.receiveLoop(loopCtx)
	}()

	slog.Info("redis bridge started")
}

// Stop closes the receive loop and the underlying subscription.
func (b *RedisBridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.done != nil {
		<-b.done
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
}

// Subscribe adds channel to the Redis subscription set.
func (b *RedisBridge) Subscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubsub.Subscribe(ctx, channel)
}

// Unsubscribe removes channel from the Redis subscription set.
func (b *RedisBridge) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubsub.Unsubscribe(ctx, channel)
}

func (b *RedisBridge) receiveLoop(ctx context.Context) {
	b.mu.Lock()
	ch := b.pubsub.Channel()
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.manager.Broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}
