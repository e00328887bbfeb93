package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/pkg/logger"
)

// QueueName is the asynq queue carrying change events.
const QueueName = "stats"

// Bus delivers change events to their handlers.
type Bus interface {
	// Publish hands ev to the bus. A nil error means the bus accepted it.
	Publish(ctx context.Context, ev *Event) error
	// IsAsync returns true if delivery happens out of process
	IsAsync() bool
	// Close releases the bus and waits for in-flight local deliveries
	Close() error
}

// NewBus returns the asynq bus when Redis is enabled and reachable, and an
// in-process bus on router otherwise.
func NewBus(cfg *config.RedisConfig, router *Router) Bus {
	if cfg != nil && cfg.Enabled {
		bus, err := NewAsyncBus(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("[EventBus] Redis unavailable, falling back to local delivery")
			return NewLocalBus(router, false)
		}
		logger.Info().Str("addr", cfg.Addr).Msg("[EventBus] Async bus initialized")
		return bus
	}
	logger.Info().Msg("[EventBus] Local bus initialized (Redis disabled)")
	return NewLocalBus(router, false)
}

// AsyncBus publishes events as asynq tasks (Redis-based).
type AsyncBus struct {
	client *asynq.Client
}

// NewAsyncBus creates a Redis-backed bus and verifies the connection.
func NewAsyncBus(cfg *config.RedisConfig) (*AsyncBus, error) {
	redisOpt := redisClientOpt(cfg)

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncBus{client: client}, nil
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Publish enqueues ev. The event id is the task id, so a relay that
// republishes an event already in the queue is a no-op.
func (b *AsyncBus) Publish(ctx context.Context, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskType(ev.Collection), payload)
	info, err := b.client.EnqueueContext(ctx, t,
		asynq.Queue(QueueName),
		asynq.MaxRetry(3),
		asynq.TaskID(ev.ID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debug().Str("event_id", ev.ID).Msg("[AsyncBus] Event already enqueued")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Str("type", info.Type).Msg("[AsyncBus] Event enqueued")
	return nil
}

func (b *AsyncBus) IsAsync() bool {
	return true
}

func (b *AsyncBus) Close() error {
	return b.client.Close()
}

// LocalBus dispatches events in process. When inline is set Publish runs
// the handlers before returning; otherwise each event gets a goroutine.
type LocalBus struct {
	router *Router
	inline bool
	wg     sync.WaitGroup
}

func NewLocalBus(router *Router, inline bool) *LocalBus {
	return &LocalBus{router: router, inline: inline}
}

func (b *LocalBus) Publish(ctx context.Context, ev *Event) error {
	if b.inline {
		if err := b.router.Dispatch(ctx, ev); err != nil {
			logger.Error().Err(err).Str("event_id", ev.ID).Msg("[LocalBus] Event handling failed")
		}
		return nil
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		// Detached from the publisher: the request that wrote the event
		// may finish before delivery does.
		if err := b.router.Dispatch(context.Background(), ev); err != nil {
			logger.Error().Err(err).Str("event_id", ev.ID).Msg("[LocalBus] Event handling failed")
		}
	}()
	return nil
}

func (b *LocalBus) IsAsync() bool {
	return false
}

// Wait blocks until every dispatched event has been handled.
func (b *LocalBus) Wait() {
	b.wg.Wait()
}

func (b *LocalBus) Close() error {
	b.wg.Wait()
	return nil
}
