package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/pkg/logger"
)

// Worker consumes change events from the asynq queue and dispatches them.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	router  *Router
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewWorker creates a worker, or returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, router *Router) *Worker {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				QueueName: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("type", task.Type()).Msg("[Worker] Error processing task")
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		router: router,
	}
}

// Start begins processing tasks
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	// Prefix pattern: matches every change:<collection> task type.
	w.mux.HandleFunc(taskTypePrefix, w.handleChange)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("[Worker] Server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Info().Msg("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Info().Msg("[Worker] Shutdown complete")
}

func (w *Worker) handleChange(ctx context.Context, t *asynq.Task) error {
	var ev Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		logger.Error().Err(err).Str("type", t.Type()).Msg("[Worker] Failed to unmarshal event")
		// A malformed payload never decodes; do not retry it.
		return asynq.SkipRetry
	}

	logger.Debug().Str("event_id", ev.ID).Str("collection", ev.Collection).
		Str("kind", ev.Kind).Str("doc_id", ev.DocID).Msg("[Worker] Processing event")

	return w.router.Dispatch(ctx, &ev)
}
