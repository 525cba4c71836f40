package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/refwire/refwire/internal/diag"
	"github.com/refwire/refwire/internal/engine"
	"github.com/refwire/refwire/internal/scene"
)

// ErrSaveBlocked is returned when a before-save hook rejects the scene
var ErrSaveBlocked = errors.New("save blocked")

// Executor runs registered hooks
type Executor struct {
	registry   *Registry
	asyncQueue *AsyncQueue
	logger     *zap.Logger
}

// NewExecutor creates an executor with an empty registry. asyncQueue may be nil when no async
// hooks are registered.
func NewExecutor(asyncQueue *AsyncQueue, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry:   NewRegistry(),
		asyncQueue: asyncQueue,
		logger:     logger,
	}
}

// Register adds a hook
func (e *Executor) Register(hookType HookType, hook *Hook) {
	e.registry.Register(hookType, hook)
}

// Execute runs the hooks of hookType in order. The first synchronous failure stops the rest
// and is returned; async hooks are queued and their errors only logged.
func (e *Executor) Execute(ctx context.Context, hookType HookType, graph *scene.Graph, path string) error {
	hooks := e.registry.GetHooks(hookType)
	if len(hooks) == 0 {
		return nil
	}

	hookCtx := NewContext(ctx, graph, path)
	for _, hook := range hooks {
		if hook.Async {
			if err := e.enqueue(hookCtx, hook); err != nil {
				e.logger.Warn("failed to enqueue async hook",
					zap.Stringer("type", hookType),
					zap.String("hook", hook.Name),
					zap.Error(err))
			}
			continue
		}
		if err := hook.Fn(hookCtx); err != nil {
			return fmt.Errorf("hook %s %s failed: %w", hookType, hook.Name, err)
		}
	}
	return nil
}

func (e *Executor) enqueue(hookCtx *Context, hook *Hook) error {
	if e.asyncQueue == nil {
		return ErrQueueNotStarted
	}
	return e.asyncQueue.Enqueue(AsyncTask{
		Name: hook.Name,
		Fn: func(ctx context.Context) error {
			return hook.Fn(NewContext(ctx, hookCtx.graph, hookCtx.path))
		},
	})
}

// GateOptions configures ValidateOnSave
type GateOptions struct {
	// FailOnWarnings blocks saves that only produced warnings
	FailOnWarnings bool
	// OnResult receives every batch report, blocked or not
	OnResult func(ctx *Context, batch *engine.BatchReport)
}

// ValidateOnSave returns a before-save hook that resolves and validates every registered host in
// the graph and blocks the save when validation fails
func ValidateOnSave(e *engine.Engine, opts GateOptions) *Hook {
	return &Hook{
		Type: BeforeSave,
		Name: "validate_references",
		Fn: func(ctx *Context) error {
			batch := e.BatchCheck(ctx.Graph(), engine.CheckOptions{Resolve: true})
			if opts.OnResult != nil {
				opts.OnResult(ctx, batch)
			}
			if err := batch.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSaveBlocked, err)
			}
			list := batch.Diagnostics()
			if !batch.Passed {
				return fmt.Errorf("%w: %w", ErrSaveBlocked, list)
			}
			if opts.FailOnWarnings && len(list.Warnings()) > 0 {
				return fmt.Errorf("%w: %d warning(s)", ErrSaveBlocked, len(list.Warnings()))
			}
			return nil
		},
	}
}

// WriteMetrics returns an async after-save hook that rewrites the Prometheus textfile at path
// with everything gathered so far
func WriteMetrics(path string, g prometheus.Gatherer) *Hook {
	return &Hook{
		Type:  AfterSave,
		Name:  "write_metrics",
		Async: true,
		Fn: func(*Context) error {
			return prometheus.WriteToTextfile(path, g)
		},
	}
}

// Blocking extracts the diagnostics that blocked a save, if any
func Blocking(err error) (*diag.List, bool) {
	var list *diag.List
	if errors.As(err, &list) {
		return list, true
	}
	return nil, false
}
