// Package hooks runs callbacks around scene saves. A before-save hook can block the save; the
// reference gate built by ValidateOnSave is the standard one.
package hooks

import (
	"context"
	"fmt"

	"github.com/refwire/refwire/internal/scene"
)

// HookType selects when a hook runs
type HookType int

const (
	// BeforeSave hooks run before the scene is written and can block it
	BeforeSave HookType = iota
	// AfterSave hooks run once the scene was written
	AfterSave
)

func (h HookType) String() string {
	switch h {
	case BeforeSave:
		return "before_save"
	case AfterSave:
		return "after_save"
	default:
		return fmt.Sprintf("HookType(%d)", int(h))
	}
}

// Context carries the scene being saved to hook functions
type Context struct {
	context.Context
	graph *scene.Graph
	path  string
}

// NewContext creates a hook context for saving graph to path
func NewContext(ctx context.Context, graph *scene.Graph, path string) *Context {
	return &Context{Context: ctx, graph: graph, path: path}
}

// Graph returns the graph being saved
func (c *Context) Graph() *scene.Graph {
	return c.graph
}

// Path returns the destination file
func (c *Context) Path() string {
	return c.path
}

// HookFunc is a hook body
type HookFunc func(ctx *Context) error

// Hook is a registered save callback
type Hook struct {
	Type  HookType
	Name  string
	Fn    HookFunc
	Async bool // run on the async queue instead of inline
}

// Registry holds hooks by type in registration order
type Registry struct {
	hooks map[HookType][]*Hook
}

// NewRegistry creates an empty hook registry
func NewRegistry() *Registry {
	return &Registry{
		hooks: make(map[HookType][]*Hook),
	}
}

// Register adds a hook for hookType
func (r *Registry) Register(hookType HookType, hook *Hook) {
	hook.Type = hookType
	r.hooks[hookType] = append(r.hooks[hookType], hook)
}

// GetHooks returns the hooks for hookType
func (r *Registry) GetHooks(hookType HookType) []*Hook {
	return r.hooks[hookType]
}

// HasHooks reports whether any hook is registered for hookType
func (r *Registry) HasHooks(hookType HookType) bool {
	return len(r.hooks[hookType]) > 0
}
