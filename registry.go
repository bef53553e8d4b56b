package anthropic

import (
	"context"
	"fmt"
	"sync"

	"github.com/matthewmueller/anthropic/internal/parallel"
)

// Registry holds the tools available to a conversation, keyed by name.
// Schemas are reported in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry with the given tools. It panics on
// duplicate tool names, which are a programming error.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. Tool names must be unique.
func (r *Registry) Register(tool Tool) error {
	name := tool.Schema().Name
	if name == "" {
		return &ConfigError{Reason: "tool name is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		return &ConfigError{Reason: fmt.Sprintf("tool %q already registered", name)}
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Schemas returns the registered tools' schemas in registration order.
func (r *Registry) Schemas() (schemas []*ToolSchema) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		schemas = append(schemas, r.tools[name].Schema())
	}
	return schemas
}

// Execute runs the given tool_use blocks concurrently and returns one
// tool_result block per use, in block order. A failing or unknown tool
// produces an is_error result rather than failing the conversation; only
// cancellation aborts execution.
func (r *Registry) Execute(ctx context.Context, uses []*ContentBlock) ([]*ContentBlock, error) {
	return parallel.Map(ctx, uses, func(ctx context.Context, use *ContentBlock) (*ContentBlock, error) {
		if use.Type != BlockToolUse {
			return nil, &ConfigError{Reason: fmt.Sprintf("cannot execute %q block", use.Type)}
		}
		tool, ok := r.Get(use.Name)
		if !ok {
			return ToolResultBlock(use.ID, fmt.Sprintf("tool %q not found", use.Name), true), nil
		}
		out, err := tool.Run(ctx, use.Input)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			return ToolResultBlock(use.ID, err.Error(), true), nil
		}
		return ToolResultBlock(use.ID, string(out), false), nil
	})
}
