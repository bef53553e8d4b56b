package anthropic

import (
	"context"
	"iter"
)

// Agent drives a multi-turn conversation with tool use. Each turn is
// streamed; whenever the model stops to call tools, the agent executes
// them and feeds the results back until the model finishes its turn.
//
// Agents are not safe for concurrent use.
type Agent struct {
	client   *Client
	registry *Registry
	model    string

	maxTokens int
	system    string
	thinking  *ThinkingConfig
	messages  []*MessageParam
	final     *Message
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithSystem sets the system prompt.
func WithSystem(system string) AgentOption {
	return func(a *Agent) { a.system = system }
}

// WithMaxTokens caps each turn's response length.
func WithMaxTokens(maxTokens int) AgentOption {
	return func(a *Agent) { a.maxTokens = maxTokens }
}

// WithThinking enables extended thinking with the given token budget.
func WithThinking(budgetTokens int) AgentOption {
	return func(a *Agent) { a.thinking = ThinkingEnabled(budgetTokens) }
}

// WithTools registers tools the model may call.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) {
		for _, tool := range tools {
			if err := a.registry.Register(tool); err != nil {
				panic(err)
			}
		}
	}
}

// WithHistory seeds the conversation with prior messages.
func WithHistory(messages ...*MessageParam) AgentOption {
	return func(a *Agent) { a.messages = append(a.messages, messages...) }
}

const defaultAgentMaxTokens = 4096

// Agent creates a conversation against the given model.
func (c *Client) Agent(model string, options ...AgentOption) *Agent {
	a := &Agent{
		client:    c,
		registry:  NewRegistry(),
		model:     model,
		maxTokens: defaultAgentMaxTokens,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// History returns the conversation so far, including tool results.
func (a *Agent) History() []*MessageParam {
	return a.messages
}

// Run sends the prompt and streams events across however many turns the
// model needs. Tool calls run between turns; their results are appended
// to the conversation automatically. Breaking out of the loop aborts the
// in-flight stream.
func (a *Agent) Run(ctx context.Context, prompt string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		a.messages = append(a.messages, UserMessage(prompt))
		for {
			params := &MessageParams{
				Model:     a.model,
				MaxTokens: a.maxTokens,
				Messages:  a.messages,
				System:    a.system,
				Tools:     a.registry.Schemas(),
				Thinking:  a.thinking,
			}
			stream, err := a.client.Stream(ctx, params)
			if err != nil {
				yield(nil, err)
				return
			}
			for event, err := range stream.Events() {
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(event, nil) {
					stream.Abort()
					return
				}
			}
			message, err := stream.Wait()
			if err != nil {
				yield(nil, err)
				return
			}
			a.final = message
			a.messages = append(a.messages, &MessageParam{
				Role:    RoleAssistant,
				Content: message.Content,
			})
			if message.StopReason != StopToolUse {
				return
			}
			results, err := a.registry.Execute(ctx, message.ToolUses())
			if err != nil {
				yield(nil, err)
				return
			}
			a.messages = append(a.messages, ToolResultMessage(results...))
		}
	}
}

// Send runs the prompt to completion and returns the model's final
// message of the exchange.
func (a *Agent) Send(ctx context.Context, prompt string) (*Message, error) {
	for _, err := range a.Run(ctx, prompt) {
		if err != nil {
			return nil, err
		}
	}
	if a.final == nil {
		return nil, &ProtocolError{Reason: "conversation produced no message"}
	}
	return a.final, nil
}
