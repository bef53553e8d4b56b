package anthropic

import (
	"context"
	"net/http"
)

// Messages sends the conversation and returns the model's complete
// response.
func (c *Client) Messages(ctx context.Context, params *MessageParams) (*Message, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	var message Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages", params, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Stream sends the conversation and returns a stream of the response as
// it is generated. The caller consumes the stream through callbacks,
// Events, or Wait; cancelling ctx aborts it.
func (c *Client) Stream(ctx context.Context, params *MessageParams) (*Stream, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	p := *params
	p.Stream = true
	body, err := encode(&p)
	if err != nil {
		return nil, err
	}
	res, err := c.request(ctx, http.MethodPost, "/v1/messages", "application/json", "text/event-stream", body)
	if err != nil {
		return nil, err
	}
	stream := NewStream(ctx, res.Body)
	stream.log = c.log
	stream.requestID = res.Header.Get("request-id")
	return stream, nil
}

// TokenCountParams are the parameters for counting tokens without
// creating a message.
type TokenCountParams struct {
	Model    string          `json:"model"`
	Messages []*MessageParam `json:"messages"`
	System   string          `json:"system,omitzero"`
	Tools    []*ToolSchema   `json:"tools,omitzero"`
	Thinking *ThinkingConfig `json:"thinking,omitempty"`
}

// TokenCount reports how many input tokens a request would consume.
type TokenCount struct {
	InputTokens int `json:"input_tokens"`
}

// CountTokens counts the input tokens of a prospective request.
func (c *Client) CountTokens(ctx context.Context, params *TokenCountParams) (*TokenCount, error) {
	if params.Model == "" {
		return nil, &ConfigError{Reason: "model is required"}
	}
	if len(params.Messages) == 0 {
		return nil, &ConfigError{Reason: "at least one message is required"}
	}
	var count TokenCount
	if err := c.do(ctx, http.MethodPost, "/v1/messages/count_tokens", params, &count); err != nil {
		return nil, err
	}
	return &count, nil
}
