package anthropic

import (
	"encoding/json"
	"strings"
)

// Role of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason reports why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
	StopRefusal      StopReason = "refusal"
)

// Content block kinds.
const (
	BlockText             = "text"
	BlockToolUse          = "tool_use"
	BlockToolResult       = "tool_result"
	BlockThinking         = "thinking"
	BlockRedactedThinking = "redacted_thinking"
)

// Message is a complete response from the model. For streaming requests
// the accumulated message is byte-for-byte equivalent to what the
// non-streaming endpoint would have returned.
type Message struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Role         Role            `json:"role"`
	Model        string          `json:"model"`
	Content      []*ContentBlock `json:"content"`
	StopReason   StopReason      `json:"stop_reason,omitzero"`
	StopSequence string          `json:"stop_sequence,omitzero"`
	Usage        Usage           `json:"usage"`

	requestID string
}

// RequestID returns the request id the API attached to this response, if
// any.
func (m *Message) RequestID() string { return m.requestID }

// Text concatenates the text of all text blocks, in order.
func (m *Message) Text() string {
	sb := new(strings.Builder)
	for _, block := range m.Content {
		if block.Type == BlockText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool_use blocks of the message, in order.
func (m *Message) ToolUses() (blocks []*ContentBlock) {
	for _, block := range m.Content {
		if block.Type == BlockToolUse {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// ContentBlock is one addressable unit of a message's content. The Type
// field discriminates which of the remaining fields are meaningful.
type ContentBlock struct {
	Type string `json:"type"`

	// text blocks
	Text      string      `json:"text,omitzero"`
	Citations []*Citation `json:"citations,omitzero"`

	// tool_use blocks
	ID    string          `json:"id,omitzero"`
	Name  string          `json:"name,omitzero"`
	Input json.RawMessage `json:"input,omitzero"`

	// tool_result blocks
	ToolUseID string `json:"tool_use_id,omitzero"`
	Content   string `json:"content,omitzero"`
	IsError   bool   `json:"is_error,omitzero"`

	// thinking blocks
	Thinking  string `json:"thinking,omitzero"`
	Signature string `json:"signature,omitzero"`

	// redacted_thinking blocks
	Data string `json:"data,omitzero"`
}

// TextBlock creates a text content block.
func TextBlock(text string) *ContentBlock {
	return &ContentBlock{Type: BlockText, Text: text}
}

// ToolResultBlock creates a tool_result content block responding to the
// tool_use block with the given id.
func ToolResultBlock(toolUseID, content string, isError bool) *ContentBlock {
	return &ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   content,
		IsError:   isError,
	}
}

// Citation attributes a span of generated text to a source document. The
// Type field discriminates which location fields are meaningful.
type Citation struct {
	Type          string `json:"type"`
	CitedText     string `json:"cited_text,omitzero"`
	DocumentIndex int    `json:"document_index,omitzero"`
	DocumentTitle string `json:"document_title,omitzero"`

	// char_location
	StartCharIndex int `json:"start_char_index,omitzero"`
	EndCharIndex   int `json:"end_char_index,omitzero"`

	// page_location
	StartPageNumber int `json:"start_page_number,omitzero"`
	EndPageNumber   int `json:"end_page_number,omitzero"`

	// content_block_location
	StartBlockIndex int `json:"start_block_index,omitzero"`
	EndBlockIndex   int `json:"end_block_index,omitzero"`

	// web_search_result_location
	EncryptedIndex string `json:"encrypted_index,omitzero"`
	Title          string `json:"title,omitzero"`
	URL            string `json:"url,omitzero"`
}

// Usage carries token accounting for a request. Counters only ever grow
// over the life of a stream.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitzero"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitzero"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// add merges an incremental usage report into the running totals. Deltas
// are added, never substituted: message_delta reports increments, and
// overwriting would under-report long streams.
func (u *Usage) add(d DeltaUsage) {
	u.InputTokens += d.InputTokens
	u.OutputTokens += d.OutputTokens
	u.CacheCreationInputTokens += d.CacheCreationInputTokens
	u.CacheReadInputTokens += d.CacheReadInputTokens
}

// MessageParam is one input message of a conversation.
type MessageParam struct {
	Role    Role            `json:"role"`
	Content []*ContentBlock `json:"content"`
}

// UserMessage creates a user message with a single text block.
func UserMessage(text string) *MessageParam {
	return &MessageParam{Role: RoleUser, Content: []*ContentBlock{TextBlock(text)}}
}

// AssistantMessage creates an assistant message with a single text block.
func AssistantMessage(text string) *MessageParam {
	return &MessageParam{Role: RoleAssistant, Content: []*ContentBlock{TextBlock(text)}}
}

// ToolResultMessage creates a user message carrying tool_result blocks.
func ToolResultMessage(results ...*ContentBlock) *MessageParam {
	return &MessageParam{Role: RoleUser, Content: results}
}

// Metadata about the originating request.
type Metadata struct {
	UserID string `json:"user_id,omitzero"`
}

// ThinkingConfig enables extended thinking with a token budget.
type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitzero"`
}

// ThinkingEnabled returns a thinking configuration with the given budget.
func ThinkingEnabled(budgetTokens int) *ThinkingConfig {
	return &ThinkingConfig{Type: "enabled", BudgetTokens: budgetTokens}
}

// ToolChoice controls how the model selects tools.
type ToolChoice struct {
	Type string `json:"type"` // "auto" | "any" | "tool" | "none"
	Name string `json:"name,omitzero"`
}

// MessageParams are the parameters for creating a message. Field names
// follow the wire format exactly.
type MessageParams struct {
	Model         string          `json:"model"`
	MaxTokens     int             `json:"max_tokens"`
	Messages      []*MessageParam `json:"messages"`
	System        string          `json:"system,omitzero"`
	StopSequences []string        `json:"stop_sequences,omitzero"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	Stream        bool            `json:"stream,omitzero"`
	Tools         []*ToolSchema   `json:"tools,omitzero"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
}

func (p *MessageParams) validate() error {
	if p.Model == "" {
		return &ConfigError{Reason: "model is required"}
	}
	if p.MaxTokens <= 0 {
		return &ConfigError{Reason: "max_tokens must be positive"}
	}
	if len(p.Messages) == 0 {
		return &ConfigError{Reason: "at least one message is required"}
	}
	return nil
}
