package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/matthewmueller/anthropic/sse"
)

// Event is one decoded streaming event. The set of variants is closed:
// switch over the concrete types below, with UnknownEvent as the forward
// compatibility fallback.
type Event interface {
	eventType() string
}

// MessageStartEvent opens the stream with the partial message: identity
// fields and initial usage, no content yet.
type MessageStartEvent struct {
	Message *Message
}

// ContentBlockStartEvent introduces the content block at Index.
type ContentBlockStartEvent struct {
	Index        int
	ContentBlock *ContentBlock
}

// ContentBlockDeltaEvent carries an incremental update to the block at
// Index.
type ContentBlockDeltaEvent struct {
	Index int
	Delta Delta
}

// ContentBlockStopEvent finalizes the block at Index.
type ContentBlockStopEvent struct {
	Index int
}

// MessageDeltaEvent updates top-level fields and reports incremental
// usage.
type MessageDeltaEvent struct {
	StopReason   StopReason
	StopSequence string
	Usage        DeltaUsage
}

// MessageStopEvent ends the stream; no further events are valid.
type MessageStopEvent struct{}

// PingEvent is a keepalive; it carries nothing.
type PingEvent struct{}

// ErrorEvent is a failure the server reported mid-stream.
type ErrorEvent struct {
	ErrorType string
	Message   string
}

// UnknownEvent preserves an event whose type this client does not know.
// Unknown events are ignored by the accumulator rather than treated as
// errors, so protocol additions don't break older clients.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

func (*MessageStartEvent) eventType() string      { return "message_start" }
func (*ContentBlockStartEvent) eventType() string { return "content_block_start" }
func (*ContentBlockDeltaEvent) eventType() string { return "content_block_delta" }
func (*ContentBlockStopEvent) eventType() string  { return "content_block_stop" }
func (*MessageDeltaEvent) eventType() string      { return "message_delta" }
func (*MessageStopEvent) eventType() string       { return "message_stop" }
func (*PingEvent) eventType() string              { return "ping" }
func (*ErrorEvent) eventType() string             { return "error" }
func (e *UnknownEvent) eventType() string         { return e.Type }

// DeltaUsage is the incremental token accounting attached to a
// message_delta event. Values are increments to add to the running
// totals, not replacements.
type DeltaUsage struct {
	InputTokens              int `json:"input_tokens,omitzero"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitzero"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitzero"`
}

// Delta is one incremental content fragment within a content block. Like
// Event, the variant set is closed with an unknown fallback.
type Delta interface {
	deltaType() string
}

// TextDelta appends text to a text block.
type TextDelta struct {
	Text string
}

// InputJSONDelta appends a fragment of a tool_use block's input JSON. The
// fragment alone is usually not valid JSON; fragments only parse once the
// block completes.
type InputJSONDelta struct {
	PartialJSON string
}

// CitationsDelta appends a citation to a text block.
type CitationsDelta struct {
	Citation *Citation
}

// ThinkingDelta appends text to a thinking block.
type ThinkingDelta struct {
	Thinking string
}

// SignatureDelta appends to a thinking block's signature.
type SignatureDelta struct {
	Signature string
}

// UnknownDelta preserves a delta whose type this client does not know.
type UnknownDelta struct {
	Type string
	Raw  json.RawMessage
}

func (*TextDelta) deltaType() string      { return "text_delta" }
func (*InputJSONDelta) deltaType() string { return "input_json_delta" }
func (*CitationsDelta) deltaType() string { return "citations_delta" }
func (*ThinkingDelta) deltaType() string  { return "thinking_delta" }
func (*SignatureDelta) deltaType() string { return "signature_delta" }
func (d *UnknownDelta) deltaType() string { return d.Type }

// decodeEvent turns a frame's payload into a typed event. The in-body
// "type" field is authoritative; the SSE-level event name is advisory
// only. Unknown types decode to UnknownEvent; structurally invalid JSON
// and missing required fields are DecodeErrors, which the stream treats
// as fatal. Required fields are never defaulted: fabricating an index
// would corrupt the accumulated result.
func decodeEvent(frame *sse.Frame) (Event, error) {
	data := []byte(frame.Data)
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON payload", Cause: err}
	}
	if probe.Type == "" {
		return nil, &DecodeError{Reason: `missing "type" field`}
	}

	switch probe.Type {
	case "message_start":
		var raw struct {
			Message *Message `json:"message"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid message_start", Cause: err}
		}
		if raw.Message == nil {
			return nil, &DecodeError{Reason: `message_start missing "message"`}
		}
		return &MessageStartEvent{Message: raw.Message}, nil

	case "content_block_start":
		var raw struct {
			Index        *int          `json:"index"`
			ContentBlock *ContentBlock `json:"content_block"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid content_block_start", Cause: err}
		}
		if raw.Index == nil {
			return nil, &DecodeError{Reason: `content_block_start missing "index"`}
		}
		if raw.ContentBlock == nil {
			return nil, &DecodeError{Reason: `content_block_start missing "content_block"`}
		}
		return &ContentBlockStartEvent{Index: *raw.Index, ContentBlock: raw.ContentBlock}, nil

	case "content_block_delta":
		var raw struct {
			Index *int            `json:"index"`
			Delta json.RawMessage `json:"delta"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid content_block_delta", Cause: err}
		}
		if raw.Index == nil {
			return nil, &DecodeError{Reason: `content_block_delta missing "index"`}
		}
		if len(raw.Delta) == 0 {
			return nil, &DecodeError{Reason: `content_block_delta missing "delta"`}
		}
		delta, err := decodeDelta(raw.Delta)
		if err != nil {
			return nil, err
		}
		return &ContentBlockDeltaEvent{Index: *raw.Index, Delta: delta}, nil

	case "content_block_stop":
		var raw struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid content_block_stop", Cause: err}
		}
		if raw.Index == nil {
			return nil, &DecodeError{Reason: `content_block_stop missing "index"`}
		}
		return &ContentBlockStopEvent{Index: *raw.Index}, nil

	case "message_delta":
		var raw struct {
			Delta struct {
				StopReason   StopReason `json:"stop_reason"`
				StopSequence string     `json:"stop_sequence"`
			} `json:"delta"`
			Usage DeltaUsage `json:"usage"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid message_delta", Cause: err}
		}
		return &MessageDeltaEvent{
			StopReason:   raw.Delta.StopReason,
			StopSequence: raw.Delta.StopSequence,
			Usage:        raw.Usage,
		}, nil

	case "message_stop":
		return &MessageStopEvent{}, nil

	case "ping":
		return &PingEvent{}, nil

	case "error":
		var raw struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{Reason: "invalid error event", Cause: err}
		}
		return &ErrorEvent{ErrorType: raw.Error.Type, Message: raw.Error.Message}, nil

	default:
		return &UnknownEvent{Type: probe.Type, Raw: json.RawMessage(frame.Data)}, nil
	}
}

func decodeDelta(data json.RawMessage) (Delta, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &DecodeError{Reason: "invalid delta", Cause: err}
	}

	switch probe.Type {
	case "text_delta":
		var raw struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Text == nil {
			return nil, &DecodeError{Reason: `text_delta missing "text"`, Cause: err}
		}
		return &TextDelta{Text: *raw.Text}, nil

	case "input_json_delta":
		var raw struct {
			PartialJSON *string `json:"partial_json"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.PartialJSON == nil {
			return nil, &DecodeError{Reason: `input_json_delta missing "partial_json"`, Cause: err}
		}
		return &InputJSONDelta{PartialJSON: *raw.PartialJSON}, nil

	case "citations_delta":
		var raw struct {
			Citation *Citation `json:"citation"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Citation == nil {
			return nil, &DecodeError{Reason: `citations_delta missing "citation"`, Cause: err}
		}
		return &CitationsDelta{Citation: raw.Citation}, nil

	case "thinking_delta":
		var raw struct {
			Thinking *string `json:"thinking"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Thinking == nil {
			return nil, &DecodeError{Reason: `thinking_delta missing "thinking"`, Cause: err}
		}
		return &ThinkingDelta{Thinking: *raw.Thinking}, nil

	case "signature_delta":
		var raw struct {
			Signature *string `json:"signature"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Signature == nil {
			return nil, &DecodeError{Reason: `signature_delta missing "signature"`, Cause: err}
		}
		return &SignatureDelta{Signature: *raw.Signature}, nil

	case "":
		return nil, &DecodeError{Reason: fmt.Sprintf("delta missing type: %s", data)}

	default:
		return &UnknownDelta{Type: probe.Type, Raw: data}, nil
	}
}
