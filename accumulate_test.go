package anthropic_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/matthewmueller/anthropic"
)

func messageStart() *anthropic.MessageStartEvent {
	return &anthropic.MessageStartEvent{
		Message: &anthropic.Message{
			ID:      "msg_1",
			Type:    "message",
			Role:    anthropic.RoleAssistant,
			Model:   "claude-sonnet-4-5",
			Content: []*anthropic.ContentBlock{},
			Usage:   anthropic.Usage{InputTokens: 25, OutputTokens: 1},
		},
	}
}

func textStart(index int) *anthropic.ContentBlockStartEvent {
	return &anthropic.ContentBlockStartEvent{
		Index:        index,
		ContentBlock: &anthropic.ContentBlock{Type: anthropic.BlockText},
	}
}

func textDelta(index int, text string) *anthropic.ContentBlockDeltaEvent {
	return &anthropic.ContentBlockDeltaEvent{
		Index: index,
		Delta: &anthropic.TextDelta{Text: text},
	}
}

func apply(t *testing.T, acc *anthropic.Accumulator, events ...anthropic.Event) {
	t.Helper()
	is := is.New(t)
	for _, event := range events {
		is.NoErr(acc.Apply(event))
	}
}

func TestAccumulateTextMessage(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.PingEvent{},
		textStart(0),
		textDelta(0, "Hello"),
		textDelta(0, ", world"),
		&anthropic.ContentBlockStopEvent{Index: 0},
		&anthropic.MessageDeltaEvent{
			StopReason: anthropic.StopEndTurn,
			Usage:      anthropic.DeltaUsage{OutputTokens: 12},
		},
		&anthropic.MessageStopEvent{},
	)
	is.True(acc.Done())
	message := acc.Message()
	is.Equal(message.Text(), "Hello, world")
	is.Equal(message.StopReason, anthropic.StopEndTurn)
	is.Equal(message.Usage.InputTokens, 25)
	is.Equal(message.Usage.OutputTokens, 13) // 1 from message_start + 12 from message_delta
}

func TestAccumulateToolUse(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.ContentBlockStartEvent{
			Index: 0,
			ContentBlock: &anthropic.ContentBlock{
				Type:  anthropic.BlockToolUse,
				ID:    "tu_1",
				Name:  "get_weather",
				Input: json.RawMessage(`{}`),
			},
		},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.InputJSONDelta{PartialJSON: `{"locat`}},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.InputJSONDelta{PartialJSON: `ion":"SF"}`}},
		&anthropic.ContentBlockStopEvent{Index: 0},
		&anthropic.MessageDeltaEvent{StopReason: anthropic.StopToolUse},
		&anthropic.MessageStopEvent{},
	)
	is.True(acc.Done())
	uses := acc.Message().ToolUses()
	is.Equal(len(uses), 1)
	is.Equal(string(uses[0].Input), `{"location":"SF"}`)
}

func TestAccumulateInvalidToolJSON(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.ContentBlockStartEvent{
			Index:        0,
			ContentBlock: &anthropic.ContentBlock{Type: anthropic.BlockToolUse, ID: "tu_1", Name: "f"},
		},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.InputJSONDelta{PartialJSON: `{"locat`}},
	)
	// final fragment never arrives
	err := acc.Apply(&anthropic.ContentBlockStopEvent{Index: 0})
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
}

func TestAccumulateThinkingBlock(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.ContentBlockStartEvent{
			Index:        0,
			ContentBlock: &anthropic.ContentBlock{Type: anthropic.BlockThinking},
		},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.ThinkingDelta{Thinking: "step one. "}},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.ThinkingDelta{Thinking: "step two."}},
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.SignatureDelta{Signature: "c2ln"}},
		&anthropic.ContentBlockStopEvent{Index: 0},
	)
	block := acc.Message().Content[0]
	is.Equal(block.Thinking, "step one. step two.")
	is.Equal(block.Signature, "c2ln")
}

func TestAccumulateCitations(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		textStart(0),
		textDelta(0, "the sky is blue"),
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.CitationsDelta{
			Citation: &anthropic.Citation{Type: "char_location", CitedText: "the sky is blue"},
		}},
	)
	is.Equal(len(acc.Message().Content[0].Citations), 1)
}

func TestEventBeforeMessageStart(t *testing.T) {
	is := is.New(t)
	var protoErr *anthropic.ProtocolError
	for _, event := range []anthropic.Event{
		textStart(0),
		textDelta(0, "x"),
		&anthropic.ContentBlockStopEvent{Index: 0},
		&anthropic.MessageDeltaEvent{},
		&anthropic.MessageStopEvent{},
	} {
		acc := anthropic.NewAccumulator()
		err := acc.Apply(event)
		is.True(errors.As(err, &protoErr))
	}
}

func TestDuplicateMessageStart(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart())
	err := acc.Apply(messageStart())
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
}

func TestOutOfOrderBlockStart(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart())
	err := acc.Apply(textStart(1))
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
	// the failed start must not have been applied
	is.Equal(len(acc.Message().Content), 0)
}

func TestOutOfOrderBlockStartKeepsAccumulatedState(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		textStart(0),
		textDelta(0, "Hello"),
		textDelta(0, ", world"),
	)
	// index 2 arrives where 1 is expected
	err := acc.Apply(textStart(2))
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
	is.Equal(len(acc.Message().Content), 1)
	is.Equal(acc.Message().Content[0].Text, "Hello, world")
}

func TestDeltaForUnstartedBlock(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart(), textStart(0))
	err := acc.Apply(textDelta(1, "x"))
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
}

func TestDoubleBlockStop(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart(), textStart(0), &anthropic.ContentBlockStopEvent{Index: 0})
	var protoErr *anthropic.ProtocolError
	err := acc.Apply(&anthropic.ContentBlockStopEvent{Index: 0})
	is.True(errors.As(err, &protoErr))
	err = acc.Apply(textDelta(0, "x"))
	is.True(errors.As(err, &protoErr))
}

func TestUsageAddsAcrossDeltas(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.MessageDeltaEvent{Usage: anthropic.DeltaUsage{OutputTokens: 10}},
		&anthropic.MessageDeltaEvent{Usage: anthropic.DeltaUsage{OutputTokens: 7}},
	)
	is.Equal(acc.Message().Usage.OutputTokens, 18) // 1 + 10 + 7
	is.Equal(acc.Message().Usage.InputTokens, 25)
}

func TestStopReasonSetOnce(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		&anthropic.MessageDeltaEvent{StopReason: anthropic.StopEndTurn},
		// repeating the same value is fine
		&anthropic.MessageDeltaEvent{StopReason: anthropic.StopEndTurn},
	)
	err := acc.Apply(&anthropic.MessageDeltaEvent{StopReason: anthropic.StopMaxTokens})
	var protoErr *anthropic.ProtocolError
	is.True(errors.As(err, &protoErr))
}

func TestEventsAfterMessageStop(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart(), &anthropic.MessageStopEvent{})
	is.True(acc.Done())

	// keepalives and unknown events stay harmless after the end
	is.NoErr(acc.Apply(&anthropic.PingEvent{}))
	is.NoErr(acc.Apply(&anthropic.UnknownEvent{Type: "new_thing"}))

	var protoErr *anthropic.ProtocolError
	err := acc.Apply(textDelta(0, "x"))
	is.True(errors.As(err, &protoErr))
}

func TestErrorEvent(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc, messageStart(), &anthropic.ErrorEvent{ErrorType: "overloaded_error", Message: "Overloaded"})
	is.True(!acc.Done())
	apiErr := acc.Failed()
	is.Equal(apiErr.Type, "overloaded_error")
	is.Equal(apiErr.Message, "Overloaded")

	var protoErr *anthropic.ProtocolError
	err := acc.Apply(&anthropic.MessageStopEvent{})
	is.True(errors.As(err, &protoErr))
}

func TestErrorEventBeforeMessageStart(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	is.NoErr(acc.Apply(&anthropic.ErrorEvent{ErrorType: "overloaded_error", Message: "Overloaded"}))
	is.Equal(acc.Failed().Type, "overloaded_error")
}

func TestMessageStartWithExistingContent(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	start := messageStart()
	start.Message.Content = []*anthropic.ContentBlock{anthropic.TextBlock("pre")}
	apply(t, acc, start,
		textDelta(0, "fix"),
		textStart(1),
		textDelta(1, "next"),
	)
	is.Equal(acc.Message().Text(), "prefixnext")
}

func TestUnknownDeltaIgnored(t *testing.T) {
	is := is.New(t)
	acc := anthropic.NewAccumulator()
	apply(t, acc,
		messageStart(),
		textStart(0),
		&anthropic.ContentBlockDeltaEvent{Index: 0, Delta: &anthropic.UnknownDelta{Type: "sparkle_delta"}},
		textDelta(0, "hi"),
	)
	is.Equal(acc.Message().Text(), "hi")
}
