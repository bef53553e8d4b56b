package anthropic

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/matthewmueller/anthropic/sse"
)

func decode(t *testing.T, data string) (Event, error) {
	t.Helper()
	return decodeEvent(&sse.Frame{Data: data})
}

func TestDecodeMessageStart(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"usage":{"input_tokens":25,"output_tokens":1}}}`)
	is.NoErr(err)
	start, ok := event.(*MessageStartEvent)
	is.True(ok)
	is.Equal(start.Message.ID, "msg_1")
	is.Equal(start.Message.Role, RoleAssistant)
	is.Equal(start.Message.Usage.InputTokens, 25)
	is.Equal(len(start.Message.Content), 0)
}

func TestDecodeContentBlockStart(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
	is.NoErr(err)
	start, ok := event.(*ContentBlockStartEvent)
	is.True(ok)
	is.Equal(start.Index, 0)
	is.Equal(start.ContentBlock.Type, BlockText)
}

func TestDecodeTextDelta(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`)
	is.NoErr(err)
	ev, ok := event.(*ContentBlockDeltaEvent)
	is.True(ok)
	delta, ok := ev.Delta.(*TextDelta)
	is.True(ok)
	is.Equal(delta.Text, "Hello")
}

func TestDecodeInputJSONDelta(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"location\":"}}`)
	is.NoErr(err)
	ev := event.(*ContentBlockDeltaEvent)
	delta, ok := ev.Delta.(*InputJSONDelta)
	is.True(ok)
	is.Equal(delta.PartialJSON, `{"location":`)
}

func TestDecodeThinkingAndSignatureDeltas(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`)
	is.NoErr(err)
	thinking := event.(*ContentBlockDeltaEvent).Delta.(*ThinkingDelta)
	is.Equal(thinking.Thinking, "hmm")

	event, err = decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"c2ln"}}`)
	is.NoErr(err)
	sig := event.(*ContentBlockDeltaEvent).Delta.(*SignatureDelta)
	is.Equal(sig.Signature, "c2ln")
}

func TestDecodeCitationsDelta(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"citations_delta","citation":{"type":"char_location","cited_text":"the sky is blue","start_char_index":0,"end_char_index":15}}}`)
	is.NoErr(err)
	delta := event.(*ContentBlockDeltaEvent).Delta.(*CitationsDelta)
	is.Equal(delta.Citation.CitedText, "the sky is blue")
	is.Equal(delta.Citation.EndCharIndex, 15)
}

func TestDecodeMessageDelta(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":15}}`)
	is.NoErr(err)
	delta, ok := event.(*MessageDeltaEvent)
	is.True(ok)
	is.Equal(delta.StopReason, StopEndTurn)
	is.Equal(delta.Usage.OutputTokens, 15)
}

func TestDecodeTerminalAndPing(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"message_stop"}`)
	is.NoErr(err)
	_, ok := event.(*MessageStopEvent)
	is.True(ok)

	event, err = decode(t, `{"type":"ping"}`)
	is.NoErr(err)
	_, ok = event.(*PingEvent)
	is.True(ok)
}

func TestDecodeErrorEvent(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	is.NoErr(err)
	ev, ok := event.(*ErrorEvent)
	is.True(ok)
	is.Equal(ev.ErrorType, "overloaded_error")
	is.Equal(ev.Message, "Overloaded")
}

func TestDecodeUnknownEventType(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_shimmer","index":0}`)
	is.NoErr(err)
	unknown, ok := event.(*UnknownEvent)
	is.True(ok)
	is.Equal(unknown.Type, "content_block_shimmer")
}

func TestDecodeUnknownDeltaType(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"sparkle_delta","sparkle":"✨"}}`)
	is.NoErr(err)
	delta, ok := event.(*ContentBlockDeltaEvent).Delta.(*UnknownDelta)
	is.True(ok)
	is.Equal(delta.Type, "sparkle_delta")
}

func TestDecodeInvalidJSON(t *testing.T) {
	is := is.New(t)
	_, err := decode(t, `{"type":`)
	var decodeErr *DecodeError
	is.True(errors.As(err, &decodeErr))
}

func TestDecodeMissingType(t *testing.T) {
	is := is.New(t)
	_, err := decode(t, `{"index":0}`)
	var decodeErr *DecodeError
	is.True(errors.As(err, &decodeErr))
}

func TestDecodeMissingIndex(t *testing.T) {
	is := is.New(t)
	var decodeErr *DecodeError

	_, err := decode(t, `{"type":"content_block_start","content_block":{"type":"text"}}`)
	is.True(errors.As(err, &decodeErr))

	_, err = decode(t, `{"type":"content_block_delta","delta":{"type":"text_delta","text":"x"}}`)
	is.True(errors.As(err, &decodeErr))

	_, err = decode(t, `{"type":"content_block_stop"}`)
	is.True(errors.As(err, &decodeErr))
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	is := is.New(t)
	var decodeErr *DecodeError

	_, err := decode(t, `{"type":"message_start"}`)
	is.True(errors.As(err, &decodeErr))

	_, err = decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta"}}`)
	is.True(errors.As(err, &decodeErr))

	_, err = decode(t, `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta"}}`)
	is.True(errors.As(err, &decodeErr))
}

// IndexZeroIsValid guards against treating a present zero index as missing.
func TestDecodeIndexZero(t *testing.T) {
	is := is.New(t)
	event, err := decode(t, `{"type":"content_block_stop","index":0}`)
	is.NoErr(err)
	is.Equal(event.(*ContentBlockStopEvent).Index, 0)
}
