package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

type accState int

const (
	accEmpty accState = iota
	accOpen
	accDone
	accFailed
)

// Accumulator folds an ordered sequence of stream events into a single
// message snapshot. It is a pure state machine over its explicit state:
// Apply either advances the snapshot or returns a ProtocolError, and the
// snapshot is only ever mutated through Apply.
type Accumulator struct {
	state   accState
	message *Message
	blocks  []*blockState // parallel to message.Content
	apiErr  *APIError
}

// blockState is per-block bookkeeping that never leaves the accumulator:
// the unparsed input JSON buffer and the stopped flag.
type blockState struct {
	partialJSON strings.Builder
	stopped     bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Message returns the current snapshot. It is owned by the accumulator
// until the stream reaches a terminal state; callers must not mutate it.
func (a *Accumulator) Message() *Message {
	return a.message
}

// Done reports whether message_stop has been applied.
func (a *Accumulator) Done() bool { return a.state == accDone }

// Failed returns the server-reported error, if the stream failed.
func (a *Accumulator) Failed() *APIError { return a.apiErr }

// Apply advances the state machine with one event. Ping and unknown
// events are ignored in every state. Any other event after a terminal
// transition is a protocol violation.
func (a *Accumulator) Apply(event Event) error {
	switch event.(type) {
	case *PingEvent, *UnknownEvent:
		return nil
	}

	switch a.state {
	case accDone:
		return &ProtocolError{Reason: fmt.Sprintf("%s event after message_stop", event.eventType())}
	case accFailed:
		return &ProtocolError{Reason: fmt.Sprintf("%s event after stream failure", event.eventType())}
	}

	switch ev := event.(type) {
	case *MessageStartEvent:
		if a.state != accEmpty {
			return &ProtocolError{Reason: "duplicate message_start"}
		}
		a.message = ev.Message
		if a.message.Content == nil {
			a.message.Content = []*ContentBlock{}
		}
		for range a.message.Content {
			a.blocks = append(a.blocks, &blockState{})
		}
		a.state = accOpen
		return nil

	case *ErrorEvent:
		// the server may fail a stream before message_start
		a.apiErr = &APIError{Type: ev.ErrorType, Message: ev.Message}
		a.state = accFailed
		return nil
	}

	if a.state != accOpen {
		return &ProtocolError{Reason: fmt.Sprintf("%s event before message_start", event.eventType())}
	}

	switch ev := event.(type) {
	case *ContentBlockStartEvent:
		if ev.Index != len(a.message.Content) {
			return &ProtocolError{Reason: fmt.Sprintf("content_block_start index %d, expected %d", ev.Index, len(a.message.Content))}
		}
		a.message.Content = append(a.message.Content, ev.ContentBlock)
		a.blocks = append(a.blocks, &blockState{})
		return nil

	case *ContentBlockDeltaEvent:
		block, state, err := a.block("content_block_delta", ev.Index)
		if err != nil {
			return err
		}
		return a.applyDelta(block, state, ev.Delta)

	case *ContentBlockStopEvent:
		block, state, err := a.block("content_block_stop", ev.Index)
		if err != nil {
			return err
		}
		state.stopped = true
		// tool_use input is parsed exactly once, here, since the JSON only
		// becomes valid once all fragments have arrived.
		if block.Type == BlockToolUse && state.partialJSON.Len() > 0 {
			input := state.partialJSON.String()
			if !json.Valid([]byte(input)) {
				return &ProtocolError{Reason: fmt.Sprintf("block %d: accumulated tool input is not valid JSON", ev.Index)}
			}
			block.Input = json.RawMessage(input)
		}
		return nil

	case *MessageDeltaEvent:
		if ev.StopReason != "" {
			if a.message.StopReason != "" && a.message.StopReason != ev.StopReason {
				return &ProtocolError{Reason: fmt.Sprintf("conflicting stop_reason %q, already %q", ev.StopReason, a.message.StopReason)}
			}
			a.message.StopReason = ev.StopReason
		}
		if ev.StopSequence != "" {
			if a.message.StopSequence != "" && a.message.StopSequence != ev.StopSequence {
				return &ProtocolError{Reason: fmt.Sprintf("conflicting stop_sequence %q, already %q", ev.StopSequence, a.message.StopSequence)}
			}
			a.message.StopSequence = ev.StopSequence
		}
		a.message.Usage.add(ev.Usage)
		return nil

	case *MessageStopEvent:
		a.state = accDone
		return nil
	}

	return &ProtocolError{Reason: fmt.Sprintf("unhandled event %s", event.eventType())}
}

func (a *Accumulator) block(kind string, index int) (*ContentBlock, *blockState, error) {
	if index < 0 || index >= len(a.message.Content) {
		return nil, nil, &ProtocolError{Reason: fmt.Sprintf("%s for unstarted block %d", kind, index)}
	}
	state := a.blocks[index]
	if state.stopped {
		return nil, nil, &ProtocolError{Reason: fmt.Sprintf("%s for stopped block %d", kind, index)}
	}
	return a.message.Content[index], state, nil
}

func (a *Accumulator) applyDelta(block *ContentBlock, state *blockState, delta Delta) error {
	switch d := delta.(type) {
	case *TextDelta:
		block.Text += d.Text
	case *ThinkingDelta:
		block.Thinking += d.Thinking
	case *SignatureDelta:
		block.Signature += d.Signature
	case *InputJSONDelta:
		state.partialJSON.WriteString(d.PartialJSON)
	case *CitationsDelta:
		block.Citations = append(block.Citations, d.Citation)
	case *UnknownDelta:
		// ignored for forward compatibility
	}
	return nil
}
