package anthropic

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/matthewmueller/anthropic/sse"
)

// errSettled signals that the stream already reached its terminal outcome.
var errSettled = errors.New("anthropic: stream already settled")

// Stream consumes one streaming response: it reads frames from the byte
// source, decodes them into events, folds them into a message snapshot,
// and exposes both push (callback) and pull (iterator) consumption.
//
// A stream is single-consumer: one goroutine drives it through Events or
// Wait. Abort may be called from anywhere at any time. Events are
// produced on demand; the source is not read further until the previous
// event has been consumed.
type Stream struct {
	log       *slog.Logger
	body      io.Closer
	scanner   *sse.Scanner
	acc       *Accumulator
	ctx       context.Context
	cancel    context.CancelCauseFunc
	requestID string

	handlers []*handler
	lastID   int

	settled bool
	final   *Message
	err     error // nil once settled means Completed
}

// NewStream creates a stream over a raw byte source, typically the body
// of a streaming response. Cancelling ctx aborts the stream.
func NewStream(ctx context.Context, r io.Reader) *Stream {
	ctx, cancel := context.WithCancelCause(ctx)
	body, ok := r.(io.Closer)
	if !ok {
		body = io.NopCloser(r)
	}
	return &Stream{
		log:     slog.New(slog.DiscardHandler),
		body:    body,
		scanner: sse.NewScanner(r),
		acc:     NewAccumulator(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RequestID returns the request id the API attached to this stream, if
// any.
func (s *Stream) RequestID() string { return s.requestID }

// Abort cancels the stream. Reads stop, buffered-but-unprocessed data is
// discarded, the source is closed, and no further callbacks fire. The
// terminal outcome becomes an AbortError.
func (s *Stream) Abort() {
	s.cancel(&AbortError{Reason: AbortUser})
	s.body.Close()
}

// handler kinds, one per registration category.
type handlerKind int

const (
	onEvent handlerKind = iota
	onText
	onSnapshot
	onFinal
	onError
)

type handler struct {
	id   int
	kind handlerKind
	once bool
	fn   any
}

// Subscription identifies a registered callback so it can be removed.
type Subscription int

// HandlerOption configures a callback registration.
type HandlerOption func(*handler)

// Once marks a callback as one-shot: it is deregistered after its first
// invocation.
func Once() HandlerOption {
	return func(h *handler) { h.once = true }
}

func (s *Stream) on(kind handlerKind, fn any, options []HandlerOption) Subscription {
	s.lastID++
	h := &handler{id: s.lastID, kind: kind, fn: fn}
	for _, option := range options {
		option(h)
	}
	s.handlers = append(s.handlers, h)
	return Subscription(h.id)
}

// OnEvent registers a callback invoked for every decoded event, in wire
// order. Callbacks run synchronously on the consuming goroutine and never
// concurrently with each other.
func (s *Stream) OnEvent(fn func(Event), options ...HandlerOption) Subscription {
	return s.on(onEvent, fn, options)
}

// OnText registers a callback invoked for each text delta with the new
// fragment and the accumulated text so far.
func (s *Stream) OnText(fn func(delta, text string), options ...HandlerOption) Subscription {
	return s.on(onText, fn, options)
}

// OnSnapshot registers a callback invoked with the current snapshot after
// every update. The snapshot is owned by the stream; do not mutate or
// retain it.
func (s *Stream) OnSnapshot(fn func(*Message), options ...HandlerOption) Subscription {
	return s.on(onSnapshot, fn, options)
}

// OnFinal registers a callback invoked once with the completed message.
func (s *Stream) OnFinal(fn func(*Message), options ...HandlerOption) Subscription {
	return s.on(onFinal, fn, options)
}

// OnError registers a callback invoked once with the error that failed
// the stream. Aborting does not fire error callbacks.
func (s *Stream) OnError(fn func(error), options ...HandlerOption) Subscription {
	return s.on(onError, fn, options)
}

// Off removes a registered callback. It reports whether the subscription
// was still registered.
func (s *Stream) Off(sub Subscription) bool {
	for i, h := range s.handlers {
		if h.id == int(sub) {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stream) fire(kind handlerKind, call func(fn any)) {
	// iterate over a copy so callbacks can call Off safely
	for _, h := range slices.Clone(s.handlers) {
		if h.kind != kind {
			continue
		}
		call(h.fn)
		if h.once {
			s.Off(Subscription(h.id))
		}
	}
}

// next advances the stream by one event, firing callbacks along the way.
// It returns errSettled once the terminal outcome has been produced.
func (s *Stream) next() (Event, error) {
	if s.settled {
		return nil, errSettled
	}

	// Abort wins over buffered frames: anything received but not yet
	// processed is discarded.
	if s.ctx.Err() != nil {
		return nil, s.settle(nil, s.abortError())
	}

	frame, err := s.scanner.Next(s.ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			return nil, s.settle(nil, s.abortError())
		}
		if err == io.EOF {
			// the source ended without message_stop
			err = io.ErrUnexpectedEOF
		}
		return nil, s.fail(&ConnectionError{Cause: err})
	}

	event, err := decodeEvent(frame)
	if err != nil {
		return nil, s.fail(err)
	}

	if err := s.acc.Apply(event); err != nil {
		return nil, s.fail(err)
	}

	s.fire(onEvent, func(fn any) { fn.(func(Event))(event) })

	switch ev := event.(type) {
	case *PingEvent, *UnknownEvent:
		return event, nil
	case *ErrorEvent:
		s.log.Debug("stream failed", "type", ev.ErrorType, "message", ev.Message)
		apiErr := s.acc.Failed()
		apiErr.RequestID = s.requestID
		return nil, s.fail(apiErr)
	case *ContentBlockDeltaEvent:
		if delta, ok := ev.Delta.(*TextDelta); ok {
			text := s.acc.Message().Text()
			s.fire(onText, func(fn any) { fn.(func(string, string))(delta.Text, text) })
		}
	}

	snapshot := s.acc.Message()
	s.fire(onSnapshot, func(fn any) { fn.(func(*Message))(snapshot) })

	if s.acc.Done() {
		final := s.acc.Message()
		final.requestID = s.requestID
		s.settle(final, nil)
		s.fire(onFinal, func(fn any) { fn.(func(*Message))(final) })
	}
	return event, nil
}

// fail settles the stream with err and fires error callbacks.
func (s *Stream) fail(err error) error {
	s.settle(nil, err)
	s.fire(onError, func(fn any) { fn.(func(error))(err) })
	return err
}

// settle produces the terminal outcome exactly once, closing the source.
func (s *Stream) settle(final *Message, err error) error {
	if s.settled {
		return s.err
	}
	s.settled = true
	s.final = final
	s.err = err
	s.body.Close()
	s.cancel(nil)
	return err
}

// abortError maps the cancellation cause to an abort reason.
func (s *Stream) abortError() error {
	cause := context.Cause(s.ctx)
	var abort *AbortError
	if errors.As(cause, &abort) {
		return abort
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return &AbortError{Reason: AbortTimeout}
	}
	return &AbortError{Reason: AbortUser}
}

// Events returns the stream's events as a lazy, single-consumption
// sequence in wire order. The terminating element carries the error for
// failed or aborted streams; completed streams end after the
// message_stop event. Registered callbacks still fire as the sequence is
// consumed.
func (s *Stream) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := s.next()
			if err != nil {
				if err != errSettled {
					yield(nil, err)
				}
				return
			}
			if !yield(event, nil) {
				return
			}
			if s.settled {
				return
			}
		}
	}
}

// Wait drives the stream to its terminal outcome and returns it: the
// completed message, an AbortError, or the error that failed the stream.
// If the outcome is already available it returns immediately.
func (s *Stream) Wait() (*Message, error) {
	for !s.settled {
		if _, err := s.next(); err != nil && err != errSettled {
			break
		}
	}
	return s.final, s.err
}
