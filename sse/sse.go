// Package sse reads server-sent event frames from an arbitrarily chunked
// byte stream.
package sse

import (
	"bytes"
	"context"
	"io"
)

// Frame is one delimited unit of an SSE stream: an optional event name and
// the payload text. Consecutive data lines are joined with a newline.
type Frame struct {
	Event string
	Data  string
}

const readSize = 4 << 10

// Scanner assembles complete frames from a byte source. Chunk boundaries
// may fall anywhere, including mid-UTF-8-codepoint: bytes are buffered and
// only converted to text once a full line is available.
type Scanner struct {
	r    io.Reader
	buf  []byte
	read []byte
	err  error

	// frame under construction
	event   string
	data    []byte
	hasData bool
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, read: make([]byte, readSize)}
}

// Next returns the next complete frame. Cancellation is checked before
// each read of the underlying source. Once the source ends, Next drains
// the complete frames still buffered (a Read may deliver bytes and the
// terminal error together), then returns io.EOF; only a non-empty
// undelimited remainder is discarded, so partially received data is never
// mistaken for a complete frame.
func (s *Scanner) Next(ctx context.Context) (*Frame, error) {
	if s.err != nil {
		if frame, ok := s.scan(); ok {
			return frame, nil
		}
		return nil, s.err
	}
	for {
		if frame, ok := s.scan(); ok {
			return frame, nil
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			return nil, err
		}
		n, err := s.r.Read(s.read)
		if n > 0 {
			s.buf = append(s.buf, s.read[:n]...)
		}
		if err != nil {
			s.err = err
			// Frames may have become complete with these final bytes.
			if frame, ok := s.scan(); ok {
				return frame, nil
			}
			return nil, err
		}
	}
}

// scan consumes complete lines from the buffer, returning a frame when a
// blank-line delimiter is reached.
func (s *Scanner) scan() (*Frame, bool) {
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			return nil, false
		}
		line := bytes.TrimSuffix(s.buf[:i], []byte("\r"))

		if len(line) == 0 {
			s.buf = s.buf[i+1:]
			if !s.hasData && s.event == "" {
				continue
			}
			frame := &Frame{Event: s.event, Data: string(s.data)}
			s.event = ""
			s.data = nil
			s.hasData = false
			return frame, true
		}

		if line[0] == ':' {
			// comment line
			s.buf = s.buf[i+1:]
			continue
		}

		field, value := splitField(line)
		s.buf = s.buf[i+1:]
		switch field {
		case "event":
			s.event = value
		case "data":
			if s.hasData {
				s.data = append(s.data, '\n')
			}
			s.data = append(s.data, value...)
			s.hasData = true
		}
		// id and retry fields are ignored
	}
}

func splitField(line []byte) (field, value string) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return string(line), ""
	}
	v := line[i+1:]
	if len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	return string(line[:i]), string(v)
}
