package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// SSEEvent represents a single server-sent event
type SSEEvent struct {
	Event string // Event type (optional, empty if not specified)
	Data  []byte // Concatenated data lines
	ID    string // Event ID (optional)
}

// SSEReader reads server-sent events from a response body. One reader
// consumes one HTTP stream; it is not safe for concurrent use, and does
// not need to be, since one stream is one ordered byte sequence.
type SSEReader struct {
	reader    *bufio.Reader
	buffer    *bytes.Buffer // Accumulates data for the current event
	eventType string
	eventID   string
}

// NewSSEReader creates a new SSE reader over r
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
		buffer: &bytes.Buffer{},
	}
}

// Next reads the next SSE event from the stream.
// Returns io.EOF when the stream is complete and
// io.ErrUnexpectedEOF if the stream ends mid-event.
func (p *SSEReader) Next() (SSEEvent, error) {
	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			// ReadBytes hands back any unterminated final line together
			// with the error. An unterminated line means the connection
			// dropped mid-event, same as leftover buffered fields.
			if len(line) > 0 || p.buffer.Len() > 0 || p.eventType != "" {
				return SSEEvent{}, fmt.Errorf("stream ended mid-event: %w", io.ErrUnexpectedEOF)
			}
			return SSEEvent{}, err
		}

		line = bytes.TrimSuffix(line, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})

		// Empty line marks the end of an event
		if len(line) == 0 {
			if p.buffer.Len() > 0 || p.eventType != "" {
				event := SSEEvent{
					Event: p.eventType,
					Data:  append([]byte(nil), p.buffer.Bytes()...),
					ID:    p.eventID,
				}
				p.reset()
				return event, nil
			}
			continue
		}

		// Comment line
		if line[0] == ':' {
			continue
		}

		idx := bytes.IndexByte(line, ':')
		if idx == -1 {
			// Field with no value, ignore (per SSE spec)
			continue
		}

		field := string(line[:idx])
		value := string(line[idx+1:])
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}

		switch field {
		case "event":
			p.eventType = value
		case "data":
			if p.buffer.Len() > 0 {
				p.buffer.WriteByte('\n')
			}
			p.buffer.WriteString(value)
		case "id":
			p.eventID = value
		case "retry":
			// Reconnection hint, not used
		}
	}
}

func (p *SSEReader) reset() {
	p.buffer.Reset()
	p.eventType = ""
	p.eventID = ""
}

var doneMarker = []byte("[DONE]")

// IsDone reports whether the event data is the OpenAI [DONE] stream
// terminator. The terminator is not a chunk and must never be decoded.
func IsDone(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), doneMarker)
}
