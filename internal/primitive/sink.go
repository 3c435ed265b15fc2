package primitive

import "sync"

// Sink receives fanned-out SSE event payloads during a streaming HTTP
// primitive run. Non-return sinks (file, websocket, null) are
// data-driven tools instantiated by the outer tool executor, not implemented
// here — ReturnSink is the one built-in.
type Sink interface {
	Write(event string) error
	Close() error
}

// ReturnSink buffers events in memory, up to maxBufferSize, to be returned
// as the primitive's response body.
type ReturnSink struct {
	mu            sync.Mutex
	events        []string
	maxBufferSize int
}

// NewReturnSink builds a ReturnSink bounded at maxBufferSize events (spec
// default 10000 when maxBufferSize <= 0).
func NewReturnSink(maxBufferSize int) *ReturnSink {
	if maxBufferSize <= 0 {
		maxBufferSize = 10_000
	}
	return &ReturnSink{maxBufferSize: maxBufferSize}
}

// Write appends event if under the buffer cap; once full, further events
// are silently dropped rather than growing unbounded.
func (s *ReturnSink) Write(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.maxBufferSize {
		return nil
	}
	s.events = append(s.events, event)
	return nil
}

// Close is a no-op for ReturnSink; buffered events stay available via Events.
func (s *ReturnSink) Close() error { return nil }

// Events returns the buffered events collected so far.
func (s *ReturnSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}
