package app

import "sync"

// Stages reported while preparing a game.
const (
	StageResolve   = "resolve"
	StageGenerate  = "generate"
	StageReference = "reference"
	StageAssemble  = "assemble"
)

// ProgressEvent reports pipeline progress to a waiting client.
type ProgressEvent struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// EventStream is a bounded, non-blocking event channel. When the reader falls behind the oldest
// buffered event is dropped so publishers never block.
type EventStream struct {
	mu     sync.Mutex
	ch     chan ProgressEvent
	closed bool
}

func NewEventStream(buffer int) *EventStream {
	if buffer < 1 {
		buffer = 1
	}
	return &EventStream{ch: make(chan ProgressEvent, buffer)}
}

// Publish is safe for concurrent use and a no-op after Close.
func (s *EventStream) Publish(ev ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- ev
	}
}

func (s *EventStream) Events() <-chan ProgressEvent {
	return s.ch
}

func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
