package scene

// Event is an input event forwarded from the windowing layer. The scene
// never inspects it.
type Event any

// EventSource is polled once per Update. Poll must not block.
type EventSource interface {
	Poll() (Event, bool)
}

// ChanEvents is an EventSource backed by a channel. A producer goroutine
// sends into C; Update drains it one event at a time.
type ChanEvents struct {
	C chan Event
}

// NewChanEvents creates a channel source with the given buffer size.
func NewChanEvents(size int) *ChanEvents {
	return &ChanEvents{C: make(chan Event, size)}
}

// Poll returns the next pending event, if any.
func (s *ChanEvents) Poll() (Event, bool) {
	select {
	case ev := <-s.C:
		return ev, true
	default:
		return nil, false
	}
}

// Push queues ev without blocking and reports whether it fit.
func (s *ChanEvents) Push(ev Event) bool {
	select {
	case s.C <- ev:
		return true
	default:
		return false
	}
}
