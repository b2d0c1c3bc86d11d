package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher fans events out to subscribers without ever blocking the caller.
// A subscriber whose buffer is full misses the event; the Seq gap shows it,
// and Since can replay what is still in the history ring.
type Publisher struct {
	mu          sync.Mutex
	seq         uint64
	nextSubID   int
	subscribers map[int]chan Event
	history     []Event
	historySize int
	closed      bool
}

func NewPublisher(historySize int) *Publisher {
	if historySize <= 0 {
		historySize = 1
	}
	return &Publisher{
		subscribers: make(map[int]chan Event),
		historySize: historySize,
	}
}

// Subscribe registers a new observer channel. The returned func unsubscribes
// and closes the channel.
func (p *Publisher) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(sub)
			}
		})
	}
}

// Publish stamps the event with an id, sequence number and time, records it
// and delivers it. The stamped event is returned.
func (p *Publisher) Publish(event Event) Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	event.Seq = p.seq
	event.ID = uuid.NewString()
	if event.At.IsZero() {
		event.At = time.Now()
	}

	p.history = append(p.history, event)
	if len(p.history) > p.historySize {
		p.history = append([]Event(nil), p.history[len(p.history)-p.historySize:]...)
	}

	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return event
}

// Since returns the retained events with Seq greater than seq, oldest first.
func (p *Publisher) Since(seq uint64) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := []Event{}
	for _, event := range p.history {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// LastSeq is the sequence number of the newest event, 0 if none.
func (p *Publisher) LastSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Close closes every subscriber channel. Later Publish calls only record history.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
}
