package stream

import (
	"context"
	"sync"
	"time"
)

// ReportEvent describes a resource-report submission pushed to dashboard
// subscribers.
type ReportEvent struct {
	FacilityID           string    `json:"facility_id"`
	FacilityName         string    `json:"facility_name"`
	ICUBedsAvailable     int       `json:"icu_beds_available"`
	VentilatorsAvailable int       `json:"ventilators_available"`
	StaffOnDuty          int       `json:"staff_on_duty"`
	Critical             bool      `json:"critical"`
	Timestamp            time.Time `json:"timestamp"`
}

// Stream fan-outs report events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan ReportEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan ReportEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan ReportEvent {
	ch := make(chan ReportEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt ReportEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
