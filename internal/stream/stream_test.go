package stream

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := s.Subscribe(ctx)
	ch2 := s.Subscribe(ctx)

	evt := ReportEvent{FacilityID: "fac-1", FacilityName: "Alpha", Critical: true, Timestamp: time.Now()}
	s.Publish(evt)

	for i, ch := range []<-chan ReportEvent{ch1, ch2} {
		select {
		case got := <-ch:
			if got.FacilityID != "fac-1" || !got.Critical {
				t.Fatalf("subscriber %d got wrong event: %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestSubscribeClosesOnContextCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}

	// Publishing after unsubscribe must not panic or block.
	s.Publish(ReportEvent{FacilityID: "fac-1"})
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Subscribe(ctx) // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Publish(ReportEvent{FacilityID: "fac-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
