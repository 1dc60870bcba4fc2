package events_test

import (
	"testing"

	"github.com/basicnode/ledger/foundation/events"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	a := evts.Acquire("a")
	b := evts.Acquire("b")

	if evts.Acquire("a") != a {
		t.Fatalf("Should get the same channel for the same id.")
	}

	evts.Send("viewer: block")

	for name, ch := range map[string]<-chan string{"a": a, "b": b} {
		if msg := <-ch; msg != "viewer: block" {
			t.Fatalf("Should receive the event on %s, got %q.", name, msg)
		}
	}

	for i := 0; i < 150; i++ {
		evts.Send("flood")
	}

	dropped, err := evts.Release("a")
	if err != nil {
		t.Fatalf("Should be able to release a: %s", err)
	}
	if dropped != 50 {
		t.Fatalf("Should report 50 dropped events, got %d.", dropped)
	}

	// A released channel is closed once what was buffered is read.
	for range a {
	}

	if _, err := evts.Release("a"); err == nil {
		t.Fatalf("Should not be able to release a twice.")
	}

	evts.Shutdown()
	if evts.Count() != 0 {
		t.Fatalf("Should have no receivers after shutdown.")
	}

	for range b {
	}
}
