package events_test

import (
	"testing"

	"github.com/donorchain/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan events out to subscribers.")
	{
		evts := events.New()

		id1, ch1 := evts.Acquire()
		_, ch2 := evts.Acquire()

		if evts.Count() != 2 {
			t.Fatalf("\t%s\tShould have two subscribers: %d", failed, evts.Count())
		}
		t.Logf("\t%s\tShould have two subscribers.", success)

		evts.Send("viewer: block[2]")

		if got := <-ch1; got != "viewer: block[2]" {
			t.Fatalf("\t%s\tShould deliver to the first subscriber: %s", failed, got)
		}
		if got := <-ch2; got != "viewer: block[2]" {
			t.Fatalf("\t%s\tShould deliver to the second subscriber: %s", failed, got)
		}
		t.Logf("\t%s\tShould deliver to every subscriber.", success)

		if err := evts.Release(id1); err != nil {
			t.Fatalf("\t%s\tShould be able to release a subscriber: %v", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release(id1); err == nil {
			t.Fatalf("\t%s\tShould refuse to release an unknown id.", failed)
		}
		t.Logf("\t%s\tShould refuse to release an unknown id.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full subscriber.", success)

		evts.Shutdown()
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould remove every subscriber on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every subscriber on shutdown.", success)
	}
}
