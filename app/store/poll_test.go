package store

import (
	"errors"
	"fmt"
	"testing"
)

type countingPoller struct{ n int }

func (p *countingPoller) Poll() { p.n++ }

func TestStartPolling_RejectsBadSchedule(t *testing.T) {
	t.Parallel()

	if _, err := StartPolling("every now and then", &countingPoller{}); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestStartPolling_StartsAndStops(t *testing.T) {
	t.Parallel()

	c, err := StartPolling("@every 1h", &countingPoller{})
	if err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(c.Entries()))
	}
	<-c.Stop().Done()
}

func TestUnavailableWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := unavailable(cause)
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("unavailable(%v) = %v", cause, err)
	}
	nf := notFound("recurring task", "x")
	if got := unavailable(fmt.Errorf("tx: %w", nf)); errors.Is(got, ErrStoreUnavailable) {
		t.Fatalf("not-found wrapped as unavailable: %v", got)
	}
	if unavailable(nil) != nil {
		t.Fatal("unavailable(nil) != nil")
	}
}
