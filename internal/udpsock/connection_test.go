package udpsock

import (
	"testing"
	"time"
)

func TestComputeStatusDefaultWhenNeverSent(t *testing.T) {
	c := &Connection{}
	if got := ComputeStatus(c, time.Now()); got != Default {
		t.Fatalf("expected Default, got %s", got)
	}
}

func TestComputeStatusConnectingWhenSentButNeverReceived(t *testing.T) {
	now := time.Now()
	c := &Connection{LastSentAt: now.Add(-1 * time.Second)}
	if got := ComputeStatus(c, now); got != Connecting {
		t.Fatalf("expected Connecting, got %s", got)
	}
}

func TestComputeStatusConnectedWhenBothRecent(t *testing.T) {
	now := time.Now()
	c := &Connection{LastSentAt: now.Add(-1 * time.Second), LastReceived: now.Add(-1 * time.Second)}
	if got := ComputeStatus(c, now); got != Connected {
		t.Fatalf("expected Connected, got %s", got)
	}
}

func TestComputeStatusMaintainingWhenReceivedButNotSentRecently(t *testing.T) {
	now := time.Now()
	c := &Connection{LastSentAt: now.Add(-Expires - time.Second), LastReceived: now.Add(-1 * time.Second)}
	if got := ComputeStatus(c, now); got != Maintaining {
		t.Fatalf("expected Maintaining, got %s", got)
	}
}

func TestComputeStatusExpiredWhenReceivedLongAgoButSentRecently(t *testing.T) {
	now := time.Now()
	c := &Connection{LastSentAt: now.Add(-1 * time.Second), LastReceived: now.Add(-Expires - time.Second)}
	if got := ComputeStatus(c, now); got != Expired {
		t.Fatalf("expected Expired, got %s", got)
	}
}

func TestComputeStatusErrorWhenBothVeryStale(t *testing.T) {
	now := time.Now()
	c := &Connection{
		LastSentAt:   now.Add(-Expires - time.Second),
		LastReceived: now.Add(-LongExpires - time.Second),
	}
	if got := ComputeStatus(c, now); got != Error {
		t.Fatalf("expected Error, got %s", got)
	}
}

func TestComputeStatusDefaultWhenSentStaleAndReceiveModeratelyOld(t *testing.T) {
	now := time.Now()
	c := &Connection{
		LastSentAt:   now.Add(-Expires - time.Second),
		LastReceived: now.Add(-Expires - time.Minute), // between Expires and LongExpires
	}
	if got := ComputeStatus(c, now); got != Default {
		t.Fatalf("expected Default, got %s", got)
	}
}
