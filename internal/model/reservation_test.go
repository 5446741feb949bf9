package model

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "EN_ATTENTE", "pending", "confirme"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true, want false", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, true},
		{StatusCancelled, StatusConfirmed, true},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		// Setting the current status again is always allowed.
		{StatusPending, StatusPending, true},
		{StatusCompleted, StatusCompleted, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestSeatDelta(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		// Into annulee releases seats.
		{StatusPending, StatusCancelled, +1},
		{StatusConfirmed, StatusCancelled, +1},
		// Out of annulee re-reserves them.
		{StatusCancelled, StatusPending, -1},
		{StatusCancelled, StatusConfirmed, -1},
		// Between seat-holding statuses nothing moves.
		{StatusPending, StatusConfirmed, 0},
		{StatusConfirmed, StatusCompleted, 0},
		// Same status is a no-op.
		{StatusPending, StatusPending, 0},
		{StatusCancelled, StatusCancelled, 0},
	}
	for _, c := range cases {
		if got := SeatDelta(c.from, c.to); got != c.want {
			t.Errorf("SeatDelta(%q, %q) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}

func TestHoldsSeats(t *testing.T) {
	for _, s := range Statuses {
		want := s != StatusCancelled
		if got := HoldsSeats(s); got != want {
			t.Errorf("HoldsSeats(%q) = %v, want %v", s, got, want)
		}
	}
}
