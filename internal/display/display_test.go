package display

import "testing"

func TestUrgency(t *testing.T) {
	tests := []struct {
		priority int
		want     byte
	}{
		{-2, urgencyLow},
		{-1, urgencyLow},
		{0, urgencyNormal},
		{1, urgencyNormal},
		{2, urgencyCritical},
	}
	for _, tt := range tests {
		if got := urgency(tt.priority); got != tt.want {
			t.Errorf("urgency(%d) = %d, want %d", tt.priority, got, tt.want)
		}
	}
}

func TestExpireTimeout(t *testing.T) {
	if got := expireTimeout(true); got != 0 {
		t.Errorf("sticky timeout = %d, want 0 (never expire)", got)
	}
	if got := expireTimeout(false); got != -1 {
		t.Errorf("default timeout = %d, want -1", got)
	}
}

func TestClosedEvent(t *testing.T) {
	for _, reason := range []uint32{closedExpired, closedDismissed} {
		kind, ok := closedEvent(reason)
		if !ok || kind != TimedOut {
			t.Errorf("closedEvent(%d) = %v, %v; want TimedOut, true", reason, kind, ok)
		}
	}
	for _, reason := range []uint32{3, 4} {
		if _, ok := closedEvent(reason); ok {
			t.Errorf("closedEvent(%d) should report nothing", reason)
		}
	}
}

func TestEventKindString(t *testing.T) {
	if Clicked.String() != "clicked" || TimedOut.String() != "timed out" {
		t.Errorf("unexpected names %q %q", Clicked, TimedOut)
	}
}
