package race

import (
	"testing"
	"time"
)

const (
	startMsg = "جاري إعداد السباق الآن"
	endMsg   = "فاز اللاعب الأول"
)

func newTestTracker() *Tracker {
	t := NewTracker()
	t.joinWindow = 20 * time.Millisecond
	return t
}

func TestStartEventOpensJoinWindow(t *testing.T) {
	tr := newTestTracker()
	tr.Track(100)

	tr.HandleMessage(100, startMsg)
	if got := tr.Phase(100); got != PhaseJoinable {
		t.Fatalf("Phase = %q, want joinable right after start", got)
	}
}

func TestJoinWindowExpiresToRunning(t *testing.T) {
	tr := newTestTracker()
	tr.Track(100)

	tr.HandleMessage(100, startMsg)
	time.Sleep(100 * time.Millisecond)
	if got := tr.Phase(100); got != PhaseRunning {
		t.Fatalf("Phase = %q, want running after the window", got)
	}
}

func TestEndEventReturnsToIdleFromAnyPhase(t *testing.T) {
	tr := newTestTracker()
	tr.Track(100)

	// joinable -> idle
	tr.HandleMessage(100, startMsg)
	tr.HandleMessage(100, endMsg)
	if got := tr.Phase(100); got != PhaseIdle {
		t.Fatalf("Phase = %q, want idle after end event", got)
	}

	// running -> idle
	tr.HandleMessage(100, startMsg)
	time.Sleep(100 * time.Millisecond)
	tr.HandleMessage(100, "race finished")
	if got := tr.Phase(100); got != PhaseIdle {
		t.Fatalf("Phase = %q, want idle after english end marker", got)
	}
}

func TestStaleJoinTimerDoesNotResurrectRace(t *testing.T) {
	tr := newTestTracker()
	tr.Track(100)

	// end the race before the armed window timer fires
	tr.HandleMessage(100, startMsg)
	tr.HandleMessage(100, endMsg)
	time.Sleep(100 * time.Millisecond)
	if got := tr.Phase(100); got != PhaseIdle {
		t.Fatalf("Phase = %q, stale timer overrode the end event", got)
	}
}

func TestEventsForUntrackedChannelIgnored(t *testing.T) {
	tr := newTestTracker()
	tr.HandleMessage(999, startMsg)

	if got := tr.FindBest(); got.Action != BestNone {
		t.Fatalf("FindBest().Action = %q, want none", got.Action)
	}
}

func TestUnmatchedBodiesAreNoOps(t *testing.T) {
	tr := newTestTracker()
	tr.Track(100)
	tr.HandleMessage(100, "مرحبا بالجميع")
	if got := tr.Phase(100); got != PhaseIdle {
		t.Fatalf("Phase = %q, want idle after chatter", got)
	}
}

func TestFindBestPrefersJoinable(t *testing.T) {
	tr := newTestTracker()
	tr.joinWindow = time.Minute
	tr.Track(1)
	tr.Track(2)
	tr.HandleMessage(2, startMsg)

	got := tr.FindBest()
	if got.Action != BestJoin || got.ChannelID != 2 {
		t.Fatalf("FindBest = %+v, want join on channel 2", got)
	}
}

func TestFindBestFallsBackToIdle(t *testing.T) {
	tr := newTestTracker()
	tr.Track(1)

	got := tr.FindBest()
	if got.Action != BestStart || got.ChannelID != 1 {
		t.Fatalf("FindBest = %+v, want start on channel 1", got)
	}
}

func TestFindBestWaitsOnClosestRunningRace(t *testing.T) {
	tr := newTestTracker()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tr.now = func() time.Time { return now }

	tr.Track(1)
	tr.Track(2)
	tr.HandleMessage(1, startMsg)
	now = base.Add(8 * time.Second)
	tr.HandleMessage(2, startMsg)

	// moving both past the window by hand keeps the clock fake
	tr.closeJoinWindow(1, 1)
	tr.closeJoinWindow(2, 1)

	now = base.Add(18 * time.Second)
	got := tr.FindBest()
	if got.Action != BestWait || got.ChannelID != 1 {
		t.Fatalf("FindBest = %+v, want wait on channel 1", got)
	}
	if got.Wait != 2*time.Second {
		t.Fatalf("Wait = %v, want 2s", got.Wait)
	}
}

func TestFindBestWaitClampsAtZero(t *testing.T) {
	tr := newTestTracker()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tr.now = func() time.Time { return now }

	tr.Track(1)
	tr.HandleMessage(1, startMsg)
	tr.closeJoinWindow(1, 1)

	now = base.Add(45 * time.Second)
	got := tr.FindBest()
	if got.Action != BestWait || got.Wait != 0 {
		t.Fatalf("FindBest = %+v, want wait 0", got)
	}
}

func TestInvalidChannelExcludedFromSelection(t *testing.T) {
	tr := newTestTracker()
	tr.Track(1)
	tr.MarkInvalid(1)

	if n := tr.ValidCount(); n != 0 {
		t.Fatalf("ValidCount = %d, want 0", n)
	}
	if got := tr.FindBest(); got.Action != BestNone {
		t.Fatalf("FindBest().Action = %q, want none", got.Action)
	}
}

func TestTrackIsIdempotent(t *testing.T) {
	tr := newTestTracker()
	tr.joinWindow = time.Minute
	tr.Track(1)
	tr.HandleMessage(1, startMsg)
	tr.Track(1)

	if got := tr.Phase(1); got != PhaseJoinable {
		t.Fatalf("Phase = %q, re-tracking reset channel state", got)
	}
}
