package agent

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"jockey-agent/internal/chat"
	"jockey-agent/internal/decision"
	"jockey-agent/internal/gamestate"
	"jockey-agent/internal/store"
)

type fakeTransport struct {
	mu       sync.Mutex
	private  []string
	channel  []string
	sendErr  error
	channels []chat.Channel
	listErr  error

	privCh chan chat.Message
	chanCh chan chat.Message
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		privCh: make(chan chat.Message, 8),
		chanCh: make(chan chat.Message, 8),
	}
}

func (f *fakeTransport) SendPrivate(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.private = append(f.private, text)
	return nil
}

func (f *fakeTransport) SendChannel(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.channel = append(f.channel, text)
	return nil
}

func (f *fakeTransport) ListChannels(context.Context) ([]chat.Channel, error) {
	return f.channels, f.listErr
}

func (f *fakeTransport) SubscribePrivate() chan chat.Message  { return f.privCh }
func (f *fakeTransport) UnsubscribePrivate(chan chat.Message) {}
func (f *fakeTransport) SubscribeChannel() chan chat.Message  { return f.chanCh }
func (f *fakeTransport) UnsubscribeChannel(chan chat.Message) {}

func (f *fakeTransport) sentPrivate() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.private...)
}

func newTestAgent(t *testing.T, tr Transport) *Agent {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(tr, s, 77, decision.ArchetypeBalanced, rand.New(rand.NewSource(1)))
}

func intp(v int) *int { return &v }

func TestMergeSnapshotOverwritesKnownFieldsOnly(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	a.player = decision.PlayerState{Energy: 40, Level: 3, Speed: 10, Stamina: 8, Agility: 6}

	ps := a.mergeSnapshot(&gamestate.Snapshot{Energy: intp(90), Speed: intp(12)})
	if ps.Energy != 90 || ps.Speed != 12 {
		t.Fatalf("merged = %+v, want energy 90 speed 12", ps)
	}
	if ps.Level != 3 || ps.Stamina != 8 || ps.Agility != 6 {
		t.Fatalf("merged = %+v, unknown fields must keep old values", ps)
	}
}

func TestMergeSnapshotEstimatesEnergyWhenUnknown(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return base }
	a.player.Energy = 40
	a.lastAction = base.Add(-10 * time.Minute)

	ps := a.mergeSnapshot(nil)
	if ps.Energy != 60 {
		t.Fatalf("Energy = %d, want 60 after 10min of regen", ps.Energy)
	}

	// the estimate clamps at full
	a.lastAction = base.Add(-10 * time.Hour)
	ps = a.mergeSnapshot(nil)
	if ps.Energy != 100 {
		t.Fatalf("Energy = %d, want 100 clamped", ps.Energy)
	}
}

func TestMergeSnapshotNoActionYetKeepsEnergy(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	a.player.Energy = 40

	if ps := a.mergeSnapshot(nil); ps.Energy != 40 {
		t.Fatalf("Energy = %d, want 40 with no action history", ps.Energy)
	}
}

func TestTrainSendsCommandAndBumpsState(t *testing.T) {
	tr := newFakeTransport()
	a := newTestAgent(t, tr)
	a.player = decision.PlayerState{Energy: 50, Speed: 15, Stamina: 15, Agility: 15}

	a.train(context.Background(), a.player)

	sent := tr.sentPrivate()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], CmdTrain) {
		t.Fatalf("sent = %q, want one training command", sent)
	}
	if a.counters.Trainings != 1 {
		t.Fatalf("Trainings = %d, want 1", a.counters.Trainings)
	}
	if a.player.Energy != 40 {
		t.Fatalf("Energy = %d, want 40 after training", a.player.Energy)
	}
	if a.lastAction.IsZero() {
		t.Fatal("lastAction not stamped")
	}
	total := a.player.Speed + a.player.Stamina + a.player.Agility
	if total != 46 && total != 48 {
		t.Fatalf("attributes total = %d, want one bump (46) or an all bump (48)", total)
	}

	acts, err := a.store.RecentActivity(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(acts) != 1 || acts[0].Kind != "train" {
		t.Fatalf("activity = %+v, want one train record", acts)
	}
}

func TestTrainSendFailureLeavesStateUntouched(t *testing.T) {
	tr := newFakeTransport()
	tr.sendErr = errors.New("connection lost")
	a := newTestAgent(t, tr)
	a.player = decision.PlayerState{Energy: 50, Speed: 15, Stamina: 15, Agility: 15}

	a.train(context.Background(), a.player)

	if a.counters.Trainings != 0 || a.player.Energy != 50 {
		t.Fatalf("state mutated on failed send: %+v %+v", a.counters, a.player)
	}
}

func TestRaceSuccessUpdatesCounters(t *testing.T) {
	tr := newFakeTransport()
	a := newTestAgent(t, tr)
	a.player.Energy = 80
	a.tracker.Track(5)

	a.race(context.Background())

	if a.counters.Races != 1 {
		t.Fatalf("Races = %d, want 1", a.counters.Races)
	}
	if a.player.Energy != 60 {
		t.Fatalf("Energy = %d, want 60 after racing", a.player.Energy)
	}
}

func TestRaceFailureDoesNotTouchCounters(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	a.player.Energy = 80

	a.race(context.Background())

	if a.counters.Races != 0 || a.player.Energy != 80 {
		t.Fatalf("state mutated on failed race: %+v energy %d", a.counters, a.player.Energy)
	}
	acts, err := a.store.RecentActivity(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(acts) != 1 || acts[0].Kind != "race_failed" {
		t.Fatalf("activity = %+v, want one race_failed record", acts)
	}
}

func TestDiscoverChannelsTracksAll(t *testing.T) {
	tr := newFakeTransport()
	tr.channels = []chat.Channel{{ID: 1}, {ID: 2}, {ID: 3}}
	a := newTestAgent(t, tr)

	if err := a.DiscoverChannels(context.Background()); err != nil {
		t.Fatalf("DiscoverChannels: %v", err)
	}
	if n := a.tracker.ValidCount(); n != 3 {
		t.Fatalf("ValidCount = %d, want 3", n)
	}
}

func TestDiscoverChannelsPropagatesListError(t *testing.T) {
	tr := newFakeTransport()
	tr.listErr = errors.New("list failed")
	a := newTestAgent(t, tr)

	if err := a.DiscoverChannels(context.Background()); err == nil {
		t.Fatal("DiscoverChannels = nil, want error")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	tr := newFakeTransport()
	a := newTestAgent(t, tr)
	a.player = decision.PlayerState{Energy: 70, Speed: 9}
	a.counters = decision.DailyCounters{Trainings: 3, DayStart: time.Now()}
	a.lastAction = time.Now()
	a.persist(context.Background())

	b := New(tr, a.store, 77, decision.ArchetypeBalanced, rand.New(rand.NewSource(2)))
	if err := b.restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.player.Energy != 70 || b.player.Speed != 9 || b.counters.Trainings != 3 {
		t.Fatalf("restored = %+v %+v", b.player, b.counters)
	}
}

func TestRestoreFreshDatabaseStartsDay(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	if err := a.restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if a.counters.DayStart.IsZero() {
		t.Fatal("DayStart not initialized on fresh state")
	}
}

func TestRestoreFreshStartsRested(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	if err := a.restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	// the first refresh timing out must not leave the agent at zero
	ps := a.mergeSnapshot(nil)
	if ps.Energy != 100 || ps.Level != 1 {
		t.Fatalf("fresh player = %+v, want energy 100 level 1", ps)
	}

	d := a.engine.Decide(ps, a.counters)
	if d.Gate == decision.GateCritical {
		t.Fatalf("Decide = %s/%s, fresh agent must not rest on critical energy", d.Action, d.Gate)
	}
}

func TestStatusReportsCurrentState(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	a.player.Energy = 55
	a.counters.Trainings = 2
	a.tracker.Track(1)

	got, ok := a.Status().(map[string]any)
	if !ok {
		t.Fatalf("Status() = %T, want map", a.Status())
	}
	if got["energy"] != 55 || got["today_trainings"] != 2 || got["valid_channels"] != 1 {
		t.Fatalf("Status = %+v", got)
	}
	if got["archetype"] != "balanced" {
		t.Fatalf("archetype = %v, want balanced", got["archetype"])
	}
}

func TestUntilHourWrapsPastMidnight(t *testing.T) {
	now := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)
	if got := untilHour(now, 2); got != 3*time.Hour+30*time.Minute {
		t.Fatalf("untilHour = %v, want 3h30m", got)
	}
	if got := untilHour(now, 23); got != 30*time.Minute {
		t.Fatalf("untilHour = %v, want 30m", got)
	}
}

func TestGateWaitDurations(t *testing.T) {
	a := newTestAgent(t, newFakeTransport())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	a.policy.ActiveHours = map[int]bool{14: true}

	if got := a.gateWait(decision.GateCritical); got != 15*time.Minute {
		t.Fatalf("critical wait = %v, want 15m", got)
	}
	if got := a.gateWait(decision.GateTime); got != 4*time.Hour {
		t.Fatalf("time wait = %v, want 4h", got)
	}
	if got := a.gateWait(decision.GateLimit); got != time.Hour {
		t.Fatalf("limit wait = %v, want 1h", got)
	}
	if got := a.gateWait(decision.GateNone); got != 0 {
		t.Fatalf("no-gate wait = %v, want 0", got)
	}
}

func TestPumpEventsRoutesTraffic(t *testing.T) {
	tr := newFakeTransport()
	a := newTestAgent(t, tr)
	a.tracker.Track(9)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go a.pumpEvents(ctx, done)

	tr.chanCh <- chat.Message{ChannelID: 9, Body: "جاري إعداد السباق"}

	deadline := time.After(2 * time.Second)
	for a.tracker.Phase(9) != "joinable" {
		select {
		case <-deadline:
			t.Fatal("tracker never saw the channel event")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
