// Package agent runs the play loop: sessions of decide-act-pause cycles
// separated by human-like breaks, fed by the inbound event pump.
package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"jockey-agent/internal/chat"
	"jockey-agent/internal/decision"
	"jockey-agent/internal/gamestate"
	"jockey-agent/internal/race"
	"jockey-agent/internal/store"
)

// Transport is the slice of the chat client the agent drives.
type Transport interface {
	SendPrivate(ctx context.Context, recipientID int64, text string) error
	SendChannel(ctx context.Context, channelID int64, text string) error
	ListChannels(ctx context.Context) ([]chat.Channel, error)
	SubscribePrivate() chan chat.Message
	UnsubscribePrivate(ch chan chat.Message)
	SubscribeChannel() chan chat.Message
	UnsubscribeChannel(ch chan chat.Message)
}

type Agent struct {
	transport   Transport
	reader      *gamestate.Reader
	tracker     *race.Tracker
	coordinator *race.Coordinator
	engine      *decision.Engine
	policy      decision.Policy
	store       *store.Store
	counterpart int64
	rng         *rand.Rand

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu         sync.Mutex
	player     decision.PlayerState
	counters   decision.DailyCounters
	lastAction time.Time
	active     bool
	startedAt  time.Time
}

func New(transport Transport, st *store.Store, counterpart int64, archetype decision.Archetype, rng *rand.Rand) *Agent {
	policy := decision.NewPolicy(archetype, rng)
	tracker := race.NewTracker()
	return &Agent{
		transport:   transport,
		reader:      gamestate.NewReader(transport, counterpart),
		tracker:     tracker,
		coordinator: race.NewCoordinator(tracker, transport),
		engine:      decision.NewEngine(policy, rng),
		policy:      policy,
		store:       st,
		counterpart: counterpart,
		rng:         rng,
		sleep:       sleepCtx,
		now:         time.Now,
	}
}

// Reader exposes the state reader so the transport's reconnect hook can
// re-arm its warm-up delay.
func (a *Agent) Reader() *gamestate.Reader { return a.reader }

// Run restores persisted state, starts the event pump, and plays until
// ctx is cancelled. The current suspend point unwinds naturally; no
// in-flight send is interrupted.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.DiscoverChannels(ctx); err != nil {
		log.Warn().Err(err).Msg("channel discovery failed, racing disabled until retry")
	}

	pumpDone := make(chan struct{})
	go a.pumpEvents(ctx, pumpDone)

	a.mu.Lock()
	a.startedAt = a.now()
	a.mu.Unlock()

	a.setActive(true)
	defer a.setActive(false)

	for {
		session := a.policy.SessionDuration(a.rng)
		log.Info().Dur("session", session).Msg("session starting")
		if err := a.playSession(ctx, session); err != nil {
			<-pumpDone
			return nil
		}

		pause := a.policy.BreakDuration(a.rng)
		log.Info().Dur("break", pause).Msg("session over, taking a break")
		if err := a.sleep(ctx, pause); err != nil {
			<-pumpDone
			return nil
		}
	}
}

func (a *Agent) playSession(ctx context.Context, session time.Duration) error {
	deadline := a.now().Add(session)
	for a.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		gateWait := a.step(ctx)

		wait := a.policy.Delay(a.rng)
		// occasionally linger, the way a human drifts off mid-session
		if a.rng.Float64() < 0.3 {
			wait = time.Minute + time.Duration(a.rng.Int63n(int64(4*time.Minute)))
		}
		// a hard gate knows how long the pause really needs to be
		if gateWait > wait {
			wait = gateWait
		}
		if err := a.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// pumpEvents feeds inbound traffic to the reader and tracker. It runs
// independently of the play loop so race transitions keep landing while
// the agent is suspended on a timer.
func (a *Agent) pumpEvents(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	private := a.transport.SubscribePrivate()
	channel := a.transport.SubscribeChannel()
	defer a.transport.UnsubscribePrivate(private)
	defer a.transport.UnsubscribeChannel(channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-private:
			a.reader.HandleMessage(msg.SenderID, msg.Body)
		case msg := <-channel:
			a.tracker.HandleMessage(msg.ChannelID, msg.Body)
		}
	}
}

// DiscoverChannels registers every reachable channel with the tracker.
// Registration is optimistic; no verification round-trip is made.
func (a *Agent) DiscoverChannels(ctx context.Context) error {
	channels, err := a.transport.ListChannels(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		a.tracker.Track(ch.ID)
	}
	log.Info().Int("channels", len(channels)).Msg("channels discovered")
	return nil
}

func (a *Agent) restore(ctx context.Context) error {
	st, err := a.store.LoadAgentState(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		a.mu.Lock()
		// a fresh jockey starts rested; zero here would trip the
		// critical-energy gate before the first successful refresh
		a.player = decision.PlayerState{Energy: 100, Level: 1}
		a.counters.DayStart = a.now()
		a.mu.Unlock()
		return nil
	}

	a.mu.Lock()
	a.player = st.Player
	a.counters = st.Counters
	a.lastAction = st.LastAction
	a.mu.Unlock()
	log.Info().Int("energy", st.Player.Energy).Msg("state restored")
	return nil
}

func (a *Agent) persist(ctx context.Context) {
	a.mu.Lock()
	st := store.AgentState{Player: a.player, Counters: a.counters, LastAction: a.lastAction}
	a.mu.Unlock()

	if err := a.store.SaveAgentState(ctx, st); err != nil {
		log.Error().Err(err).Msg("persist state failed")
	}
}

func (a *Agent) logActivity(ctx context.Context, kind, detail string) {
	if _, err := a.store.AppendActivity(ctx, kind, detail); err != nil {
		log.Error().Err(err).Msg("append activity failed")
	}
}

func (a *Agent) setActive(v bool) {
	a.mu.Lock()
	a.active = v
	a.mu.Unlock()
}

// Status is the payload served on the health endpoint.
func (a *Agent) Status() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	uptime := time.Duration(0)
	if !a.startedAt.IsZero() {
		uptime = a.now().Sub(a.startedAt)
	}
	return map[string]any{
		"active":          a.active,
		"uptime":          uptime.String(),
		"archetype":       string(a.policy.Archetype),
		"energy":          a.player.Energy,
		"today_trainings": a.counters.Trainings,
		"today_races":     a.counters.Races,
		"last_action":     a.lastAction,
		"valid_channels":  a.tracker.ValidCount(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
