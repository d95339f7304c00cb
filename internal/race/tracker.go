// Package race tracks the race lifecycle of every channel the agent can
// reach and turns that picture into join/start/wait decisions.
package race

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Phase is a channel's position in the race lifecycle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseJoinable Phase = "joinable"
	PhaseRunning  Phase = "running"
)

const (
	defaultJoinWindow = 5 * time.Second
	defaultRaceSpan   = 20 * time.Second
)

// startPhrase marks the game's race-preparation announcement.
const startPhrase = "جاري إعداد السباق"

// endPhrases mark a race result announcement in any of the game's
// message variants.
var endPhrases = []string{"فاز", "انتهى", "finished"}

type channelState struct {
	phase     Phase
	startedAt time.Time
	valid     bool

	// gen guards the join-window timer: a transition bumps it, and a
	// timer armed under an older gen does nothing when it fires.
	gen uint64
}

// Tracker holds per-channel race state, updated only from inbound
// channel events. Channels are never removed once seen; an invalid mark
// just excludes them from selection.
type Tracker struct {
	mu       sync.Mutex
	channels map[int64]*channelState

	joinWindow time.Duration
	raceSpan   time.Duration
	now        func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		channels:   make(map[int64]*channelState),
		joinWindow: defaultJoinWindow,
		raceSpan:   defaultRaceSpan,
		now:        time.Now,
	}
}

// Track registers a channel optimistically: it starts idle and valid
// without any verification round-trip.
func (t *Tracker) Track(channelID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.channels[channelID]; ok {
		return
	}
	t.channels[channelID] = &channelState{phase: PhaseIdle, valid: true}
}

// MarkInvalid excludes a channel from future selection. State for it is
// still kept so late events stay cheap no-ops.
func (t *Tracker) MarkInvalid(channelID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs, ok := t.channels[channelID]; ok {
		cs.valid = false
	}
}

// ValidCount reports how many tracked channels are selectable.
func (t *Tracker) ValidCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, cs := range t.channels {
		if cs.valid {
			n++
		}
	}
	return n
}

// Phase returns the lifecycle phase of a channel, idle if unknown.
func (t *Tracker) Phase(channelID int64) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs, ok := t.channels[channelID]; ok {
		return cs.phase
	}
	return PhaseIdle
}

// HandleMessage feeds one inbound channel event through the phrase
// rules. Events for untracked channels and unmatched bodies are no-ops.
func (t *Tracker) HandleMessage(channelID int64, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs, ok := t.channels[channelID]
	if !ok {
		return
	}

	switch {
	case strings.Contains(body, startPhrase):
		metricRaceStartEvents.Add(1)
		cs.phase = PhaseJoinable
		cs.startedAt = t.now()
		cs.gen++
		gen := cs.gen
		time.AfterFunc(t.joinWindow, func() { t.closeJoinWindow(channelID, gen) })
		log.Debug().Int64("channel_id", channelID).Msg("race started, join window open")

	case containsAny(body, endPhrases):
		metricRaceEndEvents.Add(1)
		cs.phase = PhaseIdle
		cs.gen++
		log.Debug().Int64("channel_id", channelID).Msg("race ended")
	}
}

// closeJoinWindow moves joinable to running when the armed timer is
// still current. A race that already ended bumped gen, so the stale
// timer falls through.
func (t *Tracker) closeJoinWindow(channelID int64, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs, ok := t.channels[channelID]
	if !ok || cs.gen != gen || cs.phase != PhaseJoinable {
		return
	}
	cs.phase = PhaseRunning
}

// BestAction is what FindBest recommends for its chosen channel.
type BestAction string

const (
	BestJoin  BestAction = "join"
	BestStart BestAction = "start"
	BestWait  BestAction = "wait"
	BestNone  BestAction = "none"
)

// Choice is a FindBest result. Wait is meaningful only for BestWait.
type Choice struct {
	Action    BestAction
	ChannelID int64
	Wait      time.Duration
}

// FindBest scans the valid channels in preference order: a joinable
// race beats starting fresh on an idle channel, which beats waiting out
// the running race closest to finishing.
func (t *Tracker) FindBest() Choice {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		idleID    int64
		haveIdle  bool
		waitID    int64
		bestLeft  time.Duration
		haveWait  bool
	)
	for id, cs := range t.channels {
		if !cs.valid {
			continue
		}
		switch cs.phase {
		case PhaseJoinable:
			return Choice{Action: BestJoin, ChannelID: id}
		case PhaseIdle:
			if !haveIdle {
				idleID, haveIdle = id, true
			}
		case PhaseRunning:
			left := t.raceSpan - t.now().Sub(cs.startedAt)
			if left < 0 {
				left = 0
			}
			if !haveWait || left < bestLeft {
				waitID, bestLeft, haveWait = id, left, true
			}
		}
	}

	if haveIdle {
		return Choice{Action: BestStart, ChannelID: idleID}
	}
	if haveWait {
		return Choice{Action: BestWait, ChannelID: waitID, Wait: bestLeft}
	}
	return Choice{Action: BestNone}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
