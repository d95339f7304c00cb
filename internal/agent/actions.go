package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"jockey-agent/internal/decision"
	"jockey-agent/internal/gamestate"
)

// CmdTrain prefixes a training command; the attribute argument follows.
const CmdTrain = "!سباق تدريب"

// trainArgs maps attributes to the game's command vocabulary.
var trainArgs = map[decision.Attribute]string{
	decision.AttrSpeed:   "سرعة",
	decision.AttrStamina: "تحمل",
	decision.AttrAgility: "رشاقة",
	decision.AttrAll:     "كل",
}

// energy regenerates about 2% per minute while idle
const energyRegenPerMinute = 2

// step refreshes state, asks the engine for an action, and executes it.
// The returned duration is how long a gated rest should suspend the
// loop; zero means the normal pacing delay applies.
func (a *Agent) step(ctx context.Context) time.Duration {
	a.mu.Lock()
	rolled := a.counters.Rollover(a.now())
	a.mu.Unlock()
	if rolled {
		log.Info().Msg("new day, counters reset")
	}

	snap, err := a.refreshState(ctx)
	if err != nil {
		log.Error().Err(err).Msg("state refresh failed")
		return 0
	}
	ps := a.mergeSnapshot(snap)

	a.mu.Lock()
	counters := a.counters
	a.mu.Unlock()

	d := a.engine.Decide(ps, counters)
	metricDecisionsTotal.Add(1)
	log.Info().
		Str("action", string(d.Action)).
		Str("gate", string(d.Gate)).
		Str("reason", d.Reason).
		Int("energy", ps.Energy).
		Msg("decision")

	if d.Gate != decision.GateNone {
		return a.gateWait(d.Gate)
	}

	// a human occasionally fumbles and does nothing
	if a.rng.Float64() < a.policy.MistakeProb {
		metricMistakesTotal.Add(1)
		log.Debug().Msg("skipping action on purpose")
		return 0
	}

	switch d.Action {
	case decision.ActionTrain:
		a.train(ctx, ps)
	case decision.ActionRace:
		a.race(ctx)
	default:
		a.logActivity(ctx, "rest", d.Reason)
	}
	return 0
}

// gateWait sizes the suspend for each hard gate: regen time for critical
// energy, the gap to the next active hour for the time gate, and a long
// pause once the daily limit is hit.
func (a *Agent) gateWait(gate decision.GatePriority) time.Duration {
	switch gate {
	case decision.GateCritical:
		return 15 * time.Minute
	case decision.GateTime:
		return untilHour(a.now(), a.policy.NextActiveHour(a.now()))
	case decision.GateLimit:
		return time.Hour
	default:
		return 0
	}
}

// untilHour returns the time from now to the next occurrence of the
// given hour-of-day.
func untilHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// refreshState serializes refreshes: an in-flight one just falls back to
// the cached snapshot instead of surfacing an error.
func (a *Agent) refreshState(ctx context.Context) (*gamestate.Snapshot, error) {
	snap, err := a.reader.Get(ctx, false)
	if err == gamestate.ErrRefreshInFlight {
		return a.reader.Last(), nil
	}
	return snap, err
}

// mergeSnapshot folds the known snapshot fields over the working player
// state. Unknown energy degrades to a regen estimate from the time since
// the last action.
func (a *Agent) mergeSnapshot(snap *gamestate.Snapshot) decision.PlayerState {
	a.mu.Lock()
	defer a.mu.Unlock()

	if snap != nil {
		if snap.Energy != nil {
			a.player.Energy = *snap.Energy
		}
		if snap.Level != nil {
			a.player.Level = *snap.Level
		}
		if snap.Speed != nil {
			a.player.Speed = *snap.Speed
		}
		if snap.Stamina != nil {
			a.player.Stamina = *snap.Stamina
		}
		if snap.Agility != nil {
			a.player.Agility = *snap.Agility
		}
		if snap.TotalRaces != nil {
			a.player.TotalRaces = *snap.TotalRaces
		}
		if snap.RacesWon != nil {
			a.player.RacesWon = *snap.RacesWon
		}
	}
	if snap == nil || snap.Energy == nil {
		a.player.Energy = a.estimateEnergyLocked()
	}
	return a.player
}

func (a *Agent) estimateEnergyLocked() int {
	if a.lastAction.IsZero() {
		return a.player.Energy
	}
	regen := int(a.now().Sub(a.lastAction)/time.Minute) * energyRegenPerMinute
	energy := a.player.Energy + regen
	if energy > 100 {
		energy = 100
	}
	return energy
}

func (a *Agent) train(ctx context.Context, ps decision.PlayerState) {
	attr := a.engine.ChooseTraining(ps)
	cmd := fmt.Sprintf("%s %s", CmdTrain, trainArgs[attr])

	if err := a.transport.SendPrivate(ctx, a.counterpart, cmd); err != nil {
		log.Error().Err(err).Str("attribute", string(attr)).Msg("training send failed")
		return
	}
	metricTrainingsTotal.Add(1)

	a.mu.Lock()
	// optimistic bump until the next snapshot corrects it
	switch attr {
	case decision.AttrSpeed:
		a.player.Speed++
	case decision.AttrStamina:
		a.player.Stamina++
	case decision.AttrAgility:
		a.player.Agility++
	case decision.AttrAll:
		a.player.Speed++
		a.player.Stamina++
		a.player.Agility++
	}
	a.player.Energy -= 10
	if a.player.Energy < 0 {
		a.player.Energy = 0
	}
	a.counters.Trainings++
	a.lastAction = a.now()
	a.mu.Unlock()

	log.Info().Str("attribute", string(attr)).Msg("training sent")
	a.logActivity(ctx, "train", string(attr))
	a.persist(ctx)
}

func (a *Agent) race(ctx context.Context) {
	result := a.coordinator.SmartRace(ctx)
	if !result.Success {
		log.Warn().Str("reason", result.Reason).Msg("race attempt failed")
		a.logActivity(ctx, "race_failed", result.Reason)
		return
	}

	a.mu.Lock()
	a.player.Energy -= 20
	if a.player.Energy < 0 {
		a.player.Energy = 0
	}
	a.counters.Races++
	a.lastAction = a.now()
	a.mu.Unlock()

	log.Info().
		Str("action", result.Action).
		Int64("channel_id", result.ChannelID).
		Msg("race underway")
	a.logActivity(ctx, "race", fmt.Sprintf("%s channel %d", result.Action, result.ChannelID))
	a.persist(ctx)
}
