package decision

import (
	"fmt"
	"math/rand"
	"time"
)

type Action string

const (
	ActionTrain Action = "train"
	ActionRace  Action = "race"
	ActionRest  Action = "rest"
)

// GatePriority tags a rest decision forced by a hard gate.
type GatePriority string

const (
	GateNone     GatePriority = ""
	GateCritical GatePriority = "critical"
	GateTime     GatePriority = "time"
	GateLimit    GatePriority = "limit"
)

// Decision is one resolved choice. Reason and the embedded analysis are
// for logging only; Action and Gate are what callers act on.
type Decision struct {
	Action     Action
	Gate       GatePriority
	Reason     string
	Priorities Priorities
	Analysis   Analysis
}

// Engine turns player state into decisions. It holds no mutable state of
// its own besides the rng; every Decide call is a function of its inputs
// and one uniform draw.
type Engine struct {
	policy Policy
	rng    *rand.Rand
	now    func() time.Time
}

func NewEngine(policy Policy, rng *rand.Rand) *Engine {
	return &Engine{policy: policy, rng: rng, now: time.Now}
}

// Decide runs the hard gates in fixed order, then the weighted choice.
// Gate order matters: critical energy wins over the time gate, which wins
// over the daily limit.
func (e *Engine) Decide(ps PlayerState, c DailyCounters) Decision {
	if ps.Energy < 10 {
		return Decision{Action: ActionRest, Gate: GateCritical, Reason: "critical energy (< 10%)"}
	}
	if !e.policy.ActiveAt(e.now()) {
		return Decision{Action: ActionRest, Gate: GateTime, Reason: "outside active hours"}
	}
	limit := e.policy.DailyLimit(e.rng)
	if c.Total() >= limit {
		return Decision{Action: ActionRest, Gate: GateLimit, Reason: fmt.Sprintf("daily limit reached (%d)", limit)}
	}

	a := Analyze(ps, c)
	pr := CalculatePriorities(a, e.policy, limit)
	return e.choose(pr, a)
}

func (e *Engine) choose(pr Priorities, a Analysis) Decision {
	total := pr.Total()
	if total == 0 {
		// deterministic: the rng is not consulted
		return Decision{Action: ActionRest, Reason: "no priorities", Priorities: pr, Analysis: a}
	}
	draw := e.rng.Float64() * float64(total)
	return resolve(pr, a, draw)
}

// resolve maps a uniform draw in [0, total) onto the cumulative ranges
// train, race, rest, in that order.
func resolve(pr Priorities, a Analysis, draw float64) Decision {
	label := Pick([]Weighted{
		{Label: string(ActionTrain), Weight: pr.Train},
		{Label: string(ActionRace), Weight: pr.Race},
		{Label: string(ActionRest), Weight: pr.Rest},
	}, draw)

	d := Decision{Action: Action(label), Priorities: pr, Analysis: a}
	switch d.Action {
	case ActionTrain:
		d.Reason = trainReason(a)
	case ActionRace:
		d.Reason = raceReason(a)
	default:
		d.Reason = restReason(a)
	}
	return d
}

func trainReason(a Analysis) string {
	switch {
	case a.Phase == PhaseBeginner:
		return "beginner, needs heavy training"
	case !a.Balanced:
		return fmt.Sprintf("improving %s (unbalanced stats)", a.Weakest)
	case a.WinRate < 0.3 && a.TotalRaces > 5:
		return "low win rate, needs improvement"
	case a.TodayRaces > a.TodayTrainings:
		return "balancing today's activity"
	default:
		return "improving attributes"
	}
}

func raceReason(a Analysis) string {
	switch {
	case a.Phase == PhaseExpert:
		return "expert, time to race"
	case a.WinRate > 0.5 && a.TotalRaces > 5:
		return fmt.Sprintf("high win rate (%.0f%%)", a.WinRate*100)
	case a.TodayTrainings > a.TodayRaces*2:
		return "trained a lot, time to race"
	case a.EnergyStatus == EnergyHigh:
		return "high energy, seizing the moment"
	default:
		return "testing attributes"
	}
}

func restReason(a Analysis) string {
	switch a.EnergyStatus {
	case EnergyCritical:
		return "critical energy"
	case EnergyLow:
		return "low energy"
	default:
		if a.TodayTotal > 15 {
			return "plenty of activity today"
		}
		return "natural break"
	}
}
