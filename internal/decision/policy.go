// Package decision picks the agent's next action. Every decision is a
// function of the current player state, today's counters, the policy, and
// the wall clock, with randomness injected through an explicit rng so the
// weighting stays testable.
package decision

import (
	"math/rand"
	"time"
)

type Archetype string

const (
	ArchetypeCasual      Archetype = "casual"
	ArchetypeCompetitive Archetype = "competitive"
	ArchetypeBalanced    Archetype = "balanced"
)

func ParseArchetype(s string) Archetype {
	switch Archetype(s) {
	case ArchetypeCasual, ArchetypeCompetitive, ArchetypeBalanced:
		return Archetype(s)
	default:
		return ArchetypeBalanced
	}
}

// Policy is the immutable behavioral configuration generated once at
// agent start. It shapes when the agent plays, how fast it acts, and
// which attributes it prefers to train.
type Policy struct {
	Archetype   Archetype
	ActiveHours map[int]bool

	SessionMin, SessionMax time.Duration
	BreakMin, BreakMax     time.Duration
	DelayMin, DelayMax     time.Duration

	MistakeProb float64

	PreferSpeed   float64
	PreferStamina float64
	PreferAgility float64
}

// evening and night hours, when human players are usually online
var commonHours = []int{14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 0, 1}

func NewPolicy(archetype Archetype, rng *rand.Rand) Policy {
	return Policy{
		Archetype:     archetype,
		ActiveHours:   generateActiveHours(rng),
		SessionMin:    15 * time.Minute,
		SessionMax:    90 * time.Minute,
		BreakMin:      30 * time.Minute,
		BreakMax:      180 * time.Minute,
		DelayMin:      3 * time.Second,
		DelayMax:      15 * time.Second,
		MistakeProb:   0.05,
		PreferSpeed:   0.4,
		PreferStamina: 0.3,
		PreferAgility: 0.3,
	}
}

// generateActiveHours draws 6-16 distinct hours, biased toward the common
// play window.
func generateActiveHours(rng *rand.Rand) map[int]bool {
	hours := make(map[int]bool)
	want := 6 + rng.Intn(11)
	for len(hours) < want {
		var h int
		if rng.Float64() < 0.7 {
			h = commonHours[rng.Intn(len(commonHours))]
		} else {
			h = rng.Intn(24)
		}
		hours[h] = true
	}
	return hours
}

// ActiveAt reports whether the policy considers t a playing hour.
func (p Policy) ActiveAt(t time.Time) bool {
	return p.ActiveHours[t.Hour()]
}

// NextActiveHour returns the next hour-of-day the policy is active at,
// starting strictly after t's hour and wrapping past midnight.
func (p Policy) NextActiveHour(t time.Time) int {
	for i := 1; i <= 24; i++ {
		h := (t.Hour() + i) % 24
		if p.ActiveHours[h] {
			return h
		}
	}
	return t.Hour()
}

// DailyLimit draws today's activity cap from the archetype's range. The
// draw is made per decision call rather than once per day, so the agent's
// ambition wobbles the way a human's does.
func (p Policy) DailyLimit(rng *rand.Rand) int {
	switch p.Archetype {
	case ArchetypeCasual:
		return 5 + rng.Intn(6)
	case ArchetypeCompetitive:
		return 15 + rng.Intn(11)
	case ArchetypeBalanced:
		return 10 + rng.Intn(6)
	default:
		return 10
	}
}

// Delay draws a human-like pause between actions.
func (p Policy) Delay(rng *rand.Rand) time.Duration {
	return randDuration(rng, p.DelayMin, p.DelayMax)
}

// SessionDuration draws the length of one play session.
func (p Policy) SessionDuration(rng *rand.Rand) time.Duration {
	return randDuration(rng, p.SessionMin, p.SessionMax)
}

// BreakDuration draws the rest period between sessions.
func (p Policy) BreakDuration(rng *rand.Rand) time.Duration {
	return randDuration(rng, p.BreakMin, p.BreakMax)
}

func randDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}
