package decision

import "math"

// PlayerState is the agent's working view of the game: the last known
// snapshot merged with local estimates, always concrete numbers.
type PlayerState struct {
	Energy  int
	Level   int
	Speed   int
	Stamina int
	Agility int

	TotalRaces int
	RacesWon   int
}

type Phase string

const (
	PhaseBeginner     Phase = "beginner"
	PhaseIntermediate Phase = "intermediate"
	PhaseAdvanced     Phase = "advanced"
	PhaseExpert       Phase = "expert"
)

type EnergyStatus string

const (
	EnergyHigh     EnergyStatus = "high"
	EnergyMedium   EnergyStatus = "medium"
	EnergyLow      EnergyStatus = "low"
	EnergyCritical EnergyStatus = "critical"
)

// Attribute names a trainable stat. AttrAll trains everything at once.
type Attribute string

const (
	AttrSpeed   Attribute = "speed"
	AttrStamina Attribute = "stamina"
	AttrAgility Attribute = "agility"
	AttrAll     Attribute = "all"
)

// Analysis is the derived picture of the player the priority rules key
// off.
type Analysis struct {
	AvgAttr   float64
	MaxAttr   int
	MinAttr   int
	Balance   float64
	Balanced  bool
	Weakest   Attribute
	Strongest Attribute

	Phase Phase

	WinRate    float64
	TotalRaces int

	TodayTrainings int
	TodayRaces     int
	TodayTotal     int
	TodayRatio     float64

	Energy       int
	EnergyStatus EnergyStatus
	CanRace      bool
	CanTrain     bool
}

// Analyze classifies the player state. Attribute ties resolve in the
// fixed order speed, stamina, agility.
func Analyze(ps PlayerState, c DailyCounters) Analysis {
	avg := float64(ps.Speed+ps.Stamina+ps.Agility) / 3

	maxAttr := ps.Speed
	if ps.Stamina > maxAttr {
		maxAttr = ps.Stamina
	}
	if ps.Agility > maxAttr {
		maxAttr = ps.Agility
	}
	minAttr := ps.Speed
	if ps.Stamina < minAttr {
		minAttr = ps.Stamina
	}
	if ps.Agility < minAttr {
		minAttr = ps.Agility
	}

	balance := 1.0
	if maxAttr > 0 {
		balance = float64(minAttr) / float64(maxAttr)
	}

	var phase Phase
	switch {
	case avg < 10:
		phase = PhaseBeginner
	case avg < 30:
		phase = PhaseIntermediate
	case avg < 60:
		phase = PhaseAdvanced
	default:
		phase = PhaseExpert
	}

	winRate := 0.0
	if ps.TotalRaces > 0 {
		winRate = float64(ps.RacesWon) / float64(ps.TotalRaces)
	}

	ratio := math.Inf(1)
	if c.Races > 0 {
		ratio = float64(c.Trainings) / float64(c.Races)
	}

	var energyStatus EnergyStatus
	switch {
	case ps.Energy >= 80:
		energyStatus = EnergyHigh
	case ps.Energy >= 40:
		energyStatus = EnergyMedium
	case ps.Energy >= 20:
		energyStatus = EnergyLow
	default:
		energyStatus = EnergyCritical
	}

	return Analysis{
		AvgAttr:        avg,
		MaxAttr:        maxAttr,
		MinAttr:        minAttr,
		Balance:        balance,
		Balanced:       balance > 0.7,
		Weakest:        weakestAttr(ps),
		Strongest:      strongestAttr(ps),
		Phase:          phase,
		WinRate:        winRate,
		TotalRaces:     ps.TotalRaces,
		TodayTrainings: c.Trainings,
		TodayRaces:     c.Races,
		TodayTotal:     c.Total(),
		TodayRatio:     ratio,
		Energy:         ps.Energy,
		EnergyStatus:   energyStatus,
		CanRace:        ps.Energy >= 20,
		CanTrain:       ps.Energy >= 10,
	}
}

func weakestAttr(ps PlayerState) Attribute {
	if ps.Speed <= ps.Stamina && ps.Speed <= ps.Agility {
		return AttrSpeed
	}
	if ps.Stamina <= ps.Agility {
		return AttrStamina
	}
	return AttrAgility
}

func strongestAttr(ps PlayerState) Attribute {
	if ps.Speed >= ps.Stamina && ps.Speed >= ps.Agility {
		return AttrSpeed
	}
	if ps.Stamina >= ps.Agility {
		return AttrStamina
	}
	return AttrAgility
}
