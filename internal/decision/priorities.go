package decision

// Priorities are the additive scores for the three candidate actions.
// Each rule below contributes independently when its condition holds;
// rules are not exclusive and one signal may feed several actions.
type Priorities struct {
	Train int
	Race  int
	Rest  int
}

func (p Priorities) Total() int {
	return p.Train + p.Race + p.Rest
}

// CalculatePriorities applies the scoring table to an analysis.
// dailyLimit is the cap drawn for this decision call.
func CalculatePriorities(a Analysis, policy Policy, dailyLimit int) Priorities {
	var p Priorities

	// training: the weaker the player, the more it trains
	switch a.Phase {
	case PhaseBeginner:
		p.Train += 50
	case PhaseIntermediate:
		p.Train += 30
	case PhaseAdvanced:
		p.Train += 15
	default:
		p.Train += 5
	}
	if !a.Balanced {
		p.Train += 20
	}
	if a.WinRate < 0.3 && a.TotalRaces > 5 {
		p.Train += 25
	}
	if a.TodayRatio < 1 && a.TodayRaces > 3 {
		p.Train += 15
	}
	if policy.Archetype == ArchetypeBalanced {
		p.Train += 10
	}

	// racing: the stronger the player, the more it races
	switch a.Phase {
	case PhaseExpert:
		p.Race += 50
	case PhaseAdvanced:
		p.Race += 35
	case PhaseIntermediate:
		p.Race += 20
	default:
		p.Race += 5
	}
	if a.TotalRaces > 5 {
		if a.WinRate > 0.5 {
			p.Race += 30
		} else if a.WinRate > 0.3 {
			p.Race += 15
		}
	}
	if a.TodayRatio > 3 && a.TodayTrainings > 5 {
		p.Race += 20
	}
	switch policy.Archetype {
	case ArchetypeCompetitive:
		p.Race += 25
	case ArchetypeCasual:
		p.Race += 5
	}
	if a.EnergyStatus == EnergyHigh {
		p.Race += 15
	}

	// resting
	switch a.EnergyStatus {
	case EnergyLow:
		p.Rest += 30
	case EnergyCritical:
		p.Rest += 60
	}
	if float64(a.TodayTotal) > float64(dailyLimit)*0.8 {
		p.Rest += 20
	}
	if policy.Archetype == ArchetypeCasual {
		p.Rest += 10
	}

	// energy constraints override everything above
	if !a.CanRace {
		p.Race = 0
	}
	if !a.CanTrain {
		p.Train = 0
	}

	return p
}
