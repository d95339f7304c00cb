package decision

// ChooseTraining picks which attribute to train next. The cascade is
// deliberately layered-probabilistic rather than deterministic so
// repeated sessions do not produce an identical training sequence.
func (e *Engine) ChooseTraining(ps PlayerState) Attribute {
	return chooseTraining(ps, e.policy, func(p float64) bool {
		return e.rng.Float64() < p
	}, e.rng.Float64())
}

// chooseTraining is the pure cascade: chance answers each probabilistic
// branch, draw partitions the preference weights for the fallback.
// Evaluated top to bottom with early return:
//  1. early game (avg < 5): 50% train everything
//  2. lopsided stats (gap > 10): 70% train the weakest
//  3. late game (avg > 30): 40% specialize in the strongest
//  4. 15% train everything regardless
//  5. otherwise fall back to the policy's preference weights
func chooseTraining(ps PlayerState, policy Policy, chance func(float64) bool, draw float64) Attribute {
	a := Analyze(ps, DailyCounters{})

	if a.AvgAttr < 5 && chance(0.5) {
		return AttrAll
	}
	if a.MaxAttr-a.MinAttr > 10 && chance(0.7) {
		return a.Weakest
	}
	if a.AvgAttr > 30 && chance(0.4) {
		return a.Strongest
	}
	if chance(0.15) {
		return AttrAll
	}

	total := policy.PreferSpeed + policy.PreferStamina + policy.PreferAgility
	if total <= 0 {
		return AttrSpeed
	}
	scaled := draw * total
	switch {
	case scaled < policy.PreferSpeed:
		return AttrSpeed
	case scaled < policy.PreferSpeed+policy.PreferStamina:
		return AttrStamina
	default:
		return AttrAgility
	}
}
