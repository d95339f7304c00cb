package agent

import "expvar"

var (
	metricDecisionsTotal = expvar.NewInt("agent_decisions_total")
	metricTrainingsTotal = expvar.NewInt("agent_trainings_total")
	metricMistakesTotal  = expvar.NewInt("agent_mistakes_total")
)
