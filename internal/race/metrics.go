package race

import "expvar"

var (
	metricRaceStartEvents = expvar.NewInt("race_start_events_total")
	metricRaceEndEvents   = expvar.NewInt("race_end_events_total")

	metricRaceJoinedTotal  = expvar.NewInt("race_joined_total")
	metricRaceStartedTotal = expvar.NewInt("race_started_total")
	metricRaceWaitTotal    = expvar.NewInt("race_wait_total")
	metricRaceFailedTotal  = expvar.NewInt("race_failed_total")
)
