package decision

import "time"

// DailyCounters tracks today's completed activity. The day rolls over 24h
// after DayStart, not at a calendar midnight, matching how the game bot
// itself meters daily limits.
type DailyCounters struct {
	Trainings int
	Races     int
	DayStart  time.Time
}

func (c DailyCounters) Total() int {
	return c.Trainings + c.Races
}

// Rollover zeroes the counters when a day boundary has passed. Returns
// true when a new day started.
func (c *DailyCounters) Rollover(now time.Time) bool {
	if c.DayStart.IsZero() {
		c.DayStart = now
		return false
	}
	if now.Sub(c.DayStart) < 24*time.Hour {
		return false
	}
	c.Trainings = 0
	c.Races = 0
	c.DayStart = now
	return true
}
