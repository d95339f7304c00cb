// Package gamestate reads the jockey game bot's state view: it sends the
// view command over private chat, parses the markup reply, and caches the
// resulting snapshot.
package gamestate

import "time"

// Snapshot is the structured state scraped from one view reply. Every
// field is independently optional: nil means the reply did not contain
// that field, and callers must not treat nil as zero.
type Snapshot struct {
	Energy      *int
	Level       *int
	XP          *int
	Points      *int
	Speed       *int
	Stamina     *int
	Agility     *int
	TotalRaces  *int
	RacesWon    *int
	AvgPosition *int
	AnimalName  string

	Raw       string
	FetchedAt time.Time
}

// WinRate returns wins/races. It is defined only when the race total is
// known and positive; the result is always within [0, 1].
func (s *Snapshot) WinRate() (float64, bool) {
	if s == nil || s.TotalRaces == nil || s.RacesWon == nil || *s.TotalRaces <= 0 {
		return 0, false
	}
	rate := float64(*s.RacesWon) / float64(*s.TotalRaces)
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return rate, true
}
