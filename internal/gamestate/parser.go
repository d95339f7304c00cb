package gamestate

import (
	"regexp"
	"strconv"
	"strings"
)

// The game bot answers the view command with an HTML message pack. Each
// stat lives in a div with a stable class name, so extraction is plain
// per-field pattern scraping; the patterns do not overlap and a miss on
// one field never blocks the others.
var (
	reEnergy  = regexp.MustCompile(`energyPercentage">(\d+)%<`)
	reLevel   = regexp.MustCompile(`levelText">(\d+)<`)
	reXP      = regexp.MustCompile(`xpText">(\d+)<`)
	rePoints  = regexp.MustCompile(`pointsText">(\d+)<`)
	reSpeed   = regexp.MustCompile(`statSpd"><p[^>]*>(\d+)<`)
	reStamina = regexp.MustCompile(`statStm"><p[^>]*>(\d+)<`)
	reAgility = regexp.MustCompile(`statAgi"><p[^>]*>(\d+)<`)
	reRaces   = regexp.MustCompile(`statRaces"><p[^>]*>(\d+)<`)
	reWins    = regexp.MustCompile(`statWins"><p[^>]*>(\d+)<`)
	reAvgPos  = regexp.MustCompile(`statAvgPos"><p[^>]*>(\d+)`)
	reName    = regexp.MustCompile(`nameDiv">([^<]+)<`)
)

// Parse scrapes a view reply into a Snapshot. Unmatched fields stay nil;
// any panic during matching degrades to an empty snapshot instead of
// propagating.
func Parse(raw string) (snap Snapshot) {
	snap.Raw = raw
	defer func() {
		if r := recover(); r != nil {
			snap = Snapshot{Raw: raw}
		}
	}()

	snap.Energy = matchInt(reEnergy, raw)
	snap.Level = matchInt(reLevel, raw)
	snap.XP = matchInt(reXP, raw)
	snap.Points = matchInt(rePoints, raw)
	snap.Speed = matchInt(reSpeed, raw)
	snap.Stamina = matchInt(reStamina, raw)
	snap.Agility = matchInt(reAgility, raw)
	snap.TotalRaces = matchInt(reRaces, raw)
	snap.RacesWon = matchInt(reWins, raw)
	snap.AvgPosition = matchInt(reAvgPos, raw)
	if m := reName.FindStringSubmatch(raw); m != nil {
		snap.AnimalName = strings.TrimSpace(m[1])
	}
	return snap
}

func matchInt(re *regexp.Regexp, raw string) *int {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
