package decision

// Weighted is one label in a discrete distribution.
type Weighted struct {
	Label  string
	Weight int
}

// Pick resolves a uniform draw in [0, total) against the cumulative
// weights, in slice order. Labels with zero weight are unreachable. A
// draw at or past the total (a caller bug) falls through to the last
// positively weighted label.
func Pick(items []Weighted, draw float64) string {
	cum := 0.0
	last := ""
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		cum += float64(it.Weight)
		last = it.Label
		if draw < cum {
			return it.Label
		}
	}
	return last
}
