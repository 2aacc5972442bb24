package grading

// bandStep maps a minimum percentage of correct answers to a band score
type bandStep struct {
	minPercent float64
	band       float64
}

// bandTable is evaluated top to bottom, first match wins.
var bandTable = []bandStep{
	{95, 9},
	{90, 8.5},
	{85, 8},
	{80, 7.5},
	{70, 7},
	{60, 6.5},
	{50, 6},
	{40, 5.5},
	{30, 5},
	{20, 4.5},
	{10, 4},
}

// floorBand is awarded below the last step of bandTable
const floorBand = 3.5

// BandScore converts a correct count out of total into an IELTS-style band.
// A test with nothing to grade (total <= 0) scores 0.
func BandScore(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(correct*100) / float64(total)
	for _, step := range bandTable {
		if pct >= step.minPercent {
			return step.band
		}
	}
	return floorBand
}

// IsPassed reports whether score reaches passScore. The boundary passes.
func IsPassed(score, passScore float64) bool {
	return score >= passScore
}
