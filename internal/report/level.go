package report

// Level is the qualitative band derived from the total score.
type Level string

const (
	LevelExcellent Level = "Excellent"
	LevelGood      Level = "Good"
	LevelFair      Level = "Fair"
	LevelWeak      Level = "Weak"
)

// Lower bounds, inclusive.
const (
	excellentThreshold = 26
	goodThreshold      = 18
	fairThreshold      = 14
)

// LevelFor maps a total score to its band.
func LevelFor(total int) Level {
	switch {
	case total >= excellentThreshold:
		return LevelExcellent
	case total >= goodThreshold:
		return LevelGood
	case total >= fairThreshold:
		return LevelFair
	default:
		return LevelWeak
	}
}

// TotalScore sums the three sub-scores of a draft.
func TotalScore(d Draft) int {
	return d.DeliveryScore + d.LanguageScore + d.TopicScore
}
