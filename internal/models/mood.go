package models

// MoodLabels is the fixed set of moods the daily check-in accepts.
var MoodLabels = []string{
	"Grateful",
	"Happy",
	"Energetic",
	"Inspired",
	"Neutral",
	"Peaceful",
	"Stressed",
	"Anxious",
}

// ValidMoodLabel reports whether label is one of MoodLabels.
func ValidMoodLabel(label string) bool {
	for _, l := range MoodLabels {
		if l == label {
			return true
		}
	}
	return false
}

// MoodEntry is the state of the daily mood check-in: the last
// recorded label, the calendar day it was recorded on, and the
// consecutive-day streak derived from it.
type MoodEntry struct {
	Label      string `json:"label"`
	RecordedOn string `json:"recordedOn"` // calendar date, YYYY-MM-DD
	Streak     int    `json:"streak"`
}
