package services

import (
	"fmt"
	"time"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	moodLastDateKey = "moodLastDate"
	moodStreakKey   = "moodStreak"
	moodTodayKey    = "moodToday"
)

// MoodStreakTracker derives a consecutive-day streak from the last
// recorded mood date. Only the first transition per calendar day
// moves the streak; same-day re-selection swaps the label only.
type MoodStreakTracker interface {
	RecordMood(label string, today time.Time) (*models.MoodEntry, error)
	CurrentStreak() (int, error)
	TodaysMood(today time.Time) (string, bool, error)
}

// DefaultMoodTracker implements MoodStreakTracker on a Store.
type DefaultMoodTracker struct {
	store store.Store
}

func NewMoodTracker(s store.Store) MoodStreakTracker {
	return &DefaultMoodTracker{store: s}
}

func (t *DefaultMoodTracker) RecordMood(label string, today time.Time) (*models.MoodEntry, error) {
	if !models.ValidMoodLabel(label) {
		return nil, validationError(fmt.Sprintf("unknown mood %q", label))
	}

	var lastDateStr string
	hasLast, err := t.store.Get(moodLastDateKey, &lastDateStr)
	if err != nil {
		return nil, err
	}

	streak := 1
	if hasLast {
		lastDate, perr := time.Parse(dateLayout, lastDateStr)
		if perr == nil {
			var prior int
			if _, err := t.store.Get(moodStreakKey, &prior); err != nil {
				return nil, err
			}
			switch gap := daysBetween(lastDate, today); {
			case gap == 0:
				if prior == 0 {
					prior = 1
				}
				streak = prior
			case gap == 1:
				streak = prior + 1
			}
		}
	}

	todayStr := dateOnly(today).Format(dateLayout)
	if err := t.store.Set(moodLastDateKey, todayStr); err != nil {
		return nil, err
	}
	if err := t.store.Set(moodStreakKey, streak); err != nil {
		return nil, err
	}
	if err := t.store.Set(moodTodayKey, label); err != nil {
		return nil, err
	}

	log.Info().Str("mood", label).Int("streak", streak).Msg("mood recorded")
	return &models.MoodEntry{Label: label, RecordedOn: todayStr, Streak: streak}, nil
}

func (t *DefaultMoodTracker) CurrentStreak() (int, error) {
	var streak int
	if _, err := t.store.Get(moodStreakKey, &streak); err != nil {
		return 0, err
	}
	return streak, nil
}

// TodaysMood returns the stored label only when it was recorded
// today; yesterday's mood must not surface as today's selection.
func (t *DefaultMoodTracker) TodaysMood(today time.Time) (string, bool, error) {
	var lastDateStr string
	ok, err := t.store.Get(moodLastDateKey, &lastDateStr)
	if err != nil || !ok {
		return "", false, err
	}
	if lastDateStr != dateOnly(today).Format(dateLayout) {
		return "", false, nil
	}
	var label string
	ok, err = t.store.Get(moodTodayKey, &label)
	if err != nil || !ok {
		return "", false, err
	}
	return label, true, nil
}
