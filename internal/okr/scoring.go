// Package okr holds the closed-form scoring and quarter arithmetic the
// rest of the service builds on.
package okr

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/klarwerk/zielbord/internal/database/models"
)

// Business limits.
const (
	MaxActiveOKRsPerQuarter = 5
	MaxFocusOKRs            = 2
	CheckinIntervalDays     = 14
	TargetScore             = 0.7
	MinOKRsForLevelUp       = 4
)

var ErrInvalidQuarter = errors.New("invalid quarter")

// ProgressToScore converts a 0-100 progress value into a 0.0-1.0 score.
func ProgressToScore(progress float64) float64 {
	score := progress / 100
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ClampProgress bounds a progress value to [0,100].
func ClampProgress(progress float64) float64 {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// parseQuarter splits a "Q{1-4} {year}" label into its parts.
func parseQuarter(quarter string) (q int, year int, err error) {
	if _, err := fmt.Sscanf(quarter, "Q%d %d", &q, &year); err != nil {
		return 0, 0, ErrInvalidQuarter
	}
	if q < 1 || q > 4 || year < 1 {
		return 0, 0, ErrInvalidQuarter
	}
	return q, year, nil
}

// CurrentQuarter derives the quarter label from a wall-clock instant.
func CurrentQuarter(now time.Time) string {
	q := (int(now.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d %d", q, now.Year())
}

// NextQuarter rolls the year on Q4 wraparound.
func NextQuarter(quarter string) (string, error) {
	q, year, err := parseQuarter(quarter)
	if err != nil {
		return "", err
	}
	if q == 4 {
		return fmt.Sprintf("Q1 %d", year+1), nil
	}
	return fmt.Sprintf("Q%d %d", q+1, year), nil
}

// PreviousQuarter rolls the year back on Q1 wraparound.
func PreviousQuarter(quarter string) (string, error) {
	q, year, err := parseQuarter(quarter)
	if err != nil {
		return "", err
	}
	if q == 1 {
		return fmt.Sprintf("Q4 %d", year-1), nil
	}
	return fmt.Sprintf("Q%d %d", q-1, year), nil
}

// QuarterDateRange maps a quarter label to its calendar start and end
// instants (end is the last nanosecond of the quarter, UTC).
func QuarterDateRange(quarter string) (start, end time.Time, err error) {
	q, year, err := parseQuarter(quarter)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startMonth := time.Month((q-1)*3 + 1)
	start = time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 3, 0).Add(-time.Nanosecond)
	return start, end, nil
}

// KeyResultProgress derives a key result's progress ratio from its value
// range, clamped to [0,1]. A zero-width range counts as done once the
// current value reaches the target.
func KeyResultProgress(kr *models.KeyResult) float64 {
	span := kr.TargetValue - kr.StartValue
	if span == 0 {
		if kr.CurrentValue >= kr.TargetValue {
			return 1
		}
		return 0
	}
	ratio := (kr.CurrentValue - kr.StartValue) / span
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// AggregateProgress computes an OKR's 0-100 progress as the rounded
// mean of its key results' ratios. With no key results the stored
// progress stands.
func AggregateProgress(krs []models.KeyResult) (float64, bool) {
	if len(krs) == 0 {
		return 0, false
	}
	var sum float64
	for i := range krs {
		sum += KeyResultProgress(&krs[i])
	}
	return math.Round(sum / float64(len(krs)) * 100), true
}
