// Package planner turns past scores into recommended study hours and a
// weekly schedule.
package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
)

var (
	// ErrNoSubjects is returned when a plan is requested for no subjects.
	ErrNoSubjects = errors.New("at least one subject is required")
	// ErrLengthMismatch is returned when subjects and scores differ in length.
	ErrLengthMismatch = errors.New("subjects and scores must have the same length")
	// ErrScoreOutOfRange is returned for scores outside 0..100.
	ErrScoreOutOfRange = errors.New("scores must be between 0 and 100")
	// ErrEmptySubject is returned for a blank subject name.
	ErrEmptySubject = errors.New("subject names cannot be empty")
)

// RecommendedHours returns the weekly hours for a past score: one hour per
// ten points below 100, at least one hour, rounded to one decimal.
func RecommendedHours(score int) float64 {
	hours := math.Max(1, float64(100-score)/10)
	return math.Round(hours*10) / 10
}

// Generate builds plan items for parallel subject and score lists.
func Generate(subjects []string, scores []int) ([]domain.PlanItem, error) {
	if len(subjects) == 0 {
		return nil, ErrNoSubjects
	}
	if len(subjects) != len(scores) {
		return nil, fmt.Errorf("%w: %d subjects, %d scores", ErrLengthMismatch, len(subjects), len(scores))
	}

	items := make([]domain.PlanItem, 0, len(subjects))
	for i, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			return nil, fmt.Errorf("subject #%d: %w", i+1, ErrEmptySubject)
		}
		score := scores[i]
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("%s score %d: %w", subject, score, ErrScoreOutOfRange)
		}
		items = append(items, domain.PlanItem{Subject: subject, Score: score, Hours: RecommendedHours(score)})
	}
	return items, nil
}

// Schedule assigns items to weekdays round-robin starting on Monday. Days
// without items are omitted; order follows the week.
func Schedule(items []domain.PlanItem) []domain.DaySchedule {
	byDay := make([][]domain.PlanItem, len(domain.Weekdays))
	for i, it := range items {
		d := i % len(domain.Weekdays)
		byDay[d] = append(byDay[d], it)
	}

	var out []domain.DaySchedule
	for d, dayItems := range byDay {
		if len(dayItems) == 0 {
			continue
		}
		out = append(out, domain.DaySchedule{Day: domain.Weekdays[d], Items: dayItems})
	}
	return out
}
