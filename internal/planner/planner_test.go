package planner

import (
	"errors"
	"testing"

	"github.com/sujith0466/Smart-Study-Buddy/internal/domain"
)

func TestRecommendedHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  float64
	}{
		{0, 10},
		{45, 5.5},
		{67, 3.3},
		{90, 1},
		{95, 1},
		{100, 1},
	}
	for _, tt := range tests {
		if got := RecommendedHours(tt.score); got != tt.want {
			t.Errorf("RecommendedHours(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	items, err := Generate([]string{" Math ", "Art"}, []int{40, 100})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := []domain.PlanItem{
		{Subject: "Math", Score: 40, Hours: 6},
		{Subject: "Art", Score: 100, Hours: 1},
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		scores   []int
		want     error
	}{
		{"no subjects", nil, nil, ErrNoSubjects},
		{"mismatch", []string{"a", "b"}, []int{1}, ErrLengthMismatch},
		{"negative", []string{"a"}, []int{-1}, ErrScoreOutOfRange},
		{"too high", []string{"a"}, []int{101}, ErrScoreOutOfRange},
		{"blank subject", []string{"  "}, []int{50}, ErrEmptySubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Generate(tt.subjects, tt.scores); !errors.Is(err, tt.want) {
				t.Fatalf("Generate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScheduleRoundRobin(t *testing.T) {
	t.Parallel()

	var items []domain.PlanItem
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		items = append(items, domain.PlanItem{Subject: s, Hours: 1})
	}
	days := Schedule(items)
	if len(days) != 7 {
		t.Fatalf("len(days) = %d, want 7", len(days))
	}
	if days[0].Day != "Monday" || len(days[0].Items) != 2 || days[0].Items[1].Subject != "h" {
		t.Errorf("Monday = %+v", days[0])
	}
	if days[1].Day != "Tuesday" || len(days[1].Items) != 2 || days[1].Items[1].Subject != "i" {
		t.Errorf("Tuesday = %+v", days[1])
	}
	if days[6].Day != "Sunday" || len(days[6].Items) != 1 {
		t.Errorf("Sunday = %+v", days[6])
	}
}

func TestScheduleSkipsEmptyDays(t *testing.T) {
	t.Parallel()

	days := Schedule([]domain.PlanItem{{Subject: "only"}})
	if len(days) != 1 || days[0].Day != "Monday" {
		t.Fatalf("Schedule() = %+v", days)
	}
	if Schedule(nil) != nil {
		t.Fatal("Schedule(nil) should be empty")
	}
}
