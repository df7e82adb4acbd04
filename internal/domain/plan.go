package domain

import "time"

// Weekdays lists the days a weekly schedule is spread over, in order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// PlanItem is the recommended weekly study time for one subject.
type PlanItem struct {
	Subject string  `json:"subject"`
	Score   int     `json:"score"`
	Hours   float64 `json:"hours"`
}

// DaySchedule groups the plan items assigned to one weekday.
type DaySchedule struct {
	Day   string     `json:"day"`
	Items []PlanItem `json:"items"`
}

// StudyPlan is a generated plan together with its weekly schedule.
type StudyPlan struct {
	ID        int64         `json:"id"`
	UserID    string        `json:"user_id"`
	Method    string        `json:"method"`
	Items     []PlanItem    `json:"items"`
	Schedule  []DaySchedule `json:"schedule"`
	CreatedAt time.Time     `json:"created_at"`
}

// TotalHours sums the recommended hours of every item.
func (p *StudyPlan) TotalHours() float64 {
	var total float64
	for _, it := range p.Items {
		total += it.Hours
	}
	return total
}
