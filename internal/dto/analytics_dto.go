package dto

import "time"

// AssignmentAnalytics summarizes grading progress for one assignment.
type AssignmentAnalytics struct {
	AssignmentID      uint      `json:"assignment_id"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	DueDate           time.Time `json:"due_date"`
	Submissions       int64     `json:"submissions"`
	Graded            int64     `json:"graded"`
	Pending           int64     `json:"pending"`
	Late              int64     `json:"late"`
	AveragePercentage float64   `json:"average_percentage"`
}

// TeacherAnalyticsResponse aggregates assignment metrics across a teacher's
// assignments.
type TeacherAnalyticsResponse struct {
	TotalAssignments int64                 `json:"total_assignments"`
	Published        int64                 `json:"published"`
	Draft            int64                 `json:"draft"`
	Expired          int64                 `json:"expired"`
	Assignments      []AssignmentAnalytics `json:"assignments"`
}
