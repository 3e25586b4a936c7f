package domain

import "time"

// Progress tracks one user's attempts at one assignment. A single row
// exists per (user, assignment) pair.
type Progress struct {
	UserID       string     `json:"userId"`
	AssignmentID string     `json:"assignmentId"`
	LastQuery    string     `json:"lastQuery"`
	Attempts     int        `json:"attempts"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
