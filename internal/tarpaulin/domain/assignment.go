package domain

import "time"

type Assignment struct {
	ID        string
	CourseID  string
	Title     string
	Points    int
	Due       time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignmentUpdate carries the mutable assignment fields; nil means leave as-is.
type AssignmentUpdate struct {
	Title  *string
	Points *int
	Due    *time.Time
}
