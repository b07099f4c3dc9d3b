package domain

import "time"

type Course struct {
	ID           string
	Subject      string
	Number       string
	Title        string
	Term         string
	InstructorID string
	Students     []string // enrolled student user IDs
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsEnrolled reports whether the given user is in the course's student set.
func (c Course) IsEnrolled(userID string) bool {
	for _, s := range c.Students {
		if s == userID {
			return true
		}
	}
	return false
}

// CourseUpdate carries the mutable course fields; nil means leave as-is.
type CourseUpdate struct {
	Subject      *string
	Number       *string
	Title        *string
	Term         *string
	InstructorID *string
}
