package domain

import "time"

// Submission is the metadata for one uploaded assignment file. The file
// bytes are stored and fetched separately so listings stay cheap.
type Submission struct {
	ID           string
	AssignmentID string
	StudentID    string
	SubmittedAt  time.Time
	Grade        *float64 // nil until graded
	Filename     string
	ContentType  string
}
