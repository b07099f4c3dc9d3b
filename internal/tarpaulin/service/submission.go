package service

import (
	"context"
	"time"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

type SubmissionService struct {
	Store store.Store
}

// Create stores a new submission together with its uploaded file.
func (s *SubmissionService) Create(ctx context.Context, assignmentID, studentID, filename, contentType string, data []byte) (string, error) {
	sub := domain.Submission{
		ID:           idx.New().String(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		SubmittedAt:  time.Now().UTC(),
		Filename:     filename,
		ContentType:  contentType,
	}
	if err := s.Store.Submissions().CreateSubmission(ctx, sub, data); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (s *SubmissionService) Get(ctx context.Context, submissionID string) (domain.Submission, error) {
	return s.Store.Submissions().GetSubmissionByID(ctx, submissionID)
}

// GetFile returns the submission metadata and the stored file bytes.
func (s *SubmissionService) GetFile(ctx context.Context, submissionID string) (domain.Submission, []byte, error) {
	return s.Store.Submissions().GetSubmissionFile(ctx, submissionID)
}
