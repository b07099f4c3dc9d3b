package service

import (
	"context"
	"fmt"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

type AssignmentService struct {
	Store store.Store
}

type SubmissionPage struct {
	Submissions []domain.Submission
	Page        int
	TotalPages  int
	PageSize    int
	TotalCount  int
}

func (s *AssignmentService) Get(ctx context.Context, assignmentID string) (domain.Assignment, error) {
	return s.Store.Assignments().GetAssignmentByID(ctx, assignmentID)
}

func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]domain.Assignment, error) {
	if _, err := s.Store.Courses().GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.Store.Assignments().ListAssignmentsByCourse(ctx, courseID)
}

func (s *AssignmentService) Create(ctx context.Context, a domain.Assignment) (string, error) {
	a.ID = idx.New().String()
	if err := s.Store.Assignments().CreateAssignment(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *AssignmentService) Update(ctx context.Context, assignmentID string, upd domain.AssignmentUpdate) error {
	return s.Store.Assignments().UpdateAssignment(ctx, assignmentID, upd)
}

// Delete removes an assignment and, through cascading deletes, its
// submissions.
func (s *AssignmentService) Delete(ctx context.Context, assignmentID string) error {
	return s.Store.Assignments().DeleteAssignment(ctx, assignmentID)
}

// ListSubmissions returns one page of an assignment's submissions, with
// the same 1-based clamped paging as the course catalog.
func (s *AssignmentService) ListSubmissions(ctx context.Context, assignmentID string, page int) (SubmissionPage, error) {
	if _, err := s.Store.Assignments().GetAssignmentByID(ctx, assignmentID); err != nil {
		return SubmissionPage{}, err
	}

	if page < 1 {
		page = 1
	}

	subs, total, err := s.Store.Submissions().ListSubmissionsByAssignment(ctx, assignmentID, (page-1)*numPerPage, numPerPage)
	if err != nil {
		return SubmissionPage{}, fmt.Errorf("assignment: list submissions: %w", err)
	}

	lastPage := (total + numPerPage - 1) / numPerPage
	if lastPage < 1 {
		lastPage = 1
	}
	if page > lastPage {
		page = lastPage
		subs, total, err = s.Store.Submissions().ListSubmissionsByAssignment(ctx, assignmentID, (page-1)*numPerPage, numPerPage)
		if err != nil {
			return SubmissionPage{}, fmt.Errorf("assignment: list submissions: %w", err)
		}
	}

	return SubmissionPage{
		Submissions: subs,
		Page:        page,
		TotalPages:  lastPage,
		PageSize:    numPerPage,
		TotalCount:  total,
	}, nil
}
