package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

// numPerPage is the fixed page size for paginated listings.
const numPerPage = 10

type CourseService struct {
	Store store.Store
}

type CoursePage struct {
	Courses    []domain.Course
	Page       int
	TotalPages int
	PageSize   int
	TotalCount int
}

// List returns one page of the course catalog. Pages are 1-based; a page
// beyond the end is clamped to the last page rather than returned empty.
func (s *CourseService) List(ctx context.Context, f store.CourseFilter, page int) (CoursePage, error) {
	if page < 1 {
		page = 1
	}

	courses, total, err := s.Store.Courses().ListCourses(ctx, f, (page-1)*numPerPage, numPerPage)
	if err != nil {
		return CoursePage{}, fmt.Errorf("course: list: %w", err)
	}

	lastPage := (total + numPerPage - 1) / numPerPage
	if lastPage < 1 {
		lastPage = 1
	}
	if page > lastPage {
		page = lastPage
		courses, total, err = s.Store.Courses().ListCourses(ctx, f, (page-1)*numPerPage, numPerPage)
		if err != nil {
			return CoursePage{}, fmt.Errorf("course: list: %w", err)
		}
	}

	return CoursePage{
		Courses:    courses,
		Page:       page,
		TotalPages: lastPage,
		PageSize:   numPerPage,
		TotalCount: total,
	}, nil
}

func (s *CourseService) Get(ctx context.Context, courseID string) (domain.Course, error) {
	return s.Store.Courses().GetCourseByID(ctx, courseID)
}

// requireInstructor checks that id names an existing user holding the
// instructor role.
func (s *CourseService) requireInstructor(ctx context.Context, id string) error {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: instructor %s", ErrValidation, id)
		}
		return fmt.Errorf("course: load instructor: %w", err)
	}
	if u.Role != domain.RoleInstructor {
		return fmt.Errorf("%w: user %s is not an instructor", ErrValidation, id)
	}
	return nil
}

// Create inserts a new course. The instructor must exist and actually
// hold the instructor role.
func (s *CourseService) Create(ctx context.Context, c domain.Course) (string, error) {
	if err := s.requireInstructor(ctx, c.InstructorID); err != nil {
		return "", err
	}

	c.ID = idx.New().String()
	if err := s.Store.Courses().CreateCourse(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

// Update applies a partial course update. Reassigning the instructor is
// subject to the same role check as Create.
func (s *CourseService) Update(ctx context.Context, courseID string, upd domain.CourseUpdate) error {
	if upd.InstructorID != nil {
		if err := s.requireInstructor(ctx, *upd.InstructorID); err != nil {
			return err
		}
	}
	return s.Store.Courses().UpdateCourse(ctx, courseID, upd)
}

// Delete removes a course and, through cascading deletes, its enrollments,
// assignments and submissions.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	return s.Store.Courses().DeleteCourse(ctx, courseID)
}

// UpdateEnrollment applies removals before additions so a student present
// in both lists ends up enrolled.
func (s *CourseService) UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error {
	if _, err := s.Store.Courses().GetCourseByID(ctx, courseID); err != nil {
		return err
	}
	for _, id := range add {
		u, err := s.Store.Users().GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: unknown student %s", ErrValidation, id)
			}
			return fmt.Errorf("course: load student: %w", err)
		}
		if u.Role != domain.RoleStudent {
			return fmt.Errorf("%w: user %s is not a student", ErrValidation, id)
		}
	}
	return s.Store.Courses().UpdateEnrollment(ctx, courseID, add, remove)
}

// Roster returns the enrolled students of a course.
func (s *CourseService) Roster(ctx context.Context, courseID string) ([]domain.User, error) {
	if _, err := s.Store.Courses().GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.Store.Courses().GetRoster(ctx, courseID)
}
