package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
)

// AuthorizeService evaluates the per-resource authorization policy. The
// policy is a flat table from action to predicate; admin passes every
// predicate.
//
// Ordering is fixed: the target resource is resolved before any role or
// ownership check, so a missing course/assignment/submission yields "not
// found" for every caller. That keeps how much a denial reveals about
// resource existence identical across roles.
type AuthorizeService struct {
	store store.Store
	rules map[domain.Action]rule
}

type rule func(ctx context.Context, id domain.Identity, ref domain.ResourceRef) error

func NewAuthorizeService(st store.Store) *AuthorizeService {
	s := &AuthorizeService{store: st}
	s.rules = map[domain.Action]rule{
		domain.ActionCreateCourse:     s.adminOnly,
		domain.ActionUpdateCourse:     s.courseOwner,
		domain.ActionDeleteCourse:     s.courseOwner,
		domain.ActionViewRoster:       s.courseOwner,
		domain.ActionCreateAssignment: s.courseOwner,
		domain.ActionUpdateAssignment: s.assignmentCourseOwner,
		domain.ActionDeleteAssignment: s.assignmentCourseOwner,
		domain.ActionListSubmissions:  s.assignmentCourseOwner,
		domain.ActionCreateSubmission: s.enrolledStudent,
		domain.ActionDownloadFile:     s.submissionParticipant,
		domain.ActionViewUser:         s.selfOnly,
	}
	return s
}

// Authorize decides whether identity may perform action on the referenced
// resource. A nil return means allow; denials are the sentinel errors
// ErrWrongRole, ErrNotOwner, ErrNotEnrolled or store.ErrNotFound.
func (s *AuthorizeService) Authorize(ctx context.Context, id domain.Identity, action domain.Action, ref domain.ResourceRef) error {
	r, ok := s.rules[action]
	if !ok {
		return fmt.Errorf("authorize: unknown action %q", action)
	}
	return r(ctx, id, ref)
}

func (s *AuthorizeService) adminOnly(_ context.Context, id domain.Identity, _ domain.ResourceRef) error {
	if id.IsAdmin() {
		return nil
	}
	return ErrWrongRole
}

// courseOwner: admin, or the instructor recorded on the course.
func (s *AuthorizeService) courseOwner(ctx context.Context, id domain.Identity, ref domain.ResourceRef) error {
	course, err := s.loadCourse(ctx, ref.CourseID)
	if err != nil {
		return err
	}
	return s.requireCourseOwner(id, course)
}

// assignmentCourseOwner resolves the assignment to its owning course first.
func (s *AuthorizeService) assignmentCourseOwner(ctx context.Context, id domain.Identity, ref domain.ResourceRef) error {
	course, err := s.loadAssignmentCourse(ctx, ref.AssignmentID)
	if err != nil {
		return err
	}
	return s.requireCourseOwner(id, course)
}

// enrolledStudent: admin, or a student enrolled in the assignment's course.
func (s *AuthorizeService) enrolledStudent(ctx context.Context, id domain.Identity, ref domain.ResourceRef) error {
	course, err := s.loadAssignmentCourse(ctx, ref.AssignmentID)
	if err != nil {
		return err
	}
	if id.IsAdmin() {
		return nil
	}
	if id.Role != domain.RoleStudent {
		return ErrWrongRole
	}
	if !course.IsEnrolled(id.ID) {
		return ErrNotEnrolled
	}
	return nil
}

// submissionParticipant: admin, the submitting student, or the instructor
// of the owning course.
func (s *AuthorizeService) submissionParticipant(ctx context.Context, id domain.Identity, ref domain.ResourceRef) error {
	sub, err := s.store.Submissions().GetSubmissionByID(ctx, ref.SubmissionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("authorize: load submission: %w", err)
	}

	if id.IsAdmin() {
		return nil
	}

	switch id.Role {
	case domain.RoleStudent:
		if sub.StudentID == id.ID {
			return nil
		}
		return ErrNotOwner
	case domain.RoleInstructor:
		course, err := s.loadAssignmentCourse(ctx, sub.AssignmentID)
		if err != nil {
			return err
		}
		if course.InstructorID == id.ID {
			return nil
		}
		return ErrNotOwner
	default:
		return ErrWrongRole
	}
}

// selfOnly: the user themselves, or admin.
func (s *AuthorizeService) selfOnly(_ context.Context, id domain.Identity, ref domain.ResourceRef) error {
	if id.IsAdmin() || id.ID == ref.UserID {
		return nil
	}
	return ErrNotOwner
}

func (s *AuthorizeService) requireCourseOwner(id domain.Identity, course domain.Course) error {
	if id.IsAdmin() {
		return nil
	}
	if id.Role != domain.RoleInstructor {
		return ErrWrongRole
	}
	if course.InstructorID != id.ID {
		return ErrNotOwner
	}
	return nil
}

func (s *AuthorizeService) loadCourse(ctx context.Context, courseID string) (domain.Course, error) {
	course, err := s.store.Courses().GetCourseByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Course{}, err
		}
		return domain.Course{}, fmt.Errorf("authorize: load course: %w", err)
	}
	return course, nil
}

func (s *AuthorizeService) loadAssignmentCourse(ctx context.Context, assignmentID string) (domain.Course, error) {
	assignment, err := s.store.Assignments().GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Course{}, err
		}
		return domain.Course{}, fmt.Errorf("authorize: load assignment: %w", err)
	}
	return s.loadCourse(ctx, assignment.CourseID)
}
