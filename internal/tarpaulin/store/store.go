package store

import (
	"context"
	"errors"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Users() Users
	Courses() Courses
	Assignments() Assignments
	Submissions() Submissions

	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// CourseIDsTaught returns the IDs of courses the user instructs.
	CourseIDsTaught(ctx context.Context, userID string) ([]string, error)

	// CourseIDsEnrolled returns the IDs of courses the user is enrolled in.
	CourseIDsEnrolled(ctx context.Context, userID string) ([]string, error)
}

// CourseFilter narrows ListCourses; empty fields match everything.
type CourseFilter struct {
	Subject string
	Number  string
	Term    string
}

type Courses interface {
	// GetCourseByID returns a course with its enrolled student set.
	GetCourseByID(ctx context.Context, id string) (domain.Course, error)

	// ListCourses returns one page of courses plus the total match count.
	ListCourses(ctx context.Context, f CourseFilter, offset, limit int) ([]domain.Course, int, error)

	// CreateCourse inserts a new course.
	CreateCourse(ctx context.Context, c domain.Course) error

	// UpdateCourse applies the non-nil fields of upd.
	UpdateCourse(ctx context.Context, id string, upd domain.CourseUpdate) error

	// DeleteCourse removes a course; assignments, submissions and
	// enrollments cascade per schema.
	DeleteCourse(ctx context.Context, id string) error

	// UpdateEnrollment removes then adds student IDs atomically.
	// Already-enrolled adds are ignored.
	UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error

	// GetRoster returns the enrolled students as full user records.
	GetRoster(ctx context.Context, courseID string) ([]domain.User, error)
}

type Assignments interface {
	GetAssignmentByID(ctx context.Context, id string) (domain.Assignment, error)

	// ListAssignmentsByCourse returns all assignments for a course.
	ListAssignmentsByCourse(ctx context.Context, courseID string) ([]domain.Assignment, error)

	CreateAssignment(ctx context.Context, a domain.Assignment) error

	// UpdateAssignment applies the non-nil fields of upd.
	UpdateAssignment(ctx context.Context, id string, upd domain.AssignmentUpdate) error

	// DeleteAssignment removes an assignment; its submissions cascade.
	DeleteAssignment(ctx context.Context, id string) error
}

type Submissions interface {
	// CreateSubmission stores the metadata and file bytes together.
	CreateSubmission(ctx context.Context, s domain.Submission, data []byte) error

	GetSubmissionByID(ctx context.Context, id string) (domain.Submission, error)

	// GetSubmissionFile returns the metadata plus the stored file bytes.
	GetSubmissionFile(ctx context.Context, id string) (domain.Submission, []byte, error)

	// ListSubmissionsByAssignment returns one page plus the total count.
	ListSubmissionsByAssignment(ctx context.Context, assignmentID string, offset, limit int) ([]domain.Submission, int, error)
}
