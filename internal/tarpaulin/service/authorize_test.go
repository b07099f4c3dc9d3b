package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store/drivers/sqlite"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

func seedCourse(t *testing.T, st *sqlite.Store, instructorID string) domain.Course {
	t.Helper()

	c := domain.Course{
		ID:           idx.New().String(),
		Subject:      "CS",
		Number:       "493",
		Title:        "Cloud Application Development",
		Term:         "fa26",
		InstructorID: instructorID,
	}
	require.NoError(t, st.Courses().CreateCourse(context.Background(), c))
	return c
}

func seedAssignment(t *testing.T, st *sqlite.Store, courseID string) domain.Assignment {
	t.Helper()

	a := domain.Assignment{
		ID:       idx.New().String(),
		CourseID: courseID,
		Title:    "Assignment 1",
		Points:   100,
		Due:      time.Unix(1_800_000_000, 0).UTC(),
	}
	require.NoError(t, st.Assignments().CreateAssignment(context.Background(), a))
	return a
}

func seedSubmission(t *testing.T, st *sqlite.Store, assignmentID, studentID string) domain.Submission {
	t.Helper()

	s := domain.Submission{
		ID:           idx.New().String(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		SubmittedAt:  time.Now().UTC(),
		Filename:     "essay.pdf",
		ContentType:  "application/pdf",
	}
	require.NoError(t, st.Submissions().CreateSubmission(context.Background(), s, []byte("x")))
	return s
}

func identityOf(u domain.User) domain.Identity {
	return domain.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

func TestAuthorize(t *testing.T) {
	st := newTestStore(t)
	svc := service.NewAuthorizeService(st)
	ctx := context.Background()

	admin := seedUser(t, st, domain.RoleAdmin, "password-admin")
	owner := seedUser(t, st, domain.RoleInstructor, "password-owner")
	otherInstructor := seedUser(t, st, domain.RoleInstructor, "password-other")
	enrolled := seedUser(t, st, domain.RoleStudent, "password-enrolled")
	outsider := seedUser(t, st, domain.RoleStudent, "password-outsider")

	course := seedCourse(t, st, owner.ID)
	require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{enrolled.ID}, nil))
	assignment := seedAssignment(t, st, course.ID)
	submission := seedSubmission(t, st, assignment.ID, enrolled.ID)

	courseRef := domain.ResourceRef{CourseID: course.ID}
	assignmentRef := domain.ResourceRef{AssignmentID: assignment.ID}

	tests := []struct {
		name    string
		id      domain.Identity
		action  domain.Action
		ref     domain.ResourceRef
		wantErr error
	}{
		{"admin creates course", identityOf(admin), domain.ActionCreateCourse, domain.ResourceRef{}, nil},
		{"instructor cannot create course", identityOf(owner), domain.ActionCreateCourse, domain.ResourceRef{}, service.ErrWrongRole},
		{"student cannot create course", identityOf(enrolled), domain.ActionCreateCourse, domain.ResourceRef{}, service.ErrWrongRole},

		{"owner updates own course", identityOf(owner), domain.ActionUpdateCourse, courseRef, nil},
		{"admin updates any course", identityOf(admin), domain.ActionUpdateCourse, courseRef, nil},
		{"other instructor is not owner", identityOf(otherInstructor), domain.ActionUpdateCourse, courseRef, service.ErrNotOwner},
		{"student has wrong role for update", identityOf(enrolled), domain.ActionUpdateCourse, courseRef, service.ErrWrongRole},
		{"owner deletes own course", identityOf(owner), domain.ActionDeleteCourse, courseRef, nil},

		{"owner views roster", identityOf(owner), domain.ActionViewRoster, courseRef, nil},
		{"other instructor cannot view roster", identityOf(otherInstructor), domain.ActionViewRoster, courseRef, service.ErrNotOwner},

		{"owner creates assignment", identityOf(owner), domain.ActionCreateAssignment, courseRef, nil},
		{"other instructor cannot create assignment", identityOf(otherInstructor), domain.ActionCreateAssignment, courseRef, service.ErrNotOwner},

		{"owner updates assignment", identityOf(owner), domain.ActionUpdateAssignment, assignmentRef, nil},
		{"other instructor cannot delete assignment", identityOf(otherInstructor), domain.ActionDeleteAssignment, assignmentRef, service.ErrNotOwner},
		{"owner lists submissions", identityOf(owner), domain.ActionListSubmissions, assignmentRef, nil},
		{"student cannot list submissions", identityOf(enrolled), domain.ActionListSubmissions, assignmentRef, service.ErrWrongRole},

		{"enrolled student submits", identityOf(enrolled), domain.ActionCreateSubmission, assignmentRef, nil},
		{"unenrolled student cannot submit", identityOf(outsider), domain.ActionCreateSubmission, assignmentRef, service.ErrNotEnrolled},
		{"instructor has wrong role to submit", identityOf(owner), domain.ActionCreateSubmission, assignmentRef, service.ErrWrongRole},
		{"admin may submit anywhere", identityOf(admin), domain.ActionCreateSubmission, assignmentRef, nil},

		{"owning student downloads own file", identityOf(enrolled), domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: submission.ID}, nil},
		{"other student cannot download", identityOf(outsider), domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: submission.ID}, service.ErrNotOwner},
		{"course instructor downloads", identityOf(owner), domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: submission.ID}, nil},
		{"unrelated instructor cannot download", identityOf(otherInstructor), domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: submission.ID}, service.ErrNotOwner},

		{"self views own profile", identityOf(enrolled), domain.ActionViewUser, domain.ResourceRef{UserID: enrolled.ID}, nil},
		{"admin views any profile", identityOf(admin), domain.ActionViewUser, domain.ResourceRef{UserID: enrolled.ID}, nil},
		{"others cannot view profile", identityOf(outsider), domain.ActionViewUser, domain.ResourceRef{UserID: enrolled.ID}, service.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(ctx, tt.id, tt.action, tt.ref)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeMissingResource(t *testing.T) {
	st := newTestStore(t)
	svc := service.NewAuthorizeService(st)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor, "password1234")
	student := seedUser(t, st, domain.RoleStudent, "password5678")

	missingCourse := domain.ResourceRef{CourseID: "missing"}
	missingAssignment := domain.ResourceRef{AssignmentID: "missing"}

	// Existence wins over role: a missing parent is reported as not found
	// for every caller, so 404s stay consistent across roles.
	t.Run("missing course beats role denial", func(t *testing.T) {
		err := svc.Authorize(ctx, identityOf(student), domain.ActionUpdateCourse, missingCourse)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing course for instructor", func(t *testing.T) {
		err := svc.Authorize(ctx, identityOf(instructor), domain.ActionCreateAssignment, missingCourse)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing assignment", func(t *testing.T) {
		err := svc.Authorize(ctx, identityOf(student), domain.ActionCreateSubmission, missingAssignment)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing submission", func(t *testing.T) {
		err := svc.Authorize(ctx, identityOf(student), domain.ActionDownloadFile, domain.ResourceRef{SubmissionID: "missing"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
