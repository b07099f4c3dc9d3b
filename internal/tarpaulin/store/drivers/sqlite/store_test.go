package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store/drivers/sqlite"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, role domain.Role) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Test " + string(role),
		Email:        idx.New().String() + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         role,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

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

func TestUsersRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, domain.RoleStudent)

	t.Run("get by id", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, domain.RoleStudent, got.Role)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})
}

func TestUsersCourseLinks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	student := seedUser(t, st, domain.RoleStudent)
	course := seedCourse(t, st, instructor.ID)

	require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{student.ID}, nil))

	taught, err := st.Users().CourseIDsTaught(ctx, instructor.ID)
	require.NoError(t, err)
	require.Equal(t, []string{course.ID}, taught)

	enrolled, err := st.Users().CourseIDsEnrolled(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, []string{course.ID}, enrolled)
}

func TestCoursesRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	course := seedCourse(t, st, instructor.ID)

	t.Run("get includes students", func(t *testing.T) {
		student := seedUser(t, st, domain.RoleStudent)
		require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{student.ID}, nil))

		got, err := st.Courses().GetCourseByID(ctx, course.ID)
		require.NoError(t, err)
		require.Equal(t, course.Title, got.Title)
		require.Contains(t, got.Students, student.ID)
	})

	t.Run("partial update", func(t *testing.T) {
		title := "Renamed"
		require.NoError(t, st.Courses().UpdateCourse(ctx, course.ID, domain.CourseUpdate{Title: &title}))

		got, err := st.Courses().GetCourseByID(ctx, course.ID)
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Title)
		require.Equal(t, course.Subject, got.Subject, "untouched fields survive")
	})

	t.Run("update missing course", func(t *testing.T) {
		title := "x"
		err := st.Courses().UpdateCourse(ctx, "nope", domain.CourseUpdate{Title: &title})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing course", func(t *testing.T) {
		require.ErrorIs(t, st.Courses().DeleteCourse(ctx, "nope"), store.ErrNotFound)
	})
}

func TestListCourses(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	for i := 0; i < 12; i++ {
		c := domain.Course{
			ID:           idx.New().String(),
			Subject:      "CS",
			Number:       "493",
			Title:        "Section",
			Term:         "fa26",
			InstructorID: instructor.ID,
		}
		if i >= 10 {
			c.Subject = "MTH"
		}
		require.NoError(t, st.Courses().CreateCourse(ctx, c))
	}

	t.Run("pagination and total", func(t *testing.T) {
		page, total, err := st.Courses().ListCourses(ctx, store.CourseFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 10)
		require.Equal(t, 12, total)

		rest, _, err := st.Courses().ListCourses(ctx, store.CourseFilter{}, 10, 10)
		require.NoError(t, err)
		require.Len(t, rest, 2)
	})

	t.Run("subject filter", func(t *testing.T) {
		page, total, err := st.Courses().ListCourses(ctx, store.CourseFilter{Subject: "MTH"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, 2, total)
	})

	t.Run("no matches", func(t *testing.T) {
		page, total, err := st.Courses().ListCourses(ctx, store.CourseFilter{Term: "wi99"}, 0, 10)
		require.NoError(t, err)
		require.Empty(t, page)
		require.Zero(t, total)
	})
}

func TestEnrollment(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	course := seedCourse(t, st, instructor.ID)
	alice := seedUser(t, st, domain.RoleStudent)
	bob := seedUser(t, st, domain.RoleStudent)

	require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{alice.ID, bob.ID}, nil))

	t.Run("adding twice is a no-op", func(t *testing.T) {
		require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{alice.ID}, nil))

		got, err := st.Courses().GetCourseByID(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, got.Students, 2)
	})

	t.Run("remove before add", func(t *testing.T) {
		// A student in both lists must end up enrolled.
		require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{bob.ID}, []string{bob.ID}))

		got, err := st.Courses().GetCourseByID(ctx, course.ID)
		require.NoError(t, err)
		require.Contains(t, got.Students, bob.ID)
	})

	t.Run("roster", func(t *testing.T) {
		roster, err := st.Courses().GetRoster(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, roster, 2)
		for _, s := range roster {
			require.Equal(t, domain.RoleStudent, s.Role)
			require.NotEmpty(t, s.Email)
		}
	})
}

func TestAssignmentsRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	course := seedCourse(t, st, instructor.ID)
	assignment := seedAssignment(t, st, course.ID)

	t.Run("get", func(t *testing.T) {
		got, err := st.Assignments().GetAssignmentByID(ctx, assignment.ID)
		require.NoError(t, err)
		require.Equal(t, assignment.Title, got.Title)
		require.Equal(t, assignment.Due.Unix(), got.Due.Unix())
	})

	t.Run("list by course", func(t *testing.T) {
		seedAssignment(t, st, course.ID)

		list, err := st.Assignments().ListAssignmentsByCourse(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("partial update", func(t *testing.T) {
		points := 50
		require.NoError(t, st.Assignments().UpdateAssignment(ctx, assignment.ID, domain.AssignmentUpdate{Points: &points}))

		got, err := st.Assignments().GetAssignmentByID(ctx, assignment.ID)
		require.NoError(t, err)
		require.Equal(t, 50, got.Points)
		require.Equal(t, assignment.Title, got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Assignments().DeleteAssignment(ctx, assignment.ID))
		_, err := st.Assignments().GetAssignmentByID(ctx, assignment.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSubmissionsRepo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	student := seedUser(t, st, domain.RoleStudent)
	course := seedCourse(t, st, instructor.ID)
	assignment := seedAssignment(t, st, course.ID)

	sub := domain.Submission{
		ID:           idx.New().String(),
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		SubmittedAt:  time.Unix(1_750_000_000, 0).UTC(),
		Filename:     "essay.pdf",
		ContentType:  "application/pdf",
	}
	require.NoError(t, st.Submissions().CreateSubmission(ctx, sub, []byte("file contents")))

	t.Run("get metadata", func(t *testing.T) {
		got, err := st.Submissions().GetSubmissionByID(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, student.ID, got.StudentID)
		require.Nil(t, got.Grade)
	})

	t.Run("get file", func(t *testing.T) {
		got, data, err := st.Submissions().GetSubmissionFile(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, "essay.pdf", got.Filename)
		require.Equal(t, []byte("file contents"), data)
	})

	t.Run("list with total", func(t *testing.T) {
		list, total, err := st.Submissions().ListSubmissionsByAssignment(ctx, assignment.ID, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, 1, total)
	})
}

func TestDeleteCourseCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	instructor := seedUser(t, st, domain.RoleInstructor)
	student := seedUser(t, st, domain.RoleStudent)
	course := seedCourse(t, st, instructor.ID)
	assignment := seedAssignment(t, st, course.ID)

	require.NoError(t, st.Courses().UpdateEnrollment(ctx, course.ID, []string{student.ID}, nil))

	sub := domain.Submission{
		ID:           idx.New().String(),
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		SubmittedAt:  time.Now().UTC(),
		Filename:     "essay.pdf",
		ContentType:  "application/pdf",
	}
	require.NoError(t, st.Submissions().CreateSubmission(ctx, sub, []byte("x")))

	require.NoError(t, st.Courses().DeleteCourse(ctx, course.ID))

	_, err := st.Assignments().GetAssignmentByID(ctx, assignment.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "assignments cascade")

	_, err = st.Submissions().GetSubmissionByID(ctx, sub.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "submissions cascade")

	enrolled, err := st.Users().CourseIDsEnrolled(ctx, student.ID)
	require.NoError(t, err)
	require.Empty(t, enrolled, "enrollments cascade")

	// The student account itself survives.
	_, err = st.Users().GetUserByID(ctx, student.ID)
	require.NoError(t, err)
}
