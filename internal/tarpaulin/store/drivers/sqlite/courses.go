package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
)

type coursesRepo struct {
	db *sql.DB
}

const courseColumns = `id, subject, number, title, term, instructor_id, created_at, updated_at`

func (r *coursesRepo) GetCourseByID(ctx context.Context, id string) (domain.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)

	c, err := scanCourse(row)
	if err != nil {
		return domain.Course{}, err
	}

	students, err := r.studentIDs(ctx, id)
	if err != nil {
		return domain.Course{}, err
	}
	c.Students = students

	return c, nil
}

func scanCourse(row *sql.Row) (domain.Course, error) {
	var c domain.Course
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.Subject, &c.Number, &c.Title, &c.Term,
		&c.InstructorID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Course{}, mapNotFound(err)
	}

	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return c, nil
}

func (r *coursesRepo) studentIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT student_id FROM course_students WHERE course_id = ? ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *coursesRepo) ListCourses(ctx context.Context, f store.CourseFilter, offset, limit int) ([]domain.Course, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.Number != "" {
		where = append(where, "number = ?")
		args = append(args, f.Number)
	}
	if f.Term != "" {
		where = append(where, "term = ?")
		args = append(args, f.Term)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses`+clause+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		var createdAt, updatedAt int64
		if err := rows.Scan(&c.ID, &c.Subject, &c.Number, &c.Title, &c.Term,
			&c.InstructorID, &createdAt, &updatedAt); err != nil {
			return nil, 0, err
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

func (r *coursesRepo) CreateCourse(ctx context.Context, c domain.Course) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, subject, number, title, term, instructor_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Subject, c.Number, c.Title, c.Term, c.InstructorID, now, now)
	return err
}

func (r *coursesRepo) UpdateCourse(ctx context.Context, id string, upd domain.CourseUpdate) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)

	if upd.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *upd.Subject)
	}
	if upd.Number != nil {
		sets = append(sets, "number = ?")
		args = append(args, *upd.Number)
	}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Term != nil {
		sets = append(sets, "term = ?")
		args = append(args, *upd.Term)
	}
	if upd.InstructorID != nil {
		sets = append(sets, "instructor_id = ?")
		args = append(args, *upd.InstructorID)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *coursesRepo) DeleteCourse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateEnrollment applies removals then additions inside one transaction
// so a partial update is never observable.
func (r *coursesRepo) UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range remove {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM course_students WHERE course_id = ? AND student_id = ?`,
			courseID, id); err != nil {
			return err
		}
	}
	for _, id := range add {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO course_students (course_id, student_id) VALUES (?, ?)`,
			courseID, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *coursesRepo) GetRoster(ctx context.Context, courseID string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at
		 FROM users u
		 JOIN course_students cs ON cs.student_id = u.id
		 WHERE cs.course_id = ?
		 ORDER BY u.id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []domain.User
	for rows.Next() {
		var u domain.User
		var role string
		var createdAt, updatedAt int64
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		roster = append(roster, u)
	}
	return roster, rows.Err()
}
