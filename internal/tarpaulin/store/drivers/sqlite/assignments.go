package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
)

type assignmentsRepo struct {
	db *sql.DB
}

const assignmentColumns = `id, course_id, title, points, due, created_at, updated_at`

func (r *assignmentsRepo) GetAssignmentByID(ctx context.Context, id string) (domain.Assignment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)

	var a domain.Assignment
	var due, createdAt, updatedAt int64
	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Points, &due, &createdAt, &updatedAt)
	if err != nil {
		return domain.Assignment{}, mapNotFound(err)
	}

	a.Due = time.Unix(due, 0).UTC()
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return a, nil
}

func (r *assignmentsRepo) ListAssignmentsByCourse(ctx context.Context, courseID string) ([]domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE course_id = ? ORDER BY id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var due, createdAt, updatedAt int64
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Points, &due,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.Due = time.Unix(due, 0).UTC()
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *assignmentsRepo) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assignments (id, course_id, title, points, due, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CourseID, a.Title, a.Points, a.Due.Unix(), now, now)
	return err
}

func (r *assignmentsRepo) UpdateAssignment(ctx context.Context, id string, upd domain.AssignmentUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Points != nil {
		sets = append(sets, "points = ?")
		args = append(args, *upd.Points)
	}
	if upd.Due != nil {
		sets = append(sets, "due = ?")
		args = append(args, upd.Due.Unix())
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
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

func (r *assignmentsRepo) DeleteAssignment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
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
