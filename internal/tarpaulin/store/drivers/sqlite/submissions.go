package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
)

type submissionsRepo struct {
	db *sql.DB
}

const submissionColumns = `id, assignment_id, student_id, submitted_at, grade, filename, content_type`

func (r *submissionsRepo) CreateSubmission(ctx context.Context, s domain.Submission, data []byte) error {
	var grade sql.NullFloat64
	if s.Grade != nil {
		grade = sql.NullFloat64{Float64: *s.Grade, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO submissions (id, assignment_id, student_id, submitted_at, grade, filename, content_type, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AssignmentID, s.StudentID, s.SubmittedAt.Unix(), grade,
		s.Filename, s.ContentType, data)
	return err
}

func (r *submissionsRepo) GetSubmissionByID(ctx context.Context, id string) (domain.Submission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	return scanSubmission(row)
}

func (r *submissionsRepo) GetSubmissionFile(ctx context.Context, id string) (domain.Submission, []byte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+`, data FROM submissions WHERE id = ?`, id)

	var s domain.Submission
	var submittedAt int64
	var grade sql.NullFloat64
	var data []byte

	err := row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &submittedAt, &grade,
		&s.Filename, &s.ContentType, &data)
	if err != nil {
		return domain.Submission{}, nil, mapNotFound(err)
	}

	s.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	if grade.Valid {
		s.Grade = &grade.Float64
	}
	return s, data, nil
}

func (r *submissionsRepo) ListSubmissionsByAssignment(ctx context.Context, assignmentID string, offset, limit int) ([]domain.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE assignment_id = ?`, assignmentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE assignment_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		assignmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		var s domain.Submission
		var submittedAt int64
		var grade sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &submittedAt,
			&grade, &s.Filename, &s.ContentType); err != nil {
			return nil, 0, err
		}
		s.SubmittedAt = time.Unix(submittedAt, 0).UTC()
		if grade.Valid {
			s.Grade = &grade.Float64
		}
		submissions = append(submissions, s)
	}
	return submissions, total, rows.Err()
}

func scanSubmission(row *sql.Row) (domain.Submission, error) {
	var s domain.Submission
	var submittedAt int64
	var grade sql.NullFloat64

	err := row.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &submittedAt, &grade,
		&s.Filename, &s.ContentType)
	if err != nil {
		return domain.Submission{}, mapNotFound(err)
	}

	s.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	if grade.Valid {
		s.Grade = &grade.Float64
	}
	return s, nil
}
