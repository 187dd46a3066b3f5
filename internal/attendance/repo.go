package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a record unless one already exists for its composite key.
// The returned bool is false on conflict. The unique insert is the
// serialization point: two concurrent marks for the same key cannot both see
// true, regardless of interleaving.
func (r *Repository) Insert(ctx context.Context, rec Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (session_id, student_id, student_name, subject, marked_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, student_id) DO NOTHING
	`, rec.SessionID, rec.StudentID, rec.StudentName, rec.Subject, rec.MarkedAt, rec.Status)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return n == 1, nil
}

// ListForStudent returns a student's records, newest first.
func (r *Repository) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, student_id, student_name, subject, marked_at, status
		FROM attendance
		WHERE student_id = $1
		ORDER BY marked_at DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance for student: %w", err)
	}
	return collect(rows)
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `
		SELECT session_id, student_id, student_name, subject, marked_at, status
		FROM attendance`
	args := []any{}
	clauses := []string{}
	if !f.Date.IsZero() {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		clauses = append(clauses, fmt.Sprintf("marked_at >= $%d", len(args)+1))
		args = append(args, day)
		clauses = append(clauses, fmt.Sprintf("marked_at < $%d", len(args)+1))
		args = append(args, day.AddDate(0, 0, 1))
	}
	if f.Subject != "" {
		clauses = append(clauses, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, f.Subject)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY marked_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return collect(rows)
}

// ListSince returns records stamped at or after cutoff, newest first.
func (r *Repository) ListSince(ctx context.Context, cutoff time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, student_id, student_name, subject, marked_at, status
		FROM attendance
		WHERE marked_at >= $1
		ORDER BY marked_at DESC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list attendance since: %w", err)
	}
	return collect(rows)
}

// DistinctSubjects returns every subject appearing in the ledger. Used to
// rebuild the filter-dropdown index when redis is cold.
func (r *Repository) DistinctSubjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT subject FROM attendance`)
	if err != nil {
		return nil, fmt.Errorf("distinct subjects: %w", err)
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func collect(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.SessionID, &rec.StudentID, &rec.StudentName, &rec.Subject, &rec.MarkedAt, &rec.Status); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
