package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestInsertReportsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := Record{
		SessionID:   "sess-1",
		StudentID:   "s1",
		StudentName: "Alice",
		Subject:     "Math",
		MarkedAt:    time.Now(),
		Status:      StatusPresent,
	}

	mock.ExpectExec("INSERT INTO attendance").
		WithArgs(rec.SessionID, rec.StudentID, rec.StudentName, rec.Subject, rec.MarkedAt, rec.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))
	inserted, err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	// ON CONFLICT DO NOTHING reports zero affected rows on the second try.
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs(rec.SessionID, rec.StudentID, rec.StudentName, rec.Subject, rec.MarkedAt, rec.Status).
		WillReturnResult(sqlmock.NewResult(0, 0))
	inserted, err = repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFilterComposition(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"session_id", "student_id", "student_name", "subject", "marked_at", "status"}
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	// No filters: no WHERE clause.
	mock.ExpectQuery(`FROM attendance\s+ORDER BY marked_at DESC`).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)

	// Date only: half-open day range.
	mock.ExpectQuery(`marked_at >= \$1 AND marked_at < \$2`).
		WithArgs(day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.List(context.Background(), Filter{Date: day.Add(13 * time.Hour)})
	require.NoError(t, err)

	// Subject only.
	mock.ExpectQuery(`subject = \$1`).
		WithArgs("Math").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.List(context.Background(), Filter{Subject: "Math"})
	require.NoError(t, err)

	// Both, ANDed.
	mock.ExpectQuery(`marked_at >= \$1 AND marked_at < \$2 AND subject = \$3`).
		WithArgs(day, day.AddDate(0, 0, 1), "Math").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.List(context.Background(), Filter{Date: day, Subject: "Math"})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForStudentScan(t *testing.T) {
	repo, mock := newMockRepo(t)
	marked := time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"session_id", "student_id", "student_name", "subject", "marked_at", "status"}).
		AddRow("sess-2", "s1", "Alice", "Physics", marked.Add(time.Hour), StatusPresent).
		AddRow("sess-1", "s1", "Alice", "Math", marked, StatusPresent)
	mock.ExpectQuery("FROM attendance").WithArgs("s1").WillReturnRows(rows)

	recs, err := repo.ListForStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Physics", recs[0].Subject)
	assert.Equal(t, "Math", recs[1].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctSubjects(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"subject"}).AddRow("Math").AddRow("Physics")
	mock.ExpectQuery("SELECT DISTINCT subject FROM attendance").WillReturnRows(rows)

	subjects, err := repo.DistinctSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "Physics"}, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}
