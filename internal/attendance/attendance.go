package attendance

import (
	"errors"
	"time"
)

// StatusPresent is the only status the system ever records.
const StatusPresent = "present"

// Record is one student's confirmed presence for one session. The
// (SessionID, StudentID) pair is the storage key: at most one record can ever
// exist for it, and records are never updated or deleted.
type Record struct {
	SessionID   string    `json:"session_id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Subject     string    `json:"subject"`
	MarkedAt    time.Time `json:"marked_at"`
	Status      string    `json:"status"`
}

var (
	// ErrInvalidSession means the scanned code does not name a known session.
	ErrInvalidSession = errors.New("invalid session code")
	// ErrSessionExpired means the session's acceptance window has passed.
	ErrSessionExpired = errors.New("session expired")
	// ErrAlreadyMarked means a record already exists for this student and
	// session. The existing record is left untouched.
	ErrAlreadyMarked = errors.New("attendance already marked")
)

// Filter narrows List results. Both fields are optional and combine with AND.
// Date matches records whose timestamp falls on that calendar day in the
// date's own location.
type Filter struct {
	Date    time.Time
	Subject string
}
