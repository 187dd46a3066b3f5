// Package export renders attendance records as CSV for download.
package export

import (
	"encoding/csv"
	"io"

	"rollcall/internal/attendance"
)

var header = []string{"Student Name", "Student ID", "Subject", "Date", "Time", "Status"}

// WriteCSV writes one header row followed by one row per record, in the
// order given. Fields containing commas or quotes are quoted per RFC 4180.
func WriteCSV(w io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		ts := rec.MarkedAt.Local()
		row := []string{
			rec.StudentName,
			rec.StudentID,
			rec.Subject,
			ts.Format("1/2/2006"),
			ts.Format("3:04:05 PM"),
			rec.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
