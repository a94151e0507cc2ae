package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasa/darasa/core"
)

// Statuses
const (
	StatusPresent        = "present"
	StatusLate           = "late"
	StatusEarlyDeparture = "early_departure"
)

// Entry is one attendance row: an entry scan, optionally closed by an exit
// scan later the same day. A student who never exits leaves the row open
// indefinitely; that is intentional.
type Entry struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	StudentID string    `json:"student_id"` // student row ID, not the human code
	Date      time.Time `json:"attendance_date"`
	EntryTime time.Time `json:"entry_time"`
	ExitTime  null.Time `json:"exit_time"`
	Status    string    `json:"status"`
	IsLate    bool      `json:"is_late"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (e Entry) IsOpen() bool { return !e.ExitTime.Valid }

// ScanRequest is the payload for verify/entry/exit operations: the student
// code read off a badge (QR) or typed in manually.
type ScanRequest struct {
	StudentCode string `json:"student_code" validate:"required"`
	Notes       string `json:"notes"`
}

func (sr *ScanRequest) Validate(validate *validator.Validate) error {
	sr.StudentCode = core.CleanString(sr.StudentCode, true /* lower */)
	return validate.Struct(sr)
}

type QueryFilter struct {
	StudentID string    `query:"student_id"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
	OpenOnly  bool      `query:"open_only"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.DateFrom.IsZero() && qf.DateTo.IsZero() && !qf.OpenOnly
}
