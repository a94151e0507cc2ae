package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

type (
	// BatchTiming is a per-student override of a batch's entry/exit window
	// (a student allowed to arrive later than their batch, for instance).
	BatchTiming struct {
		EntryTime core.ClockTime `json:"entry_time"`
		ExitTime  core.ClockTime `json:"exit_time"`
	}

	Student struct {
		ID        string `json:"id"`
		SchoolID  string `json:"school_id"`
		StudentID string `json:"student_id"` // human code printed on the ID card, unique per school
		FullName  string `json:"full_name"`

		// school-type institutes use class/section; others use course + batches
		ClassName string   `json:"class_name,omitempty"`
		Section   string   `json:"section,omitempty"`
		Course    string   `json:"course,omitempty"`
		BatchIDs  []string `json:"batch_ids,omitempty"`

		BatchTimings map[string]BatchTiming `json:"student_batch_timings,omitempty"` // by batch ID

		ParentName  string `json:"parent_name,omitempty"`
		ParentPhone string `json:"parent_phone,omitempty"`
		ParentEmail string `json:"parent_email,omitempty"`
		PhotoURL    string `json:"photo_url,omitempty"`

		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// TimingFor returns the student's custom timing for a batch, if any.
func (s Student) TimingFor(batchID string) (BatchTiming, bool) {
	bt, ok := s.BatchTimings[batchID]
	return bt, ok
}

// NewStudent contains information needed to enrol a new Student.
type NewStudent struct {
	StudentID   string   `json:"student_id" validate:"required,alphanum_"`
	FullName    string   `json:"full_name" validate:"required"`
	ClassName   string   `json:"class_name"`
	Section     string   `json:"section"`
	Course      string   `json:"course"`
	BatchIDs    []string `json:"batch_ids"`
	ParentName  string   `json:"parent_name"`
	ParentPhone string   `json:"parent_phone"`
	ParentEmail string   `json:"parent_email" validate:"omitempty,email"`
	PhotoURL    string   `json:"photo_url"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc *Service, schoolID string) error {
	ns.StudentID = core.CleanString(ns.StudentID, true /* lower */)
	ns.FullName = core.CleanString(ns.FullName)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(schoolID, ns.StudentID)
}

// UpdateStudent defines what information may be provided to modify an enrolled Student.
type UpdateStudent struct {
	FullName     string                 `json:"full_name"`
	ClassName    string                 `json:"class_name"`
	Section      string                 `json:"section"`
	Course       string                 `json:"course"`
	BatchIDs     []string               `json:"batch_ids"`
	BatchTimings map[string]BatchTiming `json:"student_batch_timings"`
	ParentName   string                 `json:"parent_name"`
	ParentPhone  string                 `json:"parent_phone"`
	ParentEmail  string                 `json:"parent_email" validate:"omitempty,email"`
	PhotoURL     string                 `json:"photo_url"`
	IsActive     *bool                  `json:"is_active"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.FullName); name != "" {
		us.FullName = name
	} else {
		us.FullName = orig.FullName
	}
	us.ParentEmail = core.CleanString(us.ParentEmail, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search    string `query:"search"` // matches full name or student code
	ClassName string `query:"class_name"`
	BatchID   string `query:"batch_id"`
	IsActive  *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassName == "" && qf.BatchID == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
