package batch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

// Batch is a named group of students sharing an entry/exit schedule; used by
// non-school institute types in place of class/section.
type Batch struct {
	ID         string         `json:"id"`
	SchoolID   string         `json:"school_id"`
	Name       string         `json:"name"`
	EntryTime  core.ClockTime `json:"entry_time"`
	ExitTime   core.ClockTime `json:"exit_time"`
	DaysOfWeek []time.Weekday `json:"days_of_week"`
	CreatedAt  time.Time      `json:"created_at"` // UTC
	UpdatedAt  time.Time      `json:"updated_at"` // UTC
}

// MeetsOn reports whether the batch runs on the given weekday.
// An empty DaysOfWeek means every day.
func (b Batch) MeetsOn(day time.Weekday) bool {
	if len(b.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range b.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

type NewBatch struct {
	Name       string `json:"name" validate:"required"`
	EntryTime  string `json:"entry_time" validate:"required,clock"`
	ExitTime   string `json:"exit_time" validate:"required,clock"`
	DaysOfWeek []int  `json:"days_of_week" validate:"omitempty,dive,min=0,max=6"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

type UpdateBatch struct {
	Name       string `json:"name"`
	EntryTime  string `json:"entry_time" validate:"omitempty,clock"`
	ExitTime   string `json:"exit_time" validate:"omitempty,clock"`
	DaysOfWeek []int  `json:"days_of_week" validate:"omitempty,dive,min=0,max=6"`
}

func (ub *UpdateBatch) Validate(orig Batch, validate *validator.Validate) error {
	if name := core.CleanString(ub.Name); name != "" {
		ub.Name = name
	} else {
		ub.Name = orig.Name
	}
	return validate.Struct(ub)
}

func weekdays(days []int) []time.Weekday {
	if days == nil {
		return nil
	}
	res := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		res = append(res, time.Weekday(d))
	}
	return res
}
