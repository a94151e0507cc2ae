package gatekeeper

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Gatekeeper is the staff member scanning student IDs at a gate. The scanning
// session itself is a JWT login on the linked account; this record carries the
// shift and gate assignment.
type Gatekeeper struct {
	ID           string         `json:"id"`
	SchoolID     string         `json:"school_id"`
	AccountID    string         `json:"account_id"`
	GatekeeperID string         `json:"gatekeeper_id"` // human code, unique per school
	FullName     string         `json:"full_name"`
	ShiftStart   core.ClockTime `json:"shift_start"`
	ShiftEnd     core.ClockTime `json:"shift_end"`
	GateNumber   int            `json:"gate_number"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"` // UTC
	UpdatedAt    time.Time      `json:"updated_at"` // UTC
}

// OnDuty is a pure function of the shift window and the wall clock; shifts may
// wrap past midnight. An inactive gatekeeper is never on duty.
func (g Gatekeeper) OnDuty(now time.Time, loc *time.Location) bool {
	if g.Status != StatusActive {
		return false
	}
	if !g.ShiftStart.Valid || !g.ShiftEnd.Valid {
		return false
	}
	return g.ShiftStart.Contains(g.ShiftEnd, now, loc)
}

type NewGatekeeper struct {
	GatekeeperID string `json:"gatekeeper_id" validate:"required,alphanum_"`
	FullName     string `json:"full_name" validate:"required"`
	AccountID    string `json:"account_id" validate:"required"`
	ShiftStart   string `json:"shift_start" validate:"required,clock"`
	ShiftEnd     string `json:"shift_end" validate:"required,clock"`
	GateNumber   int    `json:"gate_number" validate:"omitempty,min=1"`
}

func (ng *NewGatekeeper) Validate(validate *validator.Validate) error {
	ng.GatekeeperID = core.CleanString(ng.GatekeeperID, true /* lower */)
	ng.FullName = core.CleanString(ng.FullName)
	return validate.Struct(ng)
}

type UpdateGatekeeper struct {
	FullName   string `json:"full_name"`
	ShiftStart string `json:"shift_start" validate:"omitempty,clock"`
	ShiftEnd   string `json:"shift_end" validate:"omitempty,clock"`
	GateNumber int    `json:"gate_number" validate:"omitempty,min=1"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (ug *UpdateGatekeeper) Validate(orig Gatekeeper, validate *validator.Validate) error {
	if name := core.CleanString(ug.FullName); name != "" {
		ug.FullName = name
	} else {
		ug.FullName = orig.FullName
	}
	return validate.Struct(ug)
}
