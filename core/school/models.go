package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasa/darasa/core"
)

// Institute types
const (
	TypeSchool   = "school"
	TypeCoaching = "coaching"
	TypeCollege  = "college"
)

// Subscription statuses
const (
	SubTrial   = "trial"
	SubActive  = "active"
	SubExpired = "expired"
)

// Plan types
const (
	PlanTrial   = "trial"
	PlanRegular = "regular"
	PlanCustom  = "custom"
)

type School struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	InstituteType         string         `json:"institute_type"`
	SubscriptionStatus    string         `json:"subscription_status"`
	PlanType              string         `json:"plan_type"`
	TrialEndsAt           time.Time      `json:"trial_ends_at"`
	SubscriptionExpiresAt time.Time      `json:"subscription_expires_at"`
	DefaultEntryTime      core.ClockTime `json:"default_entry_time"`
	DefaultExitTime       core.ClockTime `json:"default_exit_time"`
	Timezone              string         `json:"timezone"`
	LogoURL               string         `json:"logo_url"`
	CreatedAt             time.Time      `json:"created_at"` // UTC
	UpdatedAt             time.Time      `json:"updated_at"` // UTC
}

// Location resolves the school's timezone; UTC when unset or unknown.
func (s School) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SubscriptionState derives the effective status at `now`. A trial past its
// trial_ends_at or a subscription past its expiry is expired regardless of
// what the stored status says; whichever caller loads the school first is
// expected to patch the stored value (best-effort, see Service.Refresh).
func (s School) SubscriptionState(now time.Time) string {
	switch s.SubscriptionStatus {
	case SubTrial:
		if !s.TrialEndsAt.IsZero() && !now.Before(s.TrialEndsAt) {
			return SubExpired
		}
	case SubActive:
		if !s.SubscriptionExpiresAt.IsZero() && !now.Before(s.SubscriptionExpiresAt) {
			return SubExpired
		}
	}
	return s.SubscriptionStatus
}

// UsesBatches reports whether this institute groups students by batch
// instead of class/section.
func (s School) UsesBatches() bool {
	return s.InstituteType != TypeSchool
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name             string `json:"name" validate:"required"`
	InstituteType    string `json:"institute_type" validate:"required,oneof=school coaching college"`
	Timezone         string `json:"timezone"`
	DefaultEntryTime string `json:"default_entry_time" validate:"omitempty,clock"`
	DefaultExitTime  string `json:"default_exit_time" validate:"omitempty,clock"`
	TrialDays        int    `json:"trial_days" validate:"omitempty,min=1,max=90"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Timezone = core.CleanString(ns.Timezone)
	if ns.Timezone != "" {
		if _, err := time.LoadLocation(ns.Timezone); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "timezone", Error: "unknown timezone"})
		}
	}
	return validate.Struct(ns)
}

// UpdateSchool defines what a principal may change on their institute.
type UpdateSchool struct {
	Name             string `json:"name"`
	Timezone         string `json:"timezone"`
	DefaultEntryTime string `json:"default_entry_time" validate:"omitempty,clock"`
	DefaultExitTime  string `json:"default_exit_time" validate:"omitempty,clock"`
	LogoURL          string `json:"logo_url" validate:"omitempty,url|uri"`
}

func (us *UpdateSchool) Validate(orig School, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	us.Timezone = core.CleanString(us.Timezone)
	if us.Timezone == "" {
		us.Timezone = orig.Timezone
	} else if _, err := time.LoadLocation(us.Timezone); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "timezone", Error: "unknown timezone"})
	}
	return validate.Struct(us)
}
