package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ClockTime is a wall-clock time of day ("HH:MM") with no date attached.
// Batch entry/exit windows, institute defaults and gatekeeper shifts are all
// ClockTimes; they only gain a date (and timezone) at comparison time.
type ClockTime struct {
	Minutes int // since midnight
	Valid   bool
}

var errBadClock = errors.New("invalid clock time, want HH:MM")

func NewClockTime(hour, min int) ClockTime {
	return ClockTime{Minutes: hour*60 + min, Valid: true}
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(CleanString(s), "%2d:%2d", &h, &m); err != nil {
		return ClockTime{}, errBadClock
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, errBadClock
	}
	return NewClockTime(h, m), nil
}

func MustClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct ClockTime) Hour() int   { return ct.Minutes / 60 }
func (ct ClockTime) Minute() int { return ct.Minutes % 60 }

func (ct ClockTime) String() string {
	if !ct.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", ct.Hour(), ct.Minute())
}

// On anchors the clock time on the given date in the given location.
func (ct ClockTime) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, ct.Hour(), ct.Minute(), 0, 0, loc)
}

func (ct ClockTime) Before(other ClockTime) bool { return ct.Minutes < other.Minutes }
func (ct ClockTime) After(other ClockTime) bool  { return ct.Minutes > other.Minutes }

// Contains reports whether t's time of day falls in [ct, end), handling
// windows that wrap past midnight (e.g. a 22:00-06:00 gate shift).
func (ct ClockTime) Contains(end ClockTime, t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	mins := lt.Hour()*60 + lt.Minute()
	if ct.Minutes <= end.Minutes {
		return mins >= ct.Minutes && mins < end.Minutes
	}
	return mins >= ct.Minutes || mins < end.Minutes
}

func (ct ClockTime) MarshalJSON() ([]byte, error) {
	if !ct.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ct.String())
}

func (ct *ClockTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*ct = ClockTime{}
		return nil
	}
	parsed, err := ParseClockTime(*s)
	if err != nil {
		return err
	}
	*ct = parsed
	return nil
}

// Value implements driver.Valuer; stored as "HH:MM" text.
func (ct ClockTime) Value() (driver.Value, error) {
	if !ct.Valid {
		return nil, nil
	}
	return ct.String(), nil
}

// Scan implements sql.Scanner.
func (ct *ClockTime) Scan(src interface{}) error {
	if src == nil {
		*ct = ClockTime{}
		return nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.Errorf("cannot scan %T into ClockTime", src)
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*ct = parsed
	return nil
}
