package school

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// License key format: EDU-<N><H|D|M>-<RANDOM>, e.g. EDU-6M-AB12CD34.
// Keys are minted by a super-admin and redeemed once by an institute.

const keyPrefix = "EDU"

// Duration units
const (
	UnitHours  = "H"
	UnitDays   = "D"
	UnitMonths = "M"
)

var (
	durationSegRegex = regexp.MustCompile(`^(\d+)([HDM])$`)
	keyEncoding      = base32.StdEncoding.WithPadding(base32.NoPadding)

	ErrInvalidKey     = errors.New("invalid license key")
	ErrKeyActivated   = errors.New("license key already activated")
	ErrKeyNotFound    = errors.New("license key not found")
	ErrKeyWrongTenant = errors.New("license key is assigned to another institute")
)

type LicenseKey struct {
	Key           string    `json:"license_key"`
	SchoolID      string    `json:"school_id,omitempty"` // empty until assigned/redeemed
	DurationValue int       `json:"duration_value"`
	DurationUnit  string    `json:"duration_unit"`
	PlanType      string    `json:"plan_type"`
	EmailSent     bool      `json:"email_sent"`
	IsActivated   bool      `json:"is_activated"`
	ActivatedAt   time.Time `json:"activated_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// KeyDuration is the parsed duration segment of a license key.
type KeyDuration struct {
	Value int
	Unit  string
}

// PlanType maps the duration unit to the plan it grants: hour/day keys are
// one-off custom plans, month keys are the regular subscription.
func (d KeyDuration) PlanType() string {
	if d.Unit == UnitMonths {
		return PlanRegular
	}
	return PlanCustom
}

// ExpiryFrom computes the subscription expiry granted by this key.
func (d KeyDuration) ExpiryFrom(now time.Time) time.Time {
	switch d.Unit {
	case UnitHours:
		return now.Add(time.Duration(d.Value) * time.Hour)
	case UnitDays:
		return now.AddDate(0, 0, d.Value)
	default: // UnitMonths
		return now.AddDate(0, d.Value, 0)
	}
}

func (d KeyDuration) String() string { return strconv.Itoa(d.Value) + d.Unit }

// ParseDuration parses a bare duration segment, e.g. "6M" or "30D".
func ParseDuration(s string) (KeyDuration, error) {
	m := durationSegRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return KeyDuration{}, ErrInvalidKey
	}
	val, err := strconv.Atoi(m[1])
	if err != nil || val == 0 {
		return KeyDuration{}, ErrInvalidKey
	}
	return KeyDuration{Value: val, Unit: m[2]}, nil
}

// ParseKey splits a license key on "-" and regex-matches the duration segment.
func ParseKey(key string) (KeyDuration, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(key)), "-")
	if len(parts) != 3 || parts[0] != keyPrefix || parts[2] == "" {
		return KeyDuration{}, ErrInvalidKey
	}
	return ParseDuration(parts[1])
}

// GenerateKey mints a fresh key for the given duration with a random suffix.
func GenerateKey(d KeyDuration) (string, error) {
	buff := make([]byte, 5) // 8 base32 chars
	if _, err := rand.Read(buff); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	suffix := keyEncoding.EncodeToString(buff)
	return fmt.Sprintf("%s-%s-%s", keyPrefix, d, suffix), nil
}
