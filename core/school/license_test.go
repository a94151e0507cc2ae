package school

import (
	"strings"
	"testing"
	"time"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		want     KeyDuration
		wantPlan string
		wantErr  bool
	}{
		{name: "10 days", key: "EDU-10D-XYZ123", want: KeyDuration{10, UnitDays}, wantPlan: PlanCustom},
		{name: "6 months", key: "EDU-6M-XYZ123", want: KeyDuration{6, UnitMonths}, wantPlan: PlanRegular},
		{name: "48 hours", key: "EDU-48H-AB12CD34", want: KeyDuration{48, UnitHours}, wantPlan: PlanCustom},
		{name: "lowercase accepted", key: "edu-6m-ab12cd34", want: KeyDuration{6, UnitMonths}, wantPlan: PlanRegular},
		{name: "surrounding space", key: "  EDU-1M-FOO1  ", want: KeyDuration{1, UnitMonths}, wantPlan: PlanRegular},
		{name: "wrong prefix", key: "LIC-6M-XYZ123", wantErr: true},
		{name: "bad unit", key: "EDU-6Y-XYZ123", wantErr: true},
		{name: "zero duration", key: "EDU-0D-XYZ123", wantErr: true},
		{name: "missing suffix", key: "EDU-6M-", wantErr: true},
		{name: "too many segments", key: "EDU-6M-AB-CD", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d != tt.want {
				t.Errorf("ParseKey(%q) = %+v, want %+v", tt.key, d, tt.want)
			}
			if got := d.PlanType(); got != tt.wantPlan {
				t.Errorf("PlanType() = %q, want %q", got, tt.wantPlan)
			}
		})
	}
}

func TestKeyDurationExpiryFrom(t *testing.T) {
	now := time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		d    KeyDuration
		want time.Time
	}{
		{name: "10 days", d: KeyDuration{10, UnitDays}, want: now.AddDate(0, 0, 10)},
		{name: "6 months", d: KeyDuration{6, UnitMonths}, want: time.Date(2024, time.September, 11, 10, 0, 0, 0, time.UTC)},
		{name: "48 hours", d: KeyDuration{48, UnitHours}, want: now.Add(48 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.ExpiryFrom(now); !got.Equal(tt.want) {
				t.Errorf("ExpiryFrom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	d := KeyDuration{6, UnitMonths}

	key, err := GenerateKey(d)
	if err != nil {
		t.Fatalf("GenerateKey(): %v", err)
	}
	if !strings.HasPrefix(key, "EDU-6M-") {
		t.Errorf("GenerateKey() = %q, want EDU-6M-<random> format", key)
	}

	// a generated key must parse back to its duration
	parsed, err := ParseKey(key)
	if err != nil {
		t.Fatalf("ParseKey(%q): %v", key, err)
	}
	if parsed != d {
		t.Errorf("ParseKey(generated) = %+v, want %+v", parsed, d)
	}

	// suffixes must differ between mints
	key2, err := GenerateKey(d)
	if err != nil {
		t.Fatalf("GenerateKey(): %v", err)
	}
	if key == key2 {
		t.Errorf("GenerateKey() produced duplicate key %q", key)
	}
}
