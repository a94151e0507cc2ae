package core

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "morning", in: "08:15", want: "08:15"},
		{name: "midnight", in: "00:00", want: "00:00"},
		{name: "padded input", in: " 15:00 ", want: "15:00"},
		{name: "bad hour", in: "24:00", wantErr: true},
		{name: "bad minute", in: "10:61", wantErr: true},
		{name: "garbage", in: "noon", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := ParseClockTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClockTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && ct.String() != tt.want {
				t.Errorf("ParseClockTime(%q) = %q, want %q", tt.in, ct, tt.want)
			}
		})
	}
}

func TestClockTimeContains(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, time.March, 11, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		start, end ClockTime
		t          time.Time
		want       bool
	}{
		{name: "inside day shift", start: MustClockTime("07:00"), end: MustClockTime("15:00"), t: at(8, 10), want: true},
		{name: "before day shift", start: MustClockTime("07:00"), end: MustClockTime("15:00"), t: at(6, 59), want: false},
		{name: "at shift end", start: MustClockTime("07:00"), end: MustClockTime("15:00"), t: at(15, 0), want: false},
		{name: "night shift late evening", start: MustClockTime("22:00"), end: MustClockTime("06:00"), t: at(23, 30), want: true},
		{name: "night shift early morning", start: MustClockTime("22:00"), end: MustClockTime("06:00"), t: at(5, 59), want: true},
		{name: "night shift midday", start: MustClockTime("22:00"), end: MustClockTime("06:00"), t: at(12, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.Contains(tt.end, tt.t, time.UTC); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClockTimeOn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2024, time.March, 11, 23, 45, 0, 0, time.UTC)
	got := MustClockTime("08:15").On(date, loc)

	// 23:45 UTC on the 11th is already the 12th in Kolkata
	want := time.Date(2024, time.March, 12, 8, 15, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}
