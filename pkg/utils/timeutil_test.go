package utils

import (
	"testing"
	"time"
)

func TestISTOffset(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	ist := ToIST(ts)
	if ist.Hour() != 15 || ist.Minute() != 30 {
		t.Errorf("10:00 UTC should be 15:30 IST, got %02d:%02d", ist.Hour(), ist.Minute())
	}
}

func TestIsMarketOpenAt(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		// 2026-08-25 is a Tuesday.
		{"mid-session", time.Date(2026, 8, 25, 11, 0, 0, 0, IST), true},
		{"at open", time.Date(2026, 8, 25, 9, 15, 0, 0, IST), true},
		{"at close", time.Date(2026, 8, 25, 15, 30, 0, 0, IST), true},
		{"before open", time.Date(2026, 8, 25, 9, 0, 0, 0, IST), false},
		{"after close", time.Date(2026, 8, 25, 16, 0, 0, 0, IST), false},
		{"saturday", time.Date(2026, 8, 29, 11, 0, 0, 0, IST), false},
		{"sunday", time.Date(2026, 8, 30, 11, 0, 0, 0, IST), false},
	}
	for _, tc := range tests {
		if got := IsMarketOpenAt(tc.t); got != tc.want {
			t.Errorf("%s: IsMarketOpenAt(%v) = %v, want %v", tc.name, tc.t, got, tc.want)
		}
	}
}

func TestFormatDateTimeIST(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	want := "2026-08-25 15:30:00 IST"
	if got := FormatDateTimeIST(ts); got != want {
		t.Errorf("FormatDateTimeIST: got %q, want %q", got, want)
	}
}
