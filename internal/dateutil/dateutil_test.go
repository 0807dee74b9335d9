package dateutil

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{
			name:     "both omitted uses trailing window",
			wantFrom: "2025-07-21",
			wantTo:   "2025-08-20",
		},
		{
			name:     "end omitted defaults to today",
			start:    "2025-08-01",
			wantFrom: "2025-08-01",
			wantTo:   "2025-08-20",
		},
		{
			name:     "start omitted defaults window before end",
			end:      "2025-06-30",
			wantFrom: "2025-05-31",
			wantTo:   "2025-06-30",
		},
		{
			name:     "both given",
			start:    "2025-01-01",
			end:      "2025-01-31",
			wantFrom: "2025-01-01",
			wantTo:   "2025-01-31",
		},
		{
			name:     "single day range",
			start:    "2025-05-05",
			end:      "2025-05-05",
			wantFrom: "2025-05-05",
			wantTo:   "2025-05-05",
		},
		{
			name:    "start after end",
			start:   "2025-02-01",
			end:     "2025-01-01",
			wantErr: true,
		},
		{
			name:    "malformed start",
			start:   "01/02/2025",
			end:     "2025-03-01",
			wantErr: true,
		},
		{
			name:    "malformed end",
			end:     "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRange(tt.start, tt.end, testNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.From != tt.wantFrom || got.To != tt.wantTo {
				t.Errorf("got [%s, %s], want [%s, %s]",
					got.From, got.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		date   string
		period string
		want   string
	}{
		{"2025-08-20", "day", "2025-08-20"},
		{"2025-08-20", "week", "2025-08-18"}, // Wednesday -> Monday
		{"2025-08-18", "week", "2025-08-18"}, // Monday stays
		{"2025-08-17", "week", "2025-08-11"}, // Sunday -> prior Monday
		{"2025-08-20", "month", "2025-08-01"},
		{"2025-01-01", "month", "2025-01-01"},
		{"not-a-date", "week", "not-a-date"},
	}
	for _, tt := range tests {
		if got := Bucket(tt.date, tt.period); got != tt.want {
			t.Errorf("Bucket(%q, %q) = %q, want %q",
				tt.date, tt.period, got, tt.want)
		}
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{From: "2025-03-01", To: "2025-03-31"}
	tests := []struct {
		date string
		want bool
	}{
		{"2025-03-01", true},
		{"2025-03-31", true},
		{"2025-03-15", true},
		{"2025-02-28", false},
		{"2025-04-01", false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.date); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v",
				tt.date, got, tt.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2025-01-01", "2025-01-01", 1},
		{"2025-01-01", "2025-01-31", 31},
		{"2025-01-31", "2025-01-01", 31}, // order-insensitive
		{"2025-02-28", "2025-03-01", 2},
		{"bad", "2025-01-01", 0},
	}
	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("DaysBetween(%q, %q) = %d, want %d",
				tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2025-08-20", -30); got != "2025-07-21" {
		t.Errorf("AddDays back 30 = %q", got)
	}
	if got := AddDays("2025-12-31", 1); got != "2026-01-01" {
		t.Errorf("AddDays over year = %q", got)
	}
	if got := AddDays("junk", 5); got != "junk" {
		t.Errorf("AddDays on junk = %q", got)
	}
}

func TestValidPeriod(t *testing.T) {
	for _, p := range []string{"day", "week", "month"} {
		if !ValidPeriod(p) {
			t.Errorf("ValidPeriod(%q) = false", p)
		}
	}
	for _, p := range []string{"", "hour", "year", "Day"} {
		if ValidPeriod(p) {
			t.Errorf("ValidPeriod(%q) = true", p)
		}
	}
}
