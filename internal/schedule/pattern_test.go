package schedule

import (
	"testing"
	"time"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Pattern
		wantErr bool
	}{
		{name: "daily at eight", in: "0 8", want: Pattern{Minute: 0, Hour: 8}},
		{name: "half past every hour", in: "30 *", want: Pattern{Minute: 30, Hour: wildcard}},
		{name: "every minute of nine", in: "* 9", want: Pattern{Minute: wildcard, Hour: 9}},
		{name: "every minute", in: "* *", want: Pattern{Minute: wildcard, Hour: wildcard}},
		{name: "extra whitespace", in: "  15   22 ", want: Pattern{Minute: 15, Hour: 22}},
		{name: "single field", in: "8", wantErr: true},
		{name: "three fields", in: "0 8 1", wantErr: true},
		{name: "minute out of range", in: "60 8", wantErr: true},
		{name: "hour out of range", in: "0 24", wantErr: true},
		{name: "negative", in: "-1 8", wantErr: true},
		{name: "garbage", in: "a b", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePattern(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePattern(%q) = %+v, want error", tt.in, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParsePattern(%q): %v", tt.in, err)
			}

			if got != tt.want {
				t.Errorf("ParsePattern(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPatternMatches(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.August, 30, hour, minute, 45, 0, time.UTC)
	}

	tests := []struct {
		name    string
		pattern Pattern
		t       time.Time
		want    bool
	}{
		{name: "exact hit", pattern: Pattern{Minute: 0, Hour: 8}, t: at(8, 0), want: true},
		{name: "wrong minute", pattern: Pattern{Minute: 0, Hour: 8}, t: at(8, 1), want: false},
		{name: "wrong hour", pattern: Pattern{Minute: 0, Hour: 8}, t: at(9, 0), want: false},
		{name: "wildcard hour", pattern: Pattern{Minute: 30, Hour: wildcard}, t: at(17, 30), want: true},
		{name: "wildcard minute", pattern: Pattern{Minute: wildcard, Hour: 9}, t: at(9, 59), want: true},
		{name: "wildcard minute other hour", pattern: Pattern{Minute: wildcard, Hour: 9}, t: at(10, 0), want: false},
		{name: "full wildcard", pattern: Pattern{Minute: wildcard, Hour: wildcard}, t: at(3, 7), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pattern.Matches(tt.t); got != tt.want {
				t.Errorf("%v.Matches(%v) = %v, want %v", tt.pattern, tt.t, got, tt.want)
			}
		})
	}
}

func TestPatternString(t *testing.T) {
	if got := (Pattern{Minute: wildcard, Hour: 8}).String(); got != "* 8" {
		t.Errorf("String() = %q, want %q", got, "* 8")
	}
}
