package handlers

import (
	"testing"
	"time"
)

func TestComputeAge(t *testing.T) {
	now := time.Now()

	// Offsets of half a year keep the expectation stable regardless of the
	// day the test runs.
	past := now.AddDate(-30, -6, 0).Format("2006-01-02")
	if got := computeAge(past); got != 30 {
		t.Errorf("computeAge(%s) = %v, want 30", past, got)
	}

	beforeBirthday := now.AddDate(-30, 6, 0).Format("2006-01-02")
	if got := computeAge(beforeBirthday); got != 29 {
		t.Errorf("computeAge(%s) = %v, want 29", beforeBirthday, got)
	}

	rfc := now.AddDate(-25, -6, 0).Format(time.RFC3339)
	if got := computeAge(rfc); got != 25 {
		t.Errorf("computeAge(%s) = %v, want 25", rfc, got)
	}
}

func TestComputeAgeSentinel(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		dob  string
	}{
		{"empty", ""},
		{"unparsable", "fourth of July"},
		{"partial", "1990"},
		{"future", now.AddDate(5, 0, 0).Format("2006-01-02")},
		{"too old", "1850-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := computeAge(tc.dob); got != "Not specified" {
				t.Errorf("computeAge(%q) = %v, want \"Not specified\"", tc.dob, got)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	if got := orDefault("", "Unknown"); got != "Unknown" {
		t.Errorf("orDefault empty = %q", got)
	}
	if got := orDefault("Bangalore", "Unknown"); got != "Bangalore" {
		t.Errorf("orDefault set = %q", got)
	}
}
