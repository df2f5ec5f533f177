package scheduler

import (
	"testing"
	"time"

	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

func eventAt(date time.Time, tod, status string) models.Event {
	return models.Event{
		Title:  "test event",
		Date:   date,
		Time:   tod,
		Status: status,
	}
}

func TestNextStatusTransitions(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		ev      models.Event
		now     time.Time
		want    string
		changed bool
	}{
		{"before start stays upcoming", eventAt(day, "18:00", models.EventUpcoming), start.Add(-time.Hour), models.EventUpcoming, false},
		{"one hour in becomes ongoing", eventAt(day, "18:00", models.EventUpcoming), start.Add(time.Hour), models.EventOngoing, true},
		{"already ongoing unchanged", eventAt(day, "18:00", models.EventOngoing), start.Add(time.Hour), models.EventOngoing, false},
		{"five hours in becomes completed", eventAt(day, "18:00", models.EventUpcoming), start.Add(5 * time.Hour), models.EventCompleted, true},
		{"ongoing completes after window", eventAt(day, "18:00", models.EventOngoing), start.Add(4 * time.Hour), models.EventCompleted, true},
		{"exactly at start becomes ongoing", eventAt(day, "18:00", models.EventUpcoming), start, models.EventOngoing, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := NextStatus(tc.ev, tc.now)
			if got != tc.want || changed != tc.changed {
				t.Errorf("NextStatus = (%q, %v), want (%q, %v)", got, changed, tc.want, tc.changed)
			}
		})
	}
}

func TestNextStatusCatchUpForMissedSweeps(t *testing.T) {
	yesterday := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)

	// Still marked upcoming the morning after: force-completed.
	ev := eventAt(yesterday, "18:00", models.EventUpcoming)
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	got, changed := NextStatus(ev, now)
	if got != models.EventCompleted || !changed {
		t.Errorf("NextStatus = (%q, %v), want (completed, true)", got, changed)
	}

	// A late event from yesterday whose window straddles midnight: ongoing
	// status yields to the previous-day rule even inside the window.
	late := eventAt(yesterday, "23:30", models.EventOngoing)
	now = time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	got, changed = NextStatus(late, now)
	if got != models.EventCompleted || !changed {
		t.Errorf("straddling event NextStatus = (%q, %v), want (completed, true)", got, changed)
	}
}

func TestNextStatusUnparsableTimeIsSkipped(t *testing.T) {
	ev := eventAt(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), "late evening", models.EventUpcoming)
	got, changed := NextStatus(ev, time.Now())
	if changed || got != models.EventUpcoming {
		t.Errorf("NextStatus = (%q, %v), want no change", got, changed)
	}
}

func TestStartInstant(t *testing.T) {
	ev := eventAt(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), "09:30", models.EventUpcoming)
	start, ok := StartInstant(ev)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}

	for _, bad := range []string{"", "25:00", "12:61", "noon", "12"} {
		ev.Time = bad
		if _, ok := StartInstant(ev); ok {
			t.Errorf("StartInstant accepted %q", bad)
		}
	}
}
