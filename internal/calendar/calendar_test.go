package calendar

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Joseda-hg/studyboard/internal/isodate"
)

func mustDate(t *testing.T, value string) isodate.Date {
	t.Helper()
	d, err := isodate.Parse(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func dates(t *testing.T, values ...string) []isodate.Date {
	t.Helper()
	out := make([]isodate.Date, 0, len(values))
	for _, v := range values {
		out = append(out, mustDate(t, v))
	}
	return SortDates(out)
}

func TestBuildMonthGridCellCount(t *testing.T) {
	cases := []struct {
		year    int
		month   time.Month
		days    int
		leading int
	}{
		{2024, time.February, 29, 4},
		{2023, time.February, 28, 3},
		{2024, time.April, 30, 1},
		{2024, time.September, 30, 0},
		{2000, time.February, 29, 2},
		{1900, time.February, 28, 4},
	}
	for _, tc := range cases {
		grid, err := BuildMonthGrid(tc.year, tc.month, nil, nil, isodate.Date{}, isodate.Date{})
		if err != nil {
			t.Fatalf("build %d-%d: %v", tc.year, tc.month, err)
		}
		if grid.DaysInMonth != tc.days {
			t.Fatalf("%d-%d: expected %d days, got %d", tc.year, tc.month, tc.days, grid.DaysInMonth)
		}
		if grid.LeadingBlanks != tc.leading {
			t.Fatalf("%d-%d: expected %d leading blanks, got %d", tc.year, tc.month, tc.leading, grid.LeadingBlanks)
		}
		if len(grid.Cells) != tc.leading+tc.days {
			t.Fatalf("%d-%d: expected %d cells, got %d", tc.year, tc.month, tc.leading+tc.days, len(grid.Cells))
		}
	}
}

func TestBuildMonthGridFlags(t *testing.T) {
	today := mustDate(t, "2024-01-05")
	selected := mustDate(t, "2024-01-10")
	studied := dates(t, "2024-01-04", "2024-01-05")
	events := AddEvent(nil, mustDate(t, "2024-01-10"), "exam")

	grid, err := BuildMonthGrid(2024, time.January, studied, events, selected, today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// January 2024 starts on a Monday.
	if !grid.Cells[0].Blank || grid.Cells[1].Blank {
		t.Fatalf("expected exactly one leading blank")
	}

	byDay := map[int]Cell{}
	for _, cell := range grid.Cells {
		if !cell.Blank {
			byDay[cell.Day] = cell
		}
	}
	if !byDay[5].IsToday || !byDay[5].IsStudied {
		t.Fatalf("expected day 5 to be today and studied, got %+v", byDay[5])
	}
	if !byDay[4].IsStudied || byDay[4].IsToday {
		t.Fatalf("expected day 4 studied only, got %+v", byDay[4])
	}
	if !byDay[10].IsSelected || !byDay[10].HasEvents {
		t.Fatalf("expected day 10 selected with events, got %+v", byDay[10])
	}
	if byDay[10].Date.String() != "2024-01-10" {
		t.Fatalf("expected ISO date on cell, got %s", byDay[10].Date)
	}
}

func TestBuildMonthGridRejectsBadMonth(t *testing.T) {
	if _, err := BuildMonthGrid(2024, 13, nil, nil, isodate.Date{}, isodate.Date{}); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestShiftMonth(t *testing.T) {
	y, m := ShiftMonth(2024, time.January, -1)
	if y != 2023 || m != time.December {
		t.Fatalf("expected 2023-12, got %d-%d", y, m)
	}
	y, m = ShiftMonth(2024, time.December, 1)
	if y != 2025 || m != time.January {
		t.Fatalf("expected 2025-01, got %d-%d", y, m)
	}
}

func TestNormalizeStudySet(t *testing.T) {
	got := NormalizeStudySet([]string{"2024-01-03", "bogus", "2024-01-01", "2024-01-03", "2024-02-30", "2023-12-31"})
	want := []string{"2023-12-31", "2024-01-01", "2024-01-03"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	asStrings := make([]string, len(got))
	for i, d := range got {
		asStrings[i] = d.String()
	}
	if !sort.StringsAreSorted(asStrings) {
		t.Fatalf("expected lexicographic order to match chronological order")
	}
}

func TestMarkStudiedIsIdempotent(t *testing.T) {
	today := mustDate(t, "2024-01-05")
	once := MarkStudied(nil, today)
	twice := MarkStudied(once, today)
	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("expected a single date, got %d then %d", len(once), len(twice))
	}
}

func TestCurrentStreak(t *testing.T) {
	today := mustDate(t, "2024-01-05")
	cases := []struct {
		name  string
		dates []string
		want  int
	}{
		{"five consecutive", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, 5},
		{"gap before today", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}, 1},
		{"only today", []string{"2024-01-05"}, 1},
		{"yesterday without today", []string{"2024-01-04"}, 0},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentStreak(dates(t, tc.dates...), today); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestCurrentStreakCrossesYearBoundary(t *testing.T) {
	studied := dates(t, "2023-12-30", "2023-12-31", "2024-01-01")
	if got := CurrentStreak(studied, mustDate(t, "2024-01-01")); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	leap := dates(t, "2024-02-28", "2024-02-29", "2024-03-01")
	if got := CurrentStreak(leap, mustDate(t, "2024-03-01")); got != 3 {
		t.Fatalf("expected 3 across Feb 29, got %d", got)
	}
}

func TestLongestStreak(t *testing.T) {
	studied := dates(t, "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-10", "2024-01-11")
	if got := LongestStreak(studied); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := LongestStreak(nil); got != 0 {
		t.Fatalf("expected 0 for empty set, got %d", got)
	}
}

func TestLongestRunPicksEarliest(t *testing.T) {
	studied := dates(t, "2024-01-01", "2024-01-02", "2024-01-10", "2024-01-11")
	run := LongestRun(studied)
	if run.Length != 2 || run.Start.String() != "2024-01-01" || run.End.String() != "2024-01-02" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRemoveEventDropsEmptyKey(t *testing.T) {
	day := mustDate(t, "2024-03-01")
	events := AddEvent(nil, day, "lab")
	events = AddEvent(events, day, "quiz")

	events = RemoveEvent(events, day, 0)
	if got := events.For(day); len(got) != 1 || got[0] != "quiz" {
		t.Fatalf("expected [quiz], got %v", got)
	}

	events = RemoveEvent(events, day, 0)
	if _, ok := events[day]; ok {
		t.Fatalf("expected key to be removed once empty")
	}
	if events.Has(day) {
		t.Fatalf("expected no events")
	}
}

func TestAddEventDoesNotMutateInput(t *testing.T) {
	day := mustDate(t, "2024-03-01")
	original := AddEvent(nil, day, "lab")
	_ = AddEvent(original, day, "quiz")
	if len(original[day]) != 1 {
		t.Fatalf("expected original map untouched, got %v", original[day])
	}
	blank := AddEvent(original, day, "   ")
	if len(blank[day]) != 1 {
		t.Fatalf("expected blank text to be ignored")
	}
}

func TestEventsFromStringsDropsInvalid(t *testing.T) {
	events := EventsFromStrings(map[string][]string{
		"2024-03-01": {"a", " "},
		"nope":       {"b"},
		"2024-03-02": {},
	})
	if len(events) != 1 {
		t.Fatalf("expected 1 key, got %d", len(events))
	}
}

func TestAddRecurringEvent(t *testing.T) {
	start := mustDate(t, "2024-01-01")
	events, occurrences, err := AddRecurringEvent(nil, "standup", start, "FREQ=WEEKLY;COUNT=3")
	if err != nil {
		t.Fatalf("add recurring: %v", err)
	}
	want := []string{"2024-01-01", "2024-01-08", "2024-01-15"}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(occurrences))
	}
	for i, w := range want {
		if occurrences[i].String() != w {
			t.Fatalf("occurrence %d: expected %s, got %s", i, w, occurrences[i])
		}
		if !events.Has(occurrences[i]) {
			t.Fatalf("expected events on %s", w)
		}
	}

	if _, _, err := AddRecurringEvent(nil, "x", start, "FREQ=NOPE"); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for invalid rule, got %v", err)
	}
}

func TestAddRecurringEventRejectsSubDaily(t *testing.T) {
	start := mustDate(t, "2024-01-01")
	for _, rule := range []string{"FREQ=HOURLY", "FREQ=MINUTELY", "FREQ=SECONDLY", "RRULE:FREQ=HOURLY;COUNT=5"} {
		events, occurrences, err := AddRecurringEvent(nil, "spam", start, rule)
		if !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("%s: expected ErrInvalidRule, got %v", rule, err)
		}
		if events != nil || occurrences != nil {
			t.Fatalf("%s: expected nothing added", rule)
		}
	}
}

func TestAddRecurringEventOpenEndedIsCapped(t *testing.T) {
	start := mustDate(t, "2024-01-01")
	events, occurrences, err := AddRecurringEvent(nil, "review", start, "FREQ=DAILY")
	if err != nil {
		t.Fatalf("add recurring: %v", err)
	}
	if len(occurrences) != maxRecurrences {
		t.Fatalf("expected %d occurrences, got %d", maxRecurrences, len(occurrences))
	}
	seen := make(map[isodate.Date]bool)
	for _, date := range occurrences {
		if seen[date] {
			t.Fatalf("expected one entry per date, %s repeated", date)
		}
		seen[date] = true
		if got := events.For(date); len(got) != 1 {
			t.Fatalf("expected a single entry on %s, got %v", date, got)
		}
	}
	if last := occurrences[len(occurrences)-1]; last != start.AddDays(maxRecurrences-1) {
		t.Fatalf("expected last occurrence %s, got %s", start.AddDays(maxRecurrences-1), last)
	}
}
