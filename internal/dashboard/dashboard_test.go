package dashboard

import (
	"testing"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
)

func mustDate(t *testing.T, value string) isodate.Date {
	t.Helper()
	d, err := isodate.Parse(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func TestUpcomingDeadlines(t *testing.T) {
	today := mustDate(t, "2024-01-10")
	var events calendar.Events
	events = calendar.AddEvent(events, mustDate(t, "2024-01-09"), "past")
	events = calendar.AddEvent(events, mustDate(t, "2024-01-10"), "b today")
	events = calendar.AddEvent(events, mustDate(t, "2024-01-10"), "a today")
	events = calendar.AddEvent(events, mustDate(t, "2024-01-14"), "soonish")
	events = calendar.AddEvent(events, mustDate(t, "2024-01-20"), "later")

	deadlines := UpcomingDeadlines(events, today, MaxDeadlines)
	if len(deadlines) != 4 {
		t.Fatalf("expected 4 deadlines, got %d", len(deadlines))
	}
	if deadlines[0].Title != "a today" || deadlines[1].Title != "b today" {
		t.Fatalf("expected same-day deadlines sorted by title, got %q, %q", deadlines[0].Title, deadlines[1].Title)
	}
	wantPriority := []string{"high", "high", "medium", "low"}
	for i, want := range wantPriority {
		if deadlines[i].Priority != want {
			t.Fatalf("deadline %d: expected %s, got %s", i, want, deadlines[i].Priority)
		}
	}
	if deadlines[3].DaysLeft != 10 {
		t.Fatalf("expected 10 days left, got %d", deadlines[3].DaysLeft)
	}

	if got := UpcomingDeadlines(events, today, 2); len(got) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
}

func TestWeeklyStudyMinutes(t *testing.T) {
	today := mustDate(t, "2024-01-10")
	studied := []isodate.Date{mustDate(t, "2024-01-04"), mustDate(t, "2024-01-10"), mustDate(t, "2024-01-03")}
	sessions := map[isodate.Date]int{today: 5, mustDate(t, "2024-01-09"): 1}

	week := WeeklyStudyMinutes(studied, sessions, today)
	if len(week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week))
	}
	if week[0].Date.String() != "2024-01-04" || week[0].Minutes != 90 {
		t.Fatalf("unexpected first day %+v", week[0])
	}
	if week[5].Minutes != 25 {
		t.Fatalf("expected 25 minutes on 01-09, got %d", week[5].Minutes)
	}
	if week[6].Minutes != MaxDailyMinutes {
		t.Fatalf("expected today capped at %d, got %d", MaxDailyMinutes, week[6].Minutes)
	}
	if week[6].Label != "Wed" {
		t.Fatalf("expected Wed label, got %s", week[6].Label)
	}
}

func TestCGPASeriesFiltersOutOfRange(t *testing.T) {
	series := CGPASeries([]float64{7.5, -1, 11, 8.25})
	if len(series) != 2 || series[1].Label != "Sem 2" || series[1].Value != 8.25 {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestAttendanceWarning(t *testing.T) {
	low := model.Subject{Name: "Maths", Attendance: 70}
	high := 9.2
	mid := 8.0
	if !NeedsAttendanceWarning(low, nil) {
		t.Fatalf("expected warning without cgpa")
	}
	if !NeedsAttendanceWarning(low, &mid) {
		t.Fatalf("expected warning with cgpa below 9")
	}
	if NeedsAttendanceWarning(low, &high) {
		t.Fatalf("expected no warning with cgpa 9.2")
	}
	if NeedsAttendanceWarning(model.Subject{Attendance: 80}, nil) {
		t.Fatalf("expected no warning at 80%%")
	}
}

func TestBuildSummary(t *testing.T) {
	today := mustDate(t, "2024-01-10")
	cgpa := 8.1
	summary := Build(Input{
		Today: today,
		Tasks: []model.Task{
			{ID: "a", Title: "a", Priority: model.PriorityHigh, DueDate: today, CreatedAt: "2024-01-01T00:00:00.000Z", Completed: true},
			{ID: "b", Title: "b", Priority: model.PriorityLow, DueDate: today.AddDays(-2), CreatedAt: "2024-01-01T00:00:00.000Z"},
		},
		StudiedDates:     []isodate.Date{today, today.AddDays(-1), today.AddDays(-5)},
		Academics:        model.Academics{CGPA: &cgpa, TargetCGPA: 9},
		PomodoroSessions: map[isodate.Date]int{today: 2},
	})

	if summary.CurrentStreak != 2 || summary.LongestStreak != 2 {
		t.Fatalf("unexpected streaks %d/%d", summary.CurrentStreak, summary.LongestStreak)
	}
	if summary.StudyHours != 5.3 {
		t.Fatalf("expected 5.3 study hours, got %v", summary.StudyHours)
	}
	if summary.Goals[0].Progress != 50 {
		t.Fatalf("expected 50%% task completion, got %d", summary.Goals[0].Progress)
	}
	if summary.Goals[1].Progress != 29 {
		t.Fatalf("expected 29%% consistency, got %d", summary.Goals[1].Progress)
	}
	if summary.Goals[2].Progress != 90 {
		t.Fatalf("expected 90%% of CGPA target, got %d", summary.Goals[2].Progress)
	}
	if len(summary.Buckets.Overdue) != 1 || len(summary.Buckets.Completed) != 1 {
		t.Fatalf("unexpected buckets %+v", summary.Buckets)
	}
	if summary.StatCards[2].Value != "8.10" {
		t.Fatalf("expected CGPA card 8.10, got %s", summary.StatCards[2].Value)
	}
}

func TestFromSnapshot(t *testing.T) {
	today := mustDate(t, "2024-01-10")
	in := FromSnapshot(model.Snapshot{
		Events:           map[string][]string{"2024-01-11": {"Quiz"}, "bad": {"x"}},
		PomodoroSessions: map[string]int{"2024-01-10": 3, "oops": 9},
	}, today)
	if len(in.Events) != 1 || !in.Events.Has(mustDate(t, "2024-01-11")) {
		t.Fatalf("unexpected events %v", in.Events)
	}
	if len(in.PomodoroSessions) != 1 || in.PomodoroSessions[today] != 3 {
		t.Fatalf("unexpected sessions %v", in.PomodoroSessions)
	}
}
