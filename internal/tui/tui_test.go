package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/db"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
	"github.com/Joseda-hg/studyboard/internal/pomodoro"
)

var fixedNow = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func TestCalendarLines(t *testing.T) {
	feb := func(day int) isodate.Date { return isodate.New(2024, time.February, day) }
	events := calendar.Events{feb(3): {"Quiz"}}
	grid, err := calendar.BuildMonthGrid(2024, time.February, []isodate.Date{feb(2)}, events, feb(1), feb(2))
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}

	lines := calendarLines(grid)
	if len(lines) != 6 {
		t.Fatalf("expected header plus 5 weeks, got %d lines", len(lines))
	}
	if lines[0] != " Su   Mo   Tu   We   Th   Fr   Sa" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := strings.Repeat(" ", 20) + "> 1  . 2*   3 +"
	if lines[1] != want {
		t.Fatalf("expected first week %q, got %q", want, lines[1])
	}
}

func TestFormatTask(t *testing.T) {
	today := isodate.New(2024, time.January, 10)
	task := model.Task{Title: "Essay", Priority: model.PriorityHigh, DueDate: isodate.New(2024, time.January, 8)}

	if got := formatTask(task, today); got != "[ ] High   Essay | 2024-01-08 (2d late)" {
		t.Fatalf("unexpected overdue line %q", got)
	}
	task.Completed = true
	if got := formatTask(task, today); got != "[x] High   Essay | 2024-01-08" {
		t.Fatalf("unexpected completed line %q", got)
	}
}

func TestNextPreset(t *testing.T) {
	cases := map[int]int{
		25: 30,
		30: 45,
		60: 25,
		50: 60,
		5:  25,
	}
	for current, want := range cases {
		if got := nextPreset(current); got != want {
			t.Fatalf("expected preset after %d to be %d, got %d", current, want, got)
		}
	}
}

func TestCyclePriority(t *testing.T) {
	if got := cyclePriority("Medium", 1); got != "Low" {
		t.Fatalf("expected Low, got %q", got)
	}
	if got := cyclePriority("Low", 1); got != "High" {
		t.Fatalf("expected wrap to High, got %q", got)
	}
	if got := cyclePriority("High", -1); got != "Low" {
		t.Fatalf("expected wrap back to Low, got %q", got)
	}
	if got := cyclePriority("bogus", 1); got != "Medium" {
		t.Fatalf("expected unknown to start from High, got %q", got)
	}
}

func TestSubmitFormKeepsFormOnValidationError(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ui := newTestUI(t, store)

	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if got := ui.form.fields[fieldDue].Value; got != "2024-01-10" {
		t.Fatalf("expected due date to default to today, got %q", got)
	}

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form == nil {
		t.Fatalf("expected form to stay open")
	}
	if ui.status != "Title is required." {
		t.Fatalf("expected title message, got %q", ui.status)
	}

	ui.form.fields[fieldTitle].Value = "Lab report"
	ui.form.fields[fieldPriority].Value = "High"
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit form: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected form to close")
	}
	if len(ui.buckets.DueToday) != 1 || ui.buckets.DueToday[0].Priority != model.PriorityHigh {
		t.Fatalf("expected task due today, got %+v", ui.buckets)
	}
}

func TestToggleAndDeleteSelectedTask(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, entry := range []planner.Entry{
		{Title: "A", Priority: "High", DueDate: "2024-01-10"},
		{Title: "B", Priority: "Low", DueDate: "2024-01-10"},
	} {
		if _, err := store.CreateTask(ctx, entry); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	ui := newTestUI(t, store)
	ui.focus = viewDueToday

	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if err := ui.toggleTask(nil, nil); err != nil {
		t.Fatalf("toggle task: %v", err)
	}
	if len(ui.buckets.Completed) != 1 || ui.buckets.Completed[0].Title != "B" {
		t.Fatalf("expected B completed, got %+v", ui.buckets.Completed)
	}
	if ui.selection[viewDueToday] != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", ui.selection[viewDueToday])
	}

	if err := ui.deleteTask(nil, nil); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if ui.buckets.Total() != 1 {
		t.Fatalf("expected one task left, got %d", ui.buckets.Total())
	}
}

func TestMarkStudiedAndNavigate(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ui := newTestUI(t, store)

	if err := ui.markStudied(nil, nil); err != nil {
		t.Fatalf("mark studied: %v", err)
	}
	if err := ui.markStudied(nil, nil); err != nil {
		t.Fatalf("mark studied again: %v", err)
	}
	if len(ui.studied) != 1 || calendar.CurrentStreak(ui.studied, ui.today) != 1 {
		t.Fatalf("expected a single studied day, got %v", ui.studied)
	}

	if err := ui.moveSelectedDay(-10); err != nil {
		t.Fatalf("move day: %v", err)
	}
	if ui.selected != isodate.New(2023, time.December, 31) || ui.year != 2023 || ui.month != time.December {
		t.Fatalf("expected view to follow selection into December 2023, got %s %d-%d", ui.selected, ui.year, ui.month)
	}
	if err := ui.nextMonth(nil, nil); err != nil {
		t.Fatalf("next month: %v", err)
	}
	if ui.year != 2024 || ui.month != time.January {
		t.Fatalf("expected January 2024, got %d-%d", ui.year, ui.month)
	}
}

func TestEventPrompt(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ui := newTestUI(t, store)

	if err := ui.addEvent(nil, nil); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if err := ui.applyPrompt("   "); err != errEventText {
		t.Fatalf("expected blank event error, got %v", err)
	}
	if err := ui.applyPrompt("Quiz"); err != nil {
		t.Fatalf("apply prompt: %v", err)
	}
	events, err := store.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if got := events.For(isodate.New(2024, time.January, 10)); len(got) != 1 || got[0] != "Quiz" {
		t.Fatalf("expected event on selected date, got %v", got)
	}
}

func TestPomodoroControls(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ui := newTestUI(t, store)

	if err := ui.cyclePreset(nil, nil); err != nil {
		t.Fatalf("cycle preset: %v", err)
	}
	if ui.timer.Minutes() != 45 {
		t.Fatalf("expected 45 minutes after 30, got %d", ui.timer.Minutes())
	}

	ui.prompt = &promptState{kind: promptMinutes}
	if err := ui.applyPrompt("3"); err != pomodoro.ErrOutOfRange {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := ui.applyPrompt("abc"); err != pomodoro.ErrOutOfRange {
		t.Fatalf("expected out of range for non-number, got %v", err)
	}
	ui.prompt = nil

	if err := ui.togglePomodoro(nil, nil); err != nil {
		t.Fatalf("toggle pomodoro: %v", err)
	}
	if err := ui.customMinutes(nil, nil); err != nil {
		t.Fatalf("custom minutes: %v", err)
	}
	if ui.prompt != nil || ui.status != pomodoro.ErrRunning.Error() {
		t.Fatalf("expected running timer to refuse a new duration, got %q", ui.status)
	}

	if !ui.timer.Tick(45 * time.Minute) {
		t.Fatalf("expected countdown to complete")
	}
	sessions, err := store.PomodoroSessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if sessions[isodate.New(2024, time.January, 10)] != 1 {
		t.Fatalf("expected one session recorded, got %v", sessions)
	}
	if ui.timer.Running() || ui.timer.Remaining() != 45*time.Minute {
		t.Fatalf("expected timer reset after completion")
	}
}

func TestSwitchFocusCycles(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ui := newTestUI(t, store)
	ui.focus = viewCalendar

	if err := ui.switchFocus(nil, nil); err != nil {
		t.Fatalf("switch focus: %v", err)
	}
	if ui.focus != viewOverdue {
		t.Fatalf("expected focus to wrap to overdue, got %q", ui.focus)
	}

	ui.helpActive = true
	if err := ui.switchFocus(nil, nil); err != nil {
		t.Fatalf("switch focus: %v", err)
	}
	if ui.focus != viewOverdue {
		t.Fatalf("expected focus unchanged while help is open, got %q", ui.focus)
	}
}

func newTestUI(t *testing.T, store *db.Store) *UI {
	t.Helper()
	ui, err := newUI(store, Options{})
	if err != nil {
		t.Fatalf("new ui: %v", err)
	}
	if err := ui.loadData(); err != nil {
		t.Fatalf("load data: %v", err)
	}
	return ui
}

func newTestStore(t *testing.T) (*db.Store, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := db.NewStore(dbConn)
	store.Now = func() time.Time { return fixedNow }
	return store, func() {
		_ = dbConn.Close()
	}
}
