package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
)

func TestWriteExportsEventsAndOpenTasks(t *testing.T) {
	day := isodate.New(2024, time.March, 5)
	events := calendar.AddEvent(nil, day, "Exam")
	events = calendar.AddEvent(events, day, "Lab")
	tasks := []model.Task{
		{ID: "a", Title: "Essay", Priority: model.PriorityHigh, DueDate: isodate.New(2024, time.March, 7)},
		{ID: "b", Title: "Done already", Priority: model.PriorityLow, DueDate: day, Completed: true},
	}

	var buf bytes.Buffer
	if err := Write(&buf, events, tasks, Options{Stamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse exported calendar: %v", err)
	}
	parsed := cal.Events()
	if len(parsed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(parsed))
	}

	summaries := map[string]string{}
	for _, event := range parsed {
		summaries[event.Id()] = event.GetProperty(ical.ComponentPropertySummary).Value
	}
	if summaries[eventUID("2024-03-05", "Lab", 0)] != "Lab" {
		t.Fatalf("expected Lab entry, got %v", summaries)
	}
	if summaries["task-a@studyboard"] != "Due: Essay" {
		t.Fatalf("expected task due entry, got %v", summaries)
	}
	if _, ok := summaries["task-b@studyboard"]; ok {
		t.Fatalf("expected completed task skipped")
	}
	if !strings.Contains(buf.String(), "DTSTART;VALUE=DATE:20240307") {
		t.Fatalf("expected all-day start for task, got:\n%s", buf.String())
	}
}

func TestBuildIncludeCompleted(t *testing.T) {
	tasks := []model.Task{{ID: "b", Title: "Done", Priority: model.PriorityLow, DueDate: isodate.New(2024, time.March, 5), Completed: true}}
	cal := Build(nil, tasks, Options{IncludeCompleted: true, Stamp: time.Now()})
	if len(cal.Events()) != 1 {
		t.Fatalf("expected completed task exported, got %d", len(cal.Events()))
	}

	event := cal.Events()[0]
	if status := event.GetProperty(ical.ComponentPropertyStatus); status != nil {
		t.Fatalf("expected no STATUS on a completed task, got %q", status.Value)
	}
	var categories []string
	for _, prop := range event.GetProperties(ical.ComponentPropertyCategories) {
		categories = append(categories, prop.Value)
	}
	if strings.Join(categories, ",") != "LOW,COMPLETED" {
		t.Fatalf("expected LOW,COMPLETED categories, got %v", categories)
	}
}

func TestEventUIDsSurviveRemoval(t *testing.T) {
	day := isodate.New(2024, time.March, 5)
	events := calendar.AddEvent(nil, day, "Exam")
	events = calendar.AddEvent(events, day, "Lab")
	events = calendar.AddEvent(events, day, "Lab")

	ids := func(events calendar.Events) map[string]bool {
		out := map[string]bool{}
		for _, event := range Build(events, nil, Options{Stamp: time.Now()}).Events() {
			out[event.Id()] = true
		}
		return out
	}

	before := ids(events)
	if len(before) != 3 {
		t.Fatalf("expected 3 distinct UIDs, got %v", before)
	}
	after := ids(calendar.RemoveEvent(events, day, 0))
	if len(after) != 2 {
		t.Fatalf("expected 2 UIDs after removal, got %v", after)
	}
	for id := range after {
		if !before[id] {
			t.Fatalf("expected remaining entry to keep its UID, %s is new", id)
		}
	}
	if after[eventUID(day.String(), "Exam", 0)] {
		t.Fatalf("expected removed entry's UID to be gone")
	}
}
