// Package ics exports calendar entries and task due dates as an iCalendar
// feed so they can be subscribed to from other calendar apps.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/model"
)

const (
	productID = "-//studyboard//calendar export//EN"

	// categoryCompleted tags finished tasks; they keep no STATUS.
	categoryCompleted = "COMPLETED"
)

var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("studyboard:ics"))

type Options struct {
	// IncludeCompleted also exports tasks that are already done.
	IncludeCompleted bool
	Stamp            time.Time
}

// Build creates one all-day VEVENT per calendar entry and one per task due
// date. Entry UIDs hash the date and text, so removing one entry does not
// change the UIDs of the others. Task UIDs use the task id.
func Build(events calendar.Events, tasks []model.Task, opts Options) *ical.Calendar {
	stamp := opts.Stamp.UTC()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("studyboard")

	for _, date := range events.Dates() {
		start := date.Time()
		repeats := make(map[string]int)
		for _, text := range events[date] {
			event := cal.AddEvent(eventUID(date.String(), text, repeats[text]))
			repeats[text]++
			event.SetDtStampTime(stamp)
			event.SetAllDayStartAt(start)
			event.SetAllDayEndAt(start.AddDate(0, 0, 1))
			event.SetSummary(text)
		}
	}

	for _, task := range tasks {
		if task.Completed && !opts.IncludeCompleted {
			continue
		}
		start := task.DueDate.Time()
		event := cal.AddEvent(fmt.Sprintf("task-%s@studyboard", task.ID))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(start.AddDate(0, 0, 1))
		event.SetSummary("Due: " + task.Title)
		event.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(task.Priority)))
		if task.Completed {
			event.AddProperty(ical.ComponentPropertyCategories, categoryCompleted)
		} else {
			event.SetProperty(ical.ComponentPropertyStatus, "CONFIRMED")
		}
	}
	return cal
}

// eventUID is stable for a given date and text. nth separates identical
// entries on the same date.
func eventUID(date, text string, nth int) string {
	key := fmt.Sprintf("%s\x00%s\x00%d", date, text, nth)
	return uuid.NewSHA1(uidSpace, []byte(key)).String() + "@studyboard"
}

func Write(w io.Writer, events calendar.Events, tasks []model.Task, opts Options) error {
	body := Build(events, tasks, opts).Serialize()
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}
