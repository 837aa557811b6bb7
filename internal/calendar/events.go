package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Joseda-hg/studyboard/internal/isodate"
)

// maxRecurrences caps how many dated entries one recurring event may produce.
const maxRecurrences = 366

// ErrInvalidRule is returned for recurrence rules that cannot be parsed or
// that repeat more often than daily.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Events maps a date to its ordered free-text entries. Mutating helpers return
// a new map and never leave a key with an empty slice behind.
type Events map[isodate.Date][]string

// EventsFromStrings converts a stored snapshot keyed by ISO strings, dropping
// malformed keys and empty or non-text entries.
func EventsFromStrings(raw map[string][]string) Events {
	events := make(Events, len(raw))
	for key, entries := range raw {
		date, err := isodate.Parse(key)
		if err != nil {
			continue
		}
		kept := make([]string, 0, len(entries))
		for _, entry := range entries {
			if strings.TrimSpace(entry) == "" {
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			continue
		}
		events[date] = append(events[date], kept...)
	}
	return events
}

func (e Events) Strings() map[string][]string {
	out := make(map[string][]string, len(e))
	for date, entries := range e {
		if len(entries) == 0 {
			continue
		}
		out[date.String()] = append([]string(nil), entries...)
	}
	return out
}

func (e Events) Clone() Events {
	out := make(Events, len(e))
	for date, entries := range e {
		if len(entries) == 0 {
			continue
		}
		out[date] = append([]string(nil), entries...)
	}
	return out
}

func (e Events) Has(date isodate.Date) bool {
	return len(e[date]) > 0
}

func (e Events) For(date isodate.Date) []string {
	return append([]string(nil), e[date]...)
}

// Dates returns every date with at least one entry, ascending.
func (e Events) Dates() []isodate.Date {
	dates := make([]isodate.Date, 0, len(e))
	for date, entries := range e {
		if len(entries) > 0 {
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// AddEvent appends text to date. Blank text leaves the map unchanged.
func AddEvent(events Events, date isodate.Date, text string) Events {
	out := events.Clone()
	value := strings.TrimSpace(text)
	if value == "" {
		return out
	}
	out[date] = append(out[date], value)
	return out
}

// RemoveEvent drops the entry at index for date. Out-of-range indexes are
// ignored.
func RemoveEvent(events Events, date isodate.Date, index int) Events {
	out := events.Clone()
	entries := out[date]
	if index < 0 || index >= len(entries) {
		return out
	}
	entries = append(entries[:index:index], entries[index+1:]...)
	if len(entries) == 0 {
		delete(out, date)
		return out
	}
	out[date] = entries
	return out
}

// AddRecurringEvent expands an RFC 5545 RRULE (e.g. "FREQ=WEEKLY;COUNT=10")
// starting at start and adds text once to every occurrence date. Rules without
// COUNT or UNTIL are bounded to one year from start. Frequencies finer than
// DAILY are rejected.
func AddRecurringEvent(events Events, text string, start isodate.Date, rule string) (Events, []isodate.Date, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return events.Clone(), nil, nil
	}

	r, err := rrule.StrToRRule(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if r.OrigOptions.Freq > rrule.DAILY {
		return nil, nil, fmt.Errorf("%w: repeats more often than daily", ErrInvalidRule)
	}
	r.DTStart(start.Time())

	horizon := start.AddDays(maxRecurrences)
	seen := make(map[isodate.Date]bool)
	dates := make([]isodate.Date, 0)
	next := r.Iterator()
	for len(dates) < maxRecurrences {
		occ, ok := next()
		if !ok {
			break
		}
		date := isodate.FromTime(occ.In(time.UTC))
		if date.After(horizon) {
			break
		}
		if seen[date] {
			continue
		}
		seen[date] = true
		dates = append(dates, date)
	}

	out := events.Clone()
	for _, date := range dates {
		out[date] = append(out[date], value)
	}
	return out, dates, nil
}
