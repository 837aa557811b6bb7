package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
	"github.com/Joseda-hg/studyboard/internal/pomodoro"
)

var weekdayLabels = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

func formatTask(task model.Task, today isodate.Date) string {
	check := " "
	if task.Completed {
		check = "x"
	}
	line := fmt.Sprintf("[%s] %-6s %s | %s", check, task.Priority, task.Title, task.DueDate)
	if !task.Completed {
		if late := planner.DaysLate(task.DueDate, today); late > 0 {
			line += fmt.Sprintf(" (%dd late)", late)
		}
	}
	return line
}

// calendarLines renders the grid as a weekday header plus one line per week.
// Each cell is five columns: selection marker, day, studied marker, event
// marker.
func calendarLines(grid calendar.MonthGrid) []string {
	var header strings.Builder
	for _, label := range weekdayLabels {
		fmt.Fprintf(&header, " %2s  ", label)
	}
	lines := []string{strings.TrimRight(header.String(), " ")}

	for _, week := range grid.Weeks() {
		var row strings.Builder
		for _, cell := range week {
			row.WriteString(formatCell(cell))
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
	}
	return lines
}

func formatCell(cell calendar.Cell) string {
	if cell.Blank {
		return "     "
	}
	sel := " "
	switch {
	case cell.IsSelected:
		sel = ">"
	case cell.IsToday:
		sel = "."
	}
	studied := " "
	if cell.IsStudied {
		studied = "*"
	}
	events := " "
	if cell.HasEvents {
		events = "+"
	}
	return fmt.Sprintf("%s%2d%s%s", sel, cell.Day, studied, events)
}

func headerText(today isodate.Date, current, longest, sessions int, buckets planner.Buckets) string {
	return fmt.Sprintf("studyboard | %s | streak %s (longest %d) | sessions today: %d | %d/%d tasks done",
		today, pluralDays(current), longest, sessions, len(buckets.Completed), buckets.Total())
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func pomodoroLines(remaining time.Duration, minutes int, running bool) []string {
	state := "paused"
	if running {
		state = "running"
	}
	presets := make([]string, 0, len(pomodoro.Presets))
	for _, preset := range pomodoro.Presets {
		label := fmt.Sprintf("%d", preset)
		if preset == minutes {
			label = "[" + label + "]"
		}
		presets = append(presets, label)
	}
	return []string{
		fmt.Sprintf("%s  %s", pomodoro.Format(remaining), state),
		fmt.Sprintf("%d min | presets %s", minutes, strings.Join(presets, " ")),
	}
}

// nextPreset returns the preset after current, wrapping around. A custom
// duration moves to the first preset above it.
func nextPreset(current int) int {
	for _, preset := range pomodoro.Presets {
		if preset > current {
			return preset
		}
	}
	return pomodoro.Presets[0]
}
