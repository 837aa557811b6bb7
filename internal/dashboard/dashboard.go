// Package dashboard derives the summary shown on the home screen: stat cards,
// goal progress, upcoming deadlines and the weekly study chart. Everything is
// computed from snapshots and an explicit reference date.
package dashboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

const (
	DefaultTargetCGPA   = 9.0
	MaxDeadlines        = 6
	StudiedDayMinutes   = 90
	SessionMinutes      = 25
	MaxDailyMinutes     = 180
	LowAttendance       = 75.0
	attendanceCGPAGrace = 9.0
	maxSemesters        = 12
)

type Input struct {
	Today            isodate.Date
	Tasks            []model.Task
	StudiedDates     []isodate.Date
	Events           calendar.Events
	Academics        model.Academics
	Subjects         []model.Subject
	PomodoroSessions map[isodate.Date]int
}

type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Foot  string `json:"foot"`
}

type Goal struct {
	Title    string `json:"title"`
	Progress int    `json:"progress"`
	Meta     string `json:"meta"`
}

type Deadline struct {
	Title    string       `json:"title"`
	Date     isodate.Date `json:"date"`
	DaysLeft int          `json:"daysLeft"`
	Priority string       `json:"priority"`
}

type DayMinutes struct {
	Date    isodate.Date `json:"date"`
	Label   string       `json:"label"`
	Minutes int          `json:"minutes"`
}

type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type SubjectStatus struct {
	model.Subject
	LowAttendance bool `json:"lowAttendance"`
}

type Summary struct {
	CurrentStreak int             `json:"currentStreak"`
	LongestStreak int             `json:"longestStreak"`
	StudyHours    float64         `json:"studyHours"`
	TasksDone     int             `json:"tasksDone"`
	TasksTotal    int             `json:"tasksTotal"`
	Buckets       planner.Buckets `json:"buckets"`
	StatCards     []StatCard      `json:"statCards"`
	Goals         []Goal          `json:"goals"`
	Deadlines     []Deadline      `json:"deadlines"`
	Weekly        []DayMinutes    `json:"weekly"`
	CGPASeries    []SeriesPoint   `json:"cgpaSeries"`
	Subjects      []SubjectStatus `json:"subjects"`
}

// FromSnapshot converts the stored representation, dropping malformed keys.
func FromSnapshot(snap model.Snapshot, today isodate.Date) Input {
	sessions := make(map[isodate.Date]int, len(snap.PomodoroSessions))
	for key, count := range snap.PomodoroSessions {
		if date, err := isodate.Parse(key); err == nil {
			sessions[date] += count
		}
	}
	return Input{
		Today:            today,
		Tasks:            snap.Tasks,
		StudiedDates:     snap.StudiedDates,
		Events:           calendar.EventsFromStrings(snap.Events),
		Academics:        snap.Academics,
		Subjects:         snap.Subjects,
		PomodoroSessions: sessions,
	}
}

func Build(in Input) Summary {
	studied := calendar.SortDates(in.StudiedDates)
	streak := calendar.CurrentStreak(studied, in.Today)

	done := 0
	for _, task := range in.Tasks {
		if task.Completed {
			done++
		}
	}

	sessions := 0
	for _, n := range in.PomodoroSessions {
		sessions += n
	}
	raw := float64(len(studied))*1.5 + float64(sessions*SessionMinutes)/60
	hours := math.Round(raw*10) / 10

	target := in.Academics.TargetCGPA
	if target <= 0 || target > 10 {
		target = DefaultTargetCGPA
	}

	summary := Summary{
		CurrentStreak: streak,
		LongestStreak: calendar.LongestStreak(studied),
		StudyHours:    hours,
		TasksDone:     done,
		TasksTotal:    len(in.Tasks),
		Buckets:       planner.Partition(in.Tasks, in.Today),
		Deadlines:     UpcomingDeadlines(in.Events, in.Today, MaxDeadlines),
		Weekly:        WeeklyStudyMinutes(studied, in.PomodoroSessions, in.Today),
		CGPASeries:    CGPASeries(in.Academics.SemesterGPAs),
		Subjects:      SubjectStatuses(in.Subjects, in.Academics.CGPA),
	}

	cgpaValue := "--"
	if in.Academics.CGPA != nil {
		cgpaValue = fmt.Sprintf("%.2f", *in.Academics.CGPA)
	}
	summary.StatCards = []StatCard{
		{Label: "Study Time", Value: fmt.Sprintf("%.1fh", hours), Foot: "From study streak + pomodoro sessions"},
		{Label: "Tasks Done", Value: fmt.Sprintf("%d", done), Foot: fmt.Sprintf("%d total tasks", len(in.Tasks))},
		{Label: "CGPA", Value: cgpaValue, Foot: "Academic performance tracker"},
	}

	taskProgress := 0.0
	if len(in.Tasks) > 0 {
		taskProgress = float64(done) / float64(len(in.Tasks)) * 100
	}
	cgpaGoal := Goal{Title: fmt.Sprintf("CGPA Target %.1f", target), Meta: "Set CGPA in Academics"}
	if in.Academics.CGPA != nil {
		cgpaGoal.Progress = ClampPercent(*in.Academics.CGPA / target * 100)
		cgpaGoal.Meta = fmt.Sprintf("Current %.2f / Target %.2f", *in.Academics.CGPA, target)
	}
	summary.Goals = []Goal{
		{Title: "Task Completion", Progress: ClampPercent(taskProgress), Meta: fmt.Sprintf("%d/%d tasks done", done, len(in.Tasks))},
		{Title: "Study Consistency", Progress: ClampPercent(float64(streak) / 7 * 100), Meta: fmt.Sprintf("%d day streak", streak)},
		cgpaGoal,
	}

	return summary
}

// UpcomingDeadlines lists calendar entries from today on, nearest first. An
// entry two or fewer days out is high priority, five or fewer is medium.
func UpcomingDeadlines(events calendar.Events, today isodate.Date, limit int) []Deadline {
	var deadlines []Deadline
	for _, date := range events.Dates() {
		if date.Before(today) {
			continue
		}
		daysLeft := today.DaysUntil(date)
		priority := "low"
		switch {
		case daysLeft <= 2:
			priority = "high"
		case daysLeft <= 5:
			priority = "medium"
		}
		for _, title := range events[date] {
			deadlines = append(deadlines, Deadline{Title: title, Date: date, DaysLeft: daysLeft, Priority: priority})
		}
	}

	sort.SliceStable(deadlines, func(i, j int) bool {
		if deadlines[i].DaysLeft == deadlines[j].DaysLeft {
			return deadlines[i].Title < deadlines[j].Title
		}
		return deadlines[i].DaysLeft < deadlines[j].DaysLeft
	})
	if limit > 0 && len(deadlines) > limit {
		deadlines = deadlines[:limit]
	}
	return deadlines
}

// WeeklyStudyMinutes covers the seven days ending today.
func WeeklyStudyMinutes(studied []isodate.Date, sessions map[isodate.Date]int, today isodate.Date) []DayMinutes {
	days := make([]DayMinutes, 0, 7)
	for i := 6; i >= 0; i-- {
		date := today.AddDays(-i)
		minutes := sessions[date] * SessionMinutes
		if calendar.Contains(studied, date) {
			minutes += StudiedDayMinutes
		}
		days = append(days, DayMinutes{
			Date:    date,
			Label:   date.Weekday().String()[:3],
			Minutes: min(minutes, MaxDailyMinutes),
		})
	}
	return days
}

// CGPASeries keeps the first twelve semester GPAs that fall within 0..10.
func CGPASeries(semesters []float64) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(semesters))
	for _, gpa := range semesters {
		if math.IsNaN(gpa) || gpa < 0 || gpa > 10 {
			continue
		}
		points = append(points, SeriesPoint{Label: fmt.Sprintf("Sem %d", len(points)+1), Value: gpa})
		if len(points) == maxSemesters {
			break
		}
	}
	return points
}

func SubjectStatuses(subjects []model.Subject, cgpa *float64) []SubjectStatus {
	out := make([]SubjectStatus, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, SubjectStatus{Subject: subject, LowAttendance: NeedsAttendanceWarning(subject, cgpa)})
	}
	return out
}

// NeedsAttendanceWarning flags attendance under 75% unless the CGPA is at
// least 9.0.
func NeedsAttendanceWarning(subject model.Subject, cgpa *float64) bool {
	if subject.Attendance >= LowAttendance {
		return false
	}
	return cgpa == nil || *cgpa < attendanceCGPAGrace
}

func ClampPercent(value float64) int {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(value))))
}
