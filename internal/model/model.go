package model

import (
	"time"

	"github.com/Joseda-hg/studyboard/internal/isodate"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities so that High sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ParsePriority falls back to Medium for anything unknown.
func ParsePriority(value string) Priority {
	p := Priority(value)
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

type Task struct {
	ID        string       `json:"id" yaml:"id"`
	Title     string       `json:"title" yaml:"title"`
	Priority  Priority     `json:"priority" yaml:"priority"`
	DueDate   isodate.Date `json:"dueDate" yaml:"due_date"`
	CreatedAt string       `json:"createdAt" yaml:"created_at"`
	Completed bool         `json:"completed" yaml:"completed"`
}

type Subject struct {
	ID         int64   `json:"id" yaml:"id" db:"id"`
	Name       string  `json:"name" yaml:"name" db:"name"`
	Attendance float64 `json:"attendance" yaml:"attendance" db:"attendance"`
	Progress   float64 `json:"progress" yaml:"progress" db:"progress"`
}

type Academics struct {
	CGPA         *float64  `json:"cgpa,omitempty" yaml:"cgpa,omitempty"`
	TargetCGPA   float64   `json:"targetCgpa" yaml:"target_cgpa"`
	SemesterGPAs []float64 `json:"semesterGpas" yaml:"semester_gpas"`
}

type Placement struct {
	ID         int64  `json:"id" yaml:"id" db:"id"`
	Company    string `json:"company" yaml:"company" db:"company"`
	Role       string `json:"role" yaml:"role" db:"role"`
	Type       string `json:"type" yaml:"type" db:"type"`
	Status     string `json:"status" yaml:"status" db:"status"`
	ResumeName string `json:"resumeName" yaml:"resume_name" db:"resume_name"`
	ResumePath string `json:"resumePath" yaml:"resume_path" db:"resume_path"`
}

// Snapshot is the full persisted state, used for backups and imports.
type Snapshot struct {
	Version          int                 `json:"version" yaml:"version"`
	TakenAt          time.Time           `json:"takenAt" yaml:"taken_at"`
	Tasks            []Task              `json:"tasks" yaml:"tasks"`
	StudiedDates     []isodate.Date      `json:"studiedDates" yaml:"studied_dates"`
	Events           map[string][]string `json:"events" yaml:"events"`
	Subjects         []Subject           `json:"subjects" yaml:"subjects"`
	Academics        Academics           `json:"academics" yaml:"academics"`
	Placements       []Placement         `json:"placements" yaml:"placements"`
	PomodoroSessions map[string]int      `json:"pomodoroSessions" yaml:"pomodoro_sessions"`
}

const SnapshotVersion = 1
