package planner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
)

// createdAtLayout mirrors a browser Date.toISOString value.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

var legacyNamespace = uuid.MustParse("6f1c2b9e-4d0a-4b8e-9a53-3c1f5e7d2a10")

var acceptedTimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	isodate.Layout,
}

type Schema int

const (
	SchemaCurrent Schema = iota
	SchemaLegacy
)

// RawTask is a stored task record of unknown vintage. Fields are left untyped
// so that wrong types in storage are normalized instead of failing to decode.
type RawTask struct {
	ID        any `json:"id,omitempty"`
	Title     any `json:"title,omitempty"`
	Priority  any `json:"priority,omitempty"`
	DueDate   any `json:"dueDate,omitempty"`
	CreatedAt any `json:"createdAt,omitempty"`
	Completed any `json:"completed,omitempty"`
	Done      any `json:"done,omitempty"`
}

// Schema reports whether the record predates ids and due dates.
func (r RawTask) Schema() Schema {
	if r.ID == nil && r.DueDate == nil && r.Completed == nil {
		return SchemaLegacy
	}
	return SchemaCurrent
}

// Env supplies everything Normalize would otherwise read from the environment.
type Env struct {
	Today isodate.Date
	Now   time.Time
	NewID func() string
}

func NewEnv(now time.Time) Env {
	return Env{Today: isodate.FromTime(now), Now: now, NewID: uuid.NewString}
}

func (e Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// Raw converts a canonical task back into the stored shape.
func Raw(task model.Task) RawTask {
	return RawTask{
		ID:        task.ID,
		Title:     task.Title,
		Priority:  string(task.Priority),
		DueDate:   task.DueDate.String(),
		CreatedAt: task.CreatedAt,
		Completed: task.Completed,
	}
}

// Normalize fills defaults for missing or malformed fields. It never fails and
// Normalize(Raw(Normalize(r))) == Normalize(r).
func Normalize(raw RawTask, env Env) model.Task {
	task := model.Task{
		ID:        stringValue(raw.ID),
		Title:     strings.TrimSpace(stringValue(raw.Title)),
		Priority:  model.ParsePriority(stringValue(raw.Priority)),
		Completed: completedValue(raw),
	}
	if task.ID == "" {
		task.ID = env.newID()
	}

	if due, err := isodate.Parse(stringValue(raw.DueDate)); err == nil {
		task.DueDate = due
	} else {
		task.DueDate = env.Today
	}

	createdAt := stringValue(raw.CreatedAt)
	if _, ok := parseTimestamp(createdAt); ok {
		task.CreatedAt = createdAt
	} else {
		task.CreatedAt = FormatTimestamp(env.Now)
	}

	return task
}

// Migrate resolves a stored collection. The primary records win when present;
// otherwise the legacy collection is upgraded. Records without a title are
// dropped and duplicate ids keep their first occurrence.
func Migrate(primary, legacy []RawTask, env Env) []model.Task {
	source := primary
	if len(source) == 0 {
		source = legacy
	}

	seen := make(map[string]struct{}, len(source))
	tasks := make([]model.Task, 0, len(source))
	for index, raw := range source {
		if stringValue(raw.ID) == "" {
			raw.ID = LegacyID(index, raw)
		}
		task := Normalize(raw, env)
		if task.Title == "" {
			continue
		}
		if _, ok := seen[task.ID]; ok {
			continue
		}
		seen[task.ID] = struct{}{}
		tasks = append(tasks, task)
	}
	return tasks
}

// LegacyID derives a stable id from a record's position and content so that
// re-running a migration yields the same ids.
func LegacyID(index int, raw RawTask) string {
	key := fmt.Sprintf("%d|%s|%s", index, strings.TrimSpace(stringValue(raw.Title)), stringValue(raw.Priority))
	return uuid.NewSHA1(legacyNamespace, []byte(key)).String()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedTimestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func completedValue(raw RawTask) bool {
	if raw.Completed != nil {
		return truthy(raw.Completed)
	}
	return truthy(raw.Done)
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0 && !math.IsNaN(value)
	case int:
		return value != 0
	case int64:
		return value != 0
	default:
		return true
	}
}
