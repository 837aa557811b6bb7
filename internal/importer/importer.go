// Package importer reads a localStorage dump from the browser version of the
// planner and turns it into a snapshot that can be restored into the store.
//
// A dump is a JSON object mapping storage keys to their stored values. Values
// are normally the raw localStorage strings (so arrays and objects arrive
// JSON-encoded inside a string), but already-decoded values are accepted too.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

const (
	KeyTasks            = "studentos_tasks"
	KeyLegacyTasks      = "tasks"
	KeyStudiedDates     = "studiedDates"
	KeyEvents           = "calendarEvents"
	KeyCGPA             = "cgpa"
	KeyTargetCGPA       = "targetCgpa"
	KeySemesterGPAs     = "semesterGpas"
	KeySubjects         = "subjects"
	KeyPlacements       = "placements"
	KeyPomodoroSessions = "pomodoroSessions"
)

// Result carries the snapshot plus notes about values that were skipped.
type Result struct {
	Snapshot model.Snapshot
	Warnings []string
}

// Parse never fails on a damaged value; it is dropped and reported as a
// warning. Only a dump that is not a JSON object is an error.
func Parse(r io.Reader, env planner.Env) (Result, error) {
	var dump map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return Result{}, fmt.Errorf("decode dump: %w", err)
	}

	res := Result{Snapshot: model.Snapshot{
		Version:          model.SnapshotVersion,
		TakenAt:          env.Now.UTC(),
		Events:           map[string][]string{},
		PomodoroSessions: map[string]int{},
	}}
	p := &parser{dump: dump, result: &res}

	primary := p.rawTasks(KeyTasks)
	legacy := p.rawTasks(KeyLegacyTasks)
	res.Snapshot.Tasks = planner.Migrate(primary, legacy, env)

	var studied []string
	p.decode(KeyStudiedDates, &studied)
	res.Snapshot.StudiedDates = calendar.NormalizeStudySet(studied)

	var events map[string]any
	p.decode(KeyEvents, &events)
	res.Snapshot.Events = calendar.EventsFromStrings(stringLists(events)).Strings()

	if cgpa, ok := p.number(KeyCGPA); ok && cgpa >= 0 && cgpa <= 10 {
		res.Snapshot.Academics.CGPA = &cgpa
	}
	if target, ok := p.number(KeyTargetCGPA); ok && target > 0 && target <= 10 {
		res.Snapshot.Academics.TargetCGPA = target
	}
	var semesters []any
	p.decode(KeySemesterGPAs, &semesters)
	for _, value := range semesters {
		if gpa, ok := toNumber(value); ok {
			res.Snapshot.Academics.SemesterGPAs = append(res.Snapshot.Academics.SemesterGPAs, gpa)
		}
	}

	var subjects []map[string]any
	p.decode(KeySubjects, &subjects)
	for _, item := range subjects {
		name := strings.TrimSpace(toString(item["name"]))
		if name == "" {
			continue
		}
		attendance, _ := toNumber(item["attendance"])
		progress, _ := toNumber(item["progress"])
		res.Snapshot.Subjects = append(res.Snapshot.Subjects, model.Subject{Name: name, Attendance: attendance, Progress: progress})
	}

	var placements []map[string]any
	p.decode(KeyPlacements, &placements)
	for _, item := range placements {
		placement := model.Placement{
			Company:    strings.TrimSpace(toString(item["company"])),
			Role:       strings.TrimSpace(toString(item["role"])),
			Type:       toString(item["type"]),
			Status:     toString(item["status"]),
			ResumeName: toString(item["resumeName"]),
			ResumePath: toString(item["resumeURL"]),
		}
		if placement.Company == "" {
			continue
		}
		res.Snapshot.Placements = append(res.Snapshot.Placements, placement)
	}

	p.sessions(env.Today)
	return res, nil
}

type parser struct {
	dump   map[string]json.RawMessage
	result *Result
}

func (p *parser) warn(format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, fmt.Sprintf(format, args...))
}

// stored unwraps a localStorage string into the JSON text it holds.
func (p *parser) stored(key string) (json.RawMessage, bool) {
	raw, ok := p.dump[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return json.RawMessage(text), true
	}
	return raw, true
}

func (p *parser) decode(key string, dst any) {
	raw, ok := p.stored(key)
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.warn("%s: ignored unreadable value", key)
	}
}

func (p *parser) rawTasks(key string) []planner.RawTask {
	var items []json.RawMessage
	p.decode(key, &items)
	tasks := make([]planner.RawTask, 0, len(items))
	for i, item := range items {
		var task planner.RawTask
		if err := json.Unmarshal(item, &task); err != nil {
			p.warn("%s[%d]: not a task record", key, i)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func (p *parser) number(key string) (float64, bool) {
	raw, ok := p.stored(key)
	if !ok {
		return 0, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		value = string(raw)
	}
	n, ok := toNumber(value)
	if !ok {
		p.warn("%s: %q is not a number", key, string(raw))
	}
	return n, ok
}

// sessions accepts the per-day object this app writes, or the single running
// counter the web app kept, which is credited to today.
func (p *parser) sessions(today isodate.Date) {
	raw, ok := p.stored(KeyPomodoroSessions)
	if !ok {
		return
	}
	var perDay map[string]any
	if err := json.Unmarshal(raw, &perDay); err == nil {
		for key, value := range perDay {
			date, err := isodate.Parse(key)
			n, ok := toNumber(value)
			if err != nil || !ok || n < 1 {
				continue
			}
			p.result.Snapshot.PomodoroSessions[date.String()] += int(n)
		}
		return
	}
	if n, ok := p.number(KeyPomodoroSessions); ok && n >= 1 {
		p.result.Snapshot.PomodoroSessions[today.String()] += int(n)
	}
}

func stringLists(raw map[string]any) map[string][]string {
	out := make(map[string][]string, len(raw))
	for key, value := range raw {
		items, ok := value.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			if text, ok := item.(string); ok {
				out[key] = append(out[key], text)
			}
		}
	}
	return out
}

func toString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch value := v.(type) {
	case float64:
		n = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
