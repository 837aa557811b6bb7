package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

var ErrNotFound = errors.New("not found")

const (
	settingCGPA       = "cgpa"
	settingTargetCGPA = "target_cgpa"
)

type Store struct {
	DB  *sqlx.DB
	Now func() time.Time
}

type taskRow struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	Priority  string `db:"priority"`
	DueDate   string `db:"due_date"`
	CreatedAt string `db:"created_at"`
	Completed bool   `db:"completed"`
	Position  int    `db:"position"`
}

type eventRow struct {
	Date     string `db:"date"`
	Position int    `db:"position"`
	Text     string `db:"text"`
}

type sessionRow struct {
	Date  string `db:"date"`
	Count int    `db:"count"`
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: sqlx.NewDb(db, "sqlite"), Now: time.Now}
}

// Env is the clock used for normalizing stored tasks and stamping new ones.
func (s *Store) Env() planner.Env {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return planner.NewEnv(now())
}

func (s *Store) Today() isodate.Date {
	return s.Env().Today
}

func (s *Store) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("rollback: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListTasks returns tasks in insertion order. Rows are passed through the
// planner's migration so hand-edited or damaged rows come back normalized.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	if err := s.DB.SelectContext(ctx, &rows, "SELECT id, title, priority, due_date, created_at, completed, position FROM tasks ORDER BY position, rowid"); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	raws := make([]planner.RawTask, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, planner.RawTask{
			ID:        row.ID,
			Title:     row.Title,
			Priority:  row.Priority,
			DueDate:   row.DueDate,
			CreatedAt: row.CreatedAt,
			Completed: row.Completed,
		})
	}
	return planner.Migrate(raws, nil, s.Env()), nil
}

func (s *Store) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return replaceTasks(ctx, tx, tasks)
	})
}

func replaceTasks(ctx context.Context, tx *sqlx.Tx, tasks []model.Task) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	for i, task := range tasks {
		if err := insertTask(ctx, tx, task, i); err != nil {
			return err
		}
	}
	return nil
}

func insertTask(ctx context.Context, tx *sqlx.Tx, task model.Task, position int) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tasks (id, title, priority, due_date, created_at, completed, position)
		VALUES (:id, :title, :priority, :due_date, :created_at, :completed, :position)`, toTaskRow(task, position))
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

func (s *Store) AddTask(ctx context.Context, task model.Task) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var next int
		if err := tx.GetContext(ctx, &next, "SELECT COALESCE(MAX(position), -1) + 1 FROM tasks"); err != nil {
			return fmt.Errorf("next task position: %w", err)
		}
		return insertTask(ctx, tx, task, next)
	})
}

// CreateTask validates entry and stores the new task.
func (s *Store) CreateTask(ctx context.Context, entry planner.Entry) (model.Task, error) {
	task, err := planner.NewTask(entry, s.Env())
	if err != nil {
		return model.Task{}, err
	}
	if err := s.AddTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Store) ToggleTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE tasks SET completed = NOT completed WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("toggle task %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		var row taskRow
		if err := tx.GetContext(ctx, &row, "SELECT id, title, priority, due_date, created_at, completed, position FROM tasks WHERE id = ?", id); err != nil {
			return fmt.Errorf("reload task %s: %w", id, err)
		}
		task = planner.Normalize(planner.RawTask{
			ID:        row.ID,
			Title:     row.Title,
			Priority:  row.Priority,
			DueDate:   row.DueDate,
			CreatedAt: row.CreatedAt,
			Completed: row.Completed,
		}, s.Env())
		return nil
	})
	return task, err
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func toTaskRow(task model.Task, position int) taskRow {
	return taskRow{
		ID:        task.ID,
		Title:     task.Title,
		Priority:  string(task.Priority),
		DueDate:   task.DueDate.String(),
		CreatedAt: task.CreatedAt,
		Completed: task.Completed,
		Position:  position,
	}
}

// StudiedDates returns the studied set sorted ascending.
func (s *Store) StudiedDates(ctx context.Context) ([]isodate.Date, error) {
	var raw []string
	if err := s.DB.SelectContext(ctx, &raw, "SELECT date FROM studied_dates"); err != nil {
		return nil, fmt.Errorf("list studied dates: %w", err)
	}
	return calendar.NormalizeStudySet(raw), nil
}

// MarkStudied is idempotent.
func (s *Store) MarkStudied(ctx context.Context, date isodate.Date) error {
	if _, err := s.DB.ExecContext(ctx, "INSERT OR IGNORE INTO studied_dates (date) VALUES (?)", date.String()); err != nil {
		return fmt.Errorf("mark studied %s: %w", date, err)
	}
	return nil
}

func replaceStudiedDates(ctx context.Context, tx *sqlx.Tx, dates []isodate.Date) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM studied_dates"); err != nil {
		return fmt.Errorf("clear studied dates: %w", err)
	}
	for _, date := range calendar.SortDates(dates) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO studied_dates (date) VALUES (?)", date.String()); err != nil {
			return fmt.Errorf("insert studied date %s: %w", date, err)
		}
	}
	return nil
}

func (s *Store) Events(ctx context.Context) (calendar.Events, error) {
	return loadEvents(ctx, s.DB)
}

func loadEvents(ctx context.Context, q sqlx.QueryerContext) (calendar.Events, error) {
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q, &rows, "SELECT date, position, text FROM events ORDER BY date, position"); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	raw := make(map[string][]string)
	for _, row := range rows {
		raw[row.Date] = append(raw[row.Date], row.Text)
	}
	return calendar.EventsFromStrings(raw), nil
}

// AddEvent appends text to the entries for date.
func (s *Store) AddEvent(ctx context.Context, date isodate.Date, text string) (calendar.Events, error) {
	return s.updateEvents(ctx, func(events calendar.Events) (calendar.Events, error) {
		return calendar.AddEvent(events, date, text), nil
	})
}

func (s *Store) RemoveEvent(ctx context.Context, date isodate.Date, index int) (calendar.Events, error) {
	return s.updateEvents(ctx, func(events calendar.Events) (calendar.Events, error) {
		return calendar.RemoveEvent(events, date, index), nil
	})
}

// AddRecurringEvent stores one entry per occurrence of rule and returns the
// dates that were written.
func (s *Store) AddRecurringEvent(ctx context.Context, text string, start isodate.Date, rule string) ([]isodate.Date, error) {
	var dates []isodate.Date
	_, err := s.updateEvents(ctx, func(events calendar.Events) (calendar.Events, error) {
		next, occurrences, err := calendar.AddRecurringEvent(events, text, start, rule)
		dates = occurrences
		return next, err
	})
	return dates, err
}

// updateEvents reads, changes and rewrites the events in one transaction so
// concurrent writers cannot drop each other's entries.
func (s *Store) updateEvents(ctx context.Context, fn func(calendar.Events) (calendar.Events, error)) (calendar.Events, error) {
	var next calendar.Events
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := loadEvents(ctx, tx)
		if err != nil {
			return err
		}
		if next, err = fn(current); err != nil {
			return err
		}
		return replaceEvents(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func replaceEvents(ctx context.Context, tx *sqlx.Tx, events calendar.Events) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	for _, date := range events.Dates() {
		for i, text := range events[date] {
			row := eventRow{Date: date.String(), Position: i, Text: text}
			if _, err := tx.NamedExecContext(ctx, "INSERT INTO events (date, position, text) VALUES (:date, :position, :text)", row); err != nil {
				return fmt.Errorf("insert event %s: %w", date, err)
			}
		}
	}
	return nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	subjects := []model.Subject{}
	if err := s.DB.SelectContext(ctx, &subjects, "SELECT id, name, attendance, progress FROM subjects ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (s *Store) AddSubject(ctx context.Context, subject model.Subject) (model.Subject, error) {
	res, err := s.DB.NamedExecContext(ctx, "INSERT INTO subjects (name, attendance, progress) VALUES (:name, :attendance, :progress)", subject)
	if err != nil {
		return model.Subject{}, fmt.Errorf("add subject: %w", err)
	}
	subject.ID, err = res.LastInsertId()
	if err != nil {
		return model.Subject{}, fmt.Errorf("subject id: %w", err)
	}
	return subject, nil
}

func (s *Store) DeleteSubject(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "subjects", id)
}

func (s *Store) ListPlacements(ctx context.Context) ([]model.Placement, error) {
	placements := []model.Placement{}
	if err := s.DB.SelectContext(ctx, &placements, "SELECT id, company, role, type, status, resume_name, resume_path FROM placements ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	return placements, nil
}

func (s *Store) AddPlacement(ctx context.Context, placement model.Placement) (model.Placement, error) {
	res, err := s.DB.NamedExecContext(ctx, `INSERT INTO placements (company, role, type, status, resume_name, resume_path)
		VALUES (:company, :role, :type, :status, :resume_name, :resume_path)`, placement)
	if err != nil {
		return model.Placement{}, fmt.Errorf("add placement: %w", err)
	}
	placement.ID, err = res.LastInsertId()
	if err != nil {
		return model.Placement{}, fmt.Errorf("placement id: %w", err)
	}
	return placement, nil
}

func (s *Store) DeletePlacement(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "placements", id)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Academics(ctx context.Context) (model.Academics, error) {
	academics := model.Academics{SemesterGPAs: []float64{}}

	cgpa, ok, err := s.floatSetting(ctx, settingCGPA)
	if err != nil {
		return model.Academics{}, err
	}
	if ok {
		academics.CGPA = &cgpa
	}
	target, ok, err := s.floatSetting(ctx, settingTargetCGPA)
	if err != nil {
		return model.Academics{}, err
	}
	if ok {
		academics.TargetCGPA = target
	}

	if err := s.DB.SelectContext(ctx, &academics.SemesterGPAs, "SELECT gpa FROM semester_gpas ORDER BY semester"); err != nil {
		return model.Academics{}, fmt.Errorf("list semester gpas: %w", err)
	}
	return academics, nil
}

func (s *Store) SetCGPA(ctx context.Context, cgpa float64) error {
	_, err := s.DB.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		settingCGPA, strconv.FormatFloat(cgpa, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("set cgpa: %w", err)
	}
	return nil
}

func (s *Store) SaveAcademics(ctx context.Context, academics model.Academics) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return replaceAcademics(ctx, tx, academics)
	})
}

func replaceAcademics(ctx context.Context, tx *sqlx.Tx, academics model.Academics) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key IN (?, ?)", settingCGPA, settingTargetCGPA); err != nil {
		return fmt.Errorf("clear academics: %w", err)
	}
	if academics.CGPA != nil {
		if _, err := tx.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?)", settingCGPA, strconv.FormatFloat(*academics.CGPA, 'f', -1, 64)); err != nil {
			return fmt.Errorf("save cgpa: %w", err)
		}
	}
	if academics.TargetCGPA > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?)", settingTargetCGPA, strconv.FormatFloat(academics.TargetCGPA, 'f', -1, 64)); err != nil {
			return fmt.Errorf("save target cgpa: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM semester_gpas"); err != nil {
		return fmt.Errorf("clear semester gpas: %w", err)
	}
	for i, gpa := range academics.SemesterGPAs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO semester_gpas (semester, gpa) VALUES (?, ?)", i+1, gpa); err != nil {
			return fmt.Errorf("save semester %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) floatSetting(ctx context.Context, key string) (float64, bool, error) {
	var raw string
	err := s.DB.GetContext(ctx, &raw, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read setting %s: %w", key, err)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A damaged value reads as unset.
		return 0, false, nil
	}
	return value, true, nil
}

func (s *Store) PomodoroSessions(ctx context.Context) (map[isodate.Date]int, error) {
	var rows []sessionRow
	if err := s.DB.SelectContext(ctx, &rows, "SELECT date, count FROM pomodoro_sessions"); err != nil {
		return nil, fmt.Errorf("list pomodoro sessions: %w", err)
	}
	sessions := make(map[isodate.Date]int, len(rows))
	for _, row := range rows {
		date, err := isodate.Parse(row.Date)
		if err != nil || row.Count <= 0 {
			continue
		}
		sessions[date] += row.Count
	}
	return sessions, nil
}

func (s *Store) RecordSession(ctx context.Context, date isodate.Date) error {
	_, err := s.DB.ExecContext(ctx, "INSERT INTO pomodoro_sessions (date, count) VALUES (?, 1) ON CONFLICT(date) DO UPDATE SET count = count + 1", date.String())
	if err != nil {
		return fmt.Errorf("record pomodoro session: %w", err)
	}
	return nil
}

func replaceSessions(ctx context.Context, tx *sqlx.Tx, sessions map[isodate.Date]int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM pomodoro_sessions"); err != nil {
		return fmt.Errorf("clear pomodoro sessions: %w", err)
	}
	for date, count := range sessions {
		if count <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO pomodoro_sessions (date, count) VALUES (?, ?)", date.String(), count); err != nil {
			return fmt.Errorf("insert pomodoro session %s: %w", date, err)
		}
	}
	return nil
}

func replaceSubjects(ctx context.Context, tx *sqlx.Tx, subjects []model.Subject) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM subjects"); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}
	for _, subject := range subjects {
		if _, err := tx.NamedExecContext(ctx, "INSERT INTO subjects (name, attendance, progress) VALUES (:name, :attendance, :progress)", subject); err != nil {
			return fmt.Errorf("insert subject %s: %w", subject.Name, err)
		}
	}
	return nil
}

func replacePlacements(ctx context.Context, tx *sqlx.Tx, placements []model.Placement) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM placements"); err != nil {
		return fmt.Errorf("clear placements: %w", err)
	}
	for _, placement := range placements {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO placements (company, role, type, status, resume_name, resume_path)
			VALUES (:company, :role, :type, :status, :resume_name, :resume_path)`, placement)
		if err != nil {
			return fmt.Errorf("insert placement %s: %w", placement.Company, err)
		}
	}
	return nil
}
