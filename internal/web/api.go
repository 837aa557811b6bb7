package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/studyboard/internal/academics"
	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/ics"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

func (s *Server) apiDashboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	summary, err := s.summary(r)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, summary)
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tasks, err := s.store.ListTasks(r.Context())
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, planner.Partition(tasks, s.store.Today()))
	case http.MethodPost:
		var entry planner.Entry
		if err := decodeJSON(r, &entry); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		task, err := s.store.CreateTask(r.Context(), entry)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.log.Infow("task created", "id", task.ID, "due", task.DueDate.String())
		writeJSONStatus(w, http.StatusCreated, task)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// apiTaskHandler serves DELETE /api/tasks/{id} and POST /api/tasks/{id}/toggle.
func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseID(r.URL.Path, "/api/tasks/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch {
	case action == "toggle" && r.Method == http.MethodPost:
		task, err := s.store.ToggleTask(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.log.Infow("task toggled", "id", task.ID, "completed", task.Completed)
		writeJSON(w, task)
	case action == "" && r.Method == http.MethodDelete:
		if err := s.store.DeleteTask(r.Context(), id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.log.Infow("task deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)
	case action == "" || action == "toggle":
		methodNotAllowed(w, http.MethodPost, http.MethodDelete)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
	}
}

func (s *Server) apiCalendarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	view, err := s.calendarView(r)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, view)
}

type studiedRequest struct {
	Date string `json:"date"`
}

type streakResponse struct {
	Dates         []isodate.Date `json:"dates"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
}

// apiStudiedHandler lists the studied set, or marks a date (default today) on
// POST. Marking is idempotent.
func (s *Server) apiStudiedHandler(w http.ResponseWriter, r *http.Request) {
	today := s.store.Today()
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		req := studiedRequest{}
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		date := today
		if strings.TrimSpace(req.Date) != "" {
			parsed, err := isodate.Parse(strings.TrimSpace(req.Date))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			date = parsed
		}
		if err := s.store.MarkStudied(r.Context(), date); err != nil {
			s.serverError(w, err)
			return
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	dates, err := s.store.StudiedDates(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, streakResponse{
		Dates:         dates,
		CurrentStreak: calendar.CurrentStreak(dates, today),
		LongestStreak: calendar.LongestStreak(dates),
	})
}

type eventRequest struct {
	Date string `json:"date"`
	Text string `json:"text"`
	// RRule, when set, repeats the entry from Date on.
	RRule string `json:"rrule,omitempty"`
}

func (s *Server) apiEventsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		events, err := s.store.Events(r.Context())
		if err != nil {
			s.serverError(w, err)
			return
		}
		if value := strings.TrimSpace(r.URL.Query().Get("date")); value != "" {
			date, err := isodate.Parse(value)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, events.For(date))
			return
		}
		writeJSON(w, events.Strings())
	case http.MethodPost:
		var req eventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		date, err := isodate.Parse(strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			writeJSONStatus(w, http.StatusBadRequest, &planner.ValidationError{Fields: []planner.FieldError{{Field: "text", Message: "Event text is required."}}})
			return
		}
		if req.RRule != "" {
			dates, err := s.store.AddRecurringEvent(r.Context(), text, date, req.RRule)
			if errors.Is(err, calendar.ErrInvalidRule) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err != nil {
				s.serverError(w, err)
				return
			}
			writeJSONStatus(w, http.StatusCreated, dates)
			return
		}
		events, err := s.store.AddEvent(r.Context(), date, text)
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, events.For(date))
	case http.MethodDelete:
		query := r.URL.Query()
		date, err := isodate.Parse(strings.TrimSpace(query.Get("date")))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		index, err := strconv.Atoi(query.Get("index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err))
			return
		}
		events, err := s.store.RemoveEvent(r.Context(), date, index)
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, events.For(date))
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) apiSubjectsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		subjects, err := s.store.ListSubjects(r.Context())
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, subjects)
	case http.MethodPost:
		var entry academics.SubjectEntry
		if err := decodeJSON(r, &entry); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		subject, err := academics.NewSubject(entry)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if subject, err = s.store.AddSubject(r.Context(), subject); err != nil {
			s.serverError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, subject)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) apiSubjectHandler(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "/api/subjects/", s.store.DeleteSubject)
}

func (s *Server) apiPlacementsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		placements, err := s.store.ListPlacements(r.Context())
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, placements)
	case http.MethodPost:
		var entry academics.PlacementEntry
		if err := decodeJSON(r, &entry); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		placement, err := academics.NewPlacement(entry)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if placement, err = s.store.AddPlacement(r.Context(), placement); err != nil {
			s.serverError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, placement)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) apiPlacementHandler(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "/api/placements/", s.store.DeletePlacement)
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, prefix string, del func(context.Context, int64) error) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	id, err := parseIntID(r.URL.Path, prefix)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cgpaRequest struct {
	CGPA float64 `json:"cgpa"`
}

func (s *Server) apiAcademicsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req cgpaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := academics.ValidateCGPA(req.CGPA); err != nil {
			s.writeStoreError(w, err)
			return
		}
		if err := s.store.SetCGPA(r.Context(), req.CGPA); err != nil {
			s.serverError(w, err)
			return
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
		return
	}

	current, err := s.store.Academics(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, current)
}

// apiPomodoroHandler records one finished session for today. The countdown
// itself runs in the client.
func (s *Server) apiPomodoroHandler(w http.ResponseWriter, r *http.Request) {
	today := s.store.Today()
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := s.store.RecordSession(r.Context(), today); err != nil {
			s.serverError(w, err)
			return
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	sessions, err := s.store.PomodoroSessions(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]int{"today": sessions[today]})
}

func (s *Server) icsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	events, err := s.store.Events(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	opts := ics.Options{IncludeCompleted: r.URL.Query().Get("completed") == "1", Stamp: s.store.Env().Now}
	if err := ics.Write(w, events, tasks, opts); err != nil {
		s.log.WithError(err).Warnw("ics export interrupted")
	}
}
