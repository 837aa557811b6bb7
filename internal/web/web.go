package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/dashboard"
	"github.com/Joseda-hg/studyboard/internal/db"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/logger"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"percent": func(minutes int) int { return minutes * 100 / dashboard.MaxDailyMinutes },
}

var (
	indexTemplate    = template.Must(template.New("index.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/index.tmpl"))
	calendarTemplate = template.Must(template.New("calendar.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/calendar.tmpl"))
)

// errBadQuery marks query-string problems that the client can fix.
var errBadQuery = errors.New("bad query")

type Server struct {
	store   *db.Store
	log     *logger.Logger
	metrics *metrics
}

func NewServer(store *db.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{store: store, log: log.WithComponent("web"), metrics: newMetrics(store)}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "/", s.indexHandler)
	s.handle(mux, "/calendar", s.calendarPageHandler)
	s.handle(mux, "/calendar.ics", s.icsHandler)
	s.handle(mux, "/health", s.healthHandler)
	s.handle(mux, "/api/dashboard", s.apiDashboardHandler)
	s.handle(mux, "/api/tasks", s.apiTasksHandler)
	s.handle(mux, "/api/tasks/", s.apiTaskHandler)
	s.handle(mux, "/api/calendar", s.apiCalendarHandler)
	s.handle(mux, "/api/studied", s.apiStudiedHandler)
	s.handle(mux, "/api/events", s.apiEventsHandler)
	s.handle(mux, "/api/subjects", s.apiSubjectsHandler)
	s.handle(mux, "/api/subjects/", s.apiSubjectHandler)
	s.handle(mux, "/api/placements", s.apiPlacementsHandler)
	s.handle(mux, "/api/placements/", s.apiPlacementHandler)
	s.handle(mux, "/api/academics", s.apiAcademicsHandler)
	s.handle(mux, "/api/pomodoro", s.apiPomodoroHandler)
	mux.Handle("/metrics", s.metrics.handler())
	return s.log.Middleware(mux)
}

func (s *Server) handle(mux *http.ServeMux, route string, h http.HandlerFunc) {
	mux.Handle(route, s.metrics.instrument(route, h))
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	summary, err := s.summary(r)
	if err != nil {
		s.serverError(w, err)
		return
	}

	if err := indexTemplate.Execute(w, summary); err != nil {
		s.serverError(w, err)
		return
	}
}

func (s *Server) calendarPageHandler(w http.ResponseWriter, r *http.Request) {
	view, err := s.calendarView(r)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	if err := calendarTemplate.Execute(w, view); err != nil {
		s.serverError(w, err)
		return
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) summary(r *http.Request) (dashboard.Summary, error) {
	snap, err := s.store.Snapshot(r.Context())
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Build(dashboard.FromSnapshot(snap, s.store.Today())), nil
}

type calendarView struct {
	Grid      calendar.MonthGrid  `json:"grid"`
	Label     string              `json:"label"`
	Weeks     [][]calendar.Cell   `json:"-"`
	Selected  isodate.Date        `json:"selected"`
	Entries   []string            `json:"entries"`
	Streak    int                 `json:"currentStreak"`
	Longest   calendar.Run        `json:"longest"`
	PrevQuery string              `json:"-"`
	NextQuery string              `json:"-"`
	Events    map[string][]string `json:"events"`
}

// calendarView reads year, month and selected from the query string. Missing
// values default to today's month and today.
func (s *Server) calendarView(r *http.Request) (calendarView, error) {
	today := s.store.Today()
	query := r.URL.Query()

	selected := today
	if value := strings.TrimSpace(query.Get("selected")); value != "" {
		parsed, err := isodate.Parse(value)
		if err != nil {
			return calendarView{}, fmt.Errorf("%w: invalid selected date %q", errBadQuery, value)
		}
		selected = parsed
	}

	year, month := selected.Year, selected.Month
	if value := strings.TrimSpace(query.Get("year")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return calendarView{}, fmt.Errorf("%w: invalid year %q", errBadQuery, value)
		}
		year = parsed
	}
	if value := strings.TrimSpace(query.Get("month")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return calendarView{}, fmt.Errorf("%w: invalid month %q", errBadQuery, value)
		}
		month = time.Month(parsed)
	}

	studied, err := s.store.StudiedDates(r.Context())
	if err != nil {
		return calendarView{}, err
	}
	events, err := s.store.Events(r.Context())
	if err != nil {
		return calendarView{}, err
	}

	grid, err := calendar.BuildMonthGrid(year, month, studied, events, selected, today)
	if errors.Is(err, calendar.ErrMonthOutOfRange) {
		return calendarView{}, fmt.Errorf("%w: %v", errBadQuery, err)
	}
	if err != nil {
		return calendarView{}, err
	}
	prevYear, prevMonth := grid.Prev()
	nextYear, nextMonth := grid.Next()

	return calendarView{
		Grid:      grid,
		Label:     grid.Label(),
		Weeks:     grid.Weeks(),
		Selected:  selected,
		Entries:   events.For(selected),
		Streak:    calendar.CurrentStreak(studied, today),
		Longest:   calendar.LongestRun(studied),
		PrevQuery: fmt.Sprintf("year=%d&month=%d", prevYear, int(prevMonth)),
		NextQuery: fmt.Sprintf("year=%d&month=%d", nextYear, int(nextMonth)),
		Events:    events.Strings(),
	}, nil
}

func parseID(path, prefix string) (string, string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", "", fmt.Errorf("invalid path")
	}
	value := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if value == "" {
		return "", "", fmt.Errorf("missing id")
	}
	id, action, _ := strings.Cut(value, "/")
	return id, action, nil
}

func parseIntID(path, prefix string) (int64, error) {
	id, action, err := parseID(path, prefix)
	if err != nil {
		return 0, err
	}
	if action != "" {
		return 0, fmt.Errorf("unknown action %q", action)
	}
	return strconv.ParseInt(id, 10, 64)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONStatus(w, http.StatusOK, payload)
}

func writeJSONStatus(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

// writeStoreError maps validation and lookup failures to 4xx responses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONStatus(w, http.StatusBadRequest, verr)
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.serverError(w, err)
	}
}

// writeQueryError answers 400 for errBadQuery and 500 for everything else.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadQuery) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.serverError(w, err)
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Errorw("request failed")
	writeError(w, http.StatusInternalServerError, err)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}
