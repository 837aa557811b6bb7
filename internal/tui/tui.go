package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/db"
	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/logger"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
	"github.com/Joseda-hg/studyboard/internal/pomodoro"
)

const (
	viewHeader    = "header"
	viewFooter    = "footer"
	viewOverdue   = "overdue"
	viewDueToday  = "dueToday"
	viewUpcoming  = "upcoming"
	viewCompleted = "completed"
	viewCalendar  = "calendar"
	viewEvents    = "events"
	viewPomodoro  = "pomodoro"
	viewForm      = "form"
	viewPrompt    = "prompt"
	viewHelp      = "help"
)

// focusOrder is the tab cycle; the number keys follow the same order.
var focusOrder = []string{viewOverdue, viewDueToday, viewUpcoming, viewCompleted, viewCalendar}

var bucketViews = map[string]planner.Bucket{
	viewOverdue:   planner.BucketOverdue,
	viewDueToday:  planner.BucketDueToday,
	viewUpcoming:  planner.BucketUpcoming,
	viewCompleted: planner.BucketCompleted,
}

type promptKind int

var errEventText = errors.New("Event text is required.")

const (
	promptEvent promptKind = iota
	promptMinutes
)

type UI struct {
	store *db.Store
	gui   *gocui.Gui
	log   *logger.Logger
	timer *pomodoro.Timer

	today    isodate.Date
	buckets  planner.Buckets
	studied  []isodate.Date
	events   calendar.Events
	sessions int

	year     int
	month    time.Month
	selected isodate.Date

	selection  map[string]int
	focus      string
	form       *formState
	formEditor *formEditor
	prompt     *promptState
	helpActive bool
	status     string
}

type formState struct {
	fields []formField
	index  int
}

type promptState struct {
	kind  promptKind
	title string
}

type Options struct {
	Log          *logger.Logger
	TimerMinutes int
}

func Run(store *db.Store, opts Options) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui, err := newUI(store, opts)
	if err != nil {
		return err
	}
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadData(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ui.timer.Run(ctx, time.Second, func() {
		gui.Update(func(*gocui.Gui) error { return nil })
	})

	ui.log.Infow("terminal ui started")
	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func newUI(store *db.Store, opts Options) (*UI, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	minutes := opts.TimerMinutes
	if minutes == 0 {
		minutes = pomodoro.DefaultMinutes
	}

	ui := &UI{
		store:     store,
		log:       log.WithComponent("tui"),
		selection: make(map[string]int),
		focus:     viewDueToday,
	}
	ui.formEditor = &formEditor{ui: ui}

	timer, err := pomodoro.New(minutes, ui.onSessionComplete)
	if err != nil {
		return nil, fmt.Errorf("pomodoro: %w", err)
	}
	ui.timer = timer

	ui.today = store.Today()
	ui.selected = ui.today
	ui.year, ui.month = ui.today.Year, ui.today.Month
	return ui, nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'r', u.reload},
		{'a', u.addTask},
		{'x', u.toggleTask},
		{'d', u.deleteTask},
		{'s', u.markStudied},
		{'[', u.prevMonth},
		{']', u.nextMonth},
		{'e', u.addEvent},
		{'p', u.togglePomodoro},
		{'o', u.resetPomodoro},
		{'m', u.cyclePreset},
		{'t', u.customMinutes},
		{'?', u.toggleHelp},
		{gocui.KeyTab, u.switchFocus},
	}
	for _, binding := range global {
		if err := gui.SetKeybinding("", binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}
	for i, name := range focusOrder {
		name := name
		key := rune('1' + i)
		if err := gui.SetKeybinding("", key, gocui.ModNone, func(gui *gocui.Gui, _ *gocui.View) error {
			return u.setFocus(gui, name)
		}); err != nil {
			return err
		}
	}

	for name := range bucketViews {
		for _, key := range []any{gocui.KeyArrowDown, 'j'} {
			if err := gui.SetKeybinding(name, key, gocui.ModNone, u.moveDown); err != nil {
				return err
			}
		}
		for _, key := range []any{gocui.KeyArrowUp, 'k'} {
			if err := gui.SetKeybinding(name, key, gocui.ModNone, u.moveUp); err != nil {
				return err
			}
		}
		if err := gui.SetKeybinding(name, gocui.KeyEnter, gocui.ModNone, u.toggleTask); err != nil {
			return err
		}
		viewName := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewName, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, viewName, opts)
		}}); err != nil {
			return err
		}
	}

	calendarKeys := []struct {
		key   any
		delta int
	}{
		{gocui.KeyArrowLeft, -1}, {'h', -1},
		{gocui.KeyArrowRight, 1}, {'l', 1},
		{gocui.KeyArrowUp, -7}, {'k', -7},
		{gocui.KeyArrowDown, 7}, {'j', 7},
	}
	for _, binding := range calendarKeys {
		delta := binding.delta
		if err := gui.SetKeybinding(viewCalendar, binding.key, gocui.ModNone, func(gui *gocui.Gui, _ *gocui.View) error {
			return u.moveSelectedDay(delta)
		}); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewCalendar, gocui.KeyEnter, gocui.ModNone, u.addEvent); err != nil {
		return err
	}

	formKeys := []struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyEnter, u.submitForm},
		{gocui.KeyCtrlJ, u.submitForm},
		{gocui.KeyTab, u.nextFormField},
		{gocui.KeyArrowDown, u.nextFormField},
		{gocui.KeyBacktab, u.prevFormField},
		{gocui.KeyArrowUp, u.prevFormField},
		{gocui.KeyEsc, u.cancelForm},
	}
	for _, binding := range formKeys {
		if err := gui.SetKeybinding(viewForm, binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewPrompt, gocui.KeyEnter, gocui.ModNone, u.submitPrompt); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewPrompt, gocui.KeyEsc, gocui.ModNone, u.cancelPrompt); err != nil {
		return err
	}
	for _, key := range []any{gocui.KeyEsc, 'q', '?'} {
		if err := gui.SetKeybinding(viewHelp, key, gocui.ModNone, u.closeHelp); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorYellow
	headerView.Clear()
	fmt.Fprint(headerView, headerText(u.today, calendar.CurrentStreak(u.studied, u.today), calendar.LongestStreak(u.studied), u.sessions, u.buckets))

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	l := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX1 := l.leftWidth - 1
	rightX0 := min(leftX1+1, maxX-1)
	rightX1 := maxX - 1

	calendarY1 := bodyTop + l.calendarHeight - 1
	pomodoroY0 := bodyBottom - l.pomodoroHeight + 1
	eventsY0 := calendarY1 + 1
	eventsY1 := max(pomodoroY0-1, eventsY0)

	calendarView, err := gui.SetView(viewCalendar, 0, bodyTop, leftX1, calendarY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	applyViewStyle(calendarView, u.focus == viewCalendar, false)
	calendarView.Title = "5 " + time.Date(u.year, u.month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	u.renderCalendar(calendarView)

	eventsView, err := gui.SetView(viewEvents, 0, eventsY0, leftX1, eventsY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	applyViewStyle(eventsView, false, false)
	eventsView.Title = "Events " + u.selected.String()
	eventsView.Wrap = true
	u.renderEvents(eventsView)

	pomodoroView, err := gui.SetView(viewPomodoro, 0, pomodoroY0, leftX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		pomodoroView.Title = "Pomodoro"
		pomodoroView.TitleColor = gocui.ColorMagenta
	}
	pomodoroView.Clear()
	for _, line := range pomodoroLines(u.timer.Remaining(), u.timer.Minutes(), u.timer.Running()) {
		fmt.Fprintln(pomodoroView, line)
	}

	titles := map[string]string{
		viewOverdue:   "1 Overdue",
		viewDueToday:  "2 Due Today",
		viewUpcoming:  "3 Upcoming",
		viewCompleted: "4 Completed",
	}
	colors := map[string]gocui.Attribute{
		viewOverdue:   gocui.ColorRed,
		viewDueToday:  gocui.ColorYellow,
		viewUpcoming:  gocui.ColorBlue,
		viewCompleted: gocui.ColorGreen,
	}
	y0 := bodyTop
	for i, name := range focusOrder[:4] {
		y1 := y0 + l.bucketHeight - 1
		if i == 3 {
			y1 = bodyBottom
		}
		view, err := gui.SetView(name, rightX0, y0, rightX1, y1, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		focused := u.focus == name
		applyViewStyle(view, focused, true)
		if !focused {
			view.TitleColor = colors[name]
		}
		tasks := u.tasksFor(name)
		view.Title = fmt.Sprintf("%s (%d)", titles[name], len(tasks))
		u.renderTaskList(view, tasks, u.selection[name], focused)
		y0 = y1 + 1
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.prompt != nil {
		if err := u.showPrompt(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewPrompt)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil || !u.inputActive() {
		_, _ = gui.SetCurrentView(u.focus)
	}
	gui.Cursor = u.form != nil || u.prompt != nil
	return nil
}

type layout struct {
	leftWidth      int
	calendarHeight int
	pomodoroHeight int
	bucketHeight   int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 12)

	// Seven five-column cells plus the frame.
	leftWidth := 37
	if leftWidth > safeWidth-20 {
		leftWidth = safeWidth / 2
	}

	return layout{
		leftWidth:      leftWidth,
		calendarHeight: 9,
		pomodoroHeight: 4,
		bucketHeight:   max(safeHeight/4, 3),
	}
}

func (u *UI) loadData() error {
	ctx := context.Background()
	u.today = u.store.Today()

	tasks, err := u.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	studied, err := u.store.StudiedDates(ctx)
	if err != nil {
		return err
	}
	events, err := u.store.Events(ctx)
	if err != nil {
		return err
	}
	sessions, err := u.store.PomodoroSessions(ctx)
	if err != nil {
		return err
	}

	u.buckets = planner.Partition(tasks, u.today)
	u.studied = studied
	u.events = events
	u.sessions = sessions[u.today]

	for name := range bucketViews {
		if count := len(u.tasksFor(name)); u.selection[name] >= count {
			u.selection[name] = max(count-1, 0)
		}
	}
	return nil
}

func (u *UI) tasksFor(name string) []model.Task {
	bucket, ok := bucketViews[name]
	if !ok {
		return nil
	}
	return u.buckets.Get(bucket)
}

func (u *UI) selectedTask() *model.Task {
	tasks := u.tasksFor(u.focus)
	index := u.selection[u.focus]
	if index >= 0 && index < len(tasks) {
		return &tasks[index]
	}
	return nil
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "a add | x toggle | d delete | s studied today | [ ] month | e event | p start/pause | o reset | m preset | t minutes")
	fmt.Fprintln(view, "tab/1-5 panes | hjkl move | ? help | q quit   calendar: > selected . today * studied + events")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(view *gocui.View, tasks []model.Task, selected int, focused bool) {
	view.Clear()
	for i, task := range tasks {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTask(task, u.today))
	}
	if focused && len(tasks) > 0 {
		view.SetCursor(0, min(selected, len(tasks)-1))
	}
}

func (u *UI) renderCalendar(view *gocui.View) {
	view.Clear()
	grid, err := calendar.BuildMonthGrid(u.year, u.month, u.studied, u.events, u.selected, u.today)
	if err != nil {
		fmt.Fprint(view, err.Error())
		return
	}
	for _, line := range calendarLines(grid) {
		fmt.Fprintln(view, line)
	}
}

func (u *UI) renderEvents(view *gocui.View) {
	view.Clear()
	entries := u.events.For(u.selected)
	if len(entries) == 0 {
		fmt.Fprint(view, "no events (e to add)")
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(view, "- %s\n", entry)
	}
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selection[viewName] = max(min(row, len(u.tasksFor(viewName))-1), 0)
	return u.setFocus(gui, viewName)
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	next := focusOrder[0]
	for i, name := range focusOrder {
		if name == u.focus {
			next = focusOrder[(i+1)%len(focusOrder)]
			break
		}
	}
	return u.setFocus(gui, next)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selection[u.focus] < len(u.tasksFor(u.focus))-1 {
		u.selection[u.focus]++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selection[u.focus] > 0 {
		u.selection[u.focus]--
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadData()
}

func (u *UI) toggleTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	task, err := u.store.ToggleTask(context.Background(), selected.ID)
	if err != nil {
		u.status = err.Error()
		return nil
	}
	u.log.Infow("task toggled", "id", task.ID, "completed", task.Completed)
	u.status = ""
	if task.Completed {
		u.status = fmt.Sprintf("Completed %q", task.Title)
	}
	return u.loadData()
}

func (u *UI) deleteTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	if err := u.store.DeleteTask(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
		return nil
	}
	u.log.Infow("task deleted", "id", selected.ID)
	u.status = ""
	return u.loadData()
}

func (u *UI) markStudied(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	today := u.store.Today()
	if err := u.store.MarkStudied(context.Background(), today); err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = fmt.Sprintf("Marked %s as studied", today)
	return u.loadData()
}

func (u *UI) prevMonth(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftMonth(-1)
}

func (u *UI) nextMonth(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftMonth(1)
}

func (u *UI) shiftMonth(delta int) error {
	if u.inputActive() {
		return nil
	}
	u.year, u.month = calendar.ShiftMonth(u.year, u.month, delta)
	return nil
}

// moveSelectedDay moves the selected date and keeps the shown month on it.
func (u *UI) moveSelectedDay(delta int) error {
	if u.inputActive() {
		return nil
	}
	u.selected = u.selected.AddDays(delta)
	u.year, u.month = u.selected.Year, u.selected.Month
	return nil
}

func (u *UI) addTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(u.today)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(50, maxX/2)
	height := 6
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "New Task"
	view.Wrap = true
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

// submitForm keeps the form open on validation errors so the entry can be
// corrected.
func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	task, err := u.store.CreateTask(context.Background(), parseFormFields(u.form.fields))
	if err != nil {
		if !planner.IsValidationError(err) {
			u.log.WithError(err).Errorw("create task")
		}
		u.status = err.Error()
		return nil
	}
	u.log.Infow("task created", "id", task.ID)

	u.form = nil
	u.status = ""
	u.closeOverlay(gui, viewForm)
	return u.loadData()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.closeOverlay(gui, viewForm)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	field := u.form.fields[u.form.index]
	cursorX := len([]rune(field.Label)) + len([]rune(field.Value)) + 4
	view.SetCursor(cursorX, u.form.index)
}

func (u *UI) addEvent(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.prompt = &promptState{kind: promptEvent, title: "Event on " + u.selected.String()}
	return nil
}

func (u *UI) customMinutes(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.timer.Running() {
		u.status = pomodoro.ErrRunning.Error()
		return nil
	}
	u.prompt = &promptState{kind: promptMinutes, title: fmt.Sprintf("Minutes (%d-%d)", pomodoro.MinMinutes, pomodoro.MaxMinutes)}
	return nil
}

func (u *UI) showPrompt(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewPrompt, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Clear()
	}
	view.Title = u.prompt.title
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewPrompt)
	return nil
}

func (u *UI) submitPrompt(gui *gocui.Gui, view *gocui.View) error {
	if u.prompt == nil {
		return nil
	}
	if err := u.applyPrompt(view.Buffer()); err != nil {
		u.status = err.Error()
		return nil
	}
	u.prompt = nil
	u.closeOverlay(gui, viewPrompt)
	return u.loadData()
}

func (u *UI) applyPrompt(value string) error {
	value = strings.TrimSpace(value)
	switch u.prompt.kind {
	case promptEvent:
		if value == "" {
			return errEventText
		}
		if _, err := u.store.AddEvent(context.Background(), u.selected, value); err != nil {
			return err
		}
		u.status = fmt.Sprintf("Added event on %s", u.selected)
	case promptMinutes:
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return pomodoro.ErrOutOfRange
		}
		if err := u.timer.SetMinutes(minutes); err != nil {
			return err
		}
		u.status = fmt.Sprintf("Timer set to %d minutes", minutes)
	}
	return nil
}

func (u *UI) cancelPrompt(gui *gocui.Gui, _ *gocui.View) error {
	u.prompt = nil
	u.closeOverlay(gui, viewPrompt)
	return nil
}

func (u *UI) togglePomodoro(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.timer.Toggle() {
		u.status = "Pomodoro running"
	} else {
		u.status = "Pomodoro paused"
	}
	return nil
}

func (u *UI) resetPomodoro(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.timer.Reset()
	u.status = ""
	return nil
}

func (u *UI) cyclePreset(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if err := u.timer.SetMinutes(nextPreset(u.timer.Minutes())); err != nil {
		u.status = err.Error()
	}
	return nil
}

// onSessionComplete runs on the timer goroutine.
func (u *UI) onSessionComplete() {
	err := u.recordSession()
	if u.gui == nil {
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		if err != nil {
			u.status = err.Error()
			return nil
		}
		u.status = "Session complete"
		return u.loadData()
	})
}

func (u *UI) recordSession() error {
	if err := u.store.RecordSession(context.Background(), u.store.Today()); err != nil {
		u.log.WithError(err).Errorw("record pomodoro session")
		return err
	}
	u.log.Infow("pomodoro session recorded", "minutes", u.timer.Minutes())
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.closeOverlay(gui, viewHelp)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) closeOverlay(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.prompt != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes | 1 Overdue | 2 Due Today | 3 Upcoming | 4 Completed | 5 Calendar",
		"  j/k or arrows move selection | h/l move day (calendar)",
		"  [ ] previous/next month",
		"",
		"Tasks:",
		"  a add task | x or enter toggle done | d delete",
		"  space/left/right cycle priority (form) | tab next field | enter save",
		"",
		"Study:",
		"  s mark today studied | e or enter (calendar) add event on selected date",
		"",
		"Pomodoro:",
		"  p start/pause | o reset | m next preset | t custom minutes",
		"",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
