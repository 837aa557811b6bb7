package tui

import (
	"strings"

	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldPriority
	fieldDue
)

var priorityOrder = []string{string(model.PriorityHigh), string(model.PriorityMedium), string(model.PriorityLow)}

func buildFormFields(today isodate.Date) []formField {
	return []formField{
		{Label: "Title"},
		{Label: "Priority (space/←→)", Value: string(model.PriorityMedium)},
		{Label: "Due (YYYY-MM-DD)", Value: today.String()},
	}
}

// parseFormFields leaves validation to planner.NewTask so the form and the
// HTTP API report the same messages.
func parseFormFields(fields []formField) planner.Entry {
	return planner.Entry{
		Title:    strings.TrimSpace(fields[fieldTitle].Value),
		Priority: strings.TrimSpace(fields[fieldPriority].Value),
		DueDate:  strings.TrimSpace(fields[fieldDue].Value),
	}
}

func isPriorityField(label string) bool {
	return strings.HasPrefix(label, "Priority")
}

func cyclePriority(current string, delta int) string {
	index := 0
	for i, value := range priorityOrder {
		if value == current {
			index = i
			break
		}
	}
	next := (index + delta) % len(priorityOrder)
	if next < 0 {
		next += len(priorityOrder)
	}
	return priorityOrder[next]
}

type formEditor struct {
	ui *UI
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isPriorityField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cyclePriority(field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cyclePriority(field.Value, -1)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}
