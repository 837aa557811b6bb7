package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
)

// Entry is a task as typed by the user, before validation.
type Entry struct {
	Title    string `json:"title" validate:"required"`
	Priority string `json:"priority"`
	DueDate  string `json:"dueDate" validate:"required,isodate"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for user input that must be corrected rather
// than silently defaulted.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isodate.Valid(fl.Field().String())
	})
	return v
}

// ValidateEntry checks a new task: a non-blank title and an ISO due date that
// is not before today.
func ValidateEntry(entry Entry, today isodate.Date) error {
	entry.Title = strings.TrimSpace(entry.Title)
	entry.DueDate = strings.TrimSpace(entry.DueDate)

	verr := &ValidationError{}
	if err := validate.Struct(entry); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate entry: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, describe(fe))
		}
	}

	if !verr.Has("dueDate") {
		due, _ := isodate.Parse(entry.DueDate)
		if due.Before(today) {
			verr.Fields = append(verr.Fields, FieldError{Field: "dueDate", Message: "Due date cannot be earlier than today."})
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func describe(fe validator.FieldError) FieldError {
	switch fe.Field() {
	case "Title":
		return FieldError{Field: "title", Message: "Title is required."}
	case "DueDate":
		return FieldError{Field: "dueDate", Message: "Please select a valid due date."}
	default:
		return FieldError{Field: strings.ToLower(fe.Field()), Message: fe.Error()}
	}
}

// NewTask validates entry and builds an incomplete task stamped with env.
func NewTask(entry Entry, env Env) (model.Task, error) {
	if err := ValidateEntry(entry, env.Today); err != nil {
		return model.Task{}, err
	}
	due, _ := isodate.Parse(strings.TrimSpace(entry.DueDate))
	return model.Task{
		ID:        env.newID(),
		Title:     strings.TrimSpace(entry.Title),
		Priority:  model.ParsePriority(strings.TrimSpace(entry.Priority)),
		DueDate:   due,
		CreatedAt: FormatTimestamp(env.Now),
		Completed: false,
	}, nil
}
