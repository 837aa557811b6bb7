// Package academics validates the subject, placement and CGPA records kept
// alongside the planner.
package academics

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

type SubjectEntry struct {
	Name       string  `json:"name" validate:"required"`
	Attendance float64 `json:"attendance" validate:"gte=0,lte=100"`
	Progress   float64 `json:"progress" validate:"gte=0,lte=100"`
}

type PlacementEntry struct {
	Company    string `json:"company" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	ResumeName string `json:"resumeName" validate:"required"`
	ResumePath string `json:"resumePath"`
}

var validate = validator.New()

var messages = map[string]string{
	"Name":       "Subject name is required.",
	"Attendance": "Attendance must be between 0 and 100.",
	"Progress":   "Progress must be between 0 and 100.",
	"Company":    "Company is required.",
	"Role":       "Role is required.",
	"ResumeName": "Please upload a resume PDF.",
}

func NewSubject(entry SubjectEntry) (model.Subject, error) {
	entry.Name = strings.TrimSpace(entry.Name)
	if err := check(entry); err != nil {
		return model.Subject{}, err
	}
	return model.Subject{Name: entry.Name, Attendance: entry.Attendance, Progress: entry.Progress}, nil
}

// NewPlacement requires a resume. A bare path fills in the resume name.
func NewPlacement(entry PlacementEntry) (model.Placement, error) {
	entry.Company = strings.TrimSpace(entry.Company)
	entry.Role = strings.TrimSpace(entry.Role)
	entry.ResumePath = strings.TrimSpace(entry.ResumePath)
	entry.ResumeName = strings.TrimSpace(entry.ResumeName)
	if entry.ResumeName == "" && entry.ResumePath != "" {
		entry.ResumeName = filepath.Base(entry.ResumePath)
	}
	if err := check(entry); err != nil {
		return model.Placement{}, err
	}
	return model.Placement{
		Company:    entry.Company,
		Role:       entry.Role,
		Type:       strings.TrimSpace(entry.Type),
		Status:     strings.TrimSpace(entry.Status),
		ResumeName: entry.ResumeName,
		ResumePath: entry.ResumePath,
	}, nil
}

func ValidateCGPA(value float64) error {
	if value < 0 || value > 10 {
		return &planner.ValidationError{Fields: []planner.FieldError{{Field: "cgpa", Message: "CGPA must be between 0 and 10."}}}
	}
	return nil
}

func check(entry any) error {
	err := validate.Struct(entry)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", entry, err)
	}
	verr := &planner.ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		verr.Fields = append(verr.Fields, planner.FieldError{Field: lowerFirst(fe.Field()), Message: msg})
	}
	return verr
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
