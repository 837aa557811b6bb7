package academics

import (
	"errors"
	"testing"

	"github.com/Joseda-hg/studyboard/internal/planner"
)

func TestNewSubject(t *testing.T) {
	subject, err := NewSubject(SubjectEntry{Name: "  Networks ", Attendance: 72, Progress: 40})
	if err != nil {
		t.Fatalf("new subject: %v", err)
	}
	if subject.Name != "Networks" {
		t.Fatalf("expected trimmed name, got %q", subject.Name)
	}

	_, err = NewSubject(SubjectEntry{Name: " ", Attendance: 140})
	var verr *planner.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("name") || !verr.Has("attendance") {
		t.Fatalf("expected name and attendance errors, got %+v", verr.Fields)
	}
}

func TestNewPlacementRequiresResume(t *testing.T) {
	_, err := NewPlacement(PlacementEntry{Company: "Acme", Role: "Intern"})
	var verr *planner.ValidationError
	if !errors.As(err, &verr) || !verr.Has("resumeName") {
		t.Fatalf("expected resume error, got %v", err)
	}
	if verr.Fields[0].Message != "Please upload a resume PDF." {
		t.Fatalf("unexpected message %q", verr.Fields[0].Message)
	}
}

func TestNewPlacementDerivesResumeName(t *testing.T) {
	placement, err := NewPlacement(PlacementEntry{Company: "Acme", Role: "Intern", Status: "Applied", ResumePath: "/docs/cv-2024.pdf"})
	if err != nil {
		t.Fatalf("new placement: %v", err)
	}
	if placement.ResumeName != "cv-2024.pdf" {
		t.Fatalf("expected resume name from path, got %q", placement.ResumeName)
	}
}

func TestValidateCGPA(t *testing.T) {
	for _, v := range []float64{0, 8.5, 10} {
		if err := ValidateCGPA(v); err != nil {
			t.Fatalf("expected %.1f valid, got %v", v, err)
		}
	}
	if err := ValidateCGPA(10.5); !planner.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
