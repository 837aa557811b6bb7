package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

func TestPrintBuckets(t *testing.T) {
	today := isodate.New(2024, time.January, 10)
	tasks := []model.Task{
		{ID: "1", Title: "Essay", Priority: model.PriorityHigh, DueDate: isodate.New(2024, time.January, 7)},
		{ID: "2", Title: "Quiz prep", Priority: model.PriorityLow, DueDate: today},
		{ID: "3", Title: "Lab", Priority: model.PriorityMedium, DueDate: isodate.New(2024, time.January, 1), Completed: true},
	}

	var buf bytes.Buffer
	printBuckets(&buf, planner.Partition(tasks, today), today)
	out := buf.String()

	for _, want := range []string{
		"Overdue (1)\n  High   2024-01-07  Essay  (3 days late)\n",
		"Due today (1)\n  Low    2024-01-10  Quiz prep\n",
		"Upcoming (0)\n",
		"Completed (1)\n  Medium 2024-01-01  Lab\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintStreak(t *testing.T) {
	today := isodate.New(2024, time.January, 10)
	studied := []isodate.Date{
		isodate.New(2024, time.January, 2),
		isodate.New(2024, time.January, 3),
		isodate.New(2024, time.January, 4),
		isodate.New(2024, time.January, 9),
		isodate.New(2024, time.January, 10),
	}

	var buf bytes.Buffer
	printStreak(&buf, studied, today)
	want := "Current streak: 2 days\nLongest streak: 3 days (2024-01-02 to 2024-01-04)\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	printStreak(&buf, nil, today)
	if buf.String() != "Current streak: 0 days\nLongest streak: 0 days\n" {
		t.Fatalf("unexpected empty streak output %q", buf.String())
	}
}

func TestStudyBackupRestore(t *testing.T) {
	dir := t.TempDir()
	base := []string{"--config", filepath.Join(dir, "config.json"), "--db", filepath.Join(dir, "studyboard.db")}
	backupPath := filepath.Join(dir, "snap.yaml")

	out := run(t, append([]string{"study", "2024-01-09"}, base...)...)
	if !strings.Contains(out, "Marked 2024-01-09 as studied.") {
		t.Fatalf("unexpected study output %q", out)
	}

	out = run(t, append([]string{"backup", backupPath}, base...)...)
	if !strings.Contains(out, backupPath) {
		t.Fatalf("unexpected backup output %q", out)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(data), "2024-01-09") {
		t.Fatalf("expected studied date in backup:\n%s", data)
	}

	run(t, append([]string{"study", "2024-01-05"}, base...)...)
	run(t, append([]string{"restore", backupPath}, base...)...)

	out = run(t, append([]string{"streak"}, base...)...)
	if !strings.Contains(out, "Longest streak: 1 days (2024-01-09 to 2024-01-09)") {
		t.Fatalf("expected restore to drop the later mark, got %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("expected config to be written: %v", err)
	}
}

func TestStudyRejectsBadDate(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"study", "2024-02-30", "--config", filepath.Join(dir, "config.json")})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}
