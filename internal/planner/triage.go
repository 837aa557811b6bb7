package planner

import (
	"slices"
	"strings"

	"github.com/Joseda-hg/studyboard/internal/isodate"
	"github.com/Joseda-hg/studyboard/internal/model"
)

type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketDueToday  Bucket = "dueToday"
	BucketUpcoming  Bucket = "upcoming"
	BucketCompleted Bucket = "completed"
)

type Buckets struct {
	Overdue   []model.Task `json:"overdue"`
	DueToday  []model.Task `json:"dueToday"`
	Upcoming  []model.Task `json:"upcoming"`
	Completed []model.Task `json:"completed"`
}

func (b Buckets) Total() int {
	return len(b.Overdue) + len(b.DueToday) + len(b.Upcoming) + len(b.Completed)
}

func (b Buckets) Get(bucket Bucket) []model.Task {
	switch bucket {
	case BucketOverdue:
		return b.Overdue
	case BucketDueToday:
		return b.DueToday
	case BucketUpcoming:
		return b.Upcoming
	case BucketCompleted:
		return b.Completed
	}
	return nil
}

// Classify places a single task. Completed wins over any due date.
func Classify(task model.Task, today isodate.Date) Bucket {
	switch {
	case task.Completed:
		return BucketCompleted
	case task.DueDate.Before(today):
		return BucketOverdue
	case task.DueDate == today:
		return BucketDueToday
	default:
		return BucketUpcoming
	}
}

// Partition splits tasks into disjoint buckets, each ordered by Compare.
func Partition(tasks []model.Task, today isodate.Date) Buckets {
	var b Buckets
	for _, task := range tasks {
		switch Classify(task, today) {
		case BucketCompleted:
			b.Completed = append(b.Completed, task)
		case BucketOverdue:
			b.Overdue = append(b.Overdue, task)
		case BucketDueToday:
			b.DueToday = append(b.DueToday, task)
		default:
			b.Upcoming = append(b.Upcoming, task)
		}
	}
	Sort(b.Overdue)
	Sort(b.DueToday)
	Sort(b.Upcoming)
	Sort(b.Completed)
	return b
}

// Compare orders by priority (High first), due date, creation time and finally
// id, which makes it a total order over distinct tasks.
func Compare(a, b model.Task) int {
	if diff := a.Priority.Rank() - b.Priority.Rank(); diff != 0 {
		return diff
	}
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c
	}
	if c := compareCreatedAt(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// compareCreatedAt orders parseable timestamps by instant, ahead of any value
// that does not parse. Ties fall back to the raw strings.
func compareCreatedAt(a, b string) int {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case okA && okB:
		if c := ta.Compare(tb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func Sort(tasks []model.Task) {
	slices.SortStableFunc(tasks, Compare)
}

// DaysLate is the whole number of days since due, never negative.
func DaysLate(due, today isodate.Date) int {
	return max(0, due.DaysUntil(today))
}

func Find(tasks []model.Task, id string) (model.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return model.Task{}, false
}

func Add(tasks []model.Task, task model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, task)
}

// Toggle flips completion for id and reports whether the task existed.
func Toggle(tasks []model.Task, id string) ([]model.Task, bool) {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
			return out, true
		}
	}
	return out, false
}

func Delete(tasks []model.Task, id string) ([]model.Task, bool) {
	out := make([]model.Task, 0, len(tasks))
	found := false
	for _, task := range tasks {
		if task.ID == id {
			found = true
			continue
		}
		out = append(out, task)
	}
	return out, found
}
