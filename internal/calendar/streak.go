package calendar

import (
	"sort"

	"github.com/Joseda-hg/studyboard/internal/isodate"
)

// Run is a maximal stretch of consecutive studied days.
type Run struct {
	Start  isodate.Date `json:"start"`
	End    isodate.Date `json:"end"`
	Length int          `json:"length"`
}

// NormalizeStudySet parses stored date strings, drops the invalid ones and
// returns the remaining dates deduplicated in ascending order.
func NormalizeStudySet(raw []string) []isodate.Date {
	dates := make([]isodate.Date, 0, len(raw))
	for _, value := range raw {
		parsed, err := isodate.Parse(value)
		if err != nil {
			continue
		}
		dates = append(dates, parsed)
	}
	return SortDates(dates)
}

// SortDates deduplicates and sorts a copy of dates.
func SortDates(dates []isodate.Date) []isodate.Date {
	seen := make(map[isodate.Date]struct{}, len(dates))
	result := make([]isodate.Date, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}

// MarkStudied adds today to the set. Marking twice is a no-op.
func MarkStudied(studied []isodate.Date, today isodate.Date) []isodate.Date {
	return SortDates(append(append([]isodate.Date(nil), studied...), today))
}

func Contains(studied []isodate.Date, date isodate.Date) bool {
	for _, d := range studied {
		if d == date {
			return true
		}
	}
	return false
}

// CurrentStreak counts consecutive studied days ending today. A set that does
// not contain today yields 0 even if yesterday was studied.
func CurrentStreak(sorted []isodate.Date, today isodate.Date) int {
	set := make(map[isodate.Date]struct{}, len(sorted))
	for _, d := range sorted {
		set[d] = struct{}{}
	}

	streak := 0
	for cursor := today; ; cursor = cursor.AddDays(-1) {
		if _, ok := set[cursor]; !ok {
			return streak
		}
		streak++
	}
}

// LongestStreak expects the output of SortDates.
func LongestStreak(sorted []isodate.Date) int {
	return LongestRun(sorted).Length
}

// LongestRun reports the earliest run among those of maximal length.
func LongestRun(sorted []isodate.Date) Run {
	if len(sorted) == 0 {
		return Run{}
	}

	best := Run{Start: sorted[0], End: sorted[0], Length: 1}
	current := best
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDays(1) == sorted[i] {
			current.End = sorted[i]
			current.Length++
		} else {
			current = Run{Start: sorted[i], End: sorted[i], Length: 1}
		}
		if current.Length > best.Length {
			best = current
		}
	}
	return best
}
