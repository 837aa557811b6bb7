package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/Joseda-hg/studyboard/internal/isodate"
)

var ErrMonthOutOfRange = errors.New("month out of range")

type Cell struct {
	Blank      bool         `json:"blank"`
	Day        int          `json:"day,omitempty"`
	Date       isodate.Date `json:"date,omitempty"`
	IsToday    bool         `json:"isToday"`
	IsSelected bool         `json:"isSelected"`
	IsStudied  bool         `json:"isStudied"`
	HasEvents  bool         `json:"hasEvents"`
}

type MonthGrid struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	LeadingBlanks int        `json:"leadingBlanks"`
	DaysInMonth   int        `json:"daysInMonth"`
	Cells         []Cell     `json:"cells"`
}

// BuildMonthGrid lays out one month: a blank cell for every weekday before the
// 1st (Sunday = 0), then one cell per day.
func BuildMonthGrid(year int, month time.Month, studied []isodate.Date, events Events, selected, today isodate.Date) (MonthGrid, error) {
	if month < time.January || month > time.December {
		return MonthGrid{}, fmt.Errorf("%w: %d", ErrMonthOutOfRange, month)
	}

	first := isodate.Date{Year: year, Month: month, Day: 1}
	leading := int(first.Weekday())
	days := isodate.DaysIn(year, month)

	studiedSet := make(map[isodate.Date]struct{}, len(studied))
	for _, d := range studied {
		studiedSet[d] = struct{}{}
	}

	cells := make([]Cell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		date := isodate.Date{Year: year, Month: month, Day: day}
		_, isStudied := studiedSet[date]
		cells = append(cells, Cell{
			Day:        day,
			Date:       date,
			IsToday:    date == today,
			IsSelected: date == selected,
			IsStudied:  isStudied,
			HasEvents:  events.Has(date),
		})
	}

	return MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: leading,
		DaysInMonth:   days,
		Cells:         cells,
	}, nil
}

// Weeks splits the cells into rows of seven, padding the last row with blanks.
func (g MonthGrid) Weeks() [][]Cell {
	var weeks [][]Cell
	for start := 0; start < len(g.Cells); start += 7 {
		end := min(start+7, len(g.Cells))
		row := append([]Cell(nil), g.Cells[start:end]...)
		for len(row) < 7 {
			row = append(row, Cell{Blank: true})
		}
		weeks = append(weeks, row)
	}
	return weeks
}

func (g MonthGrid) Label() string {
	return fmt.Sprintf("%s %d", g.Month, g.Year)
}

func (g MonthGrid) Prev() (int, time.Month) {
	return ShiftMonth(g.Year, g.Month, -1)
}

func (g MonthGrid) Next() (int, time.Month) {
	return ShiftMonth(g.Year, g.Month, 1)
}

func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	index := year*12 + int(month-1) + delta
	return floorDiv(index, 12), time.Month(index-floorDiv(index, 12)*12) + 1
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
