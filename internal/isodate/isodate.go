// Package isodate implements timezone-naive calendar dates in YYYY-MM-DD form.
//
// A Date is a plain (year, month, day) triple interpreted in local wall-clock
// terms. It never carries a location, so date arithmetic is free of DST and
// UTC-offset surprises. String always zero-pads month and day, which keeps
// lexicographic order identical to chronological order.
package isodate

import (
	"errors"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalid = errors.New("invalid ISO date")

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, normalizing overflowing values the same way time.Date does
// (e.g. January 32 becomes February 1).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the wall-clock date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today reads the local wall clock. It is the only clock read in this package
// and is meant for the outer layers; engines take the date as a parameter.
func Today() Date {
	return FromTime(time.Now())
}

// Parse accepts exactly "YYYY-MM-DD" and rejects dates that do not exist.
func Parse(value string) (Date, error) {
	if !wellFormed(value) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	parsed, err := time.Parse(Layout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	return FromTime(parsed), nil
}

// Valid reports whether value parses as an ISO date.
func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

func wellFormed(value string) bool {
	if len(value) != len(Layout) {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d. UTC is used only as a neutral carrier for
// arithmetic; the result must not be interpreted as an instant.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return New(d.Year, d.Month, d.Day+n)
}

// Weekday uses the time package numbering, Sunday = 0.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

const secondsPerDay = 24 * 60 * 60

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// DaysUntil is the signed number of whole days from d to other. It works on
// Unix seconds because time.Duration overflows past roughly 292 years.
func (d Date) DaysUntil(other Date) int {
	return int((other.Time().Unix() - d.Time().Unix()) / secondsPerDay)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsLeap applies the Gregorian rule.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
