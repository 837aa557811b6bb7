package isodate

import (
	"encoding/json"
	"sort"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"2024-01-05", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-13-01", false},
		{"2024-1-5", false},
		{"2024/01/05", false},
		{"", false},
		{"20240105", false},
		{"2024-01-05T00:00:00", false},
	}
	for _, tc := range cases {
		_, err := Parse(tc.in)
		if (err == nil) != tc.valid {
			t.Fatalf("Parse(%q): expected valid=%v, got err=%v", tc.in, tc.valid, err)
		}
	}
}

func TestStringZeroPads(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 7}
	if d.String() != "2024-03-07" {
		t.Fatalf("expected 2024-03-07, got %q", d.String())
	}
}

func TestLexicographicOrderMatchesChronological(t *testing.T) {
	dates := []Date{
		New(2024, time.December, 1),
		New(2023, time.January, 31),
		New(2024, time.February, 9),
		New(2024, time.February, 10),
		New(2024, time.October, 2),
	}
	byString := append([]Date(nil), dates...)
	sort.Slice(byString, func(i, j int) bool { return byString[i].String() < byString[j].String() })
	byDate := append([]Date(nil), dates...)
	sort.Slice(byDate, func(i, j int) bool { return byDate[i].Before(byDate[j]) })

	for i := range byString {
		if byString[i] != byDate[i] {
			t.Fatalf("order mismatch at %d: %s vs %s", i, byString[i], byDate[i])
		}
	}
}

func TestAddDaysCrossesBoundaries(t *testing.T) {
	cases := []struct {
		from Date
		n    int
		want string
	}{
		{New(2024, time.March, 1), -1, "2024-02-29"},
		{New(2023, time.March, 1), -1, "2023-02-28"},
		{New(2024, time.January, 1), -1, "2023-12-31"},
		{New(2024, time.December, 31), 1, "2025-01-01"},
	}
	for _, tc := range cases {
		if got := tc.from.AddDays(tc.n).String(); got != tc.want {
			t.Fatalf("%s + %d: expected %s, got %s", tc.from, tc.n, tc.want, got)
		}
	}
}

func TestDaysIn(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.January, 31},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysIn(%d, %s): expected %d, got %d", tc.year, tc.month, tc.want, got)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	a := New(2024, time.January, 1)
	b := New(2024, time.January, 4)
	if a.DaysUntil(b) != 3 {
		t.Fatalf("expected 3, got %d", a.DaysUntil(b))
	}
	if b.DaysUntil(a) != -3 {
		t.Fatalf("expected -3, got %d", b.DaysUntil(a))
	}

	first := New(1, time.January, 1)
	if got := first.DaysUntil(b); got != 738888 {
		t.Fatalf("expected 738888 days from 0001-01-01, got %d", got)
	}
	if got := New(9999, time.December, 31).DaysUntil(first); got != -3652058 {
		t.Fatalf("expected -3652058 days back to 0001-01-01, got %d", got)
	}
}

func TestJSONUsesISOForm(t *testing.T) {
	payload := map[string]Date{"due": New(2024, time.May, 3)}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"due":"2024-05-03"}` {
		t.Fatalf("unexpected json %s", data)
	}

	var decoded map[string]Date
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["due"] != payload["due"] {
		t.Fatalf("expected %s, got %s", payload["due"], decoded["due"])
	}
}
