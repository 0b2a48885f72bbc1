// Package report holds the pieces every report view shares: CSV export of a
// decoded, filtered record set and inclusive calendar-date ranges.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// DateLayout is the calendar-date form used in filters and CSV columns.
const DateLayout = "2006-01-02"

// Table is a rendered report: headers plus one row per record.
type Table struct {
	Headers []string
	Rows    [][]string
}

// WriteCSV writes the table with a header line.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("csv row %d: %d cells for %d headers", i, len(row), len(t.Headers))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DateRange is an inclusive range of calendar dates. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// ParseDateRange validates "YYYY-MM-DD" bounds.
func ParseDateRange(from, to string) (DateRange, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return DateRange{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return DateRange{}, fmt.Errorf("date range %s..%s is reversed", from, to)
	}
	return DateRange{From: from, To: to}, nil
}

// Day returns a range covering exactly one date.
func Day(date string) DateRange { return DateRange{From: date, To: date} }

// Contains reports whether t falls on a date inside the range, with the date
// taken in loc.
func (r DateRange) Contains(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	d := t.In(loc).Format(DateLayout)
	if r.From != "" && d < r.From {
		return false
	}
	if r.To != "" && d > r.To {
		return false
	}
	return true
}

// IsZero reports an unbounded range.
func (r DateRange) IsZero() bool { return r.From == "" && r.To == "" }
