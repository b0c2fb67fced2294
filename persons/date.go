package persons

import (
	"strconv"
	"time"
)

// DateLayoutISO is the canonical render layout of a Date.
const DateLayoutISO = "2006-01-02"

// Date is a calendar date together with the layout it is rendered in.
//
// The variability engine changes Layout to simulate inconsistent source formats;
// Time always keeps the real date so typed sinks can store it unchanged.
type Date struct {
	Time   time.Time
	Layout string
}

// NewDate returns the date part of t in UTC, rendered in ISO layout.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Layout: DateLayoutISO}
}

// DateOf builds a Date from its components.
func DateOf(year int, month time.Month, day int) Date {
	return NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// String renders the date in its layout.
func (d Date) String() string {
	if d.Time.IsZero() {
		return ""
	}

	layout := d.Layout
	if layout == "" {
		layout = DateLayoutISO
	}

	return d.Time.Format(layout)
}

// ISO renders the date in the canonical layout regardless of its render layout.
func (d Date) ISO() string {
	return d.Time.Format(DateLayoutISO)
}

// IsVaried reports whether the date is rendered in a non-canonical layout.
func (d Date) IsVaried() bool {
	return d.Layout != "" && d.Layout != DateLayoutISO
}

// Before reports whether d lies before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// AgeAt returns the completed years between d and ref.
func (d Date) AgeAt(ref Date) int {
	years := ref.Time.Year() - d.Time.Year()
	if ref.Time.Month() < d.Time.Month() || (ref.Time.Month() == d.Time.Month() && ref.Time.Day() < d.Time.Day()) {
		years--
	}

	return years
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// ParseDate parses an ISO date.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayoutISO, value)
	if err != nil {
		return Date{}, err
	}

	return NewDate(t), nil
}
