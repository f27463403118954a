// Package timeunit derives discretized date fields.
//
// A time unit truncates a timestamp to a set of calendar components. The
// derived value is itself a timestamp (components outside the unit are
// pinned to a fixed reference date), so a derived field can sit on a time
// scale or be enumerated on an ordinal one.
package timeunit

import (
	"fmt"
	"strings"
)

// Unit is a single or composite calendar truncation.
type Unit string

const (
	Year                Unit = "year"
	Quarter             Unit = "quarter"
	Month               Unit = "month"
	Date                Unit = "date"
	Day                 Unit = "day"
	Hours               Unit = "hours"
	Minutes             Unit = "minutes"
	Seconds             Unit = "seconds"
	Milliseconds        Unit = "milliseconds"
	YearQuarter         Unit = "yearquarter"
	YearMonth           Unit = "yearmonth"
	YearMonthDate       Unit = "yearmonthdate"
	MonthDate           Unit = "monthdate"
	HoursMinutes        Unit = "hoursminutes"
	HoursMinutesSeconds Unit = "hoursminutesseconds"
	MinutesSeconds      Unit = "minutesseconds"
)

// Units lists every supported unit.
var Units = []Unit{
	Year, Quarter, Month, Date, Day, Hours, Minutes, Seconds, Milliseconds,
	YearQuarter, YearMonth, YearMonthDate, MonthDate,
	HoursMinutes, HoursMinutesSeconds, MinutesSeconds,
}

// single units in the order they appear in a datetime() call.
var single = []Unit{Year, Quarter, Month, Date, Day, Hours, Minutes, Seconds, Milliseconds}

// referenceYear is the year pinned when a unit has no year component.
// January 1st 2006 is a Sunday, so day-of-week maps onto dates 1..7.
const referenceYear = 2006

// Names returns the unit names, for suggestions.
func Names() []string {
	out := make([]string, len(Units))
	for i, u := range Units {
		out[i] = string(u)
	}
	return out
}

// Parse resolves a unit name.
func Parse(s string) (Unit, error) {
	for _, u := range Units {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown time unit %q", s)
}

// Components returns the single units making up u, in datetime() order.
func (u Unit) Components() []Unit {
	var out []Unit
	for _, s := range single {
		if u.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether u truncates to (at least) the component c.
func (u Unit) Contains(c Unit) bool {
	switch u {
	case YearQuarter:
		return c == Year || c == Quarter
	case YearMonth:
		return c == Year || c == Month
	case YearMonthDate:
		return c == Year || c == Month || c == Date
	case MonthDate:
		return c == Month || c == Date
	case HoursMinutes:
		return c == Hours || c == Minutes
	case HoursMinutesSeconds:
		return c == Hours || c == Minutes || c == Seconds
	case MinutesSeconds:
		return c == Minutes || c == Seconds
	}
	return u == c
}

// Cyclical reports whether u wraps around, so its values are best shown as
// an ordered set of categories rather than a continuous time span.
func (u Unit) Cyclical() bool {
	switch u {
	case Hours, Day, Month:
		return true
	}
	return false
}

// Expr returns a datetime expression truncating the timestamp expression
// field to u.
func (u Unit) Expr(field string) string {
	return u.datetime(func(c Unit) string {
		switch c {
		case Year:
			return "year(" + field + ")"
		case Quarter:
			return "(quarter(" + field + ")-1)*3"
		case Day:
			return "day(" + field + ")+1"
		}
		return string(c) + "(" + field + ")"
	})
}

func (u Unit) datetime(component func(Unit) string) string {
	slot := func(c Unit, def string) string {
		if u.Contains(c) {
			return component(c)
		}
		return def
	}
	month := slot(Month, "0")
	if !u.Contains(Month) && u.Contains(Quarter) {
		month = component(Quarter)
	}
	date := slot(Date, "1")
	if !u.Contains(Date) && u.Contains(Day) {
		date = component(Day)
	}
	args := []string{
		slot(Year, fmt.Sprint(referenceYear)),
		month,
		date,
		slot(Hours, "0"),
		slot(Minutes, "0"),
		slot(Seconds, "0"),
		slot(Milliseconds, "0"),
	}
	return "datetime(" + strings.Join(args, ", ") + ")"
}

// Format returns the time format for labels of a field derived with u.
func (u Unit) Format() string {
	switch u {
	case Year:
		return "%Y"
	case Quarter:
		return "Q%q"
	case Month:
		return "%b"
	case Date:
		return "%d"
	case Day:
		return "%a"
	case Hours:
		return "%H"
	case Minutes:
		return "%M"
	case Seconds:
		return "%S"
	case Milliseconds:
		return "%L"
	case YearQuarter:
		return "Q%q %Y"
	case YearMonth:
		return "%b %Y"
	case YearMonthDate:
		return "%b %d, %Y"
	case MonthDate:
		return "%b %d"
	case HoursMinutes:
		return "%H:%M"
	case HoursMinutesSeconds:
		return "%H:%M:%S"
	case MinutesSeconds:
		return "%M:%S"
	}
	return ""
}

// LookupField is the field holding the derived timestamp in a lookup table.
const LookupField = "date"

// Lookup describes the fixed table enumerating every value of a cyclical
// unit. Each row carries the unit index in "unit" and Expr computes the
// same timestamp that Expr would derive for a matching datum.
type Lookup struct {
	Name   string
	Values []map[string]any
	Expr   string
}

// Lookup returns the raw-domain table for u, if u is cyclical.
func (u Unit) Lookup() (Lookup, bool) {
	var n int
	switch u {
	case Month:
		n = 12
	case Day:
		n = 7
	case Hours:
		n = 24
	default:
		return Lookup{}, false
	}
	values := make([]map[string]any, n)
	for i := range values {
		values[i] = map[string]any{"unit": i}
	}
	expr := u.datetime(func(c Unit) string {
		if c == Day {
			return `datum["unit"]+1`
		}
		return `datum["unit"]`
	})
	return Lookup{Name: string(u), Values: values, Expr: expr}, true
}
