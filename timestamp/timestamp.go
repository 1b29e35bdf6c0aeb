// Package timestamp turns the six numeric "since" arguments of the CLI into a
// UTC point in time.
package timestamp

import (
	"fmt"
	"strconv"
	"time"
)

// Layout is how timestamps are rendered in echoed command lines.
const Layout = "2006-01-02 15:04:05"

// Field describes one command-line component of a timestamp.
type Field struct {
	Name     string
	Help     string
	Min, Max int
}

// Fields lists the components in the order they appear on the command line.
var Fields = []Field{
	{Name: "YYYY", Help: "year (e.g. 2015)", Min: 1, Max: 9999},
	{Name: "MM", Help: "month (1-12)", Min: 1, Max: 12},
	{Name: "DD", Help: "day of month (1-31)", Min: 1, Max: 31},
	{Name: "hh", Help: "hour (0-23)", Min: 0, Max: 23},
	{Name: "mm", Help: "minute (0-59)", Min: 0, Max: 59},
	{Name: "ss", Help: "second (0-59)", Min: 0, Max: 59},
}

// Timestamp is a point in time, always in UTC.
type Timestamp struct {
	t time.Time
}

// FromFields parses year, month, day, hour, minute and second.
func FromFields(fields []string) (Timestamp, error) {
	if len(fields) != len(Fields) {
		return Timestamp{}, fmt.Errorf("expected %d timestamp fields, got %d", len(Fields), len(fields))
	}

	values := make([]int, len(fields))
	for i, raw := range fields {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Timestamp{}, fmt.Errorf("invalid %s %q: not a number", Fields[i].Name, raw)
		}
		if v < Fields[i].Min || v > Fields[i].Max {
			return Timestamp{}, fmt.Errorf("invalid %s %q: out of range", Fields[i].Name, raw)
		}
		values[i] = v
	}

	t := time.Date(values[0], time.Month(values[1]), values[2], values[3], values[4], values[5], 0, time.UTC)
	// time.Date rolls Feb 30 over into March.
	if t.Day() != values[2] {
		return Timestamp{}, fmt.Errorf("invalid DD %q: out of range", fields[2])
	}

	return Timestamp{t: t}, nil
}

// FromTime wraps t, converted to UTC.
func FromTime(t time.Time) Timestamp {
	return Timestamp{t: t.UTC()}
}

// Now captures the current UTC time at second precision.
func Now() Timestamp {
	return FromTime(time.Now().Truncate(time.Second))
}

// Time returns the point in time.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

func (ts Timestamp) String() string {
	return ts.t.Format(Layout)
}
