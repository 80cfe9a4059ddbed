// Package record holds the build information tracked for a project: a build
// type label, the date of the last build and a raw build counter.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InitialBuildNumber is the value a new record starts at and the value Reset
// returns to.
const InitialBuildNumber = 1

// ErrNegativeBuildNumber is returned when a counter is set below zero.
var ErrNegativeBuildNumber = errors.New("build number must be a non-negative integer")

// Counter is a monotonic build counter.
type Counter int

// Increment bumps the counter by one and returns the new value.
func (c *Counter) Increment() int {
	*c++
	return int(*c)
}

// SetTo sets the counter to n. Negative values are rejected and leave the
// counter unchanged.
func (c *Counter) SetTo(n int) (int, error) {
	if n < 0 {
		return int(*c), fmt.Errorf("%w: got %d", ErrNegativeBuildNumber, n)
	}
	*c = Counter(n)
	return n, nil
}

// Reset returns the counter to InitialBuildNumber.
func (c *Counter) Reset() int {
	*c = InitialBuildNumber
	return InitialBuildNumber
}

// Value returns the current count.
func (c Counter) Value() int { return int(c) }

// Date is a calendar date without time of day.
type Date struct {
	Day   int `yaml:"day" json:"day"`
	Month int `yaml:"month" json:"month"`
	Year  int `yaml:"year" json:"year"`
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date was never set.
func (d Date) IsZero() bool { return d.Day == 0 || d.Month == 0 || d.Year == 0 }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(time.DateOnly)
}

// BuildRecord is the per-project build information.
type BuildRecord struct {
	BuildType   string  `yaml:"build_type" json:"build_type"`
	BuildDate   Date    `yaml:"build_date" json:"build_date"`
	BuildNumber Counter `yaml:"build_number" json:"build_number"`
}

// New creates a record dated now with the initial build number.
func New(now time.Time) BuildRecord {
	return BuildRecord{
		BuildDate:   DateOf(now),
		BuildNumber: InitialBuildNumber,
	}
}

// SetBuildDate stamps the record with the date of now.
func (r *BuildRecord) SetBuildDate(now time.Time) { r.BuildDate = DateOf(now) }

// SetBuildType replaces the free-form build type label.
func (r *BuildRecord) SetBuildType(label string) { r.BuildType = strings.TrimSpace(label) }
