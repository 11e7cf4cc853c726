package db

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrBadDateFormat is returned when a date filter value is not YYYY,
// YYYY-MM or YYYY-MM-DD.
var ErrBadDateFormat = errors.New("invalid date filter format, use YYYY, YYYY-MM or YYYY-MM-DD")

var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	yearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
	fullDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// CarFilter narrows car listings. Zero values match everything.
type CarFilter struct {
	Status string
}

// DriverFilter narrows driver listings. Zero values match everything.
type DriverFilter struct {
	Status string
}

// DatePattern is a parsed date filter: either a year / year-month prefix
// or an exact full date. Exactly one of the fields is set.
type DatePattern struct {
	Prefix string
	Exact  string
}

// ParseDateQuery validates a date filter value and turns it into a
// DatePattern. YYYY and YYYY-MM become prefix matches, YYYY-MM-DD an
// exact match; anything else is ErrBadDateFormat.
func ParseDateQuery(input string) (*DatePattern, error) {
	switch {
	case yearOnly.MatchString(input), yearMonth.MatchString(input):
		return &DatePattern{Prefix: input}, nil
	case fullDate.MatchString(input):
		return &DatePattern{Exact: input}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadDateFormat, input)
	}
}

// Match reports whether a stored date string satisfies the pattern.
func (p *DatePattern) Match(date string) bool {
	if p == nil {
		return true
	}
	if p.Exact != "" {
		return date == p.Exact
	}
	return len(date) >= len(p.Prefix) && date[:len(p.Prefix)] == p.Prefix
}

// MissionFilter narrows mission listings. Zero values match everything.
// OrderContains is a case-insensitive substring match, ZonePrefix a
// case-insensitive prefix match; CarID, DriverName and VehicleType are
// exact.
type MissionFilter struct {
	OrderContains string
	CarID         string
	DriverName    string
	VehicleType   string
	ZonePrefix    string
	DateDepart    *DatePattern
	DateRetour    *DatePattern
}
