package resource

import (
	"net/http"
	"sort"
	"time"

	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, apperror.KindNotFound, "resource not found")
	ErrInvalidKind  = apperror.Validation("kind", "kind must be one of room, surgeon, anesthesiologist")
	ErrEmptyName    = apperror.Validation("name", "name cannot be empty")
	ErrInvalidHours = apperror.Validation("operating_hours", "operating hours ranges must satisfy 0 <= open < close <= 1440")
)

// Kind identifies what a schedulable resource is.
type Kind string

const (
	KindRoom             Kind = "room"
	KindSurgeon          Kind = "surgeon"
	KindAnesthesiologist Kind = "anesthesiologist"
)

// Valid reports whether k is a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRoom, KindSurgeon, KindAnesthesiologist:
		return true
	}
	return false
}

// HoursRange is a half-open [Open, Close) range in minutes since midnight.
type HoursRange struct {
	Open  int
	Close int
}

// WeeklyHours is the weekly operating-hours template: ranges per weekday.
// A weekday with no ranges means the resource is closed that day.
type WeeklyHours map[time.Weekday][]HoursRange

// Validate checks every range of the template.
func (w WeeklyHours) Validate() error {
	for _, ranges := range w {
		for _, r := range ranges {
			if r.Open < 0 || r.Close > 24*60 || r.Open >= r.Close {
				return ErrInvalidHours
			}
		}
	}
	return nil
}

// Resource represents a bookable entity (operating room, surgeon, anesthesiologist).
type Resource struct {
	ID        string
	Kind      Kind
	Name      string
	Hours     WeeklyHours
	CreatedAt time.Time
}

// Window is a concrete open interval on a specific date, derived from the
// weekly template.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowsOn materializes the template for a calendar date, in ascending order.
// The result is empty when the resource is closed that day.
func (r *Resource) WindowsOn(date time.Time) []Window {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	ranges := r.Hours[day.Weekday()]
	windows := make([]Window, 0, len(ranges))
	for _, hr := range ranges {
		windows = append(windows, Window{
			Start: day.Add(time.Duration(hr.Open) * time.Minute),
			End:   day.Add(time.Duration(hr.Close) * time.Minute),
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
	return windows
}

// Filter defines parameters for listing resources.
type Filter struct {
	Kind     Kind
	Page     int
	PageSize int
}
