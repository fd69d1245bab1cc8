package calendar

import (
	"fmt"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// Provider resolves the calendar of a user. User 0 denotes "nobody" and
// resolves to the provider's fallback calendar.
type Provider interface {
	CalendarFor(userID uint64) (*Calendar, error)
}

// StaticProvider serves calendars built ahead of time from a snapshot.
type StaticProvider struct {
	calendars map[uint64]*Calendar
	fallback  *Calendar
}

// NewStaticProvider creates a provider over the given calendars. A nil
// fallback is replaced by a default Monday to Friday calendar.
func NewStaticProvider(fallback *Calendar, calendars ...*Calendar) *StaticProvider {
	if fallback == nil {
		fallback = New(0, Options{})
	}
	p := &StaticProvider{
		calendars: make(map[uint64]*Calendar, len(calendars)),
		fallback:  fallback,
	}
	for _, c := range calendars {
		p.calendars[c.UserID()] = c
	}
	return p
}

// CalendarFor returns the calendar of userID.
func (p *StaticProvider) CalendarFor(userID uint64) (*Calendar, error) {
	if userID == 0 {
		return p.fallback, nil
	}
	c, ok := p.calendars[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", ErrCalendarNotFound, userID)
	}
	return c, nil
}

// Records is the persisted calendar state of one user.
type Records struct {
	WorkWeek     *models.UserWorkWeek
	Availability []models.UserAvailability
	Locations    []models.UserLocation
	OffDays      []models.OffDay
	Holidays     []models.Holiday
}

// Defaults fill in what a user has not configured.
type Defaults struct {
	HoursPerDay time.Duration
	HorizonDays int
}

// FromRecords builds the calendar of userID from its persisted records.
func FromRecords(userID uint64, rec Records, defaults Defaults) *Calendar {
	opts := Options{
		HoursPerDay: defaults.HoursPerDay,
		HorizonDays: defaults.HorizonDays,
		Holidays:    make(map[string][]time.Time),
	}
	if rec.WorkWeek != nil {
		opts.WorkWeek = rec.WorkWeek.Weekdays()
		if rec.WorkWeek.HoursPerDay > 0 {
			opts.HoursPerDay = rec.WorkWeek.HoursPerDay
		}
	}
	for _, a := range rec.Availability {
		opts.Availability = append(opts.Availability, AvailabilityFrame{From: a.Start, Until: a.End, Fraction: a.Fraction})
	}
	for _, l := range rec.Locations {
		opts.Locations = append(opts.Locations, LocationFrame{From: l.Start, Code: l.LocationCode})
	}
	for _, o := range rec.OffDays {
		opts.OffDays = append(opts.OffDays, Range{First: o.FirstDay, Last: o.LastDay})
	}
	for _, h := range rec.Holidays {
		opts.Holidays[h.LocationCode] = append(opts.Holidays[h.LocationCode], h.Date)
	}
	return New(userID, opts)
}
