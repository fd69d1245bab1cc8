package dto

import (
	"strings"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

type WorkWeekDTO struct {
	Days        []string `json:"days"`
	HoursPerDay float64  `json:"hours_per_day"`
}

type AvailabilityDTO struct {
	ID       uint64  `json:"id"`
	Start    Date    `json:"start"`
	End      *Date   `json:"end"`
	Fraction float64 `json:"fraction"`
}

type UserLocationDTO struct {
	ID           uint64 `json:"id"`
	Start        Date   `json:"start"`
	LocationCode string `json:"location_code"`
}

type OffDayDTO struct {
	ID       uint64            `json:"id"`
	FirstDay Date              `json:"first_day"`
	LastDay  Date              `json:"last_day"`
	Kind     models.OffDayKind `json:"kind"`
}

type HolidayDTO struct {
	ID   uint64 `json:"id"`
	Date Date   `json:"date"`
	Name string `json:"name"`
}

type LocationDTO struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Holidays []HolidayDTO `json:"holidays,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts lower-case English weekday names.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[name]
	return wd, ok
}

// Weekdays parses the day names of a work week. It returns the first name it
// cannot parse.
func (w WorkWeekDTO) Weekdays() ([]time.Weekday, string, bool) {
	days := make([]time.Weekday, 0, len(w.Days))
	for _, name := range w.Days {
		day, ok := ParseWeekday(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, name, false
		}
		days = append(days, day)
	}
	return days, "", true
}

func ToWorkWeekDTO(w models.UserWorkWeek) WorkWeekDTO {
	days := w.Weekdays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = weekdayName(d)
	}
	return WorkWeekDTO{Days: names, HoursPerDay: Hours(w.HoursPerDay)}
}

func weekdayName(d time.Weekday) string {
	for name, wd := range weekdayNames {
		if wd == d {
			return name
		}
	}
	return ""
}

func ToAvailabilityDTO(a models.UserAvailability) AvailabilityDTO {
	return AvailabilityDTO{ID: a.ID, Start: NewDate(a.Start), End: DatePtr(a.End), Fraction: a.Fraction}
}

func ToUserLocationDTO(l models.UserLocation) UserLocationDTO {
	return UserLocationDTO{ID: l.ID, Start: NewDate(l.Start), LocationCode: l.LocationCode}
}

func ToOffDayDTO(o models.OffDay) OffDayDTO {
	return OffDayDTO{ID: o.ID, FirstDay: NewDate(o.FirstDay), LastDay: NewDate(o.LastDay), Kind: o.Kind}
}

func ToLocationDTO(l models.Location) LocationDTO {
	dto := LocationDTO{Code: l.Code, Name: l.Name}
	for _, h := range l.Holidays {
		dto.Holidays = append(dto.Holidays, HolidayDTO{ID: h.ID, Date: NewDate(h.Date), Name: h.Name})
	}
	return dto
}
