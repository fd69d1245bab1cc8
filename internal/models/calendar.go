package models

import "time"

// UserWorkWeek is the weekly working pattern of a user.
type UserWorkWeek struct {
	UserID      uint64        `gorm:"primarykey" json:"user_id"`
	Monday      bool          `json:"monday"`
	Tuesday     bool          `json:"tuesday"`
	Wednesday   bool          `json:"wednesday"`
	Thursday    bool          `json:"thursday"`
	Friday      bool          `json:"friday"`
	Saturday    bool          `json:"saturday"`
	Sunday      bool          `json:"sunday"`
	HoursPerDay time.Duration `gorm:"not null" json:"hours_per_day"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// DefaultWorkDays is the week every new user starts with.
var DefaultWorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// NewUserWorkWeek builds a work week with the given working days.
func NewUserWorkWeek(userID uint64, days []time.Weekday, hoursPerDay time.Duration) UserWorkWeek {
	week := UserWorkWeek{UserID: userID, HoursPerDay: hoursPerDay}
	flags := []*bool{&week.Sunday, &week.Monday, &week.Tuesday, &week.Wednesday, &week.Thursday, &week.Friday, &week.Saturday}
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			*flags[d] = true
		}
	}
	return week
}

// Weekdays lists the working weekdays in Sunday-first order.
func (w UserWorkWeek) Weekdays() []time.Weekday {
	flags := []bool{w.Sunday, w.Monday, w.Tuesday, w.Wednesday, w.Thursday, w.Friday, w.Saturday}
	days := make([]time.Weekday, 0, len(flags))
	for i, on := range flags {
		if on {
			days = append(days, time.Weekday(i))
		}
	}
	return days
}

// UserAvailability is a time frame in which a user works at the given
// fraction of a full day. End is inclusive; nil means open-ended.
type UserAvailability struct {
	ID       uint64     `gorm:"primarykey" json:"id"`
	UserID   uint64     `gorm:"not null;index" json:"user_id"`
	Start    time.Time  `gorm:"not null" json:"start"`
	End      *time.Time `json:"end"`
	Fraction float64    `gorm:"not null" json:"fraction"`
}

// UserLocation says which holiday calendar applies to a user from Start on.
type UserLocation struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	UserID       uint64    `gorm:"not null;index" json:"user_id"`
	Start        time.Time `gorm:"not null" json:"start"`
	LocationCode string    `gorm:"type:varchar(50);not null" json:"location_code"`
}

type OffDayKind string

const (
	OffDayVacation OffDayKind = "VACATION"
	OffDaySick     OffDayKind = "SICK"
	OffDayTrip     OffDayKind = "TRIP"
)

// OffDay is an inclusive range of days a user does not work.
type OffDay struct {
	ID       uint64     `gorm:"primarykey" json:"id"`
	UserID   uint64     `gorm:"not null;index" json:"user_id"`
	FirstDay time.Time  `gorm:"not null" json:"first_day"`
	LastDay  time.Time  `gorm:"not null" json:"last_day"`
	Kind     OffDayKind `gorm:"type:varchar(20);not null;default:'VACATION'" json:"kind"`
}

// Location is a named holiday calendar, e.g. a country or state.
type Location struct {
	Code     string    `gorm:"primarykey;type:varchar(50)" json:"code"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Holidays []Holiday `gorm:"foreignKey:LocationCode" json:"holidays,omitempty"`
}

type Holiday struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	LocationCode string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_holiday_location_date" json:"location_code"`
	Date         time.Time `gorm:"not null;uniqueIndex:idx_holiday_location_date" json:"date"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
}
