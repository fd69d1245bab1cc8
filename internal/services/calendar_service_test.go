package services

import (
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

const bavaria = `
[[location]]
code = "de-by"
name = "Bavaria"

  [[location.holiday]]
  date = "2025-03-05"
  name = "Test Holiday"
`

func (suite *ServiceTestSuite) TestCalendar_ChangesReschedule() {
	task := suite.createTask("Build", hours(16), suite.member)
	suite.Equal("2025-03-03", day(task.Start))

	_, err := suite.calendars.AddOffDay(suite.ctx, AddOffDayInput{
		UserID: suite.member.ID, FirstDay: date("2025-03-03"), LastDay: date("2025-03-04"),
	})
	suite.Require().NoError(err)
	suite.Equal("2025-03-05", day(suite.reloadTask(task.ID).Start))

	locations, err := suite.calendars.ImportHolidays(suite.ctx, bavaria)
	suite.Require().NoError(err)
	suite.Require().Len(locations, 1)

	_, err = suite.calendars.AddUserLocation(suite.ctx, AddUserLocationInput{
		UserID: suite.member.ID, Start: date("2025-01-01"), LocationCode: "de-by",
	})
	suite.Require().NoError(err)
	task = suite.reloadTask(task.ID)
	suite.Equal("2025-03-06", day(task.Start))
	suite.Equal("2025-03-07", day(task.End))

	week, err := suite.calendars.UpdateWorkWeek(suite.ctx, UpdateWorkWeekInput{
		UserID: suite.member.ID, Days: []time.Weekday{time.Monday, time.Thursday}, HoursPerDay: hours(4),
	})
	suite.Require().NoError(err)
	suite.Equal([]time.Weekday{time.Monday, time.Thursday}, week.Weekdays())

	// 16h at 4h on Mondays and Thursdays: 03-06, 03-10, 03-13, 03-17
	task = suite.reloadTask(task.ID)
	suite.Equal("2025-03-06", day(task.Start))
	suite.Equal("2025-03-17", day(task.End))
}

func (suite *ServiceTestSuite) TestCalendar_HolidayChangesReschedule() {
	_, err := suite.calendars.ImportHolidays(suite.ctx, bavaria)
	suite.Require().NoError(err)
	_, err = suite.calendars.AddUserLocation(suite.ctx, AddUserLocationInput{
		UserID: suite.owner.ID, Start: date("2025-01-01"), LocationCode: "de-by",
	})
	suite.Require().NoError(err)

	task := suite.createTask("Build", hours(24), suite.owner)
	suite.Equal("2025-03-06", day(task.End))

	holiday, err := suite.calendars.AddHoliday(suite.ctx, AddHolidayInput{LocationCode: "de-by", Date: date("2025-03-04"), Name: "Extra"})
	suite.Require().NoError(err)
	suite.Equal("2025-03-07", day(suite.reloadTask(task.ID).End))

	suite.Require().NoError(suite.calendars.DeleteHoliday(suite.ctx, "de-by", holiday.ID))
	suite.Equal("2025-03-06", day(suite.reloadTask(task.ID).End))
	suite.ErrorIs(suite.calendars.DeleteHoliday(suite.ctx, "de-by", holiday.ID), ErrHolidayNotFound)
}

func (suite *ServiceTestSuite) TestCalendar_AvailabilityHalvesCapacity() {
	task := suite.createTask("Build", hours(16), suite.owner)
	suite.Equal("2025-03-04", day(task.End))

	frame, err := suite.calendars.AddAvailability(suite.ctx, AddAvailabilityInput{
		UserID: suite.owner.ID, Start: date("2025-01-01"), Fraction: 0.5,
	})
	suite.Require().NoError(err)
	suite.Equal("2025-03-06", day(suite.reloadTask(task.ID).End))

	frames, err := suite.calendars.ListAvailability(suite.owner.ID)
	suite.Require().NoError(err)
	suite.Len(frames, 1)

	suite.ErrorIs(suite.calendars.DeleteAvailability(suite.ctx, suite.member.ID, frame.ID), ErrCalendarEntryNotFound)
	suite.Require().NoError(suite.calendars.DeleteAvailability(suite.ctx, suite.owner.ID, frame.ID))
	suite.Equal("2025-03-04", day(suite.reloadTask(task.ID).End))
}

func (suite *ServiceTestSuite) TestCalendar_Validation() {
	_, err := suite.calendars.UpdateWorkWeek(suite.ctx, UpdateWorkWeekInput{UserID: suite.owner.ID, HoursPerDay: hours(8)})
	suite.ErrorIs(err, ErrEmptyWorkWeek)

	_, err = suite.calendars.UpdateWorkWeek(suite.ctx, UpdateWorkWeekInput{UserID: suite.owner.ID, Days: []time.Weekday{time.Monday}, HoursPerDay: hours(25)})
	suite.ErrorIs(err, ErrInvalidHoursPerDay)

	_, err = suite.calendars.AddAvailability(suite.ctx, AddAvailabilityInput{UserID: suite.owner.ID, Start: date("2025-01-01"), Fraction: 1.5})
	suite.ErrorIs(err, ErrInvalidFraction)

	end := date("2024-12-01")
	_, err = suite.calendars.AddAvailability(suite.ctx, AddAvailabilityInput{UserID: suite.owner.ID, Start: date("2025-01-01"), End: &end, Fraction: 0.5})
	suite.ErrorIs(err, ErrInvalidDateRange)

	_, err = suite.calendars.AddOffDay(suite.ctx, AddOffDayInput{UserID: suite.owner.ID, FirstDay: date("2025-01-01"), LastDay: date("2025-01-02"), Kind: "HOLIDAY"})
	suite.ErrorIs(err, ErrInvalidOffDayKind)

	_, err = suite.calendars.AddUserLocation(suite.ctx, AddUserLocationInput{UserID: suite.owner.ID, Start: date("2025-01-01"), LocationCode: "xx"})
	suite.ErrorIs(err, ErrLocationNotFound)

	_, err = suite.calendars.ImportHolidays(suite.ctx, "[[location]]\nname = \"no code\"\n")
	suite.Error(err)

	week, err := suite.calendars.GetWorkWeek(9999)
	suite.Require().NoError(err)
	suite.Equal(hours(8), week.HoursPerDay)
	suite.Len(week.Weekdays(), 5)

	off, err := suite.calendars.AddOffDay(suite.ctx, AddOffDayInput{UserID: suite.owner.ID, FirstDay: date("2025-01-01"), LastDay: date("2025-01-02")})
	suite.Require().NoError(err)
	suite.Equal(models.OffDayVacation, off.Kind)
}
