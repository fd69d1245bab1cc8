package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

const bavariaHolidays = `
[[location]]
code = "de-by"
name = "Bavaria"

  [[location.holiday]]
  date = "2025-03-04"
  name = "Carnival"
`

func (suite *HandlerTestSuite) taskEnd(id uint64) string {
	w := suite.request(http.MethodGet, taskPath(id, ""), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Require().NotNil(task.End)
	return task.End.Format("2006-01-02")
}

func (suite *HandlerTestSuite) TestWorkWeek() {
	w := suite.request(http.MethodGet, "/api/calendar/work-week", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var week dto.WorkWeekDTO
	suite.decode(w, &week)
	suite.Equal([]string{"monday", "tuesday", "wednesday", "thursday", "friday"}, week.Days)
	suite.Equal(8.0, week.HoursPerDay)

	task := suite.createTask("Build", 16, suite.owner)
	suite.Equal("2025-03-04", suite.taskEnd(task))

	w = suite.request(http.MethodPut, "/api/calendar/work-week", gin.H{
		"days":          []string{"Monday", "thursday"},
		"hours_per_day": 8,
	}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &week)
	suite.Equal([]string{"monday", "thursday"}, week.Days)
	suite.Equal("2025-03-06", suite.taskEnd(task), "the sprint follows the new work week")

	w = suite.request(http.MethodPut, "/api/calendar/work-week", gin.H{"days": []string{"funday"}, "hours_per_day": 8}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPut, "/api/calendar/work-week", gin.H{"days": []string{}, "hours_per_day": 8}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPut, "/api/calendar/work-week", gin.H{"days": []string{"monday"}, "hours_per_day": 30}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/calendar/work-week", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestAvailability() {
	task := suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodPost, "/api/calendar/availability", gin.H{
		"start":    "2025-03-03",
		"end":      "2025-03-04",
		"fraction": 0.5,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var frame dto.AvailabilityDTO
	suite.decode(w, &frame)
	suite.Equal(0.5, frame.Fraction)

	w = suite.request(http.MethodGet, "/api/calendar/availability", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Availability []dto.AvailabilityDTO `json:"availability"`
	}
	suite.decode(w, &list)
	suite.Len(list.Availability, 1)

	w = suite.request(http.MethodPost, "/api/calendar/availability", gin.H{"start": "2025-03-03", "fraction": 1.5}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/calendar/availability", gin.H{"start": "2025-03-05", "end": "2025-03-03", "fraction": 1}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, "/api/calendar/availability/"+uintString(frame.ID), nil, suite.member)
	suite.Equal(http.StatusNotFound, w.Code, "entries of other users are invisible")

	w = suite.request(http.MethodDelete, "/api/calendar/availability/"+uintString(frame.ID), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2025-03-04", suite.taskEnd(task))
}

func (suite *HandlerTestSuite) TestOffDays() {
	task := suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodPost, "/api/calendar/off-days", gin.H{"first_day": "2025-03-04"}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var off dto.OffDayDTO
	suite.decode(w, &off)
	suite.Equal(models.OffDayVacation, off.Kind)
	suite.Equal("2025-03-04", off.LastDay.Format("2006-01-02"))
	suite.Equal("2025-03-05", suite.taskEnd(task))

	w = suite.request(http.MethodPost, "/api/calendar/off-days", gin.H{"first_day": "2025-03-04", "kind": "PARTY"}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/calendar/off-days", gin.H{"first_day": "2025-03-04", "last_day": "2025-03-01"}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/calendar/off-days", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		OffDays []dto.OffDayDTO `json:"off_days"`
	}
	suite.decode(w, &list)
	suite.Len(list.OffDays, 1)

	w = suite.request(http.MethodDelete, "/api/calendar/off-days/"+uintString(off.ID), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2025-03-04", suite.taskEnd(task))
}

func (suite *HandlerTestSuite) TestLocationsAndHolidays() {
	task := suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodPost, "/api/locations/import", bavariaHolidays, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/locations/import", "[[location]]\ncode = ", suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/api/locations", nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Locations []dto.LocationDTO `json:"locations"`
	}
	suite.decode(w, &list)
	suite.Require().Len(list.Locations, 1)
	suite.Equal("Bavaria", list.Locations[0].Name)

	w = suite.request(http.MethodPost, "/api/calendar/locations", gin.H{"start": "2025-01-01", "location_code": "fr"}, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/calendar/locations", gin.H{"start": "2025-01-01", "location_code": "de-by"}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.Equal("2025-03-05", suite.taskEnd(task), "the carnival holiday is skipped")

	w = suite.request(http.MethodPost, "/api/locations/de-by/holidays", gin.H{"date": "2025-03-05", "name": "Bridge day"}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var holiday dto.HolidayDTO
	suite.decode(w, &holiday)
	suite.Equal("2025-03-06", suite.taskEnd(task))

	w = suite.request(http.MethodGet, "/api/locations/de-by", nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var location dto.LocationDTO
	suite.decode(w, &location)
	suite.Len(location.Holidays, 2)

	w = suite.request(http.MethodDelete, "/api/locations/de-by/holidays/"+uintString(holiday.ID), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2025-03-05", suite.taskEnd(task))

	w = suite.request(http.MethodDelete, "/api/locations/de-by/holidays/"+uintString(holiday.ID), nil, suite.member)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/locations/nowhere", nil, suite.member)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/locations/nowhere/holidays", gin.H{"date": "2025-03-05"}, suite.member)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/calendar/locations", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var mine struct {
		Locations []dto.UserLocationDTO `json:"locations"`
	}
	suite.decode(w, &mine)
	suite.Require().Len(mine.Locations, 1)

	w = suite.request(http.MethodDelete, "/api/calendar/locations/"+uintString(mine.Locations[0].ID), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("2025-03-04", suite.taskEnd(task))
}
