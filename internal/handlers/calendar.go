package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/dto"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/middleware"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/services"
)

// CalendarHandler serves the working calendar of the current user and the
// shared location holiday calendars.
type CalendarHandler struct {
	calendarService *services.CalendarService
}

func NewCalendarHandler(calendarService *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func (h *CalendarHandler) GetWorkWeek(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	week, err := h.calendarService.GetWorkWeek(userID)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkWeekDTO(*week))
}

// UpdateWorkWeek replaces the weekly working pattern of the current user
func (h *CalendarHandler) UpdateWorkWeek(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.WorkWeekDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	days, bad, ok := req.Weekdays()
	if !ok {
		apierrors.BadRequest(c, "Invalid weekday: "+bad)
		return
	}
	input := services.UpdateWorkWeekInput{
		UserID:      userID,
		Days:        days,
		HoursPerDay: dto.FromHours(req.HoursPerDay),
	}

	week, err := h.calendarService.UpdateWorkWeek(c.Request.Context(), input)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkWeekDTO(*week))
}

// AddAvailability adds a frame in which the user works a fraction of a day
func (h *CalendarHandler) AddAvailability(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AvailabilityRequest struct {
		Start    dto.Date  `json:"start" binding:"required"`
		End      *dto.Date `json:"end"`
		Fraction float64   `json:"fraction"`
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	frame, err := h.calendarService.AddAvailability(c.Request.Context(), services.AddAvailabilityInput{
		UserID:   userID,
		Start:    req.Start.Time,
		End:      req.End.TimePtr(),
		Fraction: req.Fraction,
	})
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAvailabilityDTO(*frame))
}

func (h *CalendarHandler) ListAvailability(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	frames, err := h.calendarService.ListAvailability(userID)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	items := make([]dto.AvailabilityDTO, len(frames))
	for i, f := range frames {
		items[i] = dto.ToAvailabilityDTO(f)
	}
	c.JSON(http.StatusOK, gin.H{"availability": items})
}

func (h *CalendarHandler) DeleteAvailability(c *gin.Context) {
	h.deleteEntry(c, h.calendarService.DeleteAvailability)
}

// AddUserLocation sets the holiday calendar that applies from a day on
func (h *CalendarHandler) AddUserLocation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UserLocationRequest struct {
		Start        dto.Date `json:"start" binding:"required"`
		LocationCode string   `json:"location_code" binding:"required"`
	}

	var req UserLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.calendarService.AddUserLocation(c.Request.Context(), services.AddUserLocationInput{
		UserID:       userID,
		Start:        req.Start.Time,
		LocationCode: req.LocationCode,
	})
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserLocationDTO(*location))
}

func (h *CalendarHandler) ListUserLocations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	locations, err := h.calendarService.ListUserLocations(userID)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	items := make([]dto.UserLocationDTO, len(locations))
	for i, l := range locations {
		items[i] = dto.ToUserLocationDTO(l)
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

func (h *CalendarHandler) DeleteUserLocation(c *gin.Context) {
	h.deleteEntry(c, h.calendarService.DeleteUserLocation)
}

// AddOffDay records an inclusive range of days off
func (h *CalendarHandler) AddOffDay(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type OffDayRequest struct {
		FirstDay dto.Date          `json:"first_day" binding:"required"`
		LastDay  *dto.Date         `json:"last_day"`
		Kind     models.OffDayKind `json:"kind"`
	}

	var req OffDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	last := req.FirstDay
	if req.LastDay != nil {
		last = *req.LastDay
	}

	offDay, err := h.calendarService.AddOffDay(c.Request.Context(), services.AddOffDayInput{
		UserID:   userID,
		FirstDay: req.FirstDay.Time,
		LastDay:  last.Time,
		Kind:     req.Kind,
	})
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOffDayDTO(*offDay))
}

func (h *CalendarHandler) ListOffDays(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	offDays, err := h.calendarService.ListOffDays(userID)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	items := make([]dto.OffDayDTO, len(offDays))
	for i, o := range offDays {
		items[i] = dto.ToOffDayDTO(o)
	}
	c.JSON(http.StatusOK, gin.H{"off_days": items})
}

func (h *CalendarHandler) DeleteOffDay(c *gin.Context) {
	h.deleteEntry(c, h.calendarService.DeleteOffDay)
}

// ListLocations returns the known holiday calendars without their holidays
func (h *CalendarHandler) ListLocations(c *gin.Context) {
	locations, err := h.calendarService.ListLocations()
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	items := make([]dto.LocationDTO, len(locations))
	for i, l := range locations {
		items[i] = dto.ToLocationDTO(l)
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

func (h *CalendarHandler) GetLocation(c *gin.Context) {
	location, err := h.calendarService.GetLocation(c.Param("code"))
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(*location))
}

// ImportHolidays replaces the holidays of every location in a TOML holiday
// file sent as the request body
func (h *CalendarHandler) ImportHolidays(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		apierrors.BadRequest(c, "Holiday file is required")
		return
	}

	locations, err := h.calendarService.ImportHolidays(c.Request.Context(), string(body))
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	items := make([]dto.LocationDTO, len(locations))
	for i, l := range locations {
		items[i] = dto.ToLocationDTO(l)
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

func (h *CalendarHandler) AddHoliday(c *gin.Context) {
	type HolidayRequest struct {
		Date dto.Date `json:"date" binding:"required"`
		Name string   `json:"name"`
	}

	var req HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	holiday, err := h.calendarService.AddHoliday(c.Request.Context(), services.AddHolidayInput{
		LocationCode: c.Param("code"),
		Date:         req.Date.Time,
		Name:         req.Name,
	})
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.HolidayDTO{ID: holiday.ID, Date: dto.NewDate(holiday.Date), Name: holiday.Name})
}

func (h *CalendarHandler) DeleteHoliday(c *gin.Context) {
	id, ok := uintParam(c, "id", "holiday ID")
	if !ok {
		return
	}

	if err := h.calendarService.DeleteHoliday(c.Request.Context(), c.Param("code"), id); err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Holiday deleted successfully"})
}

// deleteEntry removes the calendar entry :id of the current user with del.
func (h *CalendarHandler) deleteEntry(c *gin.Context, del func(ctx context.Context, userID, id uint64) error) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := uintParam(c, "id", "entry ID")
	if !ok {
		return
	}

	if err := del(c.Request.Context(), userID, id); err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Calendar entry deleted successfully"})
}

func respondCalendarError(c *gin.Context, err error) {
	if respondPlanningError(c, err) {
		return
	}

	switch {
	case errors.Is(err, calendar.ErrInvalidHolidayFile),
		errors.Is(err, services.ErrEmptyWorkWeek),
		errors.Is(err, services.ErrInvalidHoursPerDay),
		errors.Is(err, services.ErrInvalidFraction),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidOffDayKind),
		errors.Is(err, services.ErrLocationCodeRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrLocationNotFound),
		errors.Is(err, services.ErrCalendarEntryNotFound),
		errors.Is(err, services.ErrHolidayNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		internalError(c, err, "Failed to process calendar request")
	}
}
