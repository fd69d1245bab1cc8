package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/burndown"
	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	apierrors "github.com/yukikurage/sprint-planner-api/internal/errors"
	"github.com/yukikurage/sprint-planner-api/internal/graph"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
)

// uintParam parses the path parameter name, answering 400 when it is not an ID.
func uintParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return nil, false
	}
	return d.TimePtr(), true
}

// hoursPtr converts optional hours from a request body.
func hoursPtr(h *float64) *time.Duration {
	if h == nil {
		return nil
	}
	d := dto.FromHours(*h)
	return &d
}

// respondPlanningError answers the errors raised by the planning core.
// It reports false when err is not one of them.
func respondPlanningError(c *gin.Context, err error) bool {
	var cycle *graph.CyclicDependencyError
	var unschedulable *calendar.UnschedulableTaskError

	switch {
	case errors.As(err, &cycle):
		apierrors.CyclicDependency(c, "", cycle.Cycle)
	case errors.As(err, &unschedulable):
		logger.FromGin(c).Warn().Err(err).Msg("Task cannot be scheduled")
		apierrors.Unschedulable(c, err.Error())
	case errors.Is(err, calendar.ErrNoWorkingDays):
		apierrors.Unschedulable(c, err.Error())
	case errors.Is(err, graph.ErrUnknownPredecessor):
		apierrors.Unprocessable(c, err.Error())
	case errors.Is(err, effort.ErrNegativeTimeSpent),
		errors.Is(err, effort.ErrNegativeEstimate),
		errors.Is(err, effort.ErrEstimateRange),
		errors.Is(err, effort.ErrMilestoneEstimate),
		errors.Is(err, effort.ErrNegativeRemaining):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, effort.ErrMilestoneWorklog),
		errors.Is(err, effort.ErrRemainingOnStory):
		apierrors.Unprocessable(c, err.Error())
	case errors.Is(err, burndown.ErrInvalidRange),
		errors.Is(err, burndown.ErrRangeTooLong):
		apierrors.BadRequest(c, err.Error())
	default:
		return false
	}
	return true
}

// internalError logs err and answers 500.
func internalError(c *gin.Context, err error, msg string) {
	logger.FromGin(c).Error().Err(err).Msg(msg)
	apierrors.InternalError(c, msg)
}

// bindPatch decodes a partial update into req and returns the raw fields that
// were sent, so an explicit null can be told apart from an absent field.
func bindPatch(c *gin.Context, req interface{}) (map[string]json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	if err := json.Unmarshal(body, req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return nil, false
	}
	return fields, true
}

func isNull(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
