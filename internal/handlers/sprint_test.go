package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

func (suite *HandlerTestSuite) TestCreateSprint() {
	path := productPath(suite.product.ID, "/sprints")

	w := suite.request(http.MethodPost, path, gin.H{
		"feature_id":          suite.feature.ID,
		"name":                "Sprint 2",
		"user_id":             suite.member.ID,
		"planned_start":       "2025-03-10",
		"release_buffer_days": 1,
	}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var sprint dto.SprintDTO
	suite.decode(w, &sprint)
	suite.Equal("Sprint 2", sprint.Name)
	suite.Equal(models.SprintStatusPlanned, sprint.Status)
	suite.Equal(1, sprint.ReleaseBufferDays)
	suite.Require().NotNil(sprint.PlannedStart)
	suite.Equal("2025-03-10", sprint.PlannedStart.Format("2006-01-02"))

	w = suite.request(http.MethodGet, path+"?feature_id="+uintString(suite.feature.ID), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Sprints []dto.SprintDTO `json:"sprints"`
	}
	suite.decode(w, &list)
	suite.Len(list.Sprints, 2)

	w = suite.request(http.MethodPost, path, gin.H{"feature_id": 9999, "name": "S"}, suite.member)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"feature_id": suite.feature.ID, "name": "S", "user_id": suite.outsider.ID}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"feature_id": suite.feature.ID, "name": "S", "release_buffer_days": -1}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"feature_id": suite.feature.ID, "name": "S", "planned_start": "10/03/2025"}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetSprint_ReflectsSchedule() {
	suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodGet, sprintPath(suite.sprint.ID, ""), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var sprint dto.SprintDTO
	suite.decode(w, &sprint)
	suite.Require().NotNil(sprint.Start)
	suite.Equal("2025-03-03", sprint.Start.Format("2006-01-02"))
	suite.Equal("2025-03-04", sprint.End.Format("2006-01-02"))
	suite.Equal("2025-03-04", sprint.ReleaseDate.Format("2006-01-02"))
	suite.Equal(16.0, sprint.OriginalEstimation)
	suite.Equal(16.0, sprint.Remaining)
	suite.NotNil(sprint.ScheduledAt)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, ""), nil, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateSprint() {
	suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodPatch, sprintPath(suite.sprint.ID, ""), gin.H{
		"release_buffer_days": 2,
		"status":              "STARTED",
	}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var sprint dto.SprintDTO
	suite.decode(w, &sprint)
	suite.Equal(models.SprintStatusStarted, sprint.Status)
	suite.Equal("2025-03-06", sprint.ReleaseDate.Format("2006-01-02"))

	w = suite.request(http.MethodPatch, sprintPath(suite.sprint.ID, ""), gin.H{"user_id": nil}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &sprint)
	suite.Nil(sprint.UserID)
	suite.Equal("Sprint 1", sprint.Name)

	w = suite.request(http.MethodPatch, sprintPath(suite.sprint.ID, ""), gin.H{"status": "DONE"}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, sprintPath(suite.sprint.ID, ""), gin.H{"name": ""}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGanttAndSchedule() {
	a := suite.createTask("A", 16, suite.owner)
	b := suite.createTask("B", 8, suite.member)
	w := suite.request(http.MethodPost, taskPath(b, "/dependencies"), gin.H{"predecessor_id": a}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/gantt"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var gantt dto.GanttDTO
	suite.decode(w, &gantt)
	suite.Require().Len(gantt.Tasks, 2)

	bars := make(map[uint64]dto.GanttTaskDTO)
	for _, bar := range gantt.Tasks {
		bars[bar.TaskID] = bar
	}
	suite.Equal("2025-03-03", bars[a].Start.Format("2006-01-02"))
	suite.Equal("2025-03-04", bars[a].End.Format("2006-01-02"))
	suite.Equal("2025-03-05", bars[b].Start.Format("2006-01-02"))
	suite.Equal([]uint64{a}, bars[b].DependsOn)
	suite.Equal("2025-03-05", gantt.End.Format("2006-01-02"))

	w = suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/schedule"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &gantt)
	suite.Equal("2025-03-05", gantt.ReleaseDate.Format("2006-01-02"))
}

func (suite *HandlerTestSuite) TestSchedule_Unschedulable() {
	suite.createTask("Build", 8, suite.owner)

	w := suite.request(http.MethodPost, "/api/calendar/availability", gin.H{
		"start":    "2025-01-01",
		"fraction": 0,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/schedule"), nil, suite.owner)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("UNSCHEDULABLE", suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestBurndown() {
	w := suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/burndown"), nil, suite.member)
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "nothing scheduled yet")

	task := suite.createTask("Build", 16, suite.owner)
	w = suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{
		"time_spent_hours": 4,
		"logged_at":        "2025-03-03T15:00:00Z",
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/burndown"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var series dto.BurndownDTO
	suite.decode(w, &series)
	suite.Equal(16.0, series.Total)
	suite.Equal("2025-03-03", series.Start.Format("2006-01-02"))
	suite.Require().NotEmpty(series.Points)
	suite.Equal(12.0, series.Points[0].Remaining)
	suite.Equal(4.0, series.Points[0].Worked)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/burndown?from=2025-03-10&to=2025-03-03"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/burndown?from=yesterday"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestExport() {
	suite.createTask("Build", 16, suite.owner)

	w := suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/export.xlsx"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(xlsxContentType, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "sprint-"+uintString(suite.sprint.ID)+".xlsx")
	suite.Equal("PK", w.Body.String()[:2], "xlsx files are zip archives")
}

func (suite *HandlerTestSuite) TestDeleteSprint() {
	w := suite.request(http.MethodDelete, sprintPath(suite.sprint.ID, ""), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, sprintPath(suite.sprint.ID, ""), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, ""), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}
