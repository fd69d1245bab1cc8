package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
)

type worklogResponse struct {
	Worklog dto.WorklogDTO `json:"worklog"`
	Warning *struct {
		TaskID  uint64  `json:"task_id"`
		Overage float64 `json:"overage_hours"`
		Message string  `json:"message"`
	} `json:"warning"`
}

func (suite *HandlerTestSuite) TestCreateWorklog_Overage() {
	task := suite.createTask("Build", 8, suite.member)

	w := suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{
		"time_spent_hours": 4,
		"logged_at":        "2025-03-03T10:00:00Z",
		"comment":          "first half",
	}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp worklogResponse
	suite.decode(w, &resp)
	suite.Nil(resp.Warning)
	suite.Equal(4.0, resp.Worklog.TimeSpent)
	suite.Equal(suite.member.ID, resp.Worklog.UserID)

	w = suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{
		"time_spent_hours": 6,
		"logged_at":        "2025-03-04T10:00:00Z",
	}, suite.member)
	suite.Require().Equal(http.StatusCreated, w.Code)
	resp = worklogResponse{}
	suite.decode(w, &resp)
	suite.Require().NotNil(resp.Warning)
	suite.Equal(task, resp.Warning.TaskID)
	suite.Equal(2.0, resp.Warning.Overage)
	suite.Equal(2.0, resp.Worklog.Overage)

	w = suite.request(http.MethodGet, taskPath(task, ""), nil, suite.member)
	var updated dto.TaskDTO
	suite.decode(w, &updated)
	suite.Equal(0.0, updated.RemainingEstimate)
	suite.Equal(10.0, updated.Worked)
}

func (suite *HandlerTestSuite) TestCreateWorklog_Rejected() {
	task := suite.createTask("Build", 8, suite.member)

	w := suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{"comment": "no time"}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{"time_spent_hours": -1}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/tasks"), gin.H{
		"name":      "Child",
		"parent_id": task,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, taskPath(task, "/worklogs"), gin.H{"time_spent_hours": 1}, suite.member)
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "stories take no worklogs")

	w = suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/tasks"), gin.H{
		"name":      "Release",
		"milestone": true,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var milestone dto.TaskDTO
	suite.decode(w, &milestone)

	w = suite.request(http.MethodPost, taskPath(milestone.ID, "/worklogs"), gin.H{"time_spent_hours": 1}, suite.member)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlerTestSuite) TestListWorklogs() {
	a := suite.createTask("A", 8, suite.owner)
	b := suite.createTask("B", 8, suite.member)

	for _, entry := range []struct {
		task uint64
		at   string
	}{
		{a, "2025-03-04T09:00:00Z"},
		{a, "2025-03-03T09:00:00Z"},
		{b, "2025-03-05T23:30:00Z"},
	} {
		w := suite.request(http.MethodPost, taskPath(entry.task, "/worklogs"), gin.H{
			"time_spent_hours": 1,
			"logged_at":        entry.at,
		}, suite.owner)
		suite.Require().Equal(http.StatusCreated, w.Code)
	}

	var list struct {
		Worklogs []dto.WorklogDTO `json:"worklogs"`
	}

	w := suite.request(http.MethodGet, taskPath(a, "/worklogs"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &list)
	suite.Require().Len(list.Worklogs, 2)
	suite.True(list.Worklogs[0].LoggedAt.Before(list.Worklogs[1].LoggedAt))

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/worklogs"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &list)
	suite.Len(list.Worklogs, 3)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/worklogs?from=2025-03-04&to=2025-03-05"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &list)
	suite.Len(list.Worklogs, 2, "to includes the whole last day")

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/worklogs?to=march"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteWorklog() {
	a := suite.createTask("A", 8, suite.owner)
	b := suite.createTask("B", 8, suite.owner)

	w := suite.request(http.MethodPost, taskPath(a, "/worklogs"), gin.H{"time_spent_hours": 3}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var resp worklogResponse
	suite.decode(w, &resp)
	worklogPath := "/worklogs/" + uintString(resp.Worklog.ID)

	w = suite.request(http.MethodDelete, taskPath(a, worklogPath), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, taskPath(b, worklogPath), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code, "the worklog belongs to another task")

	w = suite.request(http.MethodDelete, taskPath(a, worklogPath), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, taskPath(a, ""), nil, suite.owner)
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal(8.0, task.RemainingEstimate, "deleting a worklog gives its effort back")
	suite.Equal(0.0, task.Worked)

	w = suite.request(http.MethodDelete, taskPath(a, worklogPath), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}
