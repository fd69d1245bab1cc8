package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

func (suite *HandlerTestSuite) TestCreateTask_Success() {
	w := suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/tasks"), gin.H{
		"name":               "Design schema",
		"description":        "tables and indexes",
		"min_estimate_hours": 4,
		"max_estimate_hours": 12,
		"assignee_id":        suite.member.ID,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal("Design schema", task.Name)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskModeAuto, task.Mode)
	suite.Equal(12.0, task.RemainingEstimate)
	suite.Equal(suite.owner.ID, task.CreatorID)
	suite.Require().NotNil(task.Assignee)
	suite.Equal("member", task.Assignee.Username)
	suite.Require().NotNil(task.Start, "creating a task reschedules the sprint")
	suite.Equal("2025-03-03", task.Start.Format("2006-01-02"))
	suite.Equal("2025-03-04", task.End.Format("2006-01-02"))
}

func (suite *HandlerTestSuite) TestCreateTask_Validation() {
	path := sprintPath(suite.sprint.ID, "/tasks")

	w := suite.request(http.MethodPost, path, gin.H{"description": "no name"}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"name": "T", "min_estimate_hours": 5, "max_estimate_hours": 2}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"name": "T", "milestone": true, "max_estimate_hours": 2}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"name": "T", "assignee_id": suite.outsider.ID}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"name": "T", "parent_id": 9999}, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, path, gin.H{"name": "T"}, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code, "outsiders cannot see the sprint")

	w = suite.request(http.MethodPost, path, gin.H{"name": "T"}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestListTasks_Filters() {
	suite.createTask("Mine", 8, suite.owner)
	suite.createTask("Theirs", 8, suite.member)
	suite.createTask("Nobody", 8, nil)

	w := suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/tasks?limit=2"), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Len(page.Tasks, 2)
	suite.EqualValues(3, page.TotalCount)
	suite.Equal(2, page.TotalPages)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/tasks?assignee_id="+uintString(suite.member.ID)), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 1)
	suite.Equal("Theirs", page.Tasks[0].Name)

	w = suite.request(http.MethodGet, sprintPath(suite.sprint.ID, "/tasks?assignee_id=abc"), nil, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetTask() {
	id := suite.createTask("Build", 8, suite.owner)

	w := suite.request(http.MethodGet, taskPath(id, ""), nil, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code)

	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal(id, task.ID)
	suite.Equal(8.0, task.MaxEstimate)

	w = suite.request(http.MethodGet, taskPath(id, ""), nil, suite.outsider)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, taskPath(9999, ""), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/abc", nil, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateTask_PartialAndNull() {
	id := suite.createTask("Build", 8, suite.member)

	w := suite.request(http.MethodPatch, taskPath(id, ""), gin.H{
		"status":      "IN_PROGRESS",
		"assignee_id": nil,
	}, suite.member)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal(models.TaskStatusInProgress, task.Status)
	suite.Nil(task.AssigneeID)
	suite.Equal("Build", task.Name, "fields not sent are kept")
	suite.Equal(8.0, task.MaxEstimate)

	w = suite.request(http.MethodPatch, taskPath(id, ""), gin.H{"name": "  "}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, taskPath(id, ""), gin.H{"status": "BLOCKED"}, suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPatch, taskPath(id, ""), "{not json", suite.member)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateTask_StoryEffortIsDerived() {
	story := suite.createTask("Story", 0, nil)
	w := suite.request(http.MethodPost, sprintPath(suite.sprint.ID, "/tasks"), gin.H{
		"name":               "Subtask",
		"max_estimate_hours": 4,
		"parent_id":          story,
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPatch, taskPath(story, ""), gin.H{"max_estimate_hours": 10}, suite.owner)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteTask() {
	id := suite.createTask("Build", 8, nil)

	w := suite.request(http.MethodDelete, taskPath(id, ""), nil, suite.member)
	suite.Equal(http.StatusForbidden, w.Code, "only the creator can delete")

	w = suite.request(http.MethodDelete, taskPath(id, ""), nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, taskPath(id, ""), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDependencies() {
	a := suite.createTask("A", 8, suite.owner)
	b := suite.createTask("B", 8, suite.owner)
	c := suite.createTask("C", 8, suite.owner)

	w := suite.request(http.MethodPost, taskPath(b, "/dependencies"), gin.H{"predecessor_id": a}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal([]uint64{a}, task.DependsOn)

	w = suite.request(http.MethodPost, taskPath(c, "/dependencies"), gin.H{"predecessor_id": b}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, taskPath(c, ""), nil, suite.owner)
	suite.decode(w, &task)
	suite.Equal("2025-03-05", task.Start.Format("2006-01-02"), "C waits for A then B")

	w = suite.request(http.MethodPost, taskPath(a, "/dependencies"), gin.H{"predecessor_id": c}, suite.owner)
	suite.Require().Equal(http.StatusConflict, w.Code)
	var apiErr struct {
		Code    string `json:"code"`
		Details struct {
			Cycle []uint64 `json:"cycle"`
		} `json:"details"`
	}
	suite.decode(w, &apiErr)
	suite.Equal("CYCLIC_DEPENDENCY", apiErr.Code)
	suite.ElementsMatch([]uint64{a, b, c}, uniqueIDs(apiErr.Details.Cycle))

	w = suite.request(http.MethodPost, taskPath(a, "/dependencies"), gin.H{"predecessor_id": a}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, taskPath(c, "/dependencies/"+uintString(a)), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, taskPath(c, "/dependencies/"+uintString(b)), nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestSuggestTasks_NotConfiguredAndRateLimited() {
	path := sprintPath(suite.sprint.ID, "/suggestions")
	body := gin.H{"text": "build the login page"}

	suite.Equal(http.StatusServiceUnavailable, suite.request(http.MethodPost, path, body, suite.owner).Code)
	suite.Equal(http.StatusServiceUnavailable, suite.request(http.MethodPost, path, body, suite.owner).Code)

	w := suite.request(http.MethodPost, path, body, suite.owner)
	suite.Equal(http.StatusTooManyRequests, w.Code)
	suite.Equal("RATE_LIMITED", suite.errorCode(w))
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
