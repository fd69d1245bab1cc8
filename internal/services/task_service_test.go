package services

import (
	"errors"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/graph"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

func (suite *ServiceTestSuite) TestTask_CreateAndDependencyReschedule() {
	a := suite.createTask("Design", hours(16), suite.owner)
	b := suite.createTask("Build", hours(8), suite.member)

	suite.Equal(hours(16), a.RemainingEstimate)
	suite.Equal("2025-03-03", day(suite.reloadTask(b.ID).Start))

	_, err := suite.tasks.AddDependency(suite.ctx, b.ID, a.ID)
	suite.Require().NoError(err)

	b = suite.reloadTask(b.ID)
	suite.Equal("2025-03-05", day(b.Start))
	suite.Equal("2025-03-05", day(b.End))
	suite.Equal([]uint64{a.ID}, b.PredecessorIDs())

	sprint := suite.reloadSprint()
	suite.Equal("2025-03-03", day(sprint.Start))
	suite.Equal("2025-03-05", day(sprint.End))
	suite.Equal("2025-03-05", day(sprint.ReleaseDate))
	suite.Equal(hours(24), sprint.OriginalEstimation)
	suite.NotNil(sprint.ScheduledAt)

	suite.Require().NoError(suite.tasks.RemoveDependency(suite.ctx, b.ID, a.ID))
	suite.Equal("2025-03-03", day(suite.reloadTask(b.ID).Start))
	suite.ErrorIs(suite.tasks.RemoveDependency(suite.ctx, b.ID, a.ID), ErrDependencyNotFound)
}

func (suite *ServiceTestSuite) TestTask_AddDependencyRejectsCycle() {
	a := suite.createTask("A", hours(8), nil)
	b := suite.createTask("B", hours(8), nil)
	c := suite.createTask("C", hours(8), nil)

	_, err := suite.tasks.AddDependency(suite.ctx, b.ID, a.ID)
	suite.Require().NoError(err)
	_, err = suite.tasks.AddDependency(suite.ctx, c.ID, b.ID)
	suite.Require().NoError(err)

	_, err = suite.tasks.AddDependency(suite.ctx, a.ID, c.ID)
	var cycle *graph.CyclicDependencyError
	suite.Require().True(errors.As(err, &cycle))
	suite.Contains(cycle.Cycle, a.ID)
	suite.Contains(cycle.Cycle, c.ID)

	suite.Empty(suite.reloadTask(a.ID).Predecessors)

	_, err = suite.tasks.AddDependency(suite.ctx, a.ID, a.ID)
	suite.ErrorIs(err, ErrSelfDependency)
}

func (suite *ServiceTestSuite) TestTask_DependenciesStayInSprint() {
	other, err := suite.sprints.CreateSprint(suite.ctx, CreateSprintInput{
		ProductID: suite.product.ID,
		FeatureID: suite.feature.ID,
		Name:      "Sprint 2",
	})
	suite.Require().NoError(err)

	a := suite.createTask("A", hours(8), nil)
	foreign, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{SprintID: other.ID, CreatorID: suite.owner.ID, Name: "X"})
	suite.Require().NoError(err)

	_, err = suite.tasks.AddDependency(suite.ctx, a.ID, foreign.ID)
	suite.ErrorIs(err, ErrDependencySprintMismatch)

	_, err = suite.tasks.AddDependency(suite.ctx, a.ID, 9999)
	suite.ErrorIs(err, ErrPredecessorNotFound)

	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{SprintID: suite.sprint.ID, Name: "child", ParentID: &foreign.ID})
	suite.ErrorIs(err, ErrParentNotFound)
}

func (suite *ServiceTestSuite) TestTask_Validation() {
	outsider := suite.createUser("outsider")

	cases := []struct {
		name  string
		input CreateTaskInput
		err   error
	}{
		{"missing name", CreateTaskInput{Name: " "}, ErrNameRequired},
		{"milestone with estimate", CreateTaskInput{Name: "m", Milestone: true, MaxEstimate: hours(1)}, effort.ErrMilestoneEstimate},
		{"min above max", CreateTaskInput{Name: "t", MinEstimate: hours(5), MaxEstimate: hours(4)}, effort.ErrEstimateRange},
		{"negative remaining", CreateTaskInput{Name: "t", RemainingEstimate: durationPtr(-time.Hour)}, effort.ErrNegativeRemaining},
		{"bad status", CreateTaskInput{Name: "t", Status: "LATER"}, ErrInvalidTaskStatus},
		{"bad mode", CreateTaskInput{Name: "t", Mode: "SOMETIMES"}, ErrInvalidTaskMode},
		{"outsider assignee", CreateTaskInput{Name: "t", AssigneeID: &outsider.ID}, ErrInvalidTaskAssignee},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			tc.input.SprintID = suite.sprint.ID
			_, err := suite.tasks.CreateTask(suite.ctx, tc.input)
			suite.ErrorIs(err, tc.err)
		})
	}

	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{SprintID: 9999, Name: "t"})
	suite.ErrorIs(err, ErrSprintNotFound)
}

func (suite *ServiceTestSuite) TestTask_StoryEffortIsDerived() {
	story := suite.createTask("Story", 0, nil)
	child, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		SprintID:    suite.sprint.ID,
		CreatorID:   suite.owner.ID,
		Name:        "Child",
		MaxEstimate: hours(16),
		ParentID:    &story.ID,
	})
	suite.Require().NoError(err)

	_, err = suite.tasks.UpdateTask(suite.ctx, story.ID, UpdateTaskInput{RemainingEstimate: durationPtr(hours(4))})
	suite.ErrorIs(err, effort.ErrRemainingOnStory)

	story = suite.reloadTask(story.ID)
	suite.Equal("2025-03-03", day(story.Start))
	suite.Equal("2025-03-04", day(story.End))

	// making the story a child of its own child closes a parent loop
	_, err = suite.tasks.UpdateTask(suite.ctx, story.ID, UpdateTaskInput{ParentID: &child.ID})
	var cycle *graph.CyclicDependencyError
	suite.True(errors.As(err, &cycle))
}

func (suite *ServiceTestSuite) TestTask_UpdateManualStart() {
	task := suite.createTask("Manual", hours(8), suite.owner)

	manual := models.TaskModeManual
	start := date("2025-03-12")
	updated, err := suite.tasks.UpdateTask(suite.ctx, task.ID, UpdateTaskInput{Mode: &manual, Start: &start})
	suite.Require().NoError(err)
	suite.Equal("2025-03-12", day(updated.Start))
	suite.Equal("2025-03-12", day(updated.End))

	name := ""
	_, err = suite.tasks.UpdateTask(suite.ctx, task.ID, UpdateTaskInput{Name: &name})
	suite.ErrorIs(err, ErrNameEmpty)

	updated, err = suite.tasks.UpdateTask(suite.ctx, task.ID, UpdateTaskInput{ClearAssignee: true})
	suite.Require().NoError(err)
	suite.Nil(updated.AssigneeID)
}

func (suite *ServiceTestSuite) TestTask_ListAndDelete() {
	a := suite.createTask("A", hours(8), suite.owner)
	suite.createTask("B", hours(8), suite.member)

	tasks, total, err := suite.tasks.ListTasks(ListTasksInput{SprintID: suite.sprint.ID, AssigneeID: &suite.member.ID, Page: utils.Page{Number: 1, Size: 10}})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(tasks, 1)
	suite.Equal("B", tasks[0].Name)

	suite.ErrorIs(suite.tasks.DeleteTask(suite.ctx, a.ID, suite.member.ID), ErrNotTaskCreator)
	suite.Require().NoError(suite.tasks.DeleteTask(suite.ctx, a.ID, suite.owner.ID))
	_, err = suite.tasks.GetTask(a.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	suite.Equal(hours(8), suite.reloadSprint().OriginalEstimation)
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
