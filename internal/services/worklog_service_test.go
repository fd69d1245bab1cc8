package services

import (
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

func (suite *ServiceTestSuite) TestWorklog_ClampsAndReverts() {
	task := suite.createTask("Build", hours(40), suite.owner)

	first := date("2025-03-03").Add(hours(10))
	log1, warning, err := suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{
		TaskID: task.ID, UserID: suite.owner.ID, TimeSpent: hours(24), LoggedAt: &first,
	})
	suite.Require().NoError(err)
	suite.Nil(warning)
	suite.Equal(task.SprintID, log1.SprintID)

	task = suite.reloadTask(task.ID)
	suite.Equal(hours(16), task.RemainingEstimate)
	suite.Equal(hours(24), task.Worked)
	suite.Equal(models.TaskStatusInProgress, task.Status)

	second := date("2025-03-04").Add(hours(9))
	log2, warning, err := suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{
		TaskID: task.ID, UserID: suite.owner.ID, TimeSpent: hours(24), LoggedAt: &second,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(warning)
	suite.Equal(hours(8), warning.Overage)
	suite.Equal(hours(8), log2.Overage)

	task = suite.reloadTask(task.ID)
	suite.Equal(hours(0), task.RemainingEstimate)
	suite.Equal(hours(48), task.Worked)

	sprint := suite.reloadSprint()
	suite.Equal(hours(0), sprint.Remaining)
	suite.Equal(hours(48), sprint.Worked)
	suite.Equal(hours(40), sprint.OriginalEstimation)

	from, to := date("2025-03-04"), date("2025-03-04")
	logs, err := suite.worklogs.ListSprintWorklogs(suite.sprint.ID, &from, &to)
	suite.Require().NoError(err)
	suite.Require().Len(logs, 1)
	suite.Equal(log2.ID, logs[0].ID)

	suite.ErrorIs(suite.worklogs.DeleteWorklog(suite.ctx, log2.ID, suite.member.ID), ErrNotWorklogAuthor)
	suite.Require().NoError(suite.worklogs.DeleteWorklog(suite.ctx, log2.ID, suite.owner.ID))

	task = suite.reloadTask(task.ID)
	suite.Equal(hours(16), task.RemainingEstimate)
	suite.Equal(hours(24), task.Worked)
	suite.Equal(hours(16), suite.reloadSprint().Remaining)

	logs, err = suite.worklogs.ListTaskWorklogs(task.ID)
	suite.Require().NoError(err)
	suite.Len(logs, 1)

	suite.ErrorIs(suite.worklogs.DeleteWorklog(suite.ctx, log2.ID, suite.owner.ID), ErrWorklogNotFound)
}

func (suite *ServiceTestSuite) TestWorklog_Rejections() {
	story := suite.createTask("Story", 0, nil)
	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		SprintID: suite.sprint.ID, CreatorID: suite.owner.ID, Name: "Child", MaxEstimate: hours(8), ParentID: &story.ID,
	})
	suite.Require().NoError(err)

	_, _, err = suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{TaskID: story.ID, UserID: suite.owner.ID, TimeSpent: hours(1)})
	suite.ErrorIs(err, ErrWorklogOnStory)

	milestone, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		SprintID: suite.sprint.ID, CreatorID: suite.owner.ID, Name: "Release", Milestone: true,
	})
	suite.Require().NoError(err)
	_, _, err = suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{TaskID: milestone.ID, UserID: suite.owner.ID, TimeSpent: hours(1)})
	suite.ErrorIs(err, effort.ErrMilestoneWorklog)

	_, _, err = suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{TaskID: milestone.ID, UserID: suite.owner.ID})
	suite.ErrorIs(err, ErrTimeSpentRequired)

	_, _, err = suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{TaskID: 9999, UserID: suite.owner.ID, TimeSpent: hours(1)})
	suite.ErrorIs(err, ErrTaskNotFound)
}
