package services

import (
	"errors"

	"github.com/xuri/excelize/v2"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/report"
)

func (suite *ServiceTestSuite) TestSprint_CreateValidation() {
	negative := -1
	_, err := suite.sprints.CreateSprint(suite.ctx, CreateSprintInput{
		ProductID: suite.product.ID, FeatureID: suite.feature.ID, Name: "S", ReleaseBufferDays: &negative,
	})
	suite.ErrorIs(err, ErrInvalidReleaseBuffer)

	outsider := suite.createUser("outsider")
	_, err = suite.sprints.CreateSprint(suite.ctx, CreateSprintInput{
		ProductID: suite.product.ID, FeatureID: suite.feature.ID, Name: "S", OwnerID: &outsider.ID,
	})
	suite.ErrorIs(err, ErrSprintOwnerNotMember)

	_, err = suite.sprints.CreateSprint(suite.ctx, CreateSprintInput{ProductID: suite.product.ID, FeatureID: 9999, Name: "S"})
	suite.ErrorIs(err, ErrFeatureNotFound)

	_, err = suite.sprints.CreateSprint(suite.ctx, CreateSprintInput{ProductID: suite.product.ID, FeatureID: suite.feature.ID})
	suite.ErrorIs(err, ErrSprintNameRequired)

	sprints, err := suite.sprints.ListSprints(ListSprintsInput{ProductID: suite.product.ID})
	suite.Require().NoError(err)
	suite.Len(sprints, 1)
}

func (suite *ServiceTestSuite) TestSprint_ReleaseBuffer() {
	suite.createTask("Build", hours(16), suite.owner)
	suite.Equal("2025-03-04", day(suite.reloadSprint().ReleaseDate))

	buffer := 2
	sprint, err := suite.sprints.UpdateSprint(suite.ctx, suite.sprint.ID, UpdateSprintInput{ReleaseBufferDays: &buffer})
	suite.Require().NoError(err)
	suite.Equal("2025-03-04", day(sprint.End))
	suite.Equal("2025-03-06", day(sprint.ReleaseDate))

	status := models.SprintStatus("DONE")
	_, err = suite.sprints.UpdateSprint(suite.ctx, suite.sprint.ID, UpdateSprintInput{Status: &status})
	suite.ErrorIs(err, ErrInvalidSprintStatus)

	start := date("2025-03-10")
	sprint, err = suite.sprints.UpdateSprint(suite.ctx, suite.sprint.ID, UpdateSprintInput{PlannedStart: &start})
	suite.Require().NoError(err)
	suite.Equal("2025-03-10", day(sprint.Start))
	suite.Equal("2025-03-13", day(sprint.ReleaseDate))
}

func (suite *ServiceTestSuite) TestSprint_BurndownAndExport() {
	task := suite.createTask("Build", hours(16), suite.owner)
	loggedAt := date("2025-03-03").Add(hours(10))
	_, _, err := suite.worklogs.CreateWorklog(suite.ctx, CreateWorklogInput{
		TaskID: task.ID, UserID: suite.owner.ID, TimeSpent: hours(8), LoggedAt: &loggedAt,
	})
	suite.Require().NoError(err)

	series, err := suite.sprints.Burndown(suite.ctx, suite.sprint.ID, nil, nil)
	suite.Require().NoError(err)
	suite.Require().Len(series.Points, 1)
	suite.Equal(hours(16), series.Total)
	suite.Equal(hours(8), series.Points[0].Remaining)
	suite.Equal(hours(8), series.Points[0].Worked)

	from, to := date("2025-03-03"), date("2025-03-07")
	series, err = suite.sprints.Burndown(suite.ctx, suite.sprint.ID, &from, &to)
	suite.Require().NoError(err)
	suite.Require().Len(series.Points, 5)
	suite.Equal(hours(8), series.Points[4].Remaining)
	suite.Equal(hours(0), series.Points[4].Ideal)

	buf, err := suite.sprints.Export(suite.ctx, suite.sprint.ID)
	suite.Require().NoError(err)
	f, err := excelize.OpenReader(buf)
	suite.Require().NoError(err)
	defer f.Close()
	suite.Equal([]string{report.GanttSheet, report.BurndownSheet}, f.GetSheetList())

	assignee, err := f.GetCellValue(report.GanttSheet, "C2")
	suite.Require().NoError(err)
	suite.Equal("owner", assignee)
}

func (suite *ServiceTestSuite) TestSprint_EmptyAndMissing() {
	_, err := suite.sprints.Burndown(suite.ctx, suite.sprint.ID, nil, nil)
	suite.ErrorIs(err, ErrSprintNotScheduled)

	result, err := suite.sprints.Gantt(suite.ctx, suite.sprint.ID)
	suite.Require().NoError(err)
	suite.Empty(result.Tasks)
	suite.Nil(result.End)

	_, err = suite.sprints.Gantt(suite.ctx, 9999)
	suite.ErrorIs(err, ErrSprintNotFound)

	suite.ErrorIs(suite.sprints.DeleteSprint(9999), ErrSprintNotFound)
	suite.Require().NoError(suite.sprints.DeleteSprint(suite.sprint.ID))
}

func (suite *ServiceTestSuite) TestSprint_RescheduleUnschedulable() {
	task := suite.createTask("Build", hours(8), suite.owner)

	_, err := suite.calendars.AddAvailability(suite.ctx, AddAvailabilityInput{
		UserID: suite.owner.ID, Start: date("2025-01-01"), Fraction: 0,
	})
	suite.Require().NoError(err)

	_, err = suite.sprints.Reschedule(suite.ctx, suite.sprint.ID)
	var unschedulable *calendar.UnschedulableTaskError
	suite.Require().True(errors.As(err, &unschedulable))
	suite.Equal(suite.owner.ID, unschedulable.UserID)

	// the last successful schedule stays in place
	suite.Equal("2025-03-03", day(suite.reloadTask(task.ID).Start))
}
