package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/logger"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
)

var (
	ErrWorklogNotFound   = errors.New("worklog not found")
	ErrWorklogOnStory    = errors.New("work is logged against the subtasks of a story")
	ErrNotWorklogAuthor  = errors.New("only the author can delete a worklog")
	ErrTimeSpentRequired = errors.New("time spent must be positive")
)

// WorklogService books time against tasks through the effort ledger.
type WorklogService struct {
	worklogRepo repository.WorklogRepository
	taskRepo    repository.TaskRepository
	rescheduler Rescheduler
	now         func() time.Time
}

// NewWorklogService creates a new WorklogService
func NewWorklogService(worklogRepo repository.WorklogRepository, taskRepo repository.TaskRepository, rescheduler Rescheduler) *WorklogService {
	return &WorklogService{
		worklogRepo: worklogRepo,
		taskRepo:    taskRepo,
		rescheduler: rescheduler,
		now:         time.Now,
	}
}

// CreateWorklogInput represents input for logging work
type CreateWorklogInput struct {
	TaskID    uint64
	UserID    uint64
	TimeSpent time.Duration
	LoggedAt  *time.Time
	Comment   string
}

// CreateWorklog applies a worklog to its task. Work beyond the remaining
// estimate is not an error: the remaining estimate is clamped to zero and the
// returned warning describes the overage.
func (s *WorklogService) CreateWorklog(ctx context.Context, input CreateWorklogInput) (*models.Worklog, *effort.NegativeRemainingWarning, error) {
	if input.TimeSpent <= 0 {
		return nil, nil, ErrTimeSpentRequired
	}

	task, err := s.findTask(input.TaskID)
	if err != nil {
		return nil, nil, err
	}

	children, err := s.taskRepo.CountChildren(task.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count subtasks: %w", err)
	}
	if children > 0 {
		return nil, nil, ErrWorklogOnStory
	}

	loggedAt := s.now().UTC()
	if input.LoggedAt != nil {
		loggedAt = input.LoggedAt.UTC()
	}

	worklog := &models.Worklog{
		TaskID:    task.ID,
		SprintID:  task.SprintID,
		UserID:    input.UserID,
		LoggedAt:  loggedAt,
		TimeSpent: input.TimeSpent,
		Comment:   input.Comment,
	}

	var warning *effort.NegativeRemainingWarning
	var ledgerErr error
	err = s.worklogRepo.CreateApplied(worklog, func(current *models.Task) error {
		warning, ledgerErr = effort.ApplyWorklog(current, input.TimeSpent)
		if warning != nil {
			worklog.Overage = warning.Overage
		}
		return ledgerErr
	})
	if ledgerErr != nil {
		return nil, nil, ledgerErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create worklog: %w", err)
	}

	if warning != nil {
		logger.Get(ctx).Warn().
			Object("warning", warning).
			Uint64("worklog_id", worklog.ID).
			Msg("worklog exceeds remaining estimate")
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return worklog, warning, nil
}

// DeleteWorklog removes a worklog and gives its effort back to the task
func (s *WorklogService) DeleteWorklog(ctx context.Context, worklogID, actorID uint64) error {
	worklog, err := s.FindWorklog(worklogID)
	if err != nil {
		return err
	}
	if worklog.UserID != actorID {
		return ErrNotWorklogAuthor
	}

	task, err := s.findTask(worklog.TaskID)
	if err != nil {
		return err
	}

	err = s.worklogRepo.DeleteReverted(worklog, func(current *models.Task) error {
		effort.RevertWorklog(current, worklog.TimeSpent, worklog.Overage)
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete worklog: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return nil
}

func (s *WorklogService) FindWorklog(worklogID uint64) (*models.Worklog, error) {
	worklog, err := s.worklogRepo.FindByID(worklogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorklogNotFound
		}
		return nil, fmt.Errorf("failed to find worklog: %w", err)
	}
	return worklog, nil
}

// ListTaskWorklogs returns the worklogs of a task
func (s *WorklogService) ListTaskWorklogs(taskID uint64) ([]models.Worklog, error) {
	worklogs, err := s.worklogRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worklogs: %w", err)
	}
	return worklogs, nil
}

// ListSprintWorklogs returns the worklogs of a sprint, optionally limited to
// an inclusive range of days
func (s *WorklogService) ListSprintWorklogs(sprintID uint64, from, to *time.Time) ([]models.Worklog, error) {
	from = dayPtr(from)
	if to != nil {
		next := calendar.Day(*to).AddDate(0, 0, 1)
		to = &next
	}

	worklogs, err := s.worklogRepo.ListBySprint(sprintID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list worklogs: %w", err)
	}
	return worklogs, nil
}

func (s *WorklogService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
