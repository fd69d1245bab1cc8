package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/graph"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

var (
	ErrTaskNotFound             = errors.New("task not found")
	ErrNotTaskCreator           = errors.New("only the task creator can perform this action")
	ErrNameRequired             = errors.New("name is required")
	ErrNameEmpty                = errors.New("name cannot be empty")
	ErrInvalidTaskStatus        = errors.New("invalid task status")
	ErrInvalidTaskMode          = errors.New("invalid task mode")
	ErrInvalidTaskAssignee      = errors.New("assignee is not a member of the product")
	ErrParentNotFound           = errors.New("parent task not found in this sprint")
	ErrSelfDependency           = errors.New("a task cannot depend on itself")
	ErrPredecessorNotFound      = errors.New("predecessor task not found")
	ErrDependencySprintMismatch = errors.New("dependencies must stay within one sprint")
	ErrDependencyNotFound       = errors.New("dependency not found")
	ErrAIServiceNotConfigured   = errors.New("AI service is not configured")
	ErrAITextTooLong            = errors.New("text is too long")
	ErrAINoTasksGenerated       = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks           = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	sprintRepo  repository.SprintRepository
	productRepo repository.ProductRepository
	rescheduler Rescheduler
	aiService   *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	sprintRepo repository.SprintRepository,
	productRepo repository.ProductRepository,
	rescheduler Rescheduler,
	aiService *AIService,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		sprintRepo:  sprintRepo,
		productRepo: productRepo,
		rescheduler: rescheduler,
		aiService:   aiService,
	}
}

// ListTasksInput represents filters for listing the tasks of a sprint
type ListTasksInput struct {
	SprintID   uint64
	Status     *models.TaskStatus
	AssigneeID *uint64
	ParentID   *uint64
	Page       utils.Page
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	SprintID          uint64
	CreatorID         uint64
	Name              string
	Description       string
	Status            models.TaskStatus
	Mode              models.TaskMode
	Milestone         bool
	MinEstimate       time.Duration
	MaxEstimate       time.Duration
	RemainingEstimate *time.Duration
	AssigneeID        *uint64
	ParentID          *uint64
	Start             *time.Time
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Name              *string
	Description       *string
	Status            *models.TaskStatus
	Mode              *models.TaskMode
	Milestone         *bool
	MinEstimate       *time.Duration
	MaxEstimate       *time.Duration
	RemainingEstimate *time.Duration
	AssigneeID        *uint64
	ClearAssignee     bool
	ParentID          *uint64
	ClearParent       bool
	Start             *time.Time
	ClearStart        bool
}

func (in UpdateTaskInput) touchesEffort() bool {
	return in.MinEstimate != nil || in.MaxEstimate != nil || in.RemainingEstimate != nil
}

// ListTasks returns the tasks of a sprint matching the filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		SprintID:   input.SprintID,
		Status:     input.Status,
		AssigneeID: input.AssigneeID,
		ParentID:   input.ParentID,
		Page:       input.Page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignee", "Predecessors")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates and stores a task, then reschedules its sprint.
// The remaining estimate defaults to the maximum estimate.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	sprint, err := s.findSprint(input.SprintID)
	if err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Mode == "" {
		input.Mode = models.TaskModeAuto
	}

	task := &models.Task{
		ProductID:         sprint.ProductID,
		SprintID:          sprint.ID,
		Name:              name,
		Description:       input.Description,
		Status:            input.Status,
		Mode:              input.Mode,
		Milestone:         input.Milestone,
		MinEstimate:       input.MinEstimate,
		MaxEstimate:       input.MaxEstimate,
		RemainingEstimate: input.MaxEstimate,
		AssigneeID:        input.AssigneeID,
		CreatorID:         input.CreatorID,
		Start:             dayPtr(input.Start),
	}
	if input.RemainingEstimate != nil {
		task.RemainingEstimate = *input.RemainingEstimate
	}

	if err := s.validate(*task); err != nil {
		return nil, err
	}
	if task.AssigneeID != nil {
		if err := s.ensureAssignee(task.ProductID, *task.AssigneeID); err != nil {
			return nil, err
		}
	}
	if input.ParentID != nil {
		if err := s.ensureParent(task.SprintID, *input.ParentID); err != nil {
			return nil, err
		}
		task.ParentID = input.ParentID
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return s.GetTask(task.ID)
}

// UpdateTask updates an existing task and reschedules its sprint
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if input.touchesEffort() {
		children, err := s.taskRepo.CountChildren(task.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count subtasks: %w", err)
		}
		if children > 0 {
			return nil, effort.ErrRemainingOnStory
		}
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}
		task.Name = name
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Mode != nil {
		task.Mode = *input.Mode
	}
	if input.Milestone != nil {
		task.Milestone = *input.Milestone
	}
	if input.MinEstimate != nil {
		task.MinEstimate = *input.MinEstimate
	}
	if input.MaxEstimate != nil {
		task.MaxEstimate = *input.MaxEstimate
	}
	if input.RemainingEstimate != nil {
		task.RemainingEstimate = *input.RemainingEstimate
	}
	if input.ClearStart {
		task.Start = nil
	} else if input.Start != nil {
		task.Start = dayPtr(input.Start)
	}

	if err := s.validate(*task); err != nil {
		return nil, err
	}

	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if err := s.ensureAssignee(task.ProductID, *input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}

	if input.ClearParent {
		task.ParentID = nil
	} else if input.ParentID != nil {
		if err := s.ensureParent(task.SprintID, *input.ParentID); err != nil {
			return nil, err
		}
		parentID := *input.ParentID
		if err := s.checkGraph(task.SprintID, func(tasks []models.Task) []models.Task {
			for i := range tasks {
				if tasks[i].ID == task.ID {
					tasks[i].ParentID = &parentID
				}
			}
			return tasks
		}); err != nil {
			return nil, err
		}
		task.ParentID = &parentID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return s.GetTask(task.ID)
}

// DeleteTask deletes a task if the actor is the creator
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return nil
}

// AddDependency makes taskID wait for predecessorID. Edges that would close
// a cycle are rejected with a *graph.CyclicDependencyError before anything
// is stored.
func (s *TaskService) AddDependency(ctx context.Context, taskID, predecessorID uint64) (*models.Task, error) {
	if taskID == predecessorID {
		return nil, ErrSelfDependency
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	predecessor, err := s.taskRepo.FindByID(predecessorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPredecessorNotFound
		}
		return nil, fmt.Errorf("failed to find predecessor: %w", err)
	}
	if predecessor.SprintID != task.SprintID {
		return nil, ErrDependencySprintMismatch
	}

	if err := s.checkGraph(task.SprintID, func(tasks []models.Task) []models.Task {
		for i := range tasks {
			if tasks[i].ID == taskID {
				tasks[i].Predecessors = append(tasks[i].Predecessors, models.TaskDependency{
					TaskID:        taskID,
					PredecessorID: predecessorID,
				})
			}
		}
		return tasks
	}); err != nil {
		return nil, err
	}

	if err := s.taskRepo.AddDependency(&models.TaskDependency{TaskID: taskID, PredecessorID: predecessorID}); err != nil {
		return nil, fmt.Errorf("failed to add dependency: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return s.GetTask(taskID)
}

// RemoveDependency drops the edge from predecessorID to taskID
func (s *TaskService) RemoveDependency(ctx context.Context, taskID, predecessorID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if _, err := s.taskRepo.FindDependency(taskID, predecessorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDependencyNotFound
		}
		return fmt.Errorf("failed to find dependency: %w", err)
	}

	if err := s.taskRepo.RemoveDependency(taskID, predecessorID); err != nil {
		return fmt.Errorf("failed to remove dependency: %w", err)
	}

	s.rescheduler.RescheduleBestEffort(ctx, task.SprintID)
	return nil
}

// SuggestTasksInput represents input for AI task suggestions
type SuggestTasksInput struct {
	SprintID uint64
	Text     string
}

// SuggestTasks asks the AI service for tasks described in text. Nothing is
// stored; suggestions without a name are dropped.
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]SuggestedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if len(input.Text) > constants.MaxAITextLength {
		return nil, ErrAITextTooLong
	}

	sprint, err := s.findSprint(input.SprintID)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.aiService.SuggestTasks(ctx, sprint.Name, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(suggestions) > constants.MaxAIGeneratedTasks {
		suggestions = suggestions[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, st := range suggestions {
		st.Name = strings.TrimSpace(st.Name)
		if st.Name == "" {
			continue
		}
		if st.EstimateHours < 0 {
			st.EstimateHours = 0
		}
		if st.Milestone {
			st.EstimateHours = 0
		}
		valid = append(valid, st)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) validate(task models.Task) error {
	switch task.Status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
	default:
		return ErrInvalidTaskStatus
	}
	switch task.Mode {
	case models.TaskModeAuto, models.TaskModeManual:
	default:
		return ErrInvalidTaskMode
	}
	return effort.Validate(task)
}

// checkGraph applies change to the current tasks of a sprint and reports
// whether the result still has a valid dependency order.
func (s *TaskService) checkGraph(sprintID uint64, change func([]models.Task) []models.Task) error {
	tasks, err := s.taskRepo.ListBySprint(sprintID)
	if err != nil {
		return fmt.Errorf("failed to load sprint tasks: %w", err)
	}

	g, err := graph.Build(change(tasks))
	if err != nil {
		return err
	}
	_, err = g.TopologicalOrder()
	return err
}

func (s *TaskService) ensureAssignee(productID, userID uint64) error {
	if _, err := s.productRepo.FindMember(productID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidTaskAssignee
		}
		return fmt.Errorf("failed to verify product membership: %w", err)
	}
	return nil
}

func (s *TaskService) ensureParent(sprintID, parentID uint64) error {
	parent, err := s.taskRepo.FindByID(parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return fmt.Errorf("failed to find parent task: %w", err)
	}
	if parent.SprintID != sprintID {
		return ErrParentNotFound
	}
	return nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findSprint(sprintID uint64) (*models.Sprint, error) {
	sprint, err := s.sprintRepo.FindByID(sprintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSprintNotFound
		}
		return nil, fmt.Errorf("failed to find sprint: %w", err)
	}
	return sprint, nil
}
