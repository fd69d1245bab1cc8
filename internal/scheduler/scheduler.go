// Package scheduler places the tasks of a sprint on their assignees' working
// calendars and derives the sprint start, end and release date.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/graph"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// TaskSchedule is the computed placement of one task. Start and End are
// inclusive days.
type TaskSchedule struct {
	TaskID     uint64        `json:"task_id" yaml:"task_id"`
	Name       string        `json:"name" yaml:"name"`
	ParentID   *uint64       `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	AssigneeID uint64        `json:"assignee_id" yaml:"assignee_id"`
	Start      time.Time     `json:"start" yaml:"start"`
	End        time.Time     `json:"end" yaml:"end"`
	Effort     time.Duration `json:"effort" yaml:"effort"`
	Milestone  bool          `json:"milestone" yaml:"milestone"`
	Story      bool          `json:"story" yaml:"story"`
	Manual     bool          `json:"manual" yaml:"manual"`
	DependsOn  []uint64      `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Result is the outcome of a scheduling pass. Start, End and ReleaseDate are
// nil when the sprint has no tasks.
type Result struct {
	Tasks       []TaskSchedule `json:"tasks" yaml:"tasks"`
	Start       *time.Time     `json:"start" yaml:"start"`
	End         *time.Time     `json:"end" yaml:"end"`
	ReleaseDate *time.Time     `json:"release_date" yaml:"release_date"`
	Totals      effort.Totals  `json:"-" yaml:"-"`

	byID map[uint64]int
}

// Task returns the schedule of task id.
func (r *Result) Task(id uint64) (TaskSchedule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return TaskSchedule{}, false
	}
	return r.Tasks[i], true
}

// Apply writes the computed dates and totals onto the sprint and its tasks.
func (r *Result) Apply(sprint *models.Sprint, tasks []models.Task) {
	for i := range tasks {
		ts, ok := r.Task(tasks[i].ID)
		if !ok {
			continue
		}
		start, end := ts.Start, ts.End
		tasks[i].Start = &start
		tasks[i].End = &end
	}
	sprint.Start = r.Start
	sprint.End = r.End
	sprint.ReleaseDate = r.ReleaseDate
	sprint.OriginalEstimation = r.Totals.Original
	sprint.Remaining = r.Totals.Remaining
	sprint.Worked = r.Totals.Worked
}

// Scheduler computes sprint schedules against a calendar provider.
type Scheduler struct {
	calendars calendar.Provider
}

// New creates a Scheduler.
func New(calendars calendar.Provider) *Scheduler {
	return &Scheduler{calendars: calendars}
}

// Schedule places tasks, which must all belong to sprint. anchor is the
// earliest day any task may start when the sprint has no planned start.
// The inputs are not modified.
func (s *Scheduler) Schedule(sprint models.Sprint, tasks []models.Task, anchor time.Time) (*Result, error) {
	g, err := graph.Build(tasks)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	if sprint.PlannedStart != nil {
		anchor = *sprint.PlannedStart
	}
	anchor = calendar.Day(anchor)

	owner := uint64(0)
	if sprint.UserID != nil {
		owner = *sprint.UserID
	}

	rolled := make([]models.Task, len(tasks))
	copy(rolled, tasks)
	effort.Rollup(rolled)
	effortByID := make(map[uint64]time.Duration, len(rolled))
	for _, t := range rolled {
		effortByID[t.ID] = t.RemainingEstimate
	}

	result := &Result{
		Tasks:  make([]TaskSchedule, 0, len(order)),
		Totals: effort.Sum(tasks),
		byID:   make(map[uint64]int, len(order)),
	}

	for _, id := range order {
		task, _ := g.Node(id)
		ts := TaskSchedule{
			TaskID:    id,
			Name:      task.Name,
			ParentID:  task.ParentID,
			Effort:    effortByID[id],
			Milestone: task.Milestone,
			Story:     g.IsStory(id),
			DependsOn: g.Predecessors(id),
		}

		if ts.Story {
			s.placeStory(&ts, g, result)
		} else if err := s.placeTask(&ts, task, owner, anchor, result); err != nil {
			return nil, err
		}

		result.byID[id] = len(result.Tasks)
		result.Tasks = append(result.Tasks, ts)
	}

	if len(result.Tasks) == 0 {
		return result, nil
	}

	start, end := result.Tasks[0].Start, result.Tasks[0].End
	for _, ts := range result.Tasks[1:] {
		if ts.Start.Before(start) {
			start = ts.Start
		}
		if ts.End.After(end) {
			end = ts.End
		}
	}

	ownerCal, err := s.calendars.CalendarFor(owner)
	if err != nil {
		return nil, fmt.Errorf("release calendar: %w", err)
	}
	buffer := sprint.ReleaseBufferDays
	if buffer < 0 {
		buffer = 0
	}
	release, err := ownerCal.AddWorkingDays(end, buffer)
	if err != nil {
		return nil, err
	}

	result.Start = &start
	result.End = &end
	result.ReleaseDate = &release

	sort.SliceStable(result.Tasks, func(i, j int) bool {
		a, b := result.Tasks[i], result.Tasks[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.TaskID < b.TaskID
	})
	for i, ts := range result.Tasks {
		result.byID[ts.TaskID] = i
	}

	return result, nil
}

// placeTask computes start and end of a leaf task on its assignee's calendar.
func (s *Scheduler) placeTask(ts *TaskSchedule, task models.Task, owner uint64, anchor time.Time, result *Result) error {
	assignee := owner
	if task.AssigneeID != nil {
		assignee = *task.AssigneeID
	}
	ts.AssigneeID = assignee

	cal, err := s.calendars.CalendarFor(assignee)
	if err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}

	earliest := anchor
	if task.Mode == models.TaskModeManual && task.Start != nil {
		ts.Manual = true
		earliest = calendar.Day(*task.Start)
	} else {
		for _, predID := range ts.DependsOn {
			pred := result.Tasks[result.byID[predID]]
			next := pred.End.AddDate(0, 0, 1)
			if next.After(earliest) {
				earliest = next
			}
		}
	}

	start, err := cal.NextWorkingDay(earliest)
	if err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}
	ts.Start = start

	if task.Milestone || ts.Effort <= 0 {
		ts.End = start
		return nil
	}
	end, err := cal.EndDate(start, ts.Effort)
	if err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}
	ts.End = end
	return nil
}

// placeStory spans a story over its already placed children.
func (s *Scheduler) placeStory(ts *TaskSchedule, g *graph.DepGraph, result *Result) {
	for i, childID := range g.Children(ts.TaskID) {
		child := result.Tasks[result.byID[childID]]
		if i == 0 || child.Start.Before(ts.Start) {
			ts.Start = child.Start
		}
		if i == 0 || child.End.After(ts.End) {
			ts.End = child.End
		}
	}
}
