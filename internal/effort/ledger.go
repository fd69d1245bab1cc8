// Package effort keeps the estimate, remaining and worked bookkeeping of tasks.
package effort

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

var (
	ErrNegativeTimeSpent = errors.New("time spent must not be negative")
	ErrMilestoneWorklog  = errors.New("work cannot be logged against a milestone")
	ErrNegativeEstimate  = errors.New("estimates must not be negative")
	ErrEstimateRange     = errors.New("minimum estimate exceeds maximum estimate")
	ErrMilestoneEstimate = errors.New("a milestone must have zero estimates")
	ErrNegativeRemaining = errors.New("remaining estimate must not be negative")
	ErrRemainingOnStory  = errors.New("story effort is derived from its children")
)

// NegativeRemainingWarning records that a worklog exceeded the remaining
// estimate. The remaining estimate was clamped to zero.
type NegativeRemainingWarning struct {
	TaskID  uint64
	Overage time.Duration
}

func (w *NegativeRemainingWarning) String() string {
	return fmt.Sprintf("task %d: worklog exceeds remaining estimate by %s, remaining clamped to zero", w.TaskID, w.Overage)
}

// MarshalZerologObject lets the warning be logged with .Object().
func (w *NegativeRemainingWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("task_id", w.TaskID).Dur("overage", w.Overage)
}

// ApplyWorklog books spent against task. A warning is returned, never an
// error, when spent exceeds the remaining estimate.
func ApplyWorklog(task *models.Task, spent time.Duration) (*NegativeRemainingWarning, error) {
	if spent < 0 {
		return nil, ErrNegativeTimeSpent
	}
	if task.Milestone {
		return nil, ErrMilestoneWorklog
	}

	task.Worked += spent
	if task.Status == models.TaskStatusTodo && spent > 0 {
		task.Status = models.TaskStatusInProgress
	}

	if spent <= task.RemainingEstimate {
		task.RemainingEstimate -= spent
		return nil, nil
	}

	warning := &NegativeRemainingWarning{TaskID: task.ID, Overage: spent - task.RemainingEstimate}
	task.RemainingEstimate = 0
	return warning, nil
}

// RevertWorklog undoes ApplyWorklog for an entry whose clamped overage was
// recorded at the time it was applied.
func RevertWorklog(task *models.Task, spent, overage time.Duration) {
	task.Worked -= spent
	if task.Worked < 0 {
		task.Worked = 0
	}
	task.RemainingEstimate += spent - overage
}

// Validate checks the estimate invariants of a single task.
func Validate(task models.Task) error {
	if task.MinEstimate < 0 || task.MaxEstimate < 0 || task.Worked < 0 {
		return ErrNegativeEstimate
	}
	if task.RemainingEstimate < 0 {
		return ErrNegativeRemaining
	}
	if task.Milestone {
		if task.MinEstimate != 0 || task.MaxEstimate != 0 || task.RemainingEstimate != 0 {
			return ErrMilestoneEstimate
		}
		return nil
	}
	if task.MinEstimate > task.MaxEstimate {
		return ErrEstimateRange
	}
	return nil
}

// Rollup sets the effort fields of every story in tasks to the sum of its
// children, recursively. Parent loops are left untouched.
func Rollup(tasks []models.Task) {
	index := make(map[uint64]int, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = i
	}
	children := make(map[uint64][]int)
	for i := range tasks {
		if p := tasks[i].ParentID; p != nil {
			if _, ok := index[*p]; ok {
				children[*p] = append(children[*p], i)
			}
		}
	}

	done := make(map[int]bool, len(tasks))
	visiting := make(map[int]bool)
	var visit func(i int)
	visit = func(i int) {
		if done[i] || visiting[i] {
			return
		}
		kids := children[tasks[i].ID]
		if len(kids) == 0 {
			done[i] = true
			return
		}
		visiting[i] = true
		var min, max, remaining, worked time.Duration
		for _, k := range kids {
			visit(k)
			min += tasks[k].MinEstimate
			max += tasks[k].MaxEstimate
			remaining += tasks[k].RemainingEstimate
			worked += tasks[k].Worked
		}
		tasks[i].MinEstimate = min
		tasks[i].MaxEstimate = max
		tasks[i].RemainingEstimate = remaining
		tasks[i].Worked = worked
		visiting[i] = false
		done[i] = true
	}
	for i := range tasks {
		visit(i)
	}
}

// Totals are the sprint level effort figures.
type Totals struct {
	Original  time.Duration
	Remaining time.Duration
	Worked    time.Duration
}

// Sum adds up the effort of the leaf tasks; stories are skipped so their
// children are not counted twice.
func Sum(tasks []models.Task) Totals {
	parents := Parents(tasks)
	var totals Totals
	for _, t := range tasks {
		if _, story := parents[t.ID]; story {
			continue
		}
		totals.Original += t.OriginalEstimate()
		totals.Remaining += t.RemainingEstimate
		totals.Worked += t.Worked
	}
	return totals
}

// Parents returns the IDs of tasks that have at least one child in tasks.
func Parents(tasks []models.Task) map[uint64]struct{} {
	ids := make(map[uint64]struct{}, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = struct{}{}
	}
	parents := make(map[uint64]struct{})
	for _, t := range tasks {
		if t.ParentID == nil {
			continue
		}
		if _, ok := ids[*t.ParentID]; ok {
			parents[*t.ParentID] = struct{}{}
		}
	}
	return parents
}
