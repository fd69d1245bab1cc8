// Package burndown turns the worklog history of a sprint into a per-day
// remaining effort series with an ideal line for comparison.
package burndown

import (
	"errors"
	"sort"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/effort"
	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// MaxDays caps the length of a series.
const MaxDays = 3660

var (
	ErrInvalidRange = errors.New("burndown end is before its start")
	ErrRangeTooLong = errors.New("burndown range is too long")
)

// Point is the state of the sprint at the end of Date.
type Point struct {
	Date      time.Time     `json:"date"`
	Remaining time.Duration `json:"remaining"`
	Ideal     time.Duration `json:"ideal"`
	Worked    time.Duration `json:"worked"`
}

type Series struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Total  time.Duration `json:"total"`
	Points []Point       `json:"points"`
}

// Build computes one point per calendar day in [start, end]. Remaining is
// the sum over leaf tasks of original estimate minus the work logged up to
// the end of the day, never below zero per task. The ideal line falls
// linearly on the working days of cal and stays flat on the other days. A
// nil cal means a default Monday to Friday calendar.
//
// Remaining is rebuilt from the original estimates and the worklogs alone, so
// manual edits of a task's remaining estimate do not show up in the series.
func Build(tasks []models.Task, worklogs []models.Worklog, start, end time.Time, cal *calendar.Calendar) (*Series, error) {
	start, end = calendar.Day(start), calendar.Day(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	if int(end.Sub(start).Hours()/24) >= MaxDays {
		return nil, ErrRangeTooLong
	}
	if cal == nil {
		cal = calendar.New(0, calendar.Options{})
	}

	parents := effort.Parents(tasks)
	original := make(map[uint64]time.Duration, len(tasks))
	var total time.Duration
	for _, t := range tasks {
		if _, story := parents[t.ID]; story {
			continue
		}
		original[t.ID] = t.OriginalEstimate()
		total += t.OriginalEstimate()
	}

	logs := make([]models.Worklog, 0, len(worklogs))
	for _, w := range worklogs {
		if _, ok := original[w.TaskID]; ok && w.TimeSpent > 0 {
			logs = append(logs, w)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].LoggedAt.Equal(logs[j].LoggedAt) {
			return logs[i].LoggedAt.Before(logs[j].LoggedAt)
		}
		return logs[i].ID < logs[j].ID
	})

	workingDays := cal.WorkingDaysBetween(start, end)
	worked := make(map[uint64]time.Duration, len(original))
	series := &Series{Start: start, End: end, Total: total}

	next, elapsed := 0, 0
	var workedSum time.Duration
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cutoff := d.AddDate(0, 0, 1)
		for ; next < len(logs) && logs[next].LoggedAt.Before(cutoff); next++ {
			worked[logs[next].TaskID] += logs[next].TimeSpent
			workedSum += logs[next].TimeSpent
		}

		var remaining time.Duration
		for id, orig := range original {
			if left := orig - worked[id]; left > 0 {
				remaining += left
			}
		}

		if cal.IsWorkingDay(d) {
			elapsed++
		}

		series.Points = append(series.Points, Point{
			Date:      d,
			Remaining: remaining,
			Ideal:     ideal(total, elapsed, workingDays),
			Worked:    workedSum,
		})
	}
	return series, nil
}

func ideal(total time.Duration, elapsed, workingDays int) time.Duration {
	if workingDays == 0 {
		return total
	}
	// total*left can overflow for long ranges, so split total first.
	left, n := time.Duration(workingDays-elapsed), time.Duration(workingDays)
	return total/n*left + total%n*left/n
}
