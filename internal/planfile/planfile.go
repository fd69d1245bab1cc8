// Package planfile reads offline sprint plans written in YAML and renders
// their computed schedules back to YAML. It lets a plan be checked without a
// database.
package planfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/dto"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/scheduler"
)

// ErrInvalidPlan wraps every decoding or validation failure of a plan file.
var ErrInvalidPlan = errors.New("invalid plan file")

// Plan is the YAML layout of an offline sprint plan:
//
//	sprint:
//	  name: Sprint 1
//	  start: 2025-03-03
//	users:
//	  - id: 1
//	    work_week: [monday, tuesday, wednesday, thursday, friday]
//	tasks:
//	  - id: 10
//	    name: Design
//	    assignee: 1
//	    estimate_hours: 16
type Plan struct {
	Sprint       SprintSpec          `yaml:"sprint"`
	Users        []UserSpec          `yaml:"users"`
	Tasks        []TaskSpec          `yaml:"tasks"`
	Holidays     map[string][]string `yaml:"holidays,omitempty"`
	HolidaysFile string              `yaml:"holidays_file,omitempty"`
	holidays     map[string][]time.Time
}

type SprintSpec struct {
	Name              string `yaml:"name"`
	Owner             uint64 `yaml:"owner,omitempty"`
	Start             string `yaml:"start,omitempty"`
	ReleaseBufferDays int    `yaml:"release_buffer_days,omitempty"`
}

type UserSpec struct {
	ID           uint64             `yaml:"id"`
	Name         string             `yaml:"name,omitempty"`
	WorkWeek     []string           `yaml:"work_week,omitempty"`
	HoursPerDay  float64            `yaml:"hours_per_day,omitempty"`
	Locations    []LocationSpec     `yaml:"locations,omitempty"`
	OffDays      []OffDaySpec       `yaml:"off_days,omitempty"`
	Availability []AvailabilitySpec `yaml:"availability,omitempty"`
}

type LocationSpec struct {
	From string `yaml:"from"`
	Code string `yaml:"code"`
}

type OffDaySpec struct {
	First string `yaml:"first"`
	Last  string `yaml:"last,omitempty"`
}

type AvailabilitySpec struct {
	From     string  `yaml:"from"`
	Until    string  `yaml:"until,omitempty"`
	Fraction float64 `yaml:"fraction"`
}

type TaskSpec struct {
	ID             uint64   `yaml:"id"`
	Name           string   `yaml:"name"`
	Parent         *uint64  `yaml:"parent,omitempty"`
	Assignee       uint64   `yaml:"assignee,omitempty"`
	EstimateHours  float64  `yaml:"estimate_hours,omitempty"`
	RemainingHours *float64 `yaml:"remaining_hours,omitempty"`
	WorkedHours    float64  `yaml:"worked_hours,omitempty"`
	Milestone      bool     `yaml:"milestone,omitempty"`
	Start          string   `yaml:"start,omitempty"`
	DependsOn      []uint64 `yaml:"depends_on,omitempty"`
}

// Load reads a plan from path. A relative holidays_file is resolved against
// the directory of the plan.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return parse(data, filepath.Dir(path))
}

// Parse decodes a plan from data. holidays_file is resolved against the
// working directory.
func Parse(data []byte) (*Plan, error) {
	return parse(data, "")
}

func parse(data []byte, dir string) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if err := plan.validate(); err != nil {
		return nil, err
	}

	plan.holidays = make(map[string][]time.Time)
	for code, days := range plan.Holidays {
		for _, raw := range days {
			d, err := parseDay(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: holidays %s: %w", ErrInvalidPlan, code, err)
			}
			plan.holidays[code] = append(plan.holidays[code], d)
		}
	}
	if plan.HolidaysFile != "" {
		path := plan.HolidaysFile
		if dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		locations, err := calendar.LoadHolidayFile(path)
		if err != nil {
			return nil, err
		}
		for _, loc := range locations {
			for _, h := range loc.Holidays {
				plan.holidays[loc.Code] = append(plan.holidays[loc.Code], h.Date)
			}
		}
	}
	return &plan, nil
}

func (p *Plan) validate() error {
	if strings.TrimSpace(p.Sprint.Name) == "" {
		return fmt.Errorf("%w: sprint name is required", ErrInvalidPlan)
	}
	if p.Sprint.ReleaseBufferDays < 0 {
		return fmt.Errorf("%w: release_buffer_days must not be negative", ErrInvalidPlan)
	}

	users := make(map[uint64]struct{}, len(p.Users))
	for _, u := range p.Users {
		if u.ID == 0 {
			return fmt.Errorf("%w: user without id", ErrInvalidPlan)
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("%w: duplicate user %d", ErrInvalidPlan, u.ID)
		}
		users[u.ID] = struct{}{}
	}

	tasks := make(map[uint64]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.ID == 0 {
			return fmt.Errorf("%w: task %q has no id", ErrInvalidPlan, t.Name)
		}
		if _, dup := tasks[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task %d", ErrInvalidPlan, t.ID)
		}
		tasks[t.ID] = struct{}{}
		if t.EstimateHours < 0 || t.WorkedHours < 0 {
			return fmt.Errorf("%w: task %d has a negative effort", ErrInvalidPlan, t.ID)
		}
	}
	return nil
}

// SprintModel returns the plan's sprint as a model with ID 1.
func (p *Plan) SprintModel() (models.Sprint, error) {
	sprint := models.Sprint{
		ID:                1,
		Name:              p.Sprint.Name,
		Status:            models.SprintStatusPlanned,
		ReleaseBufferDays: p.Sprint.ReleaseBufferDays,
	}
	if p.Sprint.Owner != 0 {
		owner := p.Sprint.Owner
		sprint.UserID = &owner
	}
	if p.Sprint.Start != "" {
		start, err := parseDay(p.Sprint.Start)
		if err != nil {
			return sprint, fmt.Errorf("%w: sprint start: %w", ErrInvalidPlan, err)
		}
		sprint.PlannedStart = &start
	}
	return sprint, nil
}

// TaskModels converts the plan's tasks. A task with a start date is manually
// scheduled; the remaining estimate defaults to the estimate minus the work
// already done.
func (p *Plan) TaskModels() ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(p.Tasks))
	for _, spec := range p.Tasks {
		estimate := dto.FromHours(spec.EstimateHours)
		worked := dto.FromHours(spec.WorkedHours)
		remaining := estimate - worked
		if remaining < 0 {
			remaining = 0
		}
		if spec.RemainingHours != nil {
			remaining = dto.FromHours(*spec.RemainingHours)
		}

		task := models.Task{
			ID:                spec.ID,
			SprintID:          1,
			ParentID:          spec.Parent,
			Name:              spec.Name,
			Status:            models.TaskStatusTodo,
			Mode:              models.TaskModeAuto,
			Milestone:         spec.Milestone,
			MaxEstimate:       estimate,
			RemainingEstimate: remaining,
			Worked:            worked,
		}
		if spec.Assignee != 0 {
			assignee := spec.Assignee
			task.AssigneeID = &assignee
		}
		if spec.Start != "" {
			start, err := parseDay(spec.Start)
			if err != nil {
				return nil, fmt.Errorf("%w: task %d start: %w", ErrInvalidPlan, spec.ID, err)
			}
			task.Start = &start
			task.Mode = models.TaskModeManual
		}
		for _, pred := range spec.DependsOn {
			task.Predecessors = append(task.Predecessors, models.TaskDependency{TaskID: spec.ID, PredecessorID: pred})
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Provider builds the calendars of the plan's users. Assignees and owners
// without a users entry get a default calendar.
func (p *Plan) Provider(defaults calendar.Defaults) (*calendar.StaticProvider, error) {
	specs := make(map[uint64]UserSpec, len(p.Users))
	for _, u := range p.Users {
		specs[u.ID] = u
	}
	if p.Sprint.Owner != 0 {
		if _, ok := specs[p.Sprint.Owner]; !ok {
			specs[p.Sprint.Owner] = UserSpec{ID: p.Sprint.Owner}
		}
	}
	for _, t := range p.Tasks {
		if _, ok := specs[t.Assignee]; t.Assignee != 0 && !ok {
			specs[t.Assignee] = UserSpec{ID: t.Assignee}
		}
	}

	calendars := make([]*calendar.Calendar, 0, len(specs))
	for _, spec := range specs {
		opts, err := p.options(spec, defaults)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, calendar.New(spec.ID, opts))
	}

	fallback := calendar.New(0, calendar.Options{
		HoursPerDay: defaults.HoursPerDay,
		HorizonDays: defaults.HorizonDays,
	})
	return calendar.NewStaticProvider(fallback, calendars...), nil
}

func (p *Plan) options(spec UserSpec, defaults calendar.Defaults) (calendar.Options, error) {
	opts := calendar.Options{
		HoursPerDay: defaults.HoursPerDay,
		HorizonDays: defaults.HorizonDays,
		Holidays:    p.holidays,
	}
	if spec.HoursPerDay > 0 {
		opts.HoursPerDay = dto.FromHours(spec.HoursPerDay)
	}
	for _, name := range spec.WorkWeek {
		wd, ok := dto.ParseWeekday(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return opts, fmt.Errorf("%w: user %d: invalid weekday %q", ErrInvalidPlan, spec.ID, name)
		}
		opts.WorkWeek = append(opts.WorkWeek, wd)
	}

	for _, l := range spec.Locations {
		from, err := parseDay(l.From)
		if err != nil {
			return opts, fmt.Errorf("%w: user %d location: %w", ErrInvalidPlan, spec.ID, err)
		}
		opts.Locations = append(opts.Locations, calendar.LocationFrame{From: from, Code: l.Code})
	}
	for _, o := range spec.OffDays {
		first, err := parseDay(o.First)
		if err != nil {
			return opts, fmt.Errorf("%w: user %d off day: %w", ErrInvalidPlan, spec.ID, err)
		}
		last := first
		if o.Last != "" {
			if last, err = parseDay(o.Last); err != nil {
				return opts, fmt.Errorf("%w: user %d off day: %w", ErrInvalidPlan, spec.ID, err)
			}
		}
		opts.OffDays = append(opts.OffDays, calendar.Range{First: first, Last: last})
	}
	for _, a := range spec.Availability {
		from, err := parseDay(a.From)
		if err != nil {
			return opts, fmt.Errorf("%w: user %d availability: %w", ErrInvalidPlan, spec.ID, err)
		}
		frame := calendar.AvailabilityFrame{From: from, Fraction: a.Fraction}
		if a.Until != "" {
			until, err := parseDay(a.Until)
			if err != nil {
				return opts, fmt.Errorf("%w: user %d availability: %w", ErrInvalidPlan, spec.ID, err)
			}
			frame.Until = &until
		}
		opts.Availability = append(opts.Availability, frame)
	}
	return opts, nil
}

// Schedule computes the plan's schedule. anchor is the first day when the
// sprint has no start.
func Schedule(plan *Plan, defaults calendar.Defaults, anchor time.Time) (*Output, error) {
	sprint, err := plan.SprintModel()
	if err != nil {
		return nil, err
	}
	tasks, err := plan.TaskModels()
	if err != nil {
		return nil, err
	}
	provider, err := plan.Provider(defaults)
	if err != nil {
		return nil, err
	}

	result, err := scheduler.New(provider).Schedule(sprint, tasks, anchor)
	if err != nil {
		return nil, err
	}
	return newOutput(plan, result), nil
}

// Output is the YAML rendering of a computed schedule
type Output struct {
	Sprint      string       `yaml:"sprint"`
	Start       string       `yaml:"start,omitempty"`
	End         string       `yaml:"end,omitempty"`
	ReleaseDate string       `yaml:"release_date,omitempty"`
	Tasks       []OutputTask `yaml:"tasks"`
}

type OutputTask struct {
	ID          uint64   `yaml:"id"`
	Name        string   `yaml:"name"`
	Assignee    string   `yaml:"assignee,omitempty"`
	Start       string   `yaml:"start"`
	End         string   `yaml:"end"`
	EffortHours float64  `yaml:"effort_hours"`
	Milestone   bool     `yaml:"milestone,omitempty"`
	Story       bool     `yaml:"story,omitempty"`
	DependsOn   []uint64 `yaml:"depends_on,omitempty"`
}

func newOutput(plan *Plan, result *scheduler.Result) *Output {
	names := make(map[uint64]string, len(plan.Users))
	for _, u := range plan.Users {
		names[u.ID] = u.Name
	}

	out := &Output{
		Sprint:      plan.Sprint.Name,
		Start:       formatDay(result.Start),
		End:         formatDay(result.End),
		ReleaseDate: formatDay(result.ReleaseDate),
		Tasks:       make([]OutputTask, len(result.Tasks)),
	}
	for i, ts := range result.Tasks {
		assignee := names[ts.AssigneeID]
		if assignee == "" && ts.AssigneeID != 0 {
			assignee = fmt.Sprintf("user %d", ts.AssigneeID)
		}
		out.Tasks[i] = OutputTask{
			ID:          ts.TaskID,
			Name:        ts.Name,
			Assignee:    assignee,
			Start:       ts.Start.Format(time.DateOnly),
			End:         ts.End.Format(time.DateOnly),
			EffortHours: dto.Hours(ts.Effort),
			Milestone:   ts.Milestone,
			Story:       ts.Story,
			DependsOn:   ts.DependsOn,
		}
	}
	return out
}

// Write encodes the output as YAML.
func (o *Output) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return enc.Close()
}

func parseDay(raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return d, nil
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
