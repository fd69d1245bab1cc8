// Package report renders sprint schedules and burndown series as XLSX
// workbooks.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yukikurage/sprint-planner-api/internal/burndown"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/scheduler"
)

const (
	GanttSheet    = "Gantt"
	BurndownSheet = "Burndown"

	// MaxTimelineDays caps the day columns of the gantt sheet.
	MaxTimelineDays = 366
)

var ganttHeaders = []string{"ID", "Task", "Assignee", "Start", "End", "Effort (h)", "Milestone", "Depends on"}

var burndownHeaders = []string{"Date", "Remaining (h)", "Ideal (h)", "Worked (h)"}

// Workbook builds the export of one sprint.
type Workbook struct {
	// Assignees maps user IDs to display names. Unknown IDs are printed as numbers.
	Assignees map[uint64]string
}

// NewWorkbook creates a Workbook.
func NewWorkbook(assignees map[uint64]string) *Workbook {
	return &Workbook{Assignees: assignees}
}

// Generate writes a gantt sheet from result and, when series is not nil, a
// burndown sheet with a line chart.
func (w *Workbook) Generate(sprint models.Sprint, result *scheduler.Result, series *burndown.Series) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), GanttSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := w.writeGantt(f, header, sprint, result); err != nil {
		return nil, fmt.Errorf("write gantt: %w", err)
	}

	if series != nil {
		if _, err := f.NewSheet(BurndownSheet); err != nil {
			return nil, fmt.Errorf("create burndown sheet: %w", err)
		}
		if err := writeBurndown(f, header, series); err != nil {
			return nil, fmt.Errorf("write burndown: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write buffer: %w", err)
	}
	return buf, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
}

func writeHeaders(f *excelize.File, sheet string, style int, headers []string) error {
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeGantt(f *excelize.File, header int, sprint models.Sprint, result *scheduler.Result) error {
	headers := append([]string(nil), ganttHeaders...)

	var days []time.Time
	if result.Start != nil && result.End != nil {
		for d := *result.Start; !d.After(*result.End) && len(days) < MaxTimelineDays; d = d.AddDate(0, 0, 1) {
			days = append(days, d)
			headers = append(headers, d.Format("01-02"))
		}
	}
	if err := writeHeaders(f, GanttSheet, header, headers); err != nil {
		return err
	}

	bar, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"A9C4EB"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	storyBar, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F5597"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, ts := range result.Tasks {
		row := i + 2
		name := ts.Name
		if ts.ParentID != nil {
			name = "  " + name
		}
		values := []interface{}{
			ts.TaskID,
			name,
			w.assigneeName(ts.AssigneeID),
			ts.Start.Format(time.DateOnly),
			ts.End.Format(time.DateOnly),
			ts.Effort.Hours(),
			ts.Milestone,
			joinIDs(ts.DependsOn),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(GanttSheet, cell, v); err != nil {
				return err
			}
		}

		style := bar
		if ts.Story {
			style = storyBar
		}
		for j, d := range days {
			if d.Before(ts.Start) || d.After(ts.End) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(len(ganttHeaders)+j+1, row)
			if err := f.SetCellStyle(GanttSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	summary := len(result.Tasks) + 3
	rows := [][]interface{}{
		{"Sprint", sprint.Name},
		{"Start", formatDate(result.Start)},
		{"End", formatDate(result.End)},
		{"Release", formatDate(result.ReleaseDate)},
	}
	for i, r := range rows {
		if err := f.SetSheetRow(GanttSheet, "A"+strconv.Itoa(summary+i), &r); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(GanttSheet, "B", "B", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(GanttSheet, "C", "E", 14); err != nil {
		return err
	}
	if len(days) > 0 {
		first, _ := excelize.ColumnNumberToName(len(ganttHeaders) + 1)
		last, _ := excelize.ColumnNumberToName(len(ganttHeaders) + len(days))
		if err := f.SetColWidth(GanttSheet, first, last, 6); err != nil {
			return err
		}
	}
	return nil
}

func writeBurndown(f *excelize.File, header int, series *burndown.Series) error {
	if err := writeHeaders(f, BurndownSheet, header, burndownHeaders); err != nil {
		return err
	}

	for i, p := range series.Points {
		row := []interface{}{
			p.Date.Format(time.DateOnly),
			p.Remaining.Hours(),
			p.Ideal.Hours(),
			p.Worked.Hours(),
		}
		if err := f.SetSheetRow(BurndownSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(BurndownSheet, "A", "D", 16); err != nil {
		return err
	}
	if len(series.Points) == 0 {
		return nil
	}

	last := strconv.Itoa(len(series.Points) + 1)
	categories := fmt.Sprintf("%s!$A$2:$A$%s", BurndownSheet, last)
	return f.AddChart(BurndownSheet, "F2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       BurndownSheet + "!$B$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$B$2:$B$%s", BurndownSheet, last),
			},
			{
				Name:       BurndownSheet + "!$C$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$C$2:$C$%s", BurndownSheet, last),
			},
		},
	})
}

func (w *Workbook) assigneeName(id uint64) string {
	if id == 0 {
		return ""
	}
	if name, ok := w.Assignees[id]; ok {
		return name
	}
	return strconv.FormatUint(id, 10)
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
