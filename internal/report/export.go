package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
)

const (
	sheetNameSummary = "Summary"
	sheetNameRecords = "Records"
)

var recordColumns = []string{
	"Record ID", "Serial Number", "Subdivision", "Type", "Maintenance Date",
	"Next Due Date", "Status", "Completed", "Work Done",
}

// divisionExport renders a division report as an xlsx workbook.
type divisionExport struct {
	workbook *excelize.File
	styles   map[string]int
}

type exportRow struct {
	record       model.MaintenanceRecord
	serialNumber string
	subdivision  string
}

// ExportDivisionXLSX builds a workbook with a summary sheet and one row per
// maintenance record of the division. It returns the file content and a
// suggested file name.
func (s *Service) ExportDivisionXLSX(ctx context.Context, divisionID uint) ([]byte, string, error) {
	counts, err := s.DivisionStatusCounts(ctx, divisionID)
	if err != nil {
		return nil, "", err
	}
	due, err := s.DivisionalDueSummary(ctx, divisionID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.exportRows(ctx, divisionID)
	if err != nil {
		return nil, "", err
	}

	g := &divisionExport{workbook: excelize.NewFile(), styles: make(map[string]int)}
	defer g.workbook.Close()

	if err := g.createStyles(); err != nil {
		return nil, "", err
	}
	if err := g.workbook.SetSheetName("Sheet1", sheetNameSummary); err != nil {
		return nil, "", fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if _, err := g.workbook.NewSheet(sheetNameRecords); err != nil {
		return nil, "", fmt.Errorf("failed to create records sheet: %w", err)
	}
	if err := g.writeSummary(counts, due); err != nil {
		return nil, "", err
	}
	if err := g.writeRecords(rows, s.today()); err != nil {
		return nil, "", err
	}

	buf, err := g.workbook.WriteToBuffer()
	if err != nil {
		return nil, "", apperr.Internal("failed to render workbook", err)
	}
	name := fmt.Sprintf("division_%d_report_%s.xlsx", divisionID, s.today())
	return buf.Bytes(), name, nil
}

func (g *divisionExport) createStyles() error {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
	titleStyle, err := g.workbook.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "#000000"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	headerStyle, err := g.workbook.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dataStyle, err := g.workbook.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return fmt.Errorf("failed to create data style: %w", err)
	}
	overdueStyle, err := g.workbook.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FF0000"},
		Border: border,
	})
	if err != nil {
		return fmt.Errorf("failed to create overdue style: %w", err)
	}
	g.styles["title"] = titleStyle
	g.styles["header"] = headerStyle
	g.styles["data"] = dataStyle
	g.styles["overdue"] = overdueStyle
	return nil
}

func (g *divisionExport) writeSummary(counts *DivisionStatusReport, due *DueSummary) error {
	sheet := sheetNameSummary
	lines := [][]any{
		{"Division", counts.Division},
		{"Total records", counts.TotalRecords},
		{"Scheduled", counts.StatusCounts[model.StatusScheduled]},
		{"Completed", counts.StatusCounts[model.StatusCompleted]},
		{"Overdue", counts.StatusCounts[model.StatusOverdue]},
		{"Breakdown", counts.StatusCounts[model.StatusBreakdown]},
		{fmt.Sprintf("Due within %d days", due.WindowDays), due.DueSoon},
		{"Past due and open", due.Overdue},
		{"Completed this month", due.CompletedThisMonth},
	}

	if err := g.workbook.SetCellValue(sheet, "A1", "Division maintenance report"); err != nil {
		return err
	}
	_ = g.workbook.SetCellStyle(sheet, "A1", "A1", g.styles["title"])
	for i, line := range lines {
		row := i + 3
		if err := g.workbook.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &line); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	_ = g.workbook.SetCellStyle(sheet, "A3", fmt.Sprintf("B%d", len(lines)+2), g.styles["data"])
	_ = g.workbook.SetColWidth(sheet, "A", "A", 24)
	_ = g.workbook.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func (g *divisionExport) writeRecords(rows []exportRow, today model.Date) error {
	sheet := sheetNameRecords
	for i, header := range recordColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := g.workbook.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = g.workbook.SetColWidth(sheet, col, col, float64(len(header)+6))
	}
	last, _ := excelize.CoordinatesToCellName(len(recordColumns), 1)
	_ = g.workbook.SetCellStyle(sheet, "A1", last, g.styles["header"])

	for i, row := range rows {
		r := row.record
		status := lifecycle.EffectiveStatus(&r, today)
		nextDue := ""
		if r.NextDueDate != nil {
			nextDue = r.NextDueDate.String()
		}
		values := []any{
			r.ID, row.serialNumber, row.subdivision, string(r.MaintenanceType),
			r.MaintenanceDate.String(), nextDue, string(status), r.IsCompleted, r.WorkDone,
		}
		rowNum := i + 2
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		end, _ := excelize.CoordinatesToCellName(len(values), rowNum)
		if err := g.workbook.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
		style := g.styles["data"]
		if status == model.StatusOverdue {
			style = g.styles["overdue"]
		}
		_ = g.workbook.SetCellStyle(sheet, start, end, style)
	}
	return nil
}

func (s *Service) exportRows(ctx context.Context, divisionID uint) ([]exportRow, error) {
	records, err := s.divisionRecords(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	acIDs := make([]uint, 0, len(records))
	for _, r := range records {
		acIDs = append(acIDs, r.ACID)
	}
	var acs []model.AirConditioner
	err = s.db.WithContext(ctx).Preload("Subdivision").Where("id IN ?", acIDs).Find(&acs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "air conditioner", divisionID)
	}
	byID := make(map[uint]model.AirConditioner, len(acs))
	for _, ac := range acs {
		byID[ac.ID] = ac
	}

	rows := make([]exportRow, len(records))
	for i, r := range records {
		ac := byID[r.ACID]
		rows[i] = exportRow{record: r, serialNumber: ac.SerialNumber}
		if ac.Subdivision != nil {
			rows[i].subdivision = ac.Subdivision.Name
		}
	}
	return rows, nil
}
