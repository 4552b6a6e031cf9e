package services

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/models"
)

var registerHeader = []any{"Report No.", "Description", "Responsible", "Status", "Target Date", "Completion Date", "Remarks"}

// WriteActionItemRegister writes the action items of rec as an .xlsx workbook.
// Status is the effective status as of today.
func WriteActionItemRegister(w io.Writer, rec *models.Record, items []models.ActionItem, today time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Action Items"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &registerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, item := range items {
		responsible := ""
		if item.ResponsiblePerson != nil {
			responsible = item.ResponsiblePerson.String()
		}
		completed := ""
		if item.CompletionDate != nil {
			completed = lifecycle.DateString(*item.CompletionDate)
		}
		row := []any{
			rec.ReportNumber,
			item.Description,
			responsible,
			string(lifecycle.EffectiveStatus(item, today)),
			lifecycle.DateString(item.TargetDate),
			completed,
			item.Remarks,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "G", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
