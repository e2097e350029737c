package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/jewelbook/internal/store"
)

const wastageSheet = "Wastage"

var wastageHeaders = []string{
	"Date",
	"Goldsmith",
	"Description",
	"Karat",
	"Target Weight (g)",
	"Final Metal Weight (g)",
	"Gold Given (g)",
	"Purity Corrected Balance (g)",
	"Theoretical Wastage (g)",
	"Allowed Wastage (g)",
	"Actual Wastage (g)",
	"Difference (g)",
	"Status",
}

// ExportWastageXLSX returns a workbook with one row per completed worksheet.
func (s *Service) ExportWastageXLSX(ctx context.Context) ([]byte, error) {
	worksheets, err := s.src.ListWorksheets(ctx, store.WorksheetFilter{Completed: true})
	if err != nil {
		return nil, fmt.Errorf("load completed worksheets: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), wastageSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range wastageHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(wastageSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for r, ws := range worksheets {
		var finalMetal any
		if ws.FinalMetalWeight != nil {
			finalMetal = *ws.FinalMetalWeight
		}
		values := []any{
			ws.Date.Format("2006-01-02"),
			ws.GoldsmithName,
			ws.JewelryDescription,
			ws.Karatage.Label(),
			ws.TargetMetalWeight,
			finalMetal,
			ws.GoldGiven,
			ws.Result.PurityCorrectedBalance,
			ws.Result.TheoreticalWastage,
			ws.Result.AllowedWastage,
			ws.Result.ActualWastage,
			ws.Result.Difference,
			ws.Result.Status.Label(),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(wastageSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	_ = f.SetColWidth(wastageSheet, "A", "A", 12)
	_ = f.SetColWidth(wastageSheet, "B", "B", 16)
	_ = f.SetColWidth(wastageSheet, "C", "C", 36)
	_ = f.SetColWidth(wastageSheet, "D", "M", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
