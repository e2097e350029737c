package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/jewelbook/internal/wastage"
)

// Worksheet is a workshop job for one custom piece. Result is nil until the
// goldsmith's figures have been reconciled.
type Worksheet struct {
	ID                 string            `json:"id"`
	BillID             *string           `json:"bill_id,omitempty"`
	Date               time.Time         `json:"date"`
	GoldsmithName      string            `json:"goldsmith_name"`
	JewelryDescription string            `json:"jewelry_description"`
	Size               string            `json:"size"`
	SpecialRemarks     string            `json:"special_remarks"`
	MetalType          string            `json:"metal_type"`
	Karatage           wastage.KaratCode `json:"karatage"`
	TargetMetalWeight  float64           `json:"target_metal_weight"`
	TheoreticalWastage float64           `json:"theoretical_wastage"`
	WorkshopFigures
	Result    *wastage.Result  `json:"result,omitempty"`
	Stones    []WorksheetStone `json:"stones"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// WorkshopFigures are the goldsmith's reported weights for a worksheet.
type WorkshopFigures struct {
	GoldGiven         float64  `json:"gold_given"`
	GoldGivenPurity   float64  `json:"gold_given_purity"`
	FinalWeight       *float64 `json:"final_weight,omitempty"`
	FinalMetalWeight  *float64 `json:"final_metal_weight,omitempty"`
	GoldBalance       *float64 `json:"gold_balance,omitempty"`
	GoldBalancePurity *float64 `json:"gold_balance_purity,omitempty"`
}

type WorksheetStone struct {
	ID        string  `json:"id"`
	StoneType string  `json:"stone_type"`
	Size      string  `json:"size"`
	Weight    float64 `json:"weight"`
}

// StoneWeight is the total stone weight mounted on the piece, in grams.
func (w Worksheet) StoneWeight() float64 {
	var total float64
	for _, st := range w.Stones {
		total += st.Weight
	}
	return total
}

// NewWorksheet is the intake data copied from a custom bill.
type NewWorksheet struct {
	BillID             *string
	GoldsmithName      string
	JewelryDescription string
	Size               string
	SpecialRemarks     string
	MetalType          string
	Karatage           wastage.KaratCode
	TargetMetalWeight  float64
	TheoreticalWastage float64
	Stones             []WorksheetStone
}

// CreateWorksheet stores a new worksheet. A bill can have at most one worksheet.
func (s *Store) CreateWorksheet(ctx context.Context, in NewWorksheet) (Worksheet, error) {
	now := s.timestamp()
	ws := Worksheet{
		ID:                 newID(),
		BillID:             in.BillID,
		Date:               now,
		GoldsmithName:      in.GoldsmithName,
		JewelryDescription: in.JewelryDescription,
		Size:               in.Size,
		SpecialRemarks:     in.SpecialRemarks,
		MetalType:          in.MetalType,
		Karatage:           in.Karatage,
		TargetMetalWeight:  in.TargetMetalWeight,
		TheoreticalWastage: in.TheoreticalWastage,
		Stones:             make([]WorksheetStone, 0, len(in.Stones)),
		UpdatedAt:          now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if in.BillID != nil {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM worksheets WHERE bill_id = ?)`, *in.BillID).Scan(&exists); err != nil {
				return fmt.Errorf("check worksheet existence: %w", err)
			}
			if exists {
				return fmt.Errorf("bill %s already has a worksheet: %w", *in.BillID, ErrConflict)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO worksheets (
				id, bill_id, date, goldsmith_name, jewelry_description, size, special_remarks,
				metal_type, karatage, target_metal_weight, theoretical_wastage, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, ws.ID, stringArg(ws.BillID), ws.Date, ws.GoldsmithName, ws.JewelryDescription, ws.Size,
			ws.SpecialRemarks, ws.MetalType, string(ws.Karatage), ws.TargetMetalWeight, ws.TheoreticalWastage, ws.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert worksheet: %w", err)
		}

		for _, st := range in.Stones {
			st.ID = newID()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO worksheet_stones (id, worksheet_id, stone_type, size, weight)
				VALUES (?, ?, ?, ?, ?)
			`, st.ID, ws.ID, st.StoneType, st.Size, st.Weight); err != nil {
				return fmt.Errorf("insert worksheet stone: %w", err)
			}
			ws.Stones = append(ws.Stones, st)
		}
		return nil
	})
	if err != nil {
		return Worksheet{}, err
	}
	return ws, nil
}

const worksheetColumns = `
	id, bill_id, date, goldsmith_name, jewelry_description, size, special_remarks, metal_type,
	karatage, target_metal_weight, theoretical_wastage, gold_given, gold_given_purity,
	final_weight, final_metal_weight, gold_balance, gold_balance_purity,
	purity_corrected_balance, allowed_wastage, actual_wastage, difference_in_wastage,
	wastage_status, updated_at`

func scanWorksheet(row rowScanner) (Worksheet, error) {
	var (
		ws                                      Worksheet
		billID, status                          sql.NullString
		karat                                   string
		finalW, finalMetalW, balance, balancePu sql.NullFloat64
		corrected, allowed, actual, difference  sql.NullFloat64
	)
	err := row.Scan(&ws.ID, &billID, &ws.Date, &ws.GoldsmithName, &ws.JewelryDescription, &ws.Size,
		&ws.SpecialRemarks, &ws.MetalType, &karat, &ws.TargetMetalWeight, &ws.TheoreticalWastage,
		&ws.GoldGiven, &ws.GoldGivenPurity, &finalW, &finalMetalW, &balance, &balancePu,
		&corrected, &allowed, &actual, &difference, &status, &ws.UpdatedAt)
	if err != nil {
		return Worksheet{}, err
	}

	ws.BillID = stringPtr(billID)
	ws.Karatage = wastage.KaratCode(karat)
	ws.FinalWeight = floatPtr(finalW)
	ws.FinalMetalWeight = floatPtr(finalMetalW)
	ws.GoldBalance = floatPtr(balance)
	ws.GoldBalancePurity = floatPtr(balancePu)
	if status.Valid {
		ws.Result = &wastage.Result{
			TheoreticalWastage:     ws.TheoreticalWastage,
			AllowedWastage:         allowed.Float64,
			PurityCorrectedBalance: corrected.Float64,
			ActualWastage:          actual.Float64,
			Difference:             difference.Float64,
			Status:                 wastage.Status(status.String),
		}
	}
	return ws, nil
}

// GetWorksheet loads a worksheet with its stone details.
func (s *Store) GetWorksheet(ctx context.Context, id string) (Worksheet, error) {
	ws, err := scanWorksheet(s.db.QueryRowContext(ctx, `SELECT `+worksheetColumns+` FROM worksheets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Worksheet{}, fmt.Errorf("worksheet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Worksheet{}, fmt.Errorf("query worksheet: %w", err)
	}

	if ws.Stones, err = s.listWorksheetStones(ctx, id); err != nil {
		return Worksheet{}, err
	}
	return ws, nil
}

func (s *Store) listWorksheetStones(ctx context.Context, worksheetID string) ([]WorksheetStone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stone_type, size, weight
		FROM worksheet_stones
		WHERE worksheet_id = ?
		ORDER BY rowid
	`, worksheetID)
	if err != nil {
		return nil, fmt.Errorf("query worksheet stones: %w", err)
	}
	defer rows.Close()

	stones := make([]WorksheetStone, 0)
	for rows.Next() {
		var st WorksheetStone
		if err := rows.Scan(&st.ID, &st.StoneType, &st.Size, &st.Weight); err != nil {
			return nil, fmt.Errorf("scan worksheet stone: %w", err)
		}
		stones = append(stones, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worksheet stones: %w", err)
	}
	return stones, nil
}

// WorksheetFilter narrows ListWorksheets.
type WorksheetFilter struct {
	// Completed keeps only worksheets with a reconciled wastage result.
	Completed bool
	// WithFigures keeps only worksheets the goldsmith has reported a final weight for.
	WithFigures bool
}

// ListWorksheets returns worksheets newest first. Stones are not loaded.
func (s *Store) ListWorksheets(ctx context.Context, f WorksheetFilter) ([]Worksheet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+worksheetColumns+`
		FROM worksheets
		WHERE (? = 0 OR wastage_status IS NOT NULL)
		  AND (? = 0 OR final_metal_weight IS NOT NULL)
		ORDER BY date DESC, id
	`, f.Completed, f.WithFigures)
	if err != nil {
		return nil, fmt.Errorf("query worksheets: %w", err)
	}
	defer rows.Close()

	worksheets := make([]Worksheet, 0)
	for rows.Next() {
		ws, err := scanWorksheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worksheet: %w", err)
		}
		ws.Stones = []WorksheetStone{}
		worksheets = append(worksheets, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worksheets: %w", err)
	}
	return worksheets, nil
}

// SaveWorkshopUpdate stores the goldsmith's figures and the result computed
// from them. The result is written as-is.
func (s *Store) SaveWorkshopUpdate(ctx context.Context, id string, fig WorkshopFigures, result wastage.Result) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE worksheets
		SET
			gold_given = ?,
			gold_given_purity = ?,
			final_weight = ?,
			final_metal_weight = ?,
			gold_balance = ?,
			gold_balance_purity = ?,
			theoretical_wastage = ?,
			purity_corrected_balance = ?,
			allowed_wastage = ?,
			actual_wastage = ?,
			difference_in_wastage = ?,
			wastage_status = ?,
			updated_at = ?
		WHERE id = ?
	`, fig.GoldGiven, fig.GoldGivenPurity, floatArg(fig.FinalWeight), floatArg(fig.FinalMetalWeight),
		floatArg(fig.GoldBalance), floatArg(fig.GoldBalancePurity), result.TheoreticalWastage,
		result.PurityCorrectedBalance, result.AllowedWastage, result.ActualWastage, result.Difference,
		string(result.Status), s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("update worksheet: %w", err)
	}
	return expectOneRow(res, "update worksheet "+id)
}
