// Package workshop moves custom orders through the goldsmith's bench and
// reconciles the metal issued for each piece.
package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

// recalcWorkers bounds concurrent recalculation; SQLite serializes writes anyway.
const recalcWorkers = 4

var ErrNotCustomOrder = errors.New("bill is not a custom order")

// Repository is the persistence the workshop needs.
type Repository interface {
	GetBill(ctx context.Context, id string) (store.Bill, error)
	CreateWorksheet(ctx context.Context, in store.NewWorksheet) (store.Worksheet, error)
	GetWorksheet(ctx context.Context, id string) (store.Worksheet, error)
	ListWorksheets(ctx context.Context, f store.WorksheetFilter) ([]store.Worksheet, error)
	SaveWorkshopUpdate(ctx context.Context, id string, fig store.WorkshopFigures, result wastage.Result) error
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// CreateFromBill opens a worksheet for the first item of a custom bill and
// records the quoted theoretical wastage for its target weight.
func (s *Service) CreateFromBill(ctx context.Context, billID, goldsmith string) (store.Worksheet, error) {
	goldsmith = strings.TrimSpace(goldsmith)
	if goldsmith == "" {
		return store.Worksheet{}, errors.New("goldsmith name is required")
	}

	bill, err := s.repo.GetBill(ctx, billID)
	if err != nil {
		return store.Worksheet{}, err
	}
	if !bill.BillType.IsCustom() {
		return store.Worksheet{}, fmt.Errorf("bill %s (%s): %w", billID, bill.BillType, ErrNotCustomOrder)
	}
	if len(bill.Items) == 0 {
		return store.Worksheet{}, fmt.Errorf("bill %s has no items: %w", billID, store.ErrConflict)
	}
	item := bill.Items[0]

	target := item.Weight
	if bill.TargetWeight != nil {
		target = *bill.TargetWeight
	}
	theoretical, err := wastage.EstimateTheoretical(item.Karatage, target)
	if err != nil {
		s.logger.Warn("worksheet blocked by invalid intake data",
			zap.String("bill_id", billID), zap.String("karatage", string(item.Karatage)), zap.Error(err))
		return store.Worksheet{}, err
	}

	size := item.SizeValue
	if size == "" {
		size = "N/A"
	}
	stones := make([]store.WorksheetStone, 0, len(item.Stones))
	for _, st := range item.Stones {
		stones = append(stones, store.WorksheetStone{
			StoneType: strings.TrimSpace(st.StoneType + " " + st.Treatment),
			Size:      "N/A",
			Weight:    st.WeightGrams,
		})
	}

	ws, err := s.repo.CreateWorksheet(ctx, store.NewWorksheet{
		BillID:             &bill.ID,
		GoldsmithName:      goldsmith,
		JewelryDescription: item.Description,
		Size:               size,
		SpecialRemarks:     bill.SpecialRemarks,
		MetalType:          item.MetalType,
		Karatage:           item.Karatage,
		TargetMetalWeight:  target,
		TheoreticalWastage: theoretical,
		Stones:             stones,
	})
	if err != nil {
		return store.Worksheet{}, err
	}

	s.logger.Info("worksheet created",
		zap.String("worksheet_id", ws.ID), zap.String("bill_id", billID), zap.String("goldsmith", goldsmith))
	return ws, nil
}

// Update carries the goldsmith's figures. FinalWeight includes stones.
type Update struct {
	GoldGiven         float64
	GoldGivenPurity   float64
	FinalWeight       float64
	GoldBalance       *float64
	GoldBalancePurity *float64
}

// ApplyUpdate reconciles a worksheet from scratch with new workshop figures
// and stores the result.
func (s *Service) ApplyUpdate(ctx context.Context, id string, u Update) (store.Worksheet, error) {
	ws, err := s.repo.GetWorksheet(ctx, id)
	if err != nil {
		return store.Worksheet{}, err
	}

	fig, result, err := reconcile(ws, u)
	if err != nil {
		s.logger.Warn("wastage calculation rejected",
			zap.String("worksheet_id", id), zap.String("karatage", string(ws.Karatage)), zap.Error(err))
		return store.Worksheet{}, err
	}

	if err := s.repo.SaveWorkshopUpdate(ctx, id, fig, result); err != nil {
		s.logger.Error("failed to save workshop update", zap.String("worksheet_id", id), zap.Error(err))
		return store.Worksheet{}, err
	}

	s.logger.Info("wastage reconciled",
		zap.String("worksheet_id", id),
		zap.String("status", string(result.Status)),
		zap.Float64("actual_wastage", result.ActualWastage),
		zap.Float64("allowed_wastage", result.AllowedWastage),
	)

	ws.WorkshopFigures = fig
	ws.TheoreticalWastage = result.TheoreticalWastage
	ws.Result = &result
	return ws, nil
}

// RecalculateAll recomputes every worksheet the goldsmith has reported on and
// returns how many were updated.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	worksheets, err := s.repo.ListWorksheets(ctx, store.WorksheetFilter{WithFigures: true})
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcWorkers)
	for _, summary := range worksheets {
		id := summary.ID
		g.Go(func() error {
			// Stones are not part of the list query.
			ws, err := s.repo.GetWorksheet(ctx, id)
			if err != nil {
				return err
			}
			_, err = s.ApplyUpdate(ctx, id, updateFrom(ws))
			if err != nil {
				return fmt.Errorf("recalculate worksheet %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.logger.Info("worksheets recalculated", zap.Int("count", len(worksheets)))
	return len(worksheets), nil
}

func updateFrom(ws store.Worksheet) Update {
	u := Update{
		GoldGiven:         ws.GoldGiven,
		GoldGivenPurity:   ws.GoldGivenPurity,
		GoldBalance:       ws.GoldBalance,
		GoldBalancePurity: ws.GoldBalancePurity,
	}
	if ws.FinalWeight != nil {
		u.FinalWeight = *ws.FinalWeight
	}
	return u
}

func reconcile(ws store.Worksheet, u Update) (store.WorkshopFigures, wastage.Result, error) {
	finalMetal := u.FinalWeight - ws.StoneWeight()
	if finalMetal < 0 {
		return store.WorkshopFigures{}, wastage.Result{}, fmt.Errorf(
			"%w: final weight %.3fg is less than the %.3fg of stones", wastage.ErrInvalidWeight, u.FinalWeight, ws.StoneWeight())
	}

	result, err := wastage.Calculate(wastage.Job{
		Karatage:          ws.Karatage,
		TargetWeight:      ws.TargetMetalWeight,
		FinalMetalWeight:  finalMetal,
		GoldGiven:         u.GoldGiven,
		GoldGivenPurity:   u.GoldGivenPurity,
		GoldBalance:       u.GoldBalance,
		GoldBalancePurity: u.GoldBalancePurity,
	})
	if err != nil {
		return store.WorkshopFigures{}, wastage.Result{}, err
	}

	finalWeight := u.FinalWeight
	return store.WorkshopFigures{
		GoldGiven:         u.GoldGiven,
		GoldGivenPurity:   u.GoldGivenPurity,
		FinalWeight:       &finalWeight,
		FinalMetalWeight:  &finalMetal,
		GoldBalance:       u.GoldBalance,
		GoldBalancePurity: u.GoldBalancePurity,
	}, result, nil
}
