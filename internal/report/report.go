// Package report aggregates stored bills and worksheets for the dashboard.
// Stored figures are summed or copied, never recomputed.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

// Source is the read side of the store used by reports.
type Source interface {
	ListWorksheets(ctx context.Context, f store.WorksheetFilter) ([]store.Worksheet, error)
	ListBills(ctx context.Context, f store.BillFilter) ([]store.Bill, error)
}

type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// KaratWastage summarizes completed worksheets of one karat.
type KaratWastage struct {
	Karatage      wastage.KaratCode `json:"karatage"`
	Label         string            `json:"label"`
	Jobs          int               `json:"jobs"`
	TotalAllowed  float64           `json:"total_allowed"`
	TotalActual   float64           `json:"total_actual"`
	NetDifference float64           `json:"net_difference"`
	Excess        int               `json:"excess"`
	Low           int               `json:"low"`
	Ideal         int               `json:"ideal"`
}

// WastageByKarat groups completed worksheets by karat in reference table order.
// Karats without completed jobs are omitted.
func (s *Service) WastageByKarat(ctx context.Context) ([]KaratWastage, error) {
	worksheets, err := s.src.ListWorksheets(ctx, store.WorksheetFilter{Completed: true})
	if err != nil {
		return nil, fmt.Errorf("load completed worksheets: %w", err)
	}

	type acc struct {
		row                  KaratWastage
		allowed, actual, net decimal.Decimal
	}
	byKarat := make(map[wastage.KaratCode]*acc)
	for _, ws := range worksheets {
		a, ok := byKarat[ws.Karatage]
		if !ok {
			a = &acc{row: KaratWastage{Karatage: ws.Karatage, Label: ws.Karatage.Label()}}
			byKarat[ws.Karatage] = a
		}
		a.row.Jobs++
		a.allowed = a.allowed.Add(decimal.NewFromFloat(ws.Result.AllowedWastage))
		a.actual = a.actual.Add(decimal.NewFromFloat(ws.Result.ActualWastage))
		a.net = a.net.Add(decimal.NewFromFloat(ws.Result.Difference))
		switch ws.Result.Status {
		case wastage.StatusExcess:
			a.row.Excess++
		case wastage.StatusLow:
			a.row.Low++
		case wastage.StatusIdeal:
			a.row.Ideal++
		}
	}

	rows := make([]KaratWastage, 0, len(byKarat))
	for _, code := range wastage.KaratCodes() {
		a, ok := byKarat[code]
		if !ok {
			continue
		}
		a.row.TotalAllowed = a.allowed.InexactFloat64()
		a.row.TotalActual = a.actual.InexactFloat64()
		a.row.NetDifference = a.net.InexactFloat64()
		rows = append(rows, a.row)
	}
	return rows, nil
}

// SalesLine is revenue for one bill type.
type SalesLine struct {
	BillType billing.BillType `json:"bill_type"`
	Bills    int              `json:"bills"`
	Revenue  float64          `json:"revenue"`
}

type SalesSummary struct {
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	Bills        int         `json:"bills"`
	Revenue      float64     `json:"revenue"`
	OldGoldTaken float64     `json:"old_gold_taken"`
	ByType       []SalesLine `json:"by_type"`
}

var billTypes = []billing.BillType{billing.BillReadyMade, billing.BillCustomInitial, billing.BillCustomFinal}

// SalesSummary totals payment amounts of bills dated in [from, to).
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	bills, err := s.src.ListBills(ctx, store.BillFilter{From: &from, To: &to})
	if err != nil {
		return SalesSummary{}, fmt.Errorf("load bills: %w", err)
	}

	revenue, oldGold := decimal.Zero, decimal.Zero
	perType := make(map[billing.BillType]*SalesLine)
	perTypeRevenue := make(map[billing.BillType]decimal.Decimal)
	for _, b := range bills {
		amount := decimal.NewFromFloat(b.PaymentAmount)
		revenue = revenue.Add(amount)
		oldGold = oldGold.Add(decimal.NewFromFloat(b.OldGoldValue))

		line, ok := perType[b.BillType]
		if !ok {
			line = &SalesLine{BillType: b.BillType}
			perType[b.BillType] = line
		}
		line.Bills++
		perTypeRevenue[b.BillType] = perTypeRevenue[b.BillType].Add(amount)
	}

	summary := SalesSummary{
		From:         from,
		To:           to,
		Bills:        len(bills),
		Revenue:      revenue.InexactFloat64(),
		OldGoldTaken: oldGold.InexactFloat64(),
		ByType:       make([]SalesLine, 0, len(perType)),
	}
	for _, bt := range billTypes {
		if line, ok := perType[bt]; ok {
			line.Revenue = perTypeRevenue[bt].InexactFloat64()
			summary.ByType = append(summary.ByType, *line)
		}
	}
	return summary, nil
}
