package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

type fakeSource struct {
	worksheets []store.Worksheet
	bills      []store.Bill
	err        error

	lastWorksheetFilter store.WorksheetFilter
	lastBillFilter      store.BillFilter
}

func (f *fakeSource) ListWorksheets(_ context.Context, filter store.WorksheetFilter) ([]store.Worksheet, error) {
	f.lastWorksheetFilter = filter
	return f.worksheets, f.err
}

func (f *fakeSource) ListBills(_ context.Context, filter store.BillFilter) ([]store.Bill, error) {
	f.lastBillFilter = filter
	return f.bills, f.err
}

func fptr(v float64) *float64 { return &v }

func completed(karat wastage.KaratCode, allowed, actual float64, status wastage.Status) store.Worksheet {
	return store.Worksheet{
		ID:                 "ws-" + string(karat),
		Date:               time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		GoldsmithName:      "Harsha",
		JewelryDescription: "Custom piece",
		Karatage:           karat,
		TargetMetalWeight:  5,
		WorkshopFigures: store.WorkshopFigures{
			GoldGiven:        5.5,
			GoldGivenPurity:  75,
			FinalMetalWeight: fptr(4.8),
		},
		Result: &wastage.Result{
			AllowedWastage: allowed,
			ActualWastage:  actual,
			Difference:     wastage.Round(actual - allowed),
			Status:         status,
		},
	}
}

func TestWastageByKarat_GroupsInTableOrder(t *testing.T) {
	src := &fakeSource{worksheets: []store.Worksheet{
		completed(wastage.K18, 0.48, 0.2833, wastage.StatusLow),
		completed(wastage.K22, 0.5625, 0.6, wastage.StatusExcess),
		completed(wastage.K18, 0.5, 0.5, wastage.StatusIdeal),
		completed(wastage.K22, 0.1, 0.2, wastage.StatusExcess),
	}}

	rows, err := NewService(src).WastageByKarat(context.Background())
	require.NoError(t, err)
	assert.True(t, src.lastWorksheetFilter.Completed)

	require.Len(t, rows, 2)
	assert.Equal(t, wastage.K22, rows[0].Karatage)
	assert.Equal(t, "22K", rows[0].Label)
	assert.Equal(t, 2, rows[0].Jobs)
	assert.Equal(t, 0.6625, rows[0].TotalAllowed)
	assert.Equal(t, 0.8, rows[0].TotalActual)
	assert.Equal(t, 2, rows[0].Excess)

	assert.Equal(t, wastage.K18, rows[1].Karatage)
	assert.Equal(t, 0.98, rows[1].TotalAllowed)
	assert.Equal(t, 0.7833, rows[1].TotalActual)
	assert.Equal(t, -0.1967, rows[1].NetDifference)
	assert.Equal(t, 1, rows[1].Low)
	assert.Equal(t, 1, rows[1].Ideal)
}

func TestWastageByKarat_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&fakeSource{err: boom}).WastageByKarat(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSalesSummary_TotalsByBillType(t *testing.T) {
	src := &fakeSource{bills: []store.Bill{
		{BillType: billing.BillReadyMade, Summary: billing.Summary{PaymentAmount: 1000}},
		{BillType: billing.BillCustomFinal, Summary: billing.Summary{PaymentAmount: 25750, OldGoldValue: 5000}},
		{BillType: billing.BillReadyMade, Summary: billing.Summary{PaymentAmount: 2500.5}},
	}}
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	got, err := NewService(src).SalesSummary(context.Background(), from, to)
	require.NoError(t, err)

	require.NotNil(t, src.lastBillFilter.From)
	assert.Equal(t, from, *src.lastBillFilter.From)
	assert.Equal(t, 3, got.Bills)
	assert.Equal(t, 29250.5, got.Revenue)
	assert.Equal(t, 5000.0, got.OldGoldTaken)
	assert.Equal(t, []SalesLine{
		{BillType: billing.BillReadyMade, Bills: 2, Revenue: 3500.5},
		{BillType: billing.BillCustomFinal, Bills: 1, Revenue: 25750},
	}, got.ByType)
}

func TestExportWastageXLSX_WritesStoredFigures(t *testing.T) {
	src := &fakeSource{worksheets: []store.Worksheet{
		completed(wastage.K18, 0.48, 0.2833, wastage.StatusLow),
	}}

	data, err := NewService(src).ExportWastageXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(wastageSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, wastageHeaders, rows[0])

	row := rows[1]
	assert.Equal(t, "2026-03-14", row[0])
	assert.Equal(t, "Harsha", row[1])
	assert.Equal(t, "18K", row[3])
	assert.Equal(t, "0.48", row[9])
	assert.Equal(t, "0.2833", row[10])
	assert.Equal(t, "-0.1967", row[11])
	assert.Equal(t, "Low Wastage", row[12])
}

func TestPendingDeliveries_KeepsLateAndDueSoonOrders(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}
	src := &fakeSource{bills: []store.Bill{
		{ID: "soon", CustomerName: "Priya", DeliveryDate: at(2)},
		{ID: "later", CustomerName: "Nimal", DeliveryDate: at(10)},
		{ID: "late", CustomerName: "Kamal", DeliveryDate: at(-1)},
		{ID: "undated", CustomerName: "Sunil"},
	}}

	pending, err := NewService(src).PendingDeliveries(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, billing.BillCustomInitial, src.lastBillFilter.BillType)

	require.Len(t, pending, 2)
	assert.Equal(t, "late", pending[0].BillID)
	assert.Equal(t, billing.DeliveryOverdue, pending[0].Status)
	assert.Equal(t, -1, pending[0].DaysLeft)
	assert.Equal(t, "soon", pending[1].BillID)
	assert.Equal(t, billing.DeliveryWarning, pending[1].Status)
	assert.Equal(t, 2, pending[1].DaysLeft)
}
