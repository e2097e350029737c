package workshop

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/db"
	"github.com/Simplici0/jewelbook/internal/migrations"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

func fptr(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "workshop-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)

	st := store.New(database)
	return NewService(st, nil), st
}

func seedCustomBill(t *testing.T, st *store.Store, karat wastage.KaratCode, billType billing.BillType) store.Bill {
	t.Helper()

	ctx := context.Background()
	c, err := st.CreateCustomer(ctx, store.CustomerInput{Name: "Priya Sharma"})
	require.NoError(t, err)

	bill, err := st.CreateBill(ctx, store.NewBill{
		CustomerID:     c.ID,
		BillType:       billType,
		PaymentType:    billing.PaymentCash,
		TargetWeight:   fptr(5),
		SpecialRemarks: "Mat Polish",
		Items: []store.BillItem{{
			Description: "Custom Gold Ring with Sapphire", MetalType: "Gold", Karatage: karat,
			Weight: 4, Size: "Ring", SizeValue: "17", Price: 25000, TotalValue: 25000,
			Stones: []store.Stone{{StoneType: "Blue Sapphire", Treatment: "Unheated", NumberOfStones: 1, WeightCarats: 1, WeightGrams: 0.2}},
		}},
	})
	require.NoError(t, err)
	return bill
}

func TestCreateFromBill_CopiesIntakeAndEstimates(t *testing.T) {
	svc, st := newTestService(t)
	bill := seedCustomBill(t, st, wastage.K18, billing.BillCustomInitial)

	ws, err := svc.CreateFromBill(context.Background(), bill.ID, "Harsha")
	require.NoError(t, err)

	assert.Equal(t, "Custom Gold Ring with Sapphire", ws.JewelryDescription)
	assert.Equal(t, "17", ws.Size)
	assert.Equal(t, "Mat Polish", ws.SpecialRemarks)
	assert.Equal(t, 5.0, ws.TargetMetalWeight)
	assert.Equal(t, 0.5, ws.TheoreticalWastage)
	require.Len(t, ws.Stones, 1)
	assert.Equal(t, "Blue Sapphire Unheated", ws.Stones[0].StoneType)
	assert.Nil(t, ws.Result)

	_, err = svc.CreateFromBill(context.Background(), bill.ID, "Harsha")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCreateFromBill_RejectsReadyMadeAndUnknownKarat(t *testing.T) {
	svc, st := newTestService(t)

	readyMade := seedCustomBill(t, st, wastage.K22, billing.BillReadyMade)
	_, err := svc.CreateFromBill(context.Background(), readyMade.ID, "Harsha")
	assert.ErrorIs(t, err, ErrNotCustomOrder)

	unknown := seedCustomBill(t, st, "K99", billing.BillCustomInitial)
	_, err = svc.CreateFromBill(context.Background(), unknown.ID, "Harsha")
	assert.ErrorIs(t, err, wastage.ErrInvalidKaratage)

	_, err = svc.CreateFromBill(context.Background(), "missing", "Harsha")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CreateFromBill(context.Background(), unknown.ID, "  ")
	assert.Error(t, err)
}

func TestApplyUpdate_SubtractsStonesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	bill := seedCustomBill(t, st, wastage.K18, billing.BillCustomInitial)
	ws, err := svc.CreateFromBill(ctx, bill.ID, "Harsha")
	require.NoError(t, err)

	// 5.0g final weight with a 0.2g sapphire leaves 4.8g of metal.
	updated, err := svc.ApplyUpdate(ctx, ws.ID, Update{
		GoldGiven:         5.5,
		GoldGivenPurity:   75,
		FinalWeight:       5.0,
		GoldBalance:       fptr(0.5),
		GoldBalancePurity: fptr(62.5),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Result)
	assert.Equal(t, 0.48, updated.Result.AllowedWastage)
	assert.Equal(t, 0.4167, updated.Result.PurityCorrectedBalance)
	assert.Equal(t, wastage.StatusLow, updated.Result.Status)

	stored, err := st.GetWorksheet(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated.Result, *stored.Result)
	require.NotNil(t, stored.FinalMetalWeight)
	assert.InDelta(t, 4.8, *stored.FinalMetalWeight, 1e-9)
}

func TestApplyUpdate_InvalidInputLeavesWorksheetUntouched(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	bill := seedCustomBill(t, st, wastage.K18, billing.BillCustomInitial)
	ws, err := svc.CreateFromBill(ctx, bill.ID, "Harsha")
	require.NoError(t, err)

	_, err = svc.ApplyUpdate(ctx, ws.ID, Update{GoldGiven: 5, FinalWeight: 4, GoldBalance: fptr(0.3), GoldBalancePurity: fptr(70)})
	assert.ErrorIs(t, err, wastage.ErrInvalidPurity)

	_, err = svc.ApplyUpdate(ctx, ws.ID, Update{GoldGiven: 5, GoldGivenPurity: 75, FinalWeight: 0.1})
	assert.ErrorIs(t, err, wastage.ErrInvalidWeight)

	stored, err := st.GetWorksheet(ctx, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Result)
	assert.Nil(t, stored.FinalWeight)
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	var ids []string
	for i := 0; i < 5; i++ {
		bill := seedCustomBill(t, st, wastage.K22, billing.BillCustomInitial)
		ws, err := svc.CreateFromBill(ctx, bill.ID, "Harsha")
		require.NoError(t, err)
		ids = append(ids, ws.ID)
	}
	for _, id := range ids[:3] {
		_, err := svc.ApplyUpdate(ctx, id, Update{GoldGiven: 10.8, GoldGivenPurity: 91.6, FinalWeight: 10.2})
		require.NoError(t, err)
	}

	count, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	done, err := st.ListWorksheets(ctx, store.WorksheetFilter{Completed: true})
	require.NoError(t, err)
	require.Len(t, done, 3)
	for _, ws := range done {
		assert.Equal(t, 0.5625, ws.Result.AllowedWastage)
		assert.Equal(t, wastage.StatusExcess, ws.Result.Status)
	}
}
