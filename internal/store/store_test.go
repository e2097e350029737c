package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/db"
	"github.com/Simplici0/jewelbook/internal/migrations"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)

	return New(database)
}

func fptr(v float64) *float64 { return &v }

func TestCustomersCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Priya Sharma", Phone: "+91-9876543211"})
	require.NoError(t, err)
	_, err = s.CreateCustomer(ctx, CustomerInput{Name: "Arjun Patel", Phone: "+91-9876543212"})
	require.NoError(t, err)

	found, err := s.ListCustomers(ctx, "Priya")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, c.ID, found[0].ID)

	all, err := s.ListCustomers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := s.UpdateCustomer(ctx, c.ID, CustomerInput{Name: "Priya S.", Address: "Bangalore"})
	require.NoError(t, err)
	assert.Equal(t, "Priya S.", updated.Name)
	assert.Equal(t, "Bangalore", updated.Address)

	require.NoError(t, s.DeleteCustomer(ctx, c.ID))
	_, err = s.GetCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteCustomer(ctx, c.ID), ErrNotFound)
	_, err = s.UpdateCustomer(ctx, "missing", CustomerInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBill_StoresItemsStonesAndTakesStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Rajesh Kumar"})
	require.NoError(t, err)
	ring, err := s.CreateInventoryItem(ctx, InventoryItem{
		ItemName: "Classic Gold Ring", MetalType: "Gold", Karatage: wastage.K18,
		Weight: 4.5, Size: "Ring", Price: 15000, Quantity: 1,
	})
	require.NoError(t, err)

	bill, err := s.CreateBill(ctx, NewBill{
		CustomerID:   c.ID,
		BillType:     billing.BillReadyMade,
		PaymentType:  billing.PaymentCard,
		OldGoldValue: 2000,
		Items: []BillItem{
			{
				Description: "Classic Gold Ring", MetalType: "Gold", Karatage: wastage.K18, Weight: 4.5,
				Size: "Ring", Price: 15000, TotalValue: 15000, InventoryItemID: &ring.ID,
				Stones: []Stone{{StoneType: "Diamond", Treatment: "Natural", NumberOfStones: 1, WeightCarats: 0.5, WeightGrams: 0.1}},
			},
			{Description: "Silver Chain", MetalType: "Silver", Karatage: wastage.Silver925, Weight: 8.2, Size: "Chain", Price: 5500, TotalValue: 5500},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 20500.0, bill.Subtotal)
	assert.Equal(t, 615.0, bill.CardCharge)
	assert.Equal(t, 19115.0, bill.Balance)

	loaded, err := s.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Kumar", loaded.CustomerName)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Classic Gold Ring", loaded.Items[0].Description)
	assert.Equal(t, 0.5, loaded.Items[0].StoneCarats)
	require.Len(t, loaded.Items[0].Stones, 1)
	assert.Empty(t, loaded.Items[1].Stones)

	inventory, err := s.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.Zero(t, inventory[0].Quantity)

	// The ring is out of stock now; the whole second bill rolls back.
	_, err = s.CreateBill(ctx, NewBill{
		CustomerID:  c.ID,
		BillType:    billing.BillReadyMade,
		PaymentType: billing.PaymentCash,
		Items:       []BillItem{{Description: "Classic Gold Ring", Karatage: wastage.K18, TotalValue: 15000, InventoryItemID: &ring.ID}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	bills, err := s.ListBills(ctx, BillFilter{})
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	assert.ErrorIs(t, s.DeleteCustomer(ctx, c.ID), ErrConflict)
}

func TestCreateBill_UnknownCustomer(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateBill(context.Background(), NewBill{
		CustomerID:  "missing",
		PaymentType: billing.PaymentCash,
		Items:       []BillItem{{Description: "Ring", TotalValue: 10}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBills_FiltersByDateAndType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Lakshmi"})
	require.NoError(t, err)

	day := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, bt := range []billing.BillType{billing.BillReadyMade, billing.BillCustomInitial, billing.BillReadyMade} {
		s.now = func() time.Time { return day.AddDate(0, 0, i) }
		_, err := s.CreateBill(ctx, NewBill{
			CustomerID: c.ID, BillType: bt, PaymentType: billing.PaymentCash,
			Items: []BillItem{{Description: "Chain", Karatage: wastage.K22, TotalValue: 1000}},
		})
		require.NoError(t, err)
	}

	from := day.AddDate(0, 0, 1)
	to := day.AddDate(0, 0, 3)
	ranged, err := s.ListBills(ctx, BillFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	custom, err := s.ListBills(ctx, BillFilter{BillType: billing.BillCustomInitial})
	require.NoError(t, err)
	assert.Len(t, custom, 1)
}

func TestFinalizeCustomOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Priya"})
	require.NoError(t, err)

	bill, err := s.CreateBill(ctx, NewBill{
		CustomerID: c.ID, BillType: billing.BillCustomInitial, PaymentType: billing.PaymentCard,
		TargetWeight: fptr(8.5), TargetPrice: fptr(25000),
		Items: []BillItem{{Description: "Custom Gold Ring", Karatage: wastage.K18, Weight: 4, Price: 25000, TotalValue: 25000}},
	})
	require.NoError(t, err)

	final, err := s.FinalizeCustomOrder(ctx, bill.ID, 4.4, 30000)
	require.NoError(t, err)
	assert.Equal(t, billing.BillCustomFinal, final.BillType)
	assert.Equal(t, 30900.0, final.PaymentAmount)
	require.NotNil(t, final.FinalWeight)
	assert.Equal(t, 4.4, *final.FinalWeight)
	require.NotNil(t, final.TargetWeight)
	assert.Equal(t, 8.5, *final.TargetWeight)

	_, err = s.FinalizeCustomOrder(ctx, bill.ID, 4.4, 30000)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWorksheetLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ws, err := s.CreateWorksheet(ctx, NewWorksheet{
		GoldsmithName:      "Harsha",
		JewelryDescription: "Custom Gold Ring with Sapphire",
		MetalType:          "Gold",
		Karatage:           wastage.K18,
		TargetMetalWeight:  4,
		TheoreticalWastage: 0.4,
		Stones:             []WorksheetStone{{StoneType: "Blue Sapphire", Size: "5 x 7", Weight: 0.315}},
	})
	require.NoError(t, err)

	pending, err := s.ListWorksheets(ctx, WorksheetFilter{Completed: true})
	require.NoError(t, err)
	assert.Empty(t, pending)

	result := wastage.Result{
		TheoreticalWastage: 0.4, AllowedWastage: 0.4085, PurityCorrectedBalance: 1.99,
		ActualWastage: 0.425, Difference: 0.0165, Status: wastage.StatusExcess,
	}
	fig := WorkshopFigures{
		GoldGiven: 6.5, GoldGivenPurity: 75, FinalWeight: fptr(4.4), FinalMetalWeight: fptr(4.085),
		GoldBalance: fptr(1.99), GoldBalancePurity: fptr(75),
	}
	require.NoError(t, s.SaveWorkshopUpdate(ctx, ws.ID, fig, result))

	loaded, err := s.GetWorksheet(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Result)
	assert.Equal(t, result, *loaded.Result)
	assert.Equal(t, fig, loaded.WorkshopFigures)
	assert.Equal(t, 0.315, loaded.StoneWeight())

	done, err := s.ListWorksheets(ctx, WorksheetFilter{Completed: true})
	require.NoError(t, err)
	assert.Len(t, done, 1)

	assert.ErrorIs(t, s.SaveWorkshopUpdate(ctx, "missing", fig, result), ErrNotFound)
	_, err = s.GetWorksheet(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Arjun"})
	require.NoError(t, err)

	repair, err := s.CreateReceipt(ctx, c.ID, ReceiptRepair, 500, []ReceiptItem{
		{Description: "Bangle", Weight: 10.2, IsBroken: true, Remark: "screw missing", Price: 1500},
	})
	require.NoError(t, err)
	assert.Zero(t, repair.ValuationCharge)

	_, err = s.CreateReceipt(ctx, c.ID, ReceiptOldGold, 250, []ReceiptItem{
		{Description: "Old chain", Weight: 5.5},
		{Description: "Earring", Weight: 1.25},
	})
	require.NoError(t, err)

	receipts, err := s.ListReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	var oldGold Receipt
	for _, r := range receipts {
		if r.ReceiptType == ReceiptOldGold {
			oldGold = r
		}
	}
	assert.Equal(t, 250.0, oldGold.ValuationCharge)
	assert.Equal(t, 6.75, oldGold.TotalWeight)
	assert.Len(t, oldGold.Items, 2)

	_, err = ParseReceiptType("Pawn")
	assert.ErrorIs(t, err, ErrInvalidReceiptType)
}
