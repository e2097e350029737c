package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

type Bill struct {
	ID           string              `json:"id"`
	CustomerID   string              `json:"customer_id"`
	CustomerName string              `json:"customer_name"`
	Address      string              `json:"address"`
	BillType     billing.BillType    `json:"bill_type"`
	BillDate     time.Time           `json:"bill_date"`
	PaymentType  billing.PaymentType `json:"payment_type"`
	billing.Summary
	TargetWeight   *float64   `json:"target_weight,omitempty"`
	TargetPrice    *float64   `json:"target_price,omitempty"`
	FinalWeight    *float64   `json:"final_weight,omitempty"`
	FinalPrice     *float64   `json:"final_price,omitempty"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	SpecialRemarks string     `json:"special_remarks"`
	Items          []BillItem `json:"items"`
	CreatedAt      time.Time  `json:"created_at"`
}

type BillItem struct {
	ID              string            `json:"id"`
	Description     string            `json:"description"`
	MetalType       string            `json:"metal_type"`
	Karatage        wastage.KaratCode `json:"karatage"`
	Weight          float64           `json:"weight"`
	Size            string            `json:"size"`
	SizeValue       string            `json:"size_value"`
	Price           float64           `json:"price"`
	TotalValue      float64           `json:"total_value"`
	InventoryItemID *string           `json:"inventory_item_id,omitempty"`
	StoneCarats     float64           `json:"stone_carats"`
	StoneGrams      float64           `json:"stone_grams"`
	Stones          []Stone           `json:"stones"`
}

type Stone struct {
	ID             string  `json:"id"`
	StoneType      string  `json:"stone_type"`
	Treatment      string  `json:"treatment"`
	NumberOfStones int     `json:"number_of_stones"`
	WeightCarats   float64 `json:"weight_carats"`
	WeightGrams    float64 `json:"weight_grams"`
}

// NewBill is what billing intake submits. Money totals are derived on insert.
type NewBill struct {
	CustomerID     string
	Address        string
	BillType       billing.BillType
	PaymentType    billing.PaymentType
	OldGoldValue   float64
	TargetWeight   *float64
	TargetPrice    *float64
	DeliveryDate   *time.Time
	SpecialRemarks string
	Items          []BillItem
}

// CreateBill stores a bill with its items and stones in one transaction.
// Items sold from inventory take one unit out of stock.
func (s *Store) CreateBill(ctx context.Context, in NewBill) (Bill, error) {
	if len(in.Items) == 0 {
		return Bill{}, fmt.Errorf("create bill: at least one item is required: %w", ErrConflict)
	}

	values := make([]float64, 0, len(in.Items))
	for _, it := range in.Items {
		values = append(values, it.TotalValue)
	}
	summary, err := billing.Summarize(values, in.PaymentType, in.OldGoldValue)
	if err != nil {
		return Bill{}, err
	}

	now := s.timestamp()
	bill := Bill{
		ID:             newID(),
		CustomerID:     in.CustomerID,
		Address:        in.Address,
		BillType:       in.BillType,
		BillDate:       now,
		PaymentType:    in.PaymentType,
		Summary:        summary,
		TargetWeight:   in.TargetWeight,
		TargetPrice:    in.TargetPrice,
		DeliveryDate:   in.DeliveryDate,
		SpecialRemarks: in.SpecialRemarks,
		CreatedAt:      now,
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT name FROM customers WHERE id = ?`, in.CustomerID).Scan(&bill.CustomerName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("customer %s: %w", in.CustomerID, ErrNotFound)
			}
			return fmt.Errorf("query bill customer: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO bills (
				id, customer_id, address, bill_type, bill_date, subtotal, card_charge, payment_type,
				payment_amount, old_gold_value, balance, target_weight, target_price, delivery_date,
				special_remarks, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, bill.ID, bill.CustomerID, bill.Address, string(bill.BillType), bill.BillDate, summary.Subtotal,
			summary.CardCharge, string(bill.PaymentType), summary.PaymentAmount, summary.OldGoldValue,
			summary.Balance, floatArg(bill.TargetWeight), floatArg(bill.TargetPrice), timeArg(bill.DeliveryDate),
			bill.SpecialRemarks, bill.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}

		for i, it := range in.Items {
			stored, err := insertBillItem(ctx, tx, bill.ID, i, it)
			if err != nil {
				return err
			}
			if stored.InventoryItemID != nil {
				if err := decrementInventory(ctx, tx, *stored.InventoryItemID, 1); err != nil {
					return err
				}
			}
			bill.Items = append(bill.Items, stored)
		}
		return nil
	})
	if err != nil {
		return Bill{}, err
	}
	return bill, nil
}

func insertBillItem(ctx context.Context, tx *sql.Tx, billID string, position int, it BillItem) (BillItem, error) {
	it.ID = newID()
	weights := make([]billing.Stone, 0, len(it.Stones))
	for _, st := range it.Stones {
		weights = append(weights, billing.Stone{WeightCarats: st.WeightCarats, WeightGrams: st.WeightGrams})
	}
	it.StoneCarats, it.StoneGrams = billing.StoneTotals(weights)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO bill_items (
			id, bill_id, position, description, metal_type, karatage, weight, size, size_value,
			price, total_value, inventory_item_id, stone_carats, stone_grams
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, billID, position, it.Description, it.MetalType, string(it.Karatage), it.Weight, it.Size,
		it.SizeValue, it.Price, it.TotalValue, stringArg(it.InventoryItemID), it.StoneCarats, it.StoneGrams)
	if err != nil {
		return BillItem{}, fmt.Errorf("insert bill item: %w", err)
	}

	for i := range it.Stones {
		it.Stones[i].ID = newID()
		st := it.Stones[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bill_item_stones (id, bill_item_id, stone_type, treatment, number_of_stones, weight_carats, weight_grams)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, st.ID, it.ID, st.StoneType, st.Treatment, st.NumberOfStones, st.WeightCarats, st.WeightGrams)
		if err != nil {
			return BillItem{}, fmt.Errorf("insert bill stone: %w", err)
		}
	}
	if it.Stones == nil {
		it.Stones = []Stone{}
	}
	return it, nil
}

const billColumns = `
	b.id, b.customer_id, c.name, b.address, b.bill_type, b.bill_date, b.payment_type,
	b.subtotal, b.card_charge, b.payment_amount, b.old_gold_value, b.balance,
	b.target_weight, b.target_price, b.final_weight, b.final_price, b.delivery_date,
	b.special_remarks, b.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (Bill, error) {
	var (
		b                                Bill
		billType, paymentType            string
		targetW, targetP, finalW, finalP sql.NullFloat64
		delivery                         sql.NullTime
	)
	err := row.Scan(&b.ID, &b.CustomerID, &b.CustomerName, &b.Address, &billType, &b.BillDate, &paymentType,
		&b.Subtotal, &b.CardCharge, &b.PaymentAmount, &b.OldGoldValue, &b.Balance,
		&targetW, &targetP, &finalW, &finalP, &delivery, &b.SpecialRemarks, &b.CreatedAt)
	if err != nil {
		return Bill{}, err
	}
	b.BillType = billing.BillType(billType)
	b.PaymentType = billing.PaymentType(paymentType)
	b.TargetWeight = floatPtr(targetW)
	b.TargetPrice = floatPtr(targetP)
	b.FinalWeight = floatPtr(finalW)
	b.FinalPrice = floatPtr(finalP)
	b.DeliveryDate = timePtr(delivery)
	return b, nil
}

// GetBill loads a bill with its items and stones.
func (s *Store) GetBill(ctx context.Context, id string) (Bill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM bills b JOIN customers c ON c.id = b.customer_id
		WHERE b.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Bill{}, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Bill{}, fmt.Errorf("query bill: %w", err)
	}

	if b.Items, err = s.listBillItems(ctx, id); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (s *Store) listBillItems(ctx context.Context, billID string) ([]BillItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, metal_type, karatage, weight, size, size_value, price, total_value,
			inventory_item_id, stone_carats, stone_grams
		FROM bill_items
		WHERE bill_id = ?
		ORDER BY position
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("query bill items: %w", err)
	}
	defer rows.Close()

	items := make([]BillItem, 0)
	for rows.Next() {
		var it BillItem
		var karat string
		var inv sql.NullString
		if err := rows.Scan(&it.ID, &it.Description, &it.MetalType, &karat, &it.Weight, &it.Size, &it.SizeValue,
			&it.Price, &it.TotalValue, &inv, &it.StoneCarats, &it.StoneGrams); err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		it.Karatage = wastage.KaratCode(karat)
		it.InventoryItemID = stringPtr(inv)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill items: %w", err)
	}
	rows.Close()

	for i := range items {
		if items[i].Stones, err = s.listBillStones(ctx, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Store) listBillStones(ctx context.Context, itemID string) ([]Stone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stone_type, treatment, number_of_stones, weight_carats, weight_grams
		FROM bill_item_stones
		WHERE bill_item_id = ?
		ORDER BY rowid
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query bill stones: %w", err)
	}
	defer rows.Close()

	stones := make([]Stone, 0)
	for rows.Next() {
		var st Stone
		if err := rows.Scan(&st.ID, &st.StoneType, &st.Treatment, &st.NumberOfStones, &st.WeightCarats, &st.WeightGrams); err != nil {
			return nil, fmt.Errorf("scan bill stone: %w", err)
		}
		stones = append(stones, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill stones: %w", err)
	}
	return stones, nil
}

// BillFilter narrows ListBills. Zero values match everything; To is exclusive.
type BillFilter struct {
	From     *time.Time
	To       *time.Time
	BillType billing.BillType
}

// ListBills returns bill headers (without items), newest first.
func (s *Store) ListBills(ctx context.Context, f BillFilter) ([]Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+billColumns+`
		FROM bills b JOIN customers c ON c.id = b.customer_id
		WHERE (? IS NULL OR b.bill_date >= ?)
		  AND (? IS NULL OR b.bill_date < ?)
		  AND (? = '' OR b.bill_type = ?)
		ORDER BY b.bill_date DESC, b.id
	`, timeArg(f.From), timeArg(f.From), timeArg(f.To), timeArg(f.To), string(f.BillType), string(f.BillType))
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	bills := make([]Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// FinalizeCustomOrder turns an initial custom bill into a final one priced at finalPrice.
func (s *Store) FinalizeCustomOrder(ctx context.Context, id string, finalWeight, finalPrice float64) (Bill, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	if bill.BillType != billing.BillCustomInitial {
		return Bill{}, fmt.Errorf("bill %s is %s, not %s: %w", id, bill.BillType, billing.BillCustomInitial, ErrConflict)
	}

	summary, err := billing.Summarize([]float64{finalPrice}, bill.PaymentType, bill.OldGoldValue)
	if err != nil {
		return Bill{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE bills
		SET bill_type = ?, final_weight = ?, final_price = ?, subtotal = ?, card_charge = ?,
			payment_amount = ?, balance = ?
		WHERE id = ? AND bill_type = ?
	`, string(billing.BillCustomFinal), finalWeight, finalPrice, summary.Subtotal, summary.CardCharge,
		summary.PaymentAmount, summary.Balance, id, string(billing.BillCustomInitial))
	if err != nil {
		return Bill{}, fmt.Errorf("finalize bill: %w", err)
	}
	if err := expectOneRow(result, "finalize bill "+id); err != nil {
		return Bill{}, err
	}
	return s.GetBill(ctx, id)
}
