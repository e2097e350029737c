package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidReceiptType = errors.New("invalid receipt type")

// ReceiptType distinguishes repairs taken in from old gold bought back.
type ReceiptType string

const (
	ReceiptRepair  ReceiptType = "Repair"
	ReceiptOldGold ReceiptType = "OldGold"
)

func ParseReceiptType(raw string) (ReceiptType, error) {
	switch rt := ReceiptType(strings.TrimSpace(raw)); rt {
	case ReceiptRepair, ReceiptOldGold:
		return rt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReceiptType, raw)
	}
}

type Receipt struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customer_id"`
	CustomerName    string        `json:"customer_name"`
	ReceiptType     ReceiptType   `json:"receipt_type"`
	ValuationCharge float64       `json:"valuation_charge"`
	TotalWeight     float64       `json:"total_weight"`
	Items           []ReceiptItem `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
}

type ReceiptItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	IsBroken    bool    `json:"is_broken"`
	Remark      string  `json:"remark"`
	Price       float64 `json:"price"`
}

// CreateReceipt stores a repair or old gold receipt. Valuation charges only
// apply to old gold.
func (s *Store) CreateReceipt(ctx context.Context, customerID string, rt ReceiptType, valuationCharge float64, items []ReceiptItem) (Receipt, error) {
	if len(items) == 0 {
		return Receipt{}, fmt.Errorf("create receipt: at least one item is required: %w", ErrConflict)
	}
	if rt != ReceiptOldGold {
		valuationCharge = 0
	}

	r := Receipt{
		ID:              newID(),
		CustomerID:      customerID,
		ReceiptType:     rt,
		ValuationCharge: valuationCharge,
		Items:           make([]ReceiptItem, 0, len(items)),
		CreatedAt:       s.timestamp(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT name FROM customers WHERE id = ?`, customerID).Scan(&r.CustomerName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
			}
			return fmt.Errorf("query receipt customer: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO receipts (id, customer_id, receipt_type, valuation_charge, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, r.CustomerID, string(r.ReceiptType), r.ValuationCharge, r.CreatedAt); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}

		for _, it := range items {
			it.ID = newID()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO receipt_items (id, receipt_id, description, weight, is_broken, remark, price)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, it.ID, r.ID, it.Description, it.Weight, it.IsBroken, it.Remark, it.Price); err != nil {
				return fmt.Errorf("insert receipt item: %w", err)
			}
			r.TotalWeight += it.Weight
			r.Items = append(r.Items, it)
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return r, nil
}

// ListReceipts returns receipts newest first with their items.
func (s *Store) ListReceipts(ctx context.Context) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.customer_id, c.name, r.receipt_type, r.valuation_charge, r.created_at
		FROM receipts r JOIN customers c ON c.id = r.customer_id
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]Receipt, 0)
	for rows.Next() {
		var r Receipt
		var rt string
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.CustomerName, &rt, &r.ValuationCharge, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		r.ReceiptType = ReceiptType(rt)
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	rows.Close()

	for i := range receipts {
		if err := s.loadReceiptItems(ctx, &receipts[i]); err != nil {
			return nil, err
		}
	}
	return receipts, nil
}

func (s *Store) loadReceiptItems(ctx context.Context, r *Receipt) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, weight, is_broken, remark, price
		FROM receipt_items
		WHERE receipt_id = ?
		ORDER BY rowid
	`, r.ID)
	if err != nil {
		return fmt.Errorf("query receipt items: %w", err)
	}
	defer rows.Close()

	r.Items = make([]ReceiptItem, 0)
	for rows.Next() {
		var it ReceiptItem
		if err := rows.Scan(&it.ID, &it.Description, &it.Weight, &it.IsBroken, &it.Remark, &it.Price); err != nil {
			return fmt.Errorf("scan receipt item: %w", err)
		}
		r.TotalWeight += it.Weight
		r.Items = append(r.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate receipt items: %w", err)
	}
	return nil
}
