package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/jewelbook/internal/wastage"
)

type InventoryItem struct {
	ID          string            `json:"id"`
	ItemName    string            `json:"item_name"`
	Description string            `json:"description"`
	MetalType   string            `json:"metal_type"`
	Karatage    wastage.KaratCode `json:"karatage"`
	Weight      float64           `json:"weight"`
	Size        string            `json:"size"`
	SizeValue   string            `json:"size_value"`
	Price       float64           `json:"price"`
	Quantity    int               `json:"quantity"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *Store) CreateInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, error) {
	item.ID = newID()
	item.CreatedAt = s.timestamp()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (
			id, item_name, description, metal_type, karatage, weight, size, size_value, price, quantity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.ItemName, item.Description, item.MetalType, string(item.Karatage), item.Weight,
		item.Size, item.SizeValue, item.Price, item.Quantity, item.CreatedAt)
	if err != nil {
		return InventoryItem{}, fmt.Errorf("insert inventory item: %w", err)
	}
	return item, nil
}

func (s *Store) ListInventory(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, description, metal_type, karatage, weight, size, size_value, price, quantity, created_at
		FROM inventory_items
		ORDER BY created_at DESC, item_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]InventoryItem, 0)
	for rows.Next() {
		var it InventoryItem
		var karat string
		if err := rows.Scan(&it.ID, &it.ItemName, &it.Description, &it.MetalType, &karat, &it.Weight,
			&it.Size, &it.SizeValue, &it.Price, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		it.Karatage = wastage.KaratCode(karat)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return items, nil
}

// DecrementInventory takes quantity units of an item out of stock.
func (s *Store) DecrementInventory(ctx context.Context, id string, quantity int) error {
	return decrementInventory(ctx, s.db, id, quantity)
}

func decrementInventory(ctx context.Context, ex execer, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement inventory %s: quantity must be positive", id)
	}
	result, err := ex.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?
	`, quantity, id, quantity)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement inventory rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("inventory item %s: %w", id, ErrInsufficientStock)
	}
	return nil
}
