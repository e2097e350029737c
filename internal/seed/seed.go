package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/jewelbook/internal/wastage"
)

const walkInCustomerName = "Walk-in Customer"

type catalogItem struct {
	name        string
	description string
	metalType   string
	karatage    wastage.KaratCode
	weight      float64
	size        string
	sizeValue   string
	price       float64
	quantity    int
}

// starterCatalog is the ready-made stock a fresh shop starts with.
var starterCatalog = []catalogItem{
	{"Classic Gold Ring", "18K Yellow Gold Band Ring", "Gold", wastage.K18, 4.5, "Ring", "18", 15000, 3},
	{"Silver Chain", "925 Sterling Silver Chain", "Silver", wastage.Silver925, 8.2, "Chain", "20", 3500, 5},
	{"Gold Bracelet", "22K Yellow Gold Bracelet", "Gold", wastage.K22, 12.8, "Bracelet", "7.5", 45000, 2},
	{"Rose Gold Pendant", "18K Rose Gold Pendant", "RoseGold", wastage.K18, 2.3, "Chain", "18", 8500, 4},
	{"Baby Bangles Pair", "22K Gold Baby Bangles", "Gold", wastage.K22, 10.0, "BanglesWithoutScrews", "1.8", 48000, 4},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	now := time.Now().UTC().Truncate(time.Second)

	if err := ensureWalkInCustomer(ctx, tx, now, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	for _, item := range starterCatalog {
		if err := ensureCatalogItem(ctx, tx, item, now, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureWalkInCustomer(ctx context.Context, tx *sql.Tx, now time.Time, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE name = ? LIMIT 1)`, walkInCustomerName).Scan(&exists); err != nil {
		return fmt.Errorf("check walk-in customer existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at, updated_at)
		VALUES (?, ?, '', '', ?, ?)
	`, uuid.NewString(), walkInCustomerName, now, now); err != nil {
		return fmt.Errorf("insert walk-in customer: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureCatalogItem(ctx context.Context, tx *sql.Tx, item catalogItem, now time.Time, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE item_name = ? LIMIT 1)`, item.name).Scan(&exists); err != nil {
		return fmt.Errorf("check inventory item %q existence: %w", item.name, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_items (
			id, item_name, description, metal_type, karatage, weight, size, size_value, price, quantity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), item.name, item.description, item.metalType, string(item.karatage), item.weight,
		item.size, item.sizeValue, item.price, item.quantity, now); err != nil {
		return fmt.Errorf("insert inventory item %q: %w", item.name, err)
	}
	stats.Inserts++
	return nil
}
