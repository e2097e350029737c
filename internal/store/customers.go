package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerInput holds the editable customer fields.
type CustomerInput struct {
	Name    string
	Phone   string
	Address string
}

func (s *Store) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	now := s.timestamp()
	c := Customer{
		ID:        newID(),
		Name:      in.Name,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM customers
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("query customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns customers newest first, optionally filtered by name or phone.
func (s *Store) ListCustomers(ctx context.Context, query string) ([]Customer, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM customers
		WHERE (? = '' OR name LIKE ? OR phone LIKE ?)
		ORDER BY created_at DESC, name
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (Customer, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?
	`, in.Name, in.Phone, in.Address, s.timestamp(), id)
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	if err := expectOneRow(result, "update customer "+id); err != nil {
		return Customer{}, err
	}
	return s.GetCustomer(ctx, id)
}

// DeleteCustomer removes a customer that has no bills or receipts.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	var refs int
	if err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM bills WHERE customer_id = ?)
		     + (SELECT COUNT(*) FROM receipts WHERE customer_id = ?)
	`, id, id).Scan(&refs); err != nil {
		return fmt.Errorf("count customer references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("customer %s has %d bills or receipts: %w", id, refs, ErrConflict)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return expectOneRow(result, "delete customer "+id)
}
