package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,name,price_cents FROM products WHERE id=?`, id)
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.PriceCents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT size,stock FROM product_sizes WHERE product_id=? ORDER BY size`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ss domain.SizeStock
		if err := rows.Scan(&ss.Size, &ss.Stock); err != nil {
			return nil, err
		}
		p.Sizes = append(p.Sizes, ss)
	}
	return &p, rows.Err()
}

// DecrementStock subtracts conditionally so stock can never go negative, even
// under concurrent confirmations of overlapping orders.
func (r *MySQLProductRepo) DecrementStock(ctx context.Context, productID, size string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE product_sizes SET stock = stock - ?
WHERE product_id=? AND size=? AND stock >= ?`,
		qty, productID, size, qty)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("decrement %s size %s by %d: %w", productID, size, qty, domain.ErrInsufficientStock)
	}
	return nil
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
