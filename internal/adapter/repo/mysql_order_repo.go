package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/usecase"
)

var ErrNotFound = errors.New("not found")

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id,order_number,customer_name,customer_email,customer_phone,customer_zip,
	shipping_cents,total_cents,status,payment_status,payment_method,
	ship_street,ship_city,ship_state,ship_zip,ship_country,customer_notes,
	archived,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,NOW(),NOW())
`, o.ID, o.OrderNumber, o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.ZipCode,
		o.ShippingCents, o.TotalCents, o.Status, o.PaymentStatus, o.PaymentMethod,
		addrField(o.ShippingAddress, func(a *domain.ShippingAddress) string { return a.Street }),
		addrField(o.ShippingAddress, func(a *domain.ShippingAddress) string { return a.City }),
		addrField(o.ShippingAddress, func(a *domain.ShippingAddress) string { return a.State }),
		addrField(o.ShippingAddress, func(a *domain.ShippingAddress) string { return a.ZipCode }),
		addrField(o.ShippingAddress, func(a *domain.ShippingAddress) string { return a.Country }),
		o.CustomerNotes)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO order_items (order_id,product_id,product_name,size,quantity,unit_price_cents,subtotal_cents)
VALUES (?,?,?,?,?,?,?)
`, o.ID, it.ProductID, it.ProductName, it.Size, it.Quantity, it.UnitPriceCents, it.SubtotalCents)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `id,order_number,customer_name,customer_email,customer_phone,customer_zip,
	shipping_cents,total_cents,status,payment_status,payment_method,
	COALESCE(checkout_ref,''),COALESCE(payment_ref,''),
	ship_street,ship_city,ship_state,ship_zip,ship_country,COALESCE(customer_notes,''),
	archived,COALESCE(archive_reason,''),
	created_at,updated_at,status_changed_at,paid_at,shipped_at,delivered_at,cancelled_at,archived_at`

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	return r.scanOne(ctx, row)
}

func (r *MySQLOrderRepo) GetByCheckoutRef(ctx context.Context, provider, ref string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_method=? AND checkout_ref=?`, provider, ref)
	return r.scanOne(ctx, row)
}

func (r *MySQLOrderRepo) List(ctx context.Context, f usecase.OrderFilter) ([]domain.Order, int, error) {
	where := []string{"archived=?"}
	args := []any{f.Archived}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.PaymentMethod != "" {
		where = append(where, "payment_method=?")
		args = append(args, f.PaymentMethod)
	}
	if f.PaymentStatus != "" {
		where = append(where, "payment_status=?")
		args = append(args, f.PaymentStatus)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		items, err := r.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

// AttachCheckoutRef: first checkout-creation call wins; a later call against
// an already-linked order changes nothing.
func (r *MySQLOrderRepo) AttachCheckoutRef(ctx context.Context, id, provider, ref string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE orders SET checkout_ref=?, payment_method=?, updated_at=NOW()
WHERE id=? AND (checkout_ref IS NULL OR checkout_ref='')`,
		ref, provider, id)
	return err
}

// ApprovePaymentIf is the atomic conditional update closing the
// concurrent-delivery race: two deliveries may both reach here, but only one
// sees rows>0, and only that one decrements stock.
func (r *MySQLOrderRepo) ApprovePaymentIf(ctx context.Context, id, paymentRef string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET payment_status=?, status=?, payment_ref=?, paid_at=NOW(), status_changed_at=NOW(), updated_at=NOW()
WHERE id=? AND payment_status <> ?`,
		domain.PaymentApproved, domain.StatusConfirmed, paymentRef, id, domain.PaymentApproved)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0 → already approved (or the order vanished)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id string, to domain.Status) error {
	// Per-status timestamps stamp on first transition only.
	extra := ""
	switch to {
	case domain.StatusShipped:
		extra = ", shipped_at=COALESCE(shipped_at, NOW())"
	case domain.StatusDelivered:
		extra = ", delivered_at=COALESCE(delivered_at, NOW())"
	case domain.StatusCancelled:
		extra = ", cancelled_at=COALESCE(cancelled_at, NOW())"
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status=?, status_changed_at=NOW(), updated_at=NOW()`+extra+`
WHERE id=?`, to, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLOrderRepo) UpdateShipping(ctx context.Context, id string, email, zipCode string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET customer_email = IF(?='', customer_email, ?),
    ship_zip       = IF(?='', ship_zip, ?),
    updated_at     = NOW()
WHERE id=?`,
		email, email, zipCode, zipCode, id)
	return err
}

func (r *MySQLOrderRepo) SetArchived(ctx context.Context, id string, archived bool, reason string) error {
	var res sql.Result
	var err error
	if archived {
		res, err = r.db.ExecContext(ctx, `
UPDATE orders SET archived=1, archive_reason=?, archived_at=COALESCE(archived_at, NOW()), updated_at=NOW()
WHERE id=?`, reason, id)
	} else {
		res, err = r.db.ExecContext(ctx, `
UPDATE orders SET archived=0, archive_reason='', updated_at=NOW()
WHERE id=?`, id)
	}
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLOrderRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var addr domain.ShippingAddress
	var statusChanged, paid, shipped, delivered, cancelled, archivedAt sql.NullTime
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.ZipCode,
		&o.ShippingCents, &o.TotalCents, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.CheckoutRef, &o.PaymentRef,
		&addr.Street, &addr.City, &addr.State, &addr.ZipCode, &addr.Country, &o.CustomerNotes,
		&o.Archived, &o.ArchiveReason,
		&o.CreatedAt, &o.UpdatedAt, &statusChanged, &paid, &shipped, &delivered, &cancelled, &archivedAt)
	if err != nil {
		return nil, err
	}
	if addr != (domain.ShippingAddress{}) {
		o.ShippingAddress = &addr
	}
	o.StatusChangedAt = nullTime(statusChanged)
	o.PaidAt = nullTime(paid)
	o.ShippedAt = nullTime(shipped)
	o.DeliveredAt = nullTime(delivered)
	o.CancelledAt = nullTime(cancelled)
	o.ArchivedAt = nullTime(archivedAt)
	return &o, nil
}

func (r *MySQLOrderRepo) scanOne(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return o, nil
}

func (r *MySQLOrderRepo) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id,product_name,size,quantity,unit_price_cents,subtotal_cents
FROM order_items WHERE order_id=? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Size, &it.Quantity, &it.UnitPriceCents, &it.SubtotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func addrField(a *domain.ShippingAddress, get func(*domain.ShippingAddress) string) string {
	if a == nil {
		return ""
	}
	return get(a)
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
