package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type Repo struct{ DB *pgxpool.Pool }

// Place validates the request, prices every line against the products table
// and persists the order together with its items in one transaction. Nothing
// is written until every reference has resolved, so a failed placement leaves
// no orphaned items behind.
func (r *Repo) Place(ctx context.Context, req PlaceRequest) (Order, []Item, error) {
	if err := req.Validate(); err != nil {
		return Order{}, nil, err
	}
	status := req.Status
	if status == "" {
		status = DefaultStatus
	}

	if err := r.checkUser(ctx, req.UserID); err != nil {
		return Order{}, nil, err
	}
	prices, err := r.resolvePrices(ctx, req.Items)
	if err != nil {
		return Order{}, nil, err
	}
	total := TotalCents(req.Items, prices)

	order := Order{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Status:     status,
		TotalCents: total,
		Shipping:   req.Shipping,
		OrderedAt:  time.Now().UTC(),
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents,
		                   shipping_address1, shipping_address2, city, zip, country, phone,
		                   ordered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		order.ID, order.UserID, string(order.Status), order.TotalCents,
		order.Shipping.Address1, order.Shipping.Address2, order.Shipping.City,
		order.Shipping.Zip, order.Shipping.Country, order.Shipping.Phone,
		order.OrderedAt,
	)
	if err != nil {
		return Order{}, nil, err
	}

	items := make([]Item, 0, len(req.Items))
	for i, it := range req.Items {
		item := Item{
			ID:         uuid.NewString(),
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PriceCents: prices[i],
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, position, product_id, qty, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, order.ID, i, item.ProductID, item.Qty, item.PriceCents,
		)
		if err != nil {
			return Order{}, nil, err
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, err
	}
	return order, items, nil
}

func (r *Repo) checkUser(ctx context.Context, userID string) error {
	if uuid.Validate(userID) != nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// resolvePrices looks up the current unit price for every line. The lookups
// are independent, so they fan out; results land at the caller's index, which
// keeps the original line order.
func (r *Repo) resolvePrices(ctx context.Context, items []LineInput) ([]int64, error) {
	prices := make([]int64, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			if uuid.Validate(it.ProductID) != nil {
				return fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
			}
			err := r.DB.QueryRow(ctx, `SELECT price_cents FROM products WHERE id=$1`, it.ProductID).Scan(&prices[i])
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

// Get returns one order with the placing user's name and each item expanded
// with its product name and that product's category.
func (r *Repo) Get(ctx context.Context, orderID string) (Detail, error) {
	if uuid.Validate(orderID) != nil {
		return Detail{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	var d Detail
	err := r.DB.QueryRow(ctx, `
		SELECT o.id, o.user_id, u.name, o.status, o.total_cents,
		       o.shipping_address1, o.shipping_address2, o.city, o.zip, o.country, o.phone,
		       o.ordered_at
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`, orderID,
	).Scan(&d.ID, &d.UserID, &d.UserName, &d.Status, &d.TotalCents,
		&d.Shipping.Address1, &d.Shipping.Address2, &d.Shipping.City,
		&d.Shipping.Zip, &d.Shipping.Country, &d.Shipping.Phone, &d.OrderedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return Detail{}, err
	}
	d.Items, err = r.expandItems(ctx, d.ID)
	if err != nil {
		return Detail{}, err
	}
	return d, nil
}

func (r *Repo) expandItems(ctx context.Context, orderID string) ([]ExpandedItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.product_id, oi.qty, oi.price_cents, p.name, COALESCE(c.name, '')
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ExpandedItem{}
	for rows.Next() {
		var it ExpandedItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Qty, &it.PriceCents,
			&it.ProductName, &it.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns every order joined with the placing user's name, newest first.
func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, u.name, o.status, o.total_cents,
		       o.shipping_address1, o.shipping_address2, o.city, o.zip, o.country, o.phone,
		       o.ordered_at
		FROM orders o JOIN users u ON u.id = o.user_id
		ORDER BY o.ordered_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.Status, &o.TotalCents,
			&o.Shipping.Address1, &o.Shipping.Address2, &o.Shipping.City,
			&o.Shipping.Zip, &o.Shipping.Country, &o.Shipping.Phone, &o.OrderedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListForUser returns the user's order history, newest first, items expanded.
func (r *Repo) ListForUser(ctx context.Context, userID string) ([]Detail, error) {
	if uuid.Validate(userID) != nil {
		return []Detail{}, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, u.name, o.status, o.total_cents,
		       o.shipping_address1, o.shipping_address2, o.city, o.zip, o.country, o.phone,
		       o.ordered_at
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.ordered_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Detail{}
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserName, &d.Status, &d.TotalCents,
			&d.Shipping.Address1, &d.Shipping.Address2, &d.Shipping.City,
			&d.Shipping.Zip, &d.Shipping.Country, &d.Shipping.Phone, &d.OrderedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.expandItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus replaces only the status field, enforcing the transition table.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) (Status, error) {
	if !Known(to) {
		return "", fmt.Errorf("%w: %q", ErrBadStatus, to)
	}
	if uuid.Validate(orderID) != nil {
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return "", err
	}
	if !CanTransition(old, to) {
		return "", fmt.Errorf("%w: %s -> %s", ErrBadStatus, old, to)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(to)); err != nil {
		return "", err
	}
	return old, tx.Commit(ctx)
}

// Delete removes the order and every item it owns in one transaction: either
// the whole cascade lands or none of it does.
func (r *Repo) Delete(ctx context.Context, orderID string) (int, error) {
	if uuid.Validate(orderID) != nil {
		return 0, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// TotalSales sums total_cents over all orders; an empty store sums to zero.
func (r *Repo) TotalSales(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(total_cents), 0) FROM orders`).Scan(&total)
	return total, err
}

// Count reports the number of orders; zero is a valid result, not an error.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}
