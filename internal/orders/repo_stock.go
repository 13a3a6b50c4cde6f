package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockRepo struct{ DB *pgxpool.Pool }

// DecrementAll locks each product row, checks availability and subtracts the
// ordered quantity. Every line is inspected even after a shortage, so the
// report names all short products, but a single shortage rolls the whole
// decrement back.
func (r *StockRepo) DecrementAll(ctx context.Context, orderID string, items []ItemQty) (bool, []StockShortage, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var shortages []StockShortage
	for _, it := range items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			// product vanished since placement
			shortages = append(shortages, StockShortage{ProductID: it.ProductID, Required: it.Qty})
			continue
		}
		if err != nil {
			return false, nil, err
		}
		if stock < it.Qty {
			shortages = append(shortages, StockShortage{ProductID: it.ProductID, Required: it.Qty, Available: stock})
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id=$1`, it.ProductID, it.Qty); err != nil {
			return false, nil, err
		}
	}

	if len(shortages) > 0 {
		return false, shortages, nil // rollback via defer
	}
	return true, nil, tx.Commit(ctx)
}
