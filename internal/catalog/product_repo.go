package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productCols = `p.id, p.name, p.description, p.rich_description, p.image, p.brand,
	p.price_cents, COALESCE(p.category_id::text, ''), p.stock, p.rating, p.num_reviews, p.is_featured,
	p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.RichDescription, &p.Image, &p.Brand,
		&p.PriceCents, &p.CategoryID, &p.Stock, &p.Rating, &p.NumReviews, &p.IsFeatured,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns products, optionally limited to a set of category ids.
func (r *ProductRepo) List(ctx context.Context, categoryIDs []string) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products p ORDER BY p.name`
	args := []any{}
	if len(categoryIDs) > 0 {
		q = `SELECT ` + productCols + ` FROM products p WHERE p.category_id::text = ANY($1) ORDER BY p.name`
		args = append(args, categoryIDs)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one product with its category populated.
func (r *ProductRepo) Get(ctx context.Context, id string) (Product, error) {
	if uuid.Validate(id) != nil {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products p WHERE p.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	if p.CategoryID != "" {
		var c Category
		err := r.DB.QueryRow(ctx, `SELECT id, name, COALESCE(icon,''), COALESCE(color,''), COALESCE(image,'')
			FROM categories WHERE id=$1`, p.CategoryID).
			Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Image)
		if err == nil {
			p.Category = &c
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return Product{}, err
		}
	}
	return p, nil
}

func (r *ProductRepo) categoryExists(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

// Create inserts a product; its category reference must resolve.
func (r *ProductRepo) Create(ctx context.Context, p Product) (Product, error) {
	ok, err := r.categoryExists(ctx, p.CategoryID)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, fmt.Errorf("%w: category %s", ErrNotFound, p.CategoryID)
	}
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err = r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, rich_description, image, brand,
		                     price_cents, category_id, stock, rating, num_reviews, is_featured,
		                     created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, p.Brand,
		p.PriceCents, p.CategoryID, p.Stock, p.Rating, p.NumReviews, p.IsFeatured,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, p Product) (Product, error) {
	if uuid.Validate(p.ID) != nil {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, p.ID)
	}
	ok, err := r.categoryExists(ctx, p.CategoryID)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, fmt.Errorf("%w: category %s", ErrNotFound, p.CategoryID)
	}
	p.UpdatedAt = time.Now().UTC()
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, rich_description=$4, image=$5, brand=$6,
		       price_cents=$7, category_id=$8, stock=$9, rating=$10, num_reviews=$11,
		       is_featured=$12, updated_at=$13
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, p.Brand,
		p.PriceCents, p.CategoryID, p.Stock, p.Rating, p.NumReviews, p.IsFeatured, p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() == 0 {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, p.ID)
	}
	return r.Get(ctx, p.ID)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return nil
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

// Featured returns featured products, at most limit when limit > 0.
func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products p WHERE p.is_featured ORDER BY p.name`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
