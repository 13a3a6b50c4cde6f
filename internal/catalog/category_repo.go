package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepo struct{ DB *pgxpool.Pool }

const categoryCols = `id, name, COALESCE(icon,''), COALESCE(color,''), COALESCE(image,'')`

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+categoryCols+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Image); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (Category, error) {
	if uuid.Validate(id) != nil {
		return Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	var c Category
	err := r.DB.QueryRow(ctx, `SELECT `+categoryCols+` FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c Category) (Category, error) {
	c.ID = uuid.NewString()
	_, err := r.DB.Exec(ctx, `INSERT INTO categories(id, name, icon, color, image) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Name, c.Icon, c.Color, c.Image)
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c Category) (Category, error) {
	if uuid.Validate(c.ID) != nil {
		return Category{}, fmt.Errorf("%w: category %s", ErrNotFound, c.ID)
	}
	ct, err := r.DB.Exec(ctx, `UPDATE categories SET name=$2, icon=$3, color=$4, image=$5 WHERE id=$1`,
		c.ID, c.Name, c.Icon, c.Color, c.Image)
	if err != nil {
		return Category{}, err
	}
	if ct.RowsAffected() == 0 {
		return Category{}, fmt.Errorf("%w: category %s", ErrNotFound, c.ID)
	}
	return c, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return nil
}
