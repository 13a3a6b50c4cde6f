package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct{ DB *pgxpool.Pool }

const userCols = `id, name, email, password_hash, COALESCE(street,''), COALESCE(apartment,''),
	COALESCE(city,''), COALESCE(zip,''), COALESCE(country,''), COALESCE(phone,''), is_admin`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Street, &u.Apartment,
		&u.City, &u.Zip, &u.Country, &u.Phone, &u.IsAdmin)
	return u, err
}

func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Get(ctx context.Context, id string) (User, error) {
	if uuid.Validate(id) != nil {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	return u, err
}

func (r *UserRepo) Create(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, name, email, password_hash, street, apartment, city, zip, country, phone, is_admin)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Street, u.Apartment, u.City, u.Zip, u.Country, u.Phone, u.IsAdmin)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Update replaces the profile; the password hash stays untouched when empty.
func (r *UserRepo) Update(ctx context.Context, u User) (User, error) {
	if uuid.Validate(u.ID) != nil {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, u.ID)
	}
	if u.PasswordHash == "" {
		cur, err := r.Get(ctx, u.ID)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = cur.PasswordHash
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET name=$2, email=$3, password_hash=$4, street=$5, apartment=$6,
		       city=$7, zip=$8, country=$9, phone=$10, is_admin=$11
		WHERE id=$1`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Street, u.Apartment, u.City, u.Zip, u.Country, u.Phone, u.IsAdmin)
	if err != nil {
		return User{}, err
	}
	if ct.RowsAffected() == 0 {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, u.ID)
	}
	return u, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
