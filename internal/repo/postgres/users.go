package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/observability"
)

var (
	ErrUserNotFound = user.ErrNotFound
	ErrEmailTaken   = errors.New("email already in use")
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string, role user.Role) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+userColumns,
			name, email, passwordHash, role,
		))
		return scanErr
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE lower(email) = lower($1)`,
			email,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	output := make([]user.User, 0, limit)
	total := 0

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+`,
				COUNT(*) OVER() AS total
			 FROM users
			 ORDER BY id ASC
			 LIMIT $1 OFFSET $2`,
			limit, offset,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var u user.User
			var t int

			err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			output = append(output, u)
		}

		if err := rows.Err(); err != nil {
			return err
		}

		rows.Close()

		// The window count is only present on returned rows; an offset
		// past the last row yields none, so fall back to a plain count.
		if len(output) == 0 {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		}

		return nil
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// Update applies a partial update; nil fields keep their current value.
func (r *UsersRepo) Update(ctx context.Context, id int64, req user.UpdateUserRequest) (user.User, error) {
	var u user.User

	err := r.observe("users.update", func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
				SET name = COALESCE($2, name),
					email = COALESCE($3, email),
					role = COALESCE($4, role),
					updated_at = now()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id, req.Name, req.Email, req.Role,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		if isUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// Delete removes the row and returns the deleted record.
func (r *UsersRepo) Delete(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.delete", func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`DELETE FROM users WHERE id = $1 RETURNING `+userColumns,
			id,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}
