package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"obra/internal/auth"
	"obra/internal/core"
	"obra/internal/log"
)

// ErrInvalidCredentials is returned by Authenticate for a wrong password or
// unknown email, without saying which.
var ErrInvalidCredentials = errors.New("invalid credentials")

type userRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Active       bool   `db:"active"`
}

func (r userRow) toUser() core.User {
	return core.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
	}
}

// Users is the user repository. Users exist as a hook for future
// authorization; no core operation depends on them.
type Users struct {
	s      *Store
	logger *log.Logger
}

func NewUsers(s *Store, logger *log.Logger) *Users {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Users{s: s, logger: logger.WithComponent(log.ComponentAuth)}
}

var userColumns = []string{"id", "name", "email", "password_hash", "active"}

// Create stores a new active user with an Argon2id password hash.
func (r *Users) Create(ctx context.Context, name, email, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return core.User{}, core.Invalid("name", core.ReasonEmptyField)
	}
	if email == "" {
		return core.User{}, core.Invalid("email", core.ReasonEmptyField)
	}
	if password == "" {
		return core.User{}, core.Invalid("password", core.ReasonEmptyField)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, wrapStorage("hash password", err)
	}

	u := core.User{Name: name, Email: email, PasswordHash: hash, Active: true}
	err = r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.s.Dialect.Builder().
			Select("1").
			From("users").
			Where(squirrel.Eq{"email": email}).
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}
		var one int
		err = tx.GetContext(ctx, &one, query, args...)
		if err == nil {
			return core.Invalid("email", "duplicate")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		ib := r.s.Dialect.Builder().
			Insert("users").
			Columns("name", "email", "password_hash", "active").
			Values(u.Name, u.Email, u.PasswordHash, true)
		id, err := r.s.Dialect.InsertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		u.ID = id
		return nil
	})
	if err != nil {
		return core.User{}, wrapStorage("create user", err)
	}

	r.logger.InfoContext(ctx, "User created", "user_id", u.ID)
	return u, nil
}

// GetByEmail returns a user by email.
func (r *Users) GetByEmail(ctx context.Context, email string) (core.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	query, args, err := r.s.Dialect.Builder().
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return core.User{}, wrapStorage("build user query", err)
	}

	var row userRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, &core.NotFoundError{Entity: "user"}
		}
		return core.User{}, wrapStorage("get user", err)
	}
	return row.toUser(), nil
}

// Authenticate checks an email and password pair against the stored hash.
func (r *Users) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, err
	}
	if !u.Active {
		return core.User{}, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return core.User{}, wrapStorage("verify password", err)
	}
	if !ok {
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}
