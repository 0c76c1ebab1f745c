package repo

import (
	"context"
	"fmt"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// UserRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// UserRepository defines the contract for user persistence operations.
type UserRepository interface {
	// FindByID returns db.ErrNotFound when no user has the id.
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// Save inserts u when its id is zero or unknown, and updates it otherwise.
	// The returned user carries the stored id.
	Save(ctx context.Context, u *models.User) (*models.User, error)
	// Delete returns db.ErrNotFound if no row was deleted.
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// userRepo
// ─────────────────────────────────────────────────────────────────────────────

type userRepo struct {
	q db.Querier
}

// NewUserRepo returns a UserRepository backed by q.
// q can be a *db.DB or a *db.Tx.
func NewUserRepo(q db.Querier) UserRepository {
	return &userRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL constants, written with '?' and rebound per dialect
// ─────────────────────────────────────────────────────────────────────────────

const (
	sqlInsertUser = `
		INSERT INTO users (first_name, last_name)
		VALUES (?, ?)`

	sqlFindUserByID = `
		SELECT id, first_name, last_name
		FROM   users
		WHERE  id = ?`

	sqlUpdateUser = `
		UPDATE users
		SET    first_name = ?, last_name = ?
		WHERE  id = ?`

	sqlDeleteUser = `
		DELETE FROM users WHERE id = ?`

	sqlCountUsersByID = `
		SELECT COUNT(*) FROM users WHERE id = ?`
)

// ─────────────────────────────────────────────────────────────────────────────
// FindByID
// ─────────────────────────────────────────────────────────────────────────────

func (r *userRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.q.QueryRow(ctx, r.q.Dialect().Rebind(sqlFindUserByID), id)
	return scanUser(row)
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

// Save persists u. A non-zero id that matches a row overwrites that row; any
// other id is discarded and the store generates a new one. The lookup and the
// write run in one transaction.
func (r *userRepo) Save(ctx context.Context, u *models.User) (*models.User, error) {
	saved := *u
	if saved.ID == 0 {
		id, err := insertUser(ctx, r.q, &saved)
		if err != nil {
			return nil, err
		}
		saved.ID = id
		return &saved, nil
	}

	err := db.RunInTx(ctx, r.q, func(q db.Querier) error {
		exists, err := userExists(ctx, q, saved.ID)
		if err != nil {
			return err
		}
		if exists {
			_, err := q.Exec(ctx, q.Dialect().Rebind(sqlUpdateUser), saved.FirstName, saved.LastName, saved.ID)
			if err != nil {
				return fmt.Errorf("repo/user: update: %w", err)
			}
			return nil
		}
		id, err := insertUser(ctx, q, &saved)
		if err != nil {
			return err
		}
		saved.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func insertUser(ctx context.Context, q db.Querier, u *models.User) (int64, error) {
	id, err := db.InsertID(ctx, q, q.Dialect().Rebind(sqlInsertUser), u.FirstName, u.LastName)
	if err != nil {
		return 0, fmt.Errorf("repo/user: insert: %w", err)
	}
	return id, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, r.q.Dialect().Rebind(sqlDeleteUser), id)
	if err != nil {
		return fmt.Errorf("repo/user: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ExistsByID
// ─────────────────────────────────────────────────────────────────────────────

func (r *userRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return userExists(ctx, r.q, id)
}

func userExists(ctx context.Context, q db.Querier, id int64) (bool, error) {
	var n int64
	if err := q.QueryRow(ctx, q.Dialect().Rebind(sqlCountUsersByID), id).Scan(&n); err != nil {
		return false, fmt.Errorf("repo/user: exists: %w", err)
	}
	return n > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// scanUser
// ─────────────────────────────────────────────────────────────────────────────

func scanUser(row *db.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
		return nil, fmt.Errorf("repo/user: %w", err)
	}
	return u, nil
}

var _ UserRepository = (*userRepo)(nil)
