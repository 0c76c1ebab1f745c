package repo

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
)

// BookRepository defines the contract for book persistence operations. The
// semantics match UserRepository.
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	Save(ctx context.Context, b *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

const tableBooks = "books"

// bookRepo builds its statements with goqu for the dialect of whichever
// Querier it runs on, and maps rows with sqlx.
type bookRepo struct {
	q db.Querier
}

// NewBookRepo returns a BookRepository backed by q.
func NewBookRepo(q db.Querier) BookRepository {
	return &bookRepo{q: q}
}

func builder(q db.Querier) goqu.DialectWrapper {
	return goqu.Dialect(q.Dialect().Name)
}

func (r *bookRepo) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	query, args, err := builder(r.q).
		From(tableBooks).
		Select("id", "title", "author").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("repo/book: build select: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/book: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	if err := sqlx.StructScan(rows, &books); err != nil {
		return nil, fmt.Errorf("repo/book: scan: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("repo/book: %w", db.ErrNotFound)
	}
	return &books[0], nil
}

// Save follows the same insert-or-update rules as userRepo.Save.
func (r *bookRepo) Save(ctx context.Context, b *models.Book) (*models.Book, error) {
	saved := *b
	if saved.ID == 0 {
		id, err := insertBook(ctx, r.q, &saved)
		if err != nil {
			return nil, err
		}
		saved.ID = id
		return &saved, nil
	}

	err := db.RunInTx(ctx, r.q, func(q db.Querier) error {
		exists, err := bookExists(ctx, q, saved.ID)
		if err != nil {
			return err
		}
		if exists {
			return updateBook(ctx, q, &saved)
		}
		id, err := insertBook(ctx, q, &saved)
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

func insertBook(ctx context.Context, q db.Querier, b *models.Book) (int64, error) {
	query, args, err := builder(q).
		Insert(tableBooks).
		Rows(goqu.Record{"title": b.Title, "author": b.Author}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("repo/book: build insert: %w", err)
	}
	id, err := db.InsertID(ctx, q, query, args...)
	if err != nil {
		return 0, fmt.Errorf("repo/book: insert: %w", err)
	}
	return id, nil
}

func updateBook(ctx context.Context, q db.Querier, b *models.Book) error {
	query, args, err := builder(q).
		Update(tableBooks).
		Set(goqu.Record{"title": b.Title, "author": b.Author}).
		Where(goqu.C("id").Eq(b.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("repo/book: build update: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("repo/book: update: %w", err)
	}
	return nil
}

func (r *bookRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := builder(r.q).
		Delete(tableBooks).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("repo/book: build delete: %w", err)
	}
	res, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repo/book: delete: %w", err)
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

func (r *bookRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return bookExists(ctx, r.q, id)
}

func bookExists(ctx context.Context, q db.Querier, id int64) (bool, error) {
	query, args, err := builder(q).
		From(tableBooks).
		Select(goqu.COUNT("*")).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("repo/book: build exists: %w", err)
	}
	var n int64
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("repo/book: exists: %w", err)
	}
	return n > 0, nil
}

var _ BookRepository = (*bookRepo)(nil)
