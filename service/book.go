package service

import (
	"context"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
	"github.com/Skryldev/restfull-books/repo"
)

const msgBookNotFound = "Book not found"

// BookService is pass-through CRUD over a BookRepository. It keeps no state
// between calls.
type BookService struct {
	repo repo.BookRepository
}

func NewBookService(r repo.BookRepository) *BookService {
	return &BookService{repo: r}
}

// Save inserts or updates b and returns the stored book.
func (s *BookService) Save(ctx context.Context, b *models.Book) (*models.Book, error) {
	saved, err := s.repo.Save(ctx, b)
	if err != nil {
		return nil, Internal("", err)
	}
	return saved, nil
}

func (s *BookService) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgBookNotFound)
	case err != nil:
		return nil, Internal("", err)
	}
	return b, nil
}

// DeleteByID removes the book and returns it as it was before deletion.
func (s *BookService) DeleteByID(ctx context.Context, id int64) (*models.Book, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.repo.Delete(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgBookNotFound)
	case err != nil:
		return nil, Internal("", err)
	}
	return b, nil
}
