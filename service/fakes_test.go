package service_test

import (
	"context"
	"errors"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
)

var errStoreDown = errors.New("store down")

// fakeUserRepo is an in-memory UserRepository that records calls.
type fakeUserRepo struct {
	users  map[int64]models.User
	nextID int64

	saves   []models.User
	finds   []int64
	deletes []int64

	findErr   error
	saveErr   error
	deleteErr error
	existsErr error
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]models.User), nextID: 1}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.finds = append(r.finds, id)
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *models.User) (*models.User, error) {
	r.saves = append(r.saves, *u)
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	saved := *u
	if _, ok := r.users[saved.ID]; !ok {
		saved.ID = r.nextID
		r.nextID++
	}
	r.users[saved.ID] = saved
	return &saved, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.deletes = append(r.deletes, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.users[id]
	return ok, nil
}

// fakeBookRepo is the BookRepository counterpart of fakeUserRepo.
type fakeBookRepo struct {
	books  map[int64]models.Book
	nextID int64

	deletes []int64

	findErr error
	saveErr error
}

func newFakeBookRepo(books ...models.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: make(map[int64]models.Book), nextID: 1}
	for _, b := range books {
		r.books[b.ID] = b
		if b.ID >= r.nextID {
			r.nextID = b.ID + 1
		}
	}
	return r
}

func (r *fakeBookRepo) FindByID(_ context.Context, id int64) (*models.Book, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	b, ok := r.books[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &b, nil
}

func (r *fakeBookRepo) Save(_ context.Context, b *models.Book) (*models.Book, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	saved := *b
	if _, ok := r.books[saved.ID]; !ok {
		saved.ID = r.nextID
		r.nextID++
	}
	r.books[saved.ID] = saved
	return &saved, nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id int64) error {
	r.deletes = append(r.deletes, id)
	if _, ok := r.books[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := r.books[id]
	return ok, nil
}
