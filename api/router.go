// Package api is the HTTP boundary of the service: routing, request decoding
// and the translation of service errors into responses.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Skryldev/restfull-books/models"
	"github.com/Skryldev/restfull-books/service"
)

// BookService is the part of service.BookService the handlers use.
type BookService interface {
	Save(ctx context.Context, b *models.Book) (*models.Book, error)
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	DeleteByID(ctx context.Context, id int64) (*models.Book, error)
}

// UserService is the part of service.UserService the handlers use.
type UserService interface {
	Save(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	DeleteByID(ctx context.Context, id int64) (*models.User, error)
	Replace(ctx context.Context, u *models.User) (*models.User, error)
	MergePartial(ctx context.Context, id int64, updates []service.FieldUpdate) (*models.User, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ BookService = (*service.BookService)(nil)
	_ UserService = (*service.UserService)(nil)
)

const idPattern = "{id:[0-9]+}"

// NewRouter wires every route. A nil logger means slog.Default().
func NewRouter(books BookService, users UserService, pinger Pinger, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{books: books, users: users, pinger: pinger, logger: logger}

	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))

	r.HandleFunc("/books/new", h.createBook).Methods(http.MethodPost)
	r.HandleFunc("/books/"+idPattern, h.getBook).Methods(http.MethodGet)
	r.HandleFunc("/books/"+idPattern, h.deleteBook).Methods(http.MethodDelete)

	r.HandleFunc("/users/new", h.createUser).Methods(http.MethodPost)
	r.HandleFunc("/users/"+idPattern, h.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/"+idPattern, h.replaceUser).Methods(http.MethodPut)
	r.HandleFunc("/users/"+idPattern, h.mergeUser).Methods(http.MethodPatch)
	r.HandleFunc("/users/"+idPattern, h.deleteUser).Methods(http.MethodDelete)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "No route for " + req.URL.Path})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method " + req.Method + " not allowed"})
	})
	return r
}
