package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Skryldev/restfull-books/models"
)

type handler struct {
	books  BookService
	users  UserService
	pinger Pinger
	logger *slog.Logger
}

// ─────────────────────────────────────────────────────────────────────────────
// Books
// ─────────────────────────────────────────────────────────────────────────────

func (h *handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	b, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) createBook(w http.ResponseWriter, r *http.Request) {
	var b models.Book
	if err := decodeJSON(r.Body, &b); err != nil {
		h.badRequest(w, "Malformed JSON request: "+err.Error())
		return
	}
	b.ID = 0

	saved, err := h.books.Save(r.Context(), &b)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.books.DeleteByID(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

// userPayload distinguishes an absent or null name from an empty one.
type userPayload struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// validate returns the client message for a payload with a missing name, or
// "" when both are present.
func (p userPayload) validate() string {
	var missing []string
	if p.FirstName == nil {
		missing = append(missing, "firstName must not be null")
	}
	if p.LastName == nil {
		missing = append(missing, "lastName must not be null")
	}
	if len(missing) == 0 {
		return ""
	}
	return "Validation failed: " + strings.Join(missing, ", ")
}

func (p userPayload) user(id int64) *models.User {
	return &models.User{ID: id, FirstName: *p.FirstName, LastName: *p.LastName}
}

func (h *handler) decodeUser(w http.ResponseWriter, r *http.Request) (userPayload, bool) {
	var p userPayload
	if err := decodeJSON(r.Body, &p); err != nil {
		h.badRequest(w, "Malformed JSON request: "+err.Error())
		return p, false
	}
	if msg := p.validate(); msg != "" {
		h.badRequest(w, msg)
		return p, false
	}
	return p, true
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	saved, err := h.users.Save(r.Context(), p.user(0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// replaceUser takes the id from the path; an id in the body is ignored.
func (h *handler) replaceUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	u, err := h.users.Replace(r.Context(), p.user(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) mergeUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	updates, err := decodeFieldUpdates(r.Body)
	if err != nil {
		h.badRequest(w, "Malformed JSON request: "+err.Error())
		return
	}
	u, err := h.users.MergePartial(r.Context(), id, updates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.users.DeleteByID(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

type healthBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, healthBody{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthBody{OK: true})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// pathID parses {id}. The route pattern guarantees digits, so only overflow
// can fail here.
func (h *handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.badRequest(w, "Invalid id: "+raw)
		return 0, false
	}
	return id, true
}

func (h *handler) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.Int("status", status),
			slog.Any("error", err),
			slog.String("request_id", GetRequestID(r.Context())),
		)
	}
	writeJSON(w, status, errorBody{Error: messageFor(err)})
}
