package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
	"github.com/Skryldev/restfull-books/repo"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

// newTestDB opens a migrated SQLite file in a temp dir. A file is used rather
// than ":memory:" because every pooled connection to ":memory:" gets its own
// empty database.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg := db.Config{
		DSN:          filepath.Join(t.TempDir(), "repo.db"),
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
	}

	m, err := db.NewMigrator(cfg, nil)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("migrator close: %v", err)
	}

	database, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newUserRepo(t *testing.T) (repo.UserRepository, *db.DB) {
	t.Helper()
	database := newTestDB(t)
	return repo.NewUserRepo(database), database
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_Save_Insert(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	in := &models.User{FirstName: "Ada", LastName: "Lovelace"}
	u, err := r.Save(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if in.ID != 0 {
		t.Fatal("Save must not mutate its argument")
	}

	fetched, err := r.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if *fetched != *u {
		t.Fatalf("round trip mismatch: got %+v, want %+v", *fetched, *u)
	}
}

func TestUserRepo_Save_UpdatesExisting(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	u, _ := r.Save(ctx, &models.User{FirstName: "Old", LastName: "Name"})

	updated, err := r.Save(ctx, &models.User{ID: u.ID, FirstName: "New", LastName: "Name"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != u.ID {
		t.Fatalf("id changed on update: %d -> %d", u.ID, updated.ID)
	}

	fetched, _ := r.FindByID(ctx, u.ID)
	if fetched.FirstName != "New" || fetched.LastName != "Name" {
		t.Fatalf("unexpected row after update: %+v", *fetched)
	}
}

func TestUserRepo_Save_UnchangedValues(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	u, _ := r.Save(ctx, &models.User{FirstName: "Same", LastName: "Same"})

	again, err := r.Save(ctx, u)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("saving an unchanged user must keep its id, got %d want %d", again.ID, u.ID)
	}
}

func TestUserRepo_Save_UnknownIDInserts(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	u, err := r.Save(ctx, &models.User{ID: 4242, FirstName: "Ghost", LastName: "User"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if u.ID == 4242 {
		t.Fatal("an unknown id must be replaced by a generated one")
	}
	if ok, _ := r.ExistsByID(ctx, 4242); ok {
		t.Fatal("row 4242 must not exist")
	}
}

func TestUserRepo_Save_NotNull(t *testing.T) {
	database := newTestDB(t)

	// The column constraint is the last line of defence; the HTTP layer
	// rejects missing names before they get here.
	_, err := database.Exec(context.Background(),
		`INSERT INTO users (first_name, last_name) VALUES (?, NULL)`, "Only")
	if !db.IsCheckViolation(err) {
		t.Fatalf("expected ErrCheckViolation, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// FindByID / ExistsByID
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_FindByID_NotFound(t *testing.T) {
	r, _ := newUserRepo(t)
	_, err := r.FindByID(context.Background(), 99999)
	if !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepo_ExistsByID(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	u, _ := r.Save(ctx, &models.User{FirstName: "Here", LastName: "I am"})

	ok, err := r.ExistsByID(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("expected user %d to exist (%v)", u.ID, err)
	}
	ok, err = r.ExistsByID(ctx, u.ID+1)
	if err != nil || ok {
		t.Fatalf("expected user %d to be absent (%v)", u.ID+1, err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_Delete(t *testing.T) {
	r, _ := newUserRepo(t)
	ctx := context.Background()

	u, _ := r.Save(ctx, &models.User{FirstName: "Del", LastName: "Me"})

	if err := r.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := r.FindByID(ctx, u.ID)
	if !db.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestUserRepo_Delete_NotFound(t *testing.T) {
	r, _ := newUserRepo(t)
	err := r.Delete(context.Background(), 99999)
	if !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction: repo inside tx
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_InsideTransaction(t *testing.T) {
	_, database := newUserRepo(t)
	ctx := context.Background()

	var createdID int64
	err := database.ExecTx(ctx, func(tx *db.Tx) error {
		txRepo := repo.NewUserRepo(tx)
		u, err := txRepo.Save(ctx, &models.User{FirstName: "Tx", LastName: "User"})
		if err != nil {
			return err
		}
		createdID = u.ID

		// Save with an id nests inside the outer transaction.
		_, err = txRepo.Save(ctx, &models.User{ID: u.ID, FirstName: "Tx", LastName: "Renamed"})
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	u, err := repo.NewUserRepo(database).FindByID(ctx, createdID)
	if err != nil {
		t.Fatalf("post-tx find: %v", err)
	}
	if u.LastName != "Renamed" {
		t.Fatalf("unexpected last name: %q", u.LastName)
	}
}
