package library

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) (*LibraryManager, string) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.dat")
	mgr, err := NewLibraryManager(NewFileStore(path, DefaultLimits()), Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr, path
}

func TestManagerSaveAndReload(t *testing.T) {
	mgr, path := newManager(t)
	if err := mgr.AddBook(1, "Dune", "Herbert", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := mgr.IssueBook(1, "Alice"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := NewLibraryManager(NewFileStore(path, DefaultLimits()), Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	b, ok := again.GetBook(1)
	if !ok || b.AvailableCopies != 1 {
		t.Fatalf("want book 1 with 1 available, got %+v (found=%v)", b, ok)
	}
	recs := again.GetBorrowRecords()
	if len(recs) != 1 || recs[0].BorrowerName != "Alice" || recs[0].Returned {
		t.Fatalf("unexpected records %+v", recs)
	}
	if got := again.ActiveLoans(1); got != 1 {
		t.Fatalf("want 1 active loan, got %d", got)
	}
}

func TestManagerRejectsIDsWiderThanDataFile(t *testing.T) {
	mgr, path := newManager(t)
	if err := mgr.AddBook(1, "Dune", "Herbert", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mgr.AddBook(1<<32+1, "Emma", "Austen", 1); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}
	if err := mgr.AddBook(2, "Emma", "Austen", 1<<32+2); !errors.Is(err, ErrInvalidCopies) {
		t.Fatalf("want ErrInvalidCopies, got %v", err)
	}
	if err := mgr.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := NewLibraryManager(NewFileStore(path, DefaultLimits()), Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	books := again.GetAllBooks()
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Fatalf("want only Dune after reload, got %+v", books)
	}
}

func TestManagerRecoversFromDamagedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.dat")
	if err := os.WriteFile(path, []byte{1, 0, 0, 0, 'x'}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	mgr, err := NewLibraryManager(NewFileStore(path, DefaultLimits()), Options{Logger: logger})
	if err != nil {
		t.Fatalf("damaged data must not fail startup: %v", err)
	}
	if n := len(mgr.GetAllBooks()); n != 0 {
		t.Fatalf("want empty catalog, got %d books", n)
	}
	if !strings.Contains(logs.String(), "library data damaged") {
		t.Fatalf("expected a warning, got logs:\n%s", logs.String())
	}
}

func TestManagerAppliesLimits(t *testing.T) {
	mgr, err := NewLibraryManager(
		NewFileStore(filepath.Join(t.TempDir(), "l.dat"), DefaultLimits()),
		Options{MaxBooks: 1, MaxBorrowRecords: 1, Logger: quietLogger()},
	)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	if err := mgr.AddBook(1, "A", "B", 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mgr.AddBook(2, "C", "D", 1); !errors.Is(err, ErrCatalogFull) {
		t.Fatalf("want ErrCatalogFull, got %v", err)
	}
	if _, err := mgr.IssueBook(1, "Ann"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.IssueBook(1, "Ben"); !errors.Is(err, ErrLedgerFull) {
		t.Fatalf("want ErrLedgerFull, got %v", err)
	}
}

type failingStore struct{ loadErr, saveErr error }

func (s failingStore) Load() (*Snapshot, error) { return nil, s.loadErr }
func (s failingStore) Save(*Snapshot) error     { return s.saveErr }
func (s failingStore) Close() error             { return nil }

func TestManagerStorageFailures(t *testing.T) {
	if _, err := NewLibraryManager(failingStore{loadErr: errors.New("disk gone")}, Options{Logger: quietLogger()}); err == nil {
		t.Fatalf("expected load failure")
	}

	mgr, err := NewLibraryManager(failingStore{saveErr: errors.New("disk full")}, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	if err := mgr.Save(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("want save error, got %v", err)
	}
}

func TestManagerSearchBooks(t *testing.T) {
	mgr, _ := newManager(t)
	for i, title := range []string{"The Hobbit", "The Two Towers", "Emma"} {
		if err := mgr.AddBook(i+1, title, "x", 1); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	var got []string
	for b := range mgr.SearchBooks("The") {
		got = append(got, b.Title)
	}
	if len(got) != 2 || got[0] != "The Hobbit" || got[1] != "The Two Towers" {
		t.Fatalf("unexpected search result %v", got)
	}
}
