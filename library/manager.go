package library

import (
	"fmt"
	"iter"
	"log/slog"
)

// Options tune a LibraryManager.
type Options struct {
	MaxBooks         int // 0 means unbounded
	MaxBorrowRecords int // 0 means unbounded
	Logger           *slog.Logger
}

// LibraryManager is a thin façade over the catalog, the ledger and the store,
// keeping CLI code simple.
type LibraryManager struct {
	store   Store
	catalog *Catalog
	ledger  *Ledger
	log     *slog.Logger
}

// NewLibraryManager loads the library from store. Damaged data is logged and
// replaced by empty collections; only hard storage failures are returned.
func NewLibraryManager(store Store, opts Options) (*LibraryManager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := NewCatalog(opts.MaxBooks)
	lm := &LibraryManager{
		store:   store,
		catalog: catalog,
		ledger:  NewLedger(catalog, opts.MaxBorrowRecords),
		log:     logger,
	}
	if err := lm.load(); err != nil {
		return nil, err
	}
	return lm, nil
}

func (lm *LibraryManager) load() error {
	snap, err := lm.store.Load()
	switch {
	case err == nil:
	case Recovered(err):
		lm.log.Warn("library data damaged, affected records skipped", "error", err)
	default:
		return fmt.Errorf("load library: %w", err)
	}
	if snap == nil {
		snap = &Snapshot{}
	}

	lm.catalog.restore(snap.Books)
	lm.ledger.restore(snap.Records)
	if len(snap.Books) == 0 && len(snap.Records) == 0 {
		lm.log.Info("no existing data found, starting new library")
		return nil
	}
	lm.log.Info("library loaded", "books", len(snap.Books), "borrow_records", len(snap.Records))
	return nil
}

// Save flushes the current state to the store.
func (lm *LibraryManager) Save() error {
	snap := lm.Snapshot()
	if err := lm.store.Save(snap); err != nil {
		lm.log.Error("save failed", "error", err)
		return fmt.Errorf("save library: %w", err)
	}
	lm.log.Info("library saved", "books", len(snap.Books), "borrow_records", len(snap.Records))
	return nil
}

// Snapshot copies the current state.
func (lm *LibraryManager) Snapshot() *Snapshot {
	return &Snapshot{Books: lm.catalog.ListAll(), Records: lm.ledger.ListAll()}
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(id int, title, author string, copies int) error {
	if err := lm.catalog.AddBook(id, title, author, copies); err != nil {
		return err
	}
	lm.log.Info("book added", "book_id", id, "title", title, "copies", copies)
	return nil
}

func (lm *LibraryManager) GetBook(id int) (Book, bool) {
	return lm.catalog.FindByID(id)
}

func (lm *LibraryManager) GetAllBooks() []Book {
	return lm.catalog.ListAll()
}

// SearchBooks yields books whose title contains fragment.
func (lm *LibraryManager) SearchBooks(fragment string) iter.Seq[Book] {
	return lm.catalog.FindByTitle(fragment)
}

// ------------------ Circulation ------------------

// IssueBook lends a copy and records who has it.
func (lm *LibraryManager) IssueBook(bookID int, borrower string) (IssueReceipt, error) {
	receipt, err := lm.ledger.Issue(bookID, borrower)
	if err != nil {
		lm.log.Debug("issue rejected", "book_id", bookID, "borrower", borrower, "error", err)
		return receipt, err
	}
	lm.log.Info("book issued",
		"book_id", bookID,
		"borrower", borrower,
		"record_id", receipt.RecordID,
		"available", receipt.AvailableCopies)
	return receipt, nil
}

// ReturnBook closes the borrower's loan and yields the book's available count.
func (lm *LibraryManager) ReturnBook(bookID int, borrower string) (int, error) {
	available, err := lm.ledger.Return(bookID, borrower)
	if err != nil {
		lm.log.Debug("return rejected", "book_id", bookID, "borrower", borrower, "error", err)
		return 0, err
	}
	lm.log.Info("book returned", "book_id", bookID, "borrower", borrower, "available", available)
	return available, nil
}

func (lm *LibraryManager) GetBorrowRecords() []BorrowRecord {
	return lm.ledger.ListAll()
}

// ActiveLoans counts outstanding loans of bookID.
func (lm *LibraryManager) ActiveLoans(bookID int) int {
	return lm.ledger.ActiveLoans(bookID)
}
