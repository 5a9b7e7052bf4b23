package library

import "errors"

// Catalog and ledger outcomes. None of them is fatal; the shell reports them
// and carries on.
var (
	ErrDuplicateID       = errors.New("a book with this ID already exists")
	ErrInvalidID         = errors.New("invalid book ID")
	ErrInvalidCopies     = errors.New("invalid number of copies")
	ErrCatalogFull       = errors.New("library is full, cannot add more books")
	ErrBookNotFound      = errors.New("book not found")
	ErrNoCopiesAvailable = errors.New("no copies available to issue")
	ErrLedgerFull        = errors.New("borrow records are full")
	ErrNoActiveLoan      = errors.New("no active borrow record")
)

// Storage conditions recovered by starting with empty collections.
var (
	ErrFileUnreadable  = errors.New("data file unreadable")
	ErrMalformedHeader = errors.New("malformed record count")
	ErrFieldOverflow   = errors.New("value does not fit a 32-bit field")
)

// ErrInvalidCredentials is returned by the login gate.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// Recovered reports whether err is a storage condition that was already
// handled by substituting empty collections.
func Recovered(err error) bool {
	return errors.Is(err, ErrFileUnreadable) || errors.Is(err, ErrMalformedHeader)
}
