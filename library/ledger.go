package library

import "fmt"

// IssueReceipt describes a successful loan.
type IssueReceipt struct {
	RecordID        int
	AvailableCopies int
}

// Ledger owns the borrow records and keeps the catalog's available counts in
// step with them.
type Ledger struct {
	catalog  *Catalog
	records  []BorrowRecord
	capacity int // 0 means unbounded
}

// NewLedger returns an empty ledger bound to catalog.
func NewLedger(catalog *Catalog, capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{catalog: catalog, capacity: capacity}
}

// Issue lends one copy of bookID to borrower.
func (l *Ledger) Issue(bookID int, borrower string) (IssueReceipt, error) {
	book, ok := l.catalog.FindByID(bookID)
	if !ok {
		return IssueReceipt{}, fmt.Errorf("issue book %d: %w", bookID, ErrBookNotFound)
	}
	if book.AvailableCopies <= 0 {
		return IssueReceipt{}, fmt.Errorf("issue book %d: %w", bookID, ErrNoCopiesAvailable)
	}
	if l.capacity > 0 && len(l.records) >= l.capacity {
		return IssueReceipt{}, fmt.Errorf("issue book %d: %w (%d records)", bookID, ErrLedgerFull, l.capacity)
	}

	available, err := l.catalog.checkout(bookID)
	if err != nil {
		return IssueReceipt{}, fmt.Errorf("issue book %d: %w", bookID, err)
	}

	rec := BorrowRecord{
		RecordID:     len(l.records) + 1,
		BorrowerName: borrower,
		BookID:       bookID,
	}
	l.records = append(l.records, rec)
	return IssueReceipt{RecordID: rec.RecordID, AvailableCopies: available}, nil
}

// Return closes the oldest outstanding loan of bookID held by borrower and
// returns the book's new available count. The borrower name must match
// exactly.
func (l *Ledger) Return(bookID int, borrower string) (int, error) {
	idx := -1
	for i := range l.records {
		r := &l.records[i]
		if r.BookID == bookID && r.Active() && r.BorrowerName == borrower {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("return book %d by %q: %w", bookID, borrower, ErrNoActiveLoan)
	}

	available, err := l.catalog.checkin(bookID)
	if err != nil {
		return 0, fmt.Errorf("return book %d: %w", bookID, err)
	}
	l.records[idx].Returned = true
	return available, nil
}

// ListAll returns every borrow record in creation order.
func (l *Ledger) ListAll() []BorrowRecord {
	out := make([]BorrowRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ActiveLoans counts outstanding loans of bookID.
func (l *Ledger) ActiveLoans(bookID int) int {
	n := 0
	for _, r := range l.records {
		if r.BookID == bookID && r.Active() {
			n++
		}
	}
	return n
}

// Len is the number of records, returned or not.
func (l *Ledger) Len() int { return len(l.records) }

// Capacity is the configured limit, 0 when unbounded.
func (l *Ledger) Capacity() int { return l.capacity }

func (l *Ledger) restore(records []BorrowRecord) {
	l.records = append(make([]BorrowRecord, 0, len(records)), records...)
}
