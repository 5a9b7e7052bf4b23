package library

// Book is a catalog entry. ID is assigned by the operator and never changes;
// AvailableCopies moves between 0 and TotalCopies as copies are issued and
// returned.
type Book struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// BorrowRecord is one loan of one copy. It references its book by ID only.
type BorrowRecord struct {
	RecordID     int    `json:"record_id"`
	BorrowerName string `json:"borrower_name"`
	BookID       int    `json:"book_id"`
	Returned     bool   `json:"returned"`
}

// Loan status labels.
const (
	StatusBorrowed = "Borrowed"
	StatusReturned = "Returned"
)

// Status reports whether the loan is still outstanding.
func (r BorrowRecord) Status() string {
	if r.Returned {
		return StatusReturned
	}
	return StatusBorrowed
}

// Active is true while the copy has not come back.
func (r BorrowRecord) Active() bool { return !r.Returned }

// Snapshot represents the complete library state for persistence.
type Snapshot struct {
	Books   []Book         `json:"books"`
	Records []BorrowRecord `json:"borrow_records"`
}
