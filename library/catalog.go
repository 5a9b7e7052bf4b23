package library

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Catalog owns the ordered set of books. Lookups are linear scans; the
// collection is small and insertion order is also display order.
type Catalog struct {
	books    []Book
	capacity int // 0 means unbounded
}

// NewCatalog returns an empty catalog holding at most capacity books.
// A capacity of 0 disables the limit.
func NewCatalog(capacity int) *Catalog {
	if capacity < 0 {
		capacity = 0
	}
	return &Catalog{capacity: capacity}
}

// AddBook appends a new book with every copy available. ID and copy count
// must fit the 32-bit fields of the data file.
func (c *Catalog) AddBook(id int, title, author string, totalCopies int) error {
	if !fitsInt32(id) {
		return fmt.Errorf("add book %d: %w", id, ErrInvalidID)
	}
	if c.index(id) >= 0 {
		return fmt.Errorf("add book %d: %w", id, ErrDuplicateID)
	}
	if totalCopies < 1 || totalCopies > math.MaxInt32 {
		return fmt.Errorf("add book %d: %w: %d", id, ErrInvalidCopies, totalCopies)
	}
	if c.capacity > 0 && len(c.books) >= c.capacity {
		return fmt.Errorf("add book %d: %w (%d books)", id, ErrCatalogFull, c.capacity)
	}
	c.books = append(c.books, Book{
		ID:              id,
		Title:           title,
		Author:          author,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	})
	return nil
}

// FindByID returns a copy of the book with the given id.
func (c *Catalog) FindByID(id int) (Book, bool) {
	i := c.index(id)
	if i < 0 {
		return Book{}, false
	}
	return c.books[i], true
}

// FindByTitle yields, in catalog order, every book whose title contains
// fragment (case-sensitive). The sequence can be ranged over repeatedly.
func (c *Catalog) FindByTitle(fragment string) iter.Seq[Book] {
	return func(yield func(Book) bool) {
		for _, b := range c.books {
			if !strings.Contains(b.Title, fragment) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

// ListAll returns every book in creation order.
func (c *Catalog) ListAll() []Book {
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

// Len is the number of books in the catalog.
func (c *Catalog) Len() int { return len(c.books) }

// Capacity is the configured limit, 0 when unbounded.
func (c *Catalog) Capacity() int { return c.capacity }

// checkout takes one copy of the book off the shelf.
func (c *Catalog) checkout(id int) (int, error) {
	i := c.index(id)
	if i < 0 {
		return 0, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	b := &c.books[i]
	if b.AvailableCopies <= 0 {
		return 0, fmt.Errorf("book %d: %w", id, ErrNoCopiesAvailable)
	}
	b.AvailableCopies--
	return b.AvailableCopies, nil
}

// checkin puts one copy back. The count never exceeds TotalCopies, which
// only matters for records replayed from a damaged file.
func (c *Catalog) checkin(id int) (int, error) {
	i := c.index(id)
	if i < 0 {
		return 0, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	b := &c.books[i]
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	return b.AvailableCopies, nil
}

// restore replaces the catalog contents with books loaded from storage.
// Counts outside [0, TotalCopies] are clamped back into range.
func (c *Catalog) restore(books []Book) {
	c.books = make([]Book, 0, len(books))
	for _, b := range books {
		b.AvailableCopies = clamp(b.AvailableCopies, 0, b.TotalCopies)
		c.books = append(c.books, b)
	}
}

func (c *Catalog) index(id int) int {
	for i := range c.books {
		if c.books[i].ID == id {
			return i
		}
	}
	return -1
}

func fitsInt32(v int) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
