package library

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Fixed text widths of the data file, terminator included.
const (
	TitleSize  = 100
	AuthorSize = 100
	NameSize   = 100
)

// Default record limits of the data file.
const (
	DefaultMaxBooks         = 1000
	DefaultMaxBorrowRecords = 1000
)

const (
	countSize  = 4
	bookSize   = 4 + TitleSize + AuthorSize + 4 + 4
	recordSize = 4 + NameSize + 4 + 4
)

var order = binary.LittleEndian

// Limits bound the record counts accepted in a data file header.
// A zero field only requires the records to be present in full.
type Limits struct {
	MaxBooks         int
	MaxBorrowRecords int
}

// DefaultLimits are the record caps of library.dat.
func DefaultLimits() Limits {
	return Limits{MaxBooks: DefaultMaxBooks, MaxBorrowRecords: DefaultMaxBorrowRecords}
}

// TruncateText cuts s so that it fits a fixed field of size bytes including
// the NUL terminator, without splitting a UTF-8 sequence.
func TruncateText(s string, size int) string {
	limit := size - 1
	if limit < 0 {
		limit = 0
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Encode writes snap in the fixed binary layout. Nothing is written when a
// number does not fit its 32-bit field.
func Encode(w io.Writer, snap *Snapshot) error {
	if err := checkFields(snap); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(2*countSize + len(snap.Books)*bookSize + len(snap.Records)*recordSize)

	putInt(&buf, len(snap.Books))
	for _, b := range snap.Books {
		putInt(&buf, b.ID)
		putText(&buf, b.Title, TitleSize)
		putText(&buf, b.Author, AuthorSize)
		putInt(&buf, b.TotalCopies)
		putInt(&buf, b.AvailableCopies)
	}

	putInt(&buf, len(snap.Records))
	for _, r := range snap.Records {
		putInt(&buf, r.RecordID)
		putText(&buf, r.BorrowerName, NameSize)
		putInt(&buf, r.BookID)
		if r.Returned {
			putInt(&buf, 1)
		} else {
			putInt(&buf, 0)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write library data: %w", err)
	}
	return nil
}

// Decode reads a data file. It always returns a usable snapshot: when part of
// the input cannot be trusted the affected collections come back empty and
// the error (ErrFileUnreadable or ErrMalformedHeader) says why.
func Decode(r io.Reader, limits Limits) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Snapshot{}, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}

	books, rest, err := decodeBooks(data, limits.MaxBooks)
	if err != nil {
		return &Snapshot{}, err
	}

	// Files written before borrow tracking end here.
	if len(rest) < countSize {
		return &Snapshot{Books: books}, nil
	}

	records, err := decodeRecords(rest, limits.MaxBorrowRecords)
	if err != nil {
		return &Snapshot{Books: books}, err
	}
	return &Snapshot{Books: books, Records: records}, nil
}

func decodeBooks(data []byte, max int) ([]Book, []byte, error) {
	if len(data) < countSize {
		return nil, nil, fmt.Errorf("%w: book count missing", ErrFileUnreadable)
	}
	n := int(int32(order.Uint32(data)))
	data = data[countSize:]
	if n < 0 || (max > 0 && n > max) {
		return nil, nil, fmt.Errorf("%w: book count %d", ErrMalformedHeader, n)
	}
	if len(data)/bookSize < n {
		return nil, nil, fmt.Errorf("%w: %d book records expected, file too short", ErrFileUnreadable, n)
	}

	books := make([]Book, 0, n)
	for i := 0; i < n; i++ {
		p := data[i*bookSize:]
		books = append(books, Book{
			ID:              getInt(p[0:]),
			Title:           getText(p[4 : 4+TitleSize]),
			Author:          getText(p[4+TitleSize : 4+TitleSize+AuthorSize]),
			TotalCopies:     getInt(p[4+TitleSize+AuthorSize:]),
			AvailableCopies: getInt(p[8+TitleSize+AuthorSize:]),
		})
	}
	return books, data[n*bookSize:], nil
}

func decodeRecords(data []byte, max int) ([]BorrowRecord, error) {
	n := int(int32(order.Uint32(data)))
	data = data[countSize:]
	if n < 0 || (max > 0 && n > max) {
		return nil, fmt.Errorf("%w: borrow record count %d", ErrMalformedHeader, n)
	}
	if len(data)/recordSize < n {
		return nil, fmt.Errorf("%w: %d borrow records expected, file too short", ErrFileUnreadable, n)
	}

	records := make([]BorrowRecord, 0, n)
	for i := 0; i < n; i++ {
		p := data[i*recordSize:]
		records = append(records, BorrowRecord{
			RecordID:     getInt(p[0:]),
			BorrowerName: getText(p[4 : 4+NameSize]),
			BookID:       getInt(p[4+NameSize:]),
			Returned:     getInt(p[8+NameSize:]) != 0,
		})
	}
	return records, nil
}

func checkFields(snap *Snapshot) error {
	for _, b := range snap.Books {
		if !fitsInt32(b.ID) || !fitsInt32(b.TotalCopies) || !fitsInt32(b.AvailableCopies) {
			return fmt.Errorf("encode book %d: %w", b.ID, ErrFieldOverflow)
		}
	}
	for _, r := range snap.Records {
		if !fitsInt32(r.RecordID) || !fitsInt32(r.BookID) {
			return fmt.Errorf("encode borrow record %d: %w", r.RecordID, ErrFieldOverflow)
		}
	}
	if !fitsInt32(len(snap.Books)) || !fitsInt32(len(snap.Records)) {
		return fmt.Errorf("encode counts: %w", ErrFieldOverflow)
	}
	return nil
}

func putInt(buf *bytes.Buffer, v int) {
	var b [4]byte
	order.PutUint32(b[:], uint32(int32(v)))
	buf.Write(b[:])
}

func putText(buf *bytes.Buffer, s string, size int) {
	field := make([]byte, size)
	copy(field, TruncateText(s, size))
	buf.Write(field)
}

func getInt(p []byte) int { return int(int32(order.Uint32(p))) }

func getText(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
