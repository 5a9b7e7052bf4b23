package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Database is a Store backed by SQLite. Each Save rewrites both tables in a
// single transaction, keeping the same whole-snapshot semantics as the data
// file while making the write atomic.
type Database struct {
	db *sql.DB

	insertBookStmt   *sql.Stmt
	insertRecordStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertBookStmt != nil {
		d.insertBookStmt.Close()
	}
	if d.insertRecordStmt != nil {
		d.insertRecordStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL keeps readers of an open file unblocked during Save.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// position preserves creation order; ids are not keys because a
	// replayed data file may carry duplicates.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            position INTEGER PRIMARY KEY,
            id INTEGER NOT NULL,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS borrow_records (
            position INTEGER PRIMARY KEY,
            record_id INTEGER NOT NULL,
            borrower_name TEXT NOT NULL,
            book_id INTEGER NOT NULL,
            is_returned BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_records_book ON borrow_records(book_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO books(position,id,title,author,total_copies,available_copies) VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertRecordStmt, err = d.db.Prepare(`INSERT INTO borrow_records(position,record_id,borrower_name,book_id,is_returned) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Load reads both tables in creation order.
func (d *Database) Load() (*Snapshot, error) {
	books, err := d.loadBooks()
	if err != nil {
		return nil, err
	}
	records, err := d.loadRecords()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Books: books, Records: records}, nil
}

func (d *Database) loadBooks() ([]Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,total_copies,available_copies FROM books ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, fmt.Errorf("load books: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (d *Database) loadRecords() ([]BorrowRecord, error) {
	rows, err := d.db.Query(`SELECT record_id,borrower_name,book_id,is_returned FROM borrow_records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load borrow records: %w", err)
	}
	defer rows.Close()

	var records []BorrowRecord
	for rows.Next() {
		var r BorrowRecord
		if err := rows.Scan(&r.RecordID, &r.BorrowerName, &r.BookID, &r.Returned); err != nil {
			return nil, fmt.Errorf("load borrow records: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save replaces both tables with snap in one transaction.
func (d *Database) Save(snap *Snapshot) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM borrow_records`); err != nil {
		return fmt.Errorf("clear borrow records: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}

	insertBook := tx.Stmt(d.insertBookStmt)
	for i, b := range snap.Books {
		if _, err := insertBook.Exec(i+1, b.ID, b.Title, b.Author, b.TotalCopies, b.AvailableCopies); err != nil {
			return fmt.Errorf("save book %d: %w", b.ID, err)
		}
	}
	insertRecord := tx.Stmt(d.insertRecordStmt)
	for i, r := range snap.Records {
		if _, err := insertRecord.Exec(i+1, r.RecordID, r.BorrowerName, r.BookID, r.Returned); err != nil {
			return fmt.Errorf("save borrow record %d: %w", r.RecordID, err)
		}
	}
	return tx.Commit()
}
