package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"library-circulation/library"
)

// errQuit ends the menu loop after a successful save.
var errQuit = errors.New("quit")

// shell is the operator's menu session. Input comes line by line from sc,
// everything the operator sees goes to out.
type shell struct {
	sc           *bufio.Scanner
	out          io.Writer
	mgr          *library.LibraryManager
	log          *slog.Logger
	readPassword func(prompt string) (string, error)
}

func newShell(in io.Reader, out io.Writer, mgr *library.LibraryManager, logger *slog.Logger) *shell {
	s := &shell{
		sc:  bufio.NewScanner(in),
		out: out,
		mgr: mgr,
		log: logger,
	}
	s.readPassword = s.readLine
	return s
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// readLine prints prompt and returns the next input line, trimmed.
func (s *shell) readLine(prompt string) (string, error) {
	s.printf("%s", prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.sc.Text()), nil
}

func (s *shell) readInt(prompt string) (int, bool, error) {
	line, err := s.readLine(prompt)
	if err != nil {
		return 0, false, err
	}
	n, convErr := strconv.ParseInt(line, 10, 32)
	if convErr != nil {
		return 0, false, nil
	}
	return int(n), true, nil
}

// login asks until the credentials match. It fails only when input ends.
func (s *shell) login(auth *library.Authenticator) error {
	s.printf("===== LOGIN =====\n")
	for {
		username, err := s.readLine("Username: ")
		if err != nil {
			return err
		}
		password, err := s.readPassword("Password: ")
		if err != nil {
			return err
		}
		if err := auth.Authenticate(username, password); err != nil {
			s.log.Warn("login failed", "username", username)
			s.printf("Incorrect username or password. Try again.\n")
			continue
		}
		s.log.Info("operator logged in", "username", username)
		s.printf("Login successful! Welcome, %s.\n", username)
		return nil
	}
}

const menu = `
===== LIBRARY MANAGEMENT SYSTEM =====
1. Add Book
2. List All Books
3. Search Book by ID
4. Search Book by Title
5. Issue (Borrow) Book
6. Return Book
7. List All Borrow Records
8. Save & Exit
9. Save
`

// run serves the menu until the operator exits or input ends. Both paths
// save; the returned error is the final save's.
func (s *shell) run() error {
	for {
		s.printf("%s", menu)
		choice, ok, err := s.readInt("Enter your choice: ")
		if err != nil {
			s.log.Info("input closed, saving", "reason", err)
			return s.save()
		}
		if !ok {
			s.printf("Invalid input! Please enter a number.\n")
			continue
		}

		if err := s.dispatch(choice); err != nil {
			if errors.Is(err, errQuit) {
				s.printf("Data saved. Exiting program.\n")
				return nil
			}
			s.log.Info("input closed, saving", "reason", err)
			return s.save()
		}
	}
}

func (s *shell) dispatch(choice int) error {
	switch choice {
	case 1:
		return s.handleAddBook()
	case 2:
		s.handleListBooks()
	case 3:
		return s.handleSearchByID()
	case 4:
		return s.handleSearchByTitle()
	case 5:
		return s.handleIssue()
	case 6:
		return s.handleReturn()
	case 7:
		s.handleListBorrowRecords()
	case 8:
		// A failed save keeps the session open so nothing is lost.
		if err := s.save(); err != nil {
			return nil
		}
		return errQuit
	case 9:
		if err := s.save(); err == nil {
			s.printf("Data saved.\n")
		}
	default:
		s.printf("Invalid choice! Please select from the menu.\n")
	}
	return nil
}

func (s *shell) save() error {
	if err := s.mgr.Save(); err != nil {
		s.printf("Error saving data: %v\n", err)
		return err
	}
	return nil
}

func (s *shell) handleAddBook() error {
	id, ok, err := s.readInt("Enter Book ID (integer): ")
	if err != nil {
		return err
	}
	if !ok {
		s.printf("Invalid ID.\n")
		return nil
	}
	if _, exists := s.mgr.GetBook(id); exists {
		s.printf("A book with this ID already exists!\n")
		return nil
	}

	title, err := s.readLine("Enter Book Title: ")
	if err != nil {
		return err
	}
	author, err := s.readLine("Enter Author Name: ")
	if err != nil {
		return err
	}
	copies, ok, err := s.readInt("Enter Total Copies: ")
	if err != nil {
		return err
	}
	if !ok || copies < 1 {
		s.printf("Invalid number of copies.\n")
		return nil
	}

	title = library.TruncateText(title, library.TitleSize)
	author = library.TruncateText(author, library.AuthorSize)
	if err := s.mgr.AddBook(id, title, author, copies); err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	s.printf("Book added successfully!\n")
	return nil
}

func (s *shell) handleListBooks() {
	books := s.mgr.GetAllBooks()
	if len(books) == 0 {
		s.printf("No books in the library.\n")
		return
	}
	s.printf("\n----- List of Books -----\n")
	s.printBookTable(books)
}

func (s *shell) handleSearchByID() error {
	if len(s.mgr.GetAllBooks()) == 0 {
		s.printf("No books in the library.\n")
		return nil
	}
	id, ok, err := s.readInt("Enter Book ID to search: ")
	if err != nil {
		return err
	}
	if !ok {
		s.printf("Invalid ID.\n")
		return nil
	}

	b, found := s.mgr.GetBook(id)
	if !found {
		s.printf("No book found with ID %d.\n", id)
		return nil
	}
	s.printf("\nBook Found:\n")
	s.printf("ID: %d\n", b.ID)
	s.printf("Title: %s\n", b.Title)
	s.printf("Author: %s\n", b.Author)
	s.printf("Total Copies: %d\n", b.TotalCopies)
	s.printf("Available Copies: %d\n", b.AvailableCopies)
	s.printf("Active Loans: %d\n", s.mgr.ActiveLoans(b.ID))
	return nil
}

func (s *shell) handleSearchByTitle() error {
	if len(s.mgr.GetAllBooks()) == 0 {
		s.printf("No books in the library.\n")
		return nil
	}
	fragment, err := s.readLine("Enter Book Title (or part of it) to search: ")
	if err != nil {
		return err
	}
	fragment = library.TruncateText(fragment, library.TitleSize)

	var matches []library.Book
	for b := range s.mgr.SearchBooks(fragment) {
		matches = append(matches, b)
	}
	if len(matches) == 0 {
		s.printf("No books found with title containing \"%s\".\n", fragment)
		return nil
	}
	s.printf("\nBooks matching \"%s\":\n", fragment)
	s.printBookTable(matches)
	return nil
}

func (s *shell) handleIssue() error {
	if len(s.mgr.GetAllBooks()) == 0 {
		s.printf("No books in the library.\n")
		return nil
	}
	id, ok, err := s.readInt("Enter Book ID to issue: ")
	if err != nil {
		return err
	}
	if !ok {
		s.printf("Invalid ID.\n")
		return nil
	}
	b, found := s.mgr.GetBook(id)
	if !found {
		s.printf("No book found with ID %d.\n", id)
		return nil
	}
	if b.AvailableCopies <= 0 {
		s.printf("No copies available to issue.\n")
		return nil
	}

	name, err := s.readLine("Enter Borrower Name: ")
	if err != nil {
		return err
	}
	name = library.TruncateText(name, library.NameSize)

	receipt, err := s.mgr.IssueBook(id, name)
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	s.printf("Book issued successfully to %s! Remaining available copies: %d\n", name, receipt.AvailableCopies)
	return nil
}

func (s *shell) handleReturn() error {
	if len(s.mgr.GetAllBooks()) == 0 {
		s.printf("No books in the library.\n")
		return nil
	}
	if len(s.mgr.GetBorrowRecords()) == 0 {
		s.printf("No borrow records. Nothing to return.\n")
		return nil
	}
	id, ok, err := s.readInt("Enter Book ID to return: ")
	if err != nil {
		return err
	}
	if !ok {
		s.printf("Invalid ID.\n")
		return nil
	}
	name, err := s.readLine("Enter Borrower Name: ")
	if err != nil {
		return err
	}
	name = library.TruncateText(name, library.NameSize)

	avail, err := s.mgr.ReturnBook(id, name)
	switch {
	case errors.Is(err, library.ErrNoActiveLoan):
		s.printf("No active borrow record found for %s with Book ID %d.\n", name, id)
	case errors.Is(err, library.ErrBookNotFound):
		s.printf("Book not found in library data. (Data error)\n")
	case err != nil:
		s.printf("Error: %v\n", err)
	default:
		s.printf("Book returned successfully by %s. Available copies: %d\n", name, avail)
	}
	return nil
}

func (s *shell) handleListBorrowRecords() {
	records := s.mgr.GetBorrowRecords()
	if len(records) == 0 {
		s.printf("No borrow records found.\n")
		return
	}
	s.printf("\n----- Borrow Records -----\n")
	s.printf("%-5s | %-20s | %-7s | %-10s\n", "ID", "Borrower", "BookID", "Status")
	s.printf("%s\n", strings.Repeat("-", 56))
	for _, r := range records {
		s.printf("%-5d | %-20s | %-7d | %-10s\n", r.RecordID, r.BorrowerName, r.BookID, r.Status())
	}
}

func (s *shell) printBookTable(books []library.Book) {
	s.printf("%-5s | %-30s | %-20s | %-10s | %-10s\n", "ID", "Title", "Author", "Total", "Available")
	s.printf("%s\n", strings.Repeat("-", 79))
	for _, b := range books {
		s.printf("%-5d | %-30s | %-20s | %-10d | %-10d\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 20),
			b.TotalCopies,
			b.AvailableCopies)
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return library.TruncateText(s, maxLength-2) + "..."
}
