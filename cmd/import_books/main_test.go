package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "books.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleManifest = `
books:
  - id: 1
    title: "1984"
    author: George Orwell
    copies: 3
  - id: 2
    title: Animal Farm
    author: George Orwell
    copies: 1
  - id: 1
    title: Duplicate
    author: Nobody
    copies: 1
  - id: 3
    title: The Art of War
    author: Sun Tzu
    copies: 0
`

func TestLoadManifest(t *testing.T) {
	books, err := loadManifest(writeManifest(t, t.TempDir(), sampleManifest))
	require.NoError(t, err)
	require.Len(t, books, 4)
	assert.Equal(t, manifestBook{ID: 1, Title: "1984", Author: "George Orwell", Copies: 3}, books[0])

	_, err = loadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read manifest")
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, sampleManifest)
	dataPath := filepath.Join(dir, "library.dat")

	cmd := newImportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--data", dataPath, manifestPath})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "2 book(s) could not be imported")

	got := out.String()
	assert.Contains(t, got, "Successfully imported: 2 books")
	assert.Contains(t, got, "Errors: 2")
	assert.Contains(t, got, "SUCCESS (ID: 2)")

	snap, err := library.NewFileStore(dataPath, library.DefaultLimits()).Load()
	require.NoError(t, err)
	assert.Equal(t, []library.Book{
		{ID: 1, Title: "1984", Author: "George Orwell", TotalCopies: 3, AvailableCopies: 3},
		{ID: 2, Title: "Animal Farm", Author: "George Orwell", TotalCopies: 1, AvailableCopies: 1},
	}, snap.Books)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", truncateString("abcdef", 3))
}
