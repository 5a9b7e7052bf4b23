package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"library-circulation/config"
	"library-circulation/library"
)

// manifestBook is one catalog entry of a seed manifest.
type manifestBook struct {
	ID     int    `yaml:"id"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Copies int    `yaml:"copies"`
}

type manifest struct {
	Books []manifestBook `yaml:"books"`
}

func main() {
	if err := newImportCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var configFile, store, data string
	cmd := &cobra.Command{
		Use:          "import_books MANIFEST",
		Short:        "Add the books listed in a YAML manifest to the library",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if store != "" {
				cfg.Storage.Backend = store
			}
			if data != "" {
				cfg.Storage.Path = data
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			books, err := loadManifest(args[0])
			if err != nil {
				return err
			}

			level, _ := cfg.LogLevel()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			st, err := cfg.OpenStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			manager, err := library.NewLibraryManager(st, cfg.ManagerOptions(logger))
			if err != nil {
				st.Close()
				return err
			}
			defer manager.Close()

			_, errorCount := importBooks(manager, books, cmd.OutOrStdout())
			if err := manager.Save(); err != nil {
				return err
			}
			if errorCount > 0 {
				return fmt.Errorf("%d book(s) could not be imported", errorCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&store, "store", "", "storage backend: file or sqlite")
	cmd.Flags().StringVar(&data, "data", "", "path to the data file")
	return cmd
}

func loadManifest(path string) ([]manifestBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m.Books, nil
}

// importBooks adds each entry in order and prints a line per book followed
// by a summary. Rejected entries are reported and skipped.
func importBooks(manager *library.LibraryManager, books []manifestBook, out io.Writer) (successCount, errorCount int) {
	fmt.Fprintf(out, "Importing %d book(s)...\n", len(books))

	for _, b := range books {
		title := library.TruncateText(strings.TrimSpace(b.Title), library.TitleSize)
		author := library.TruncateText(strings.TrimSpace(b.Author), library.AuthorSize)

		fmt.Fprintf(out, "Importing: %s by %s... ", title, author)
		if err := manager.AddBook(b.ID, title, author, b.Copies); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", b.ID)
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(out, "\nCatalog:")
		fmt.Fprintf(out, "%-5s %-50s %-30s %-6s\n", "ID", "Title", "Author", "Copies")
		fmt.Fprintln(out, strings.Repeat("-", 94))
		for _, book := range manager.GetAllBooks() {
			fmt.Fprintf(out, "%-5d %-50s %-30s %-6d\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30), book.TotalCopies)
		}
	}
	return successCount, errorCount
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return library.TruncateText(s, maxLen+1)
	}
	return library.TruncateText(s, maxLen-2) + "..."
}
