package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-circulation/config"
	"library-circulation/library"
)

type rootFlags struct {
	configFile string
	store      string
	data       string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "library",
		Short:        "Library catalog and circulation tracker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runSession(cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.store, "store", "", "storage backend: file or sqlite")
	pf.StringVar(&flags.data, "data", "", "path to the data file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newHashPasswordCmd(), newConvertCmd(flags))
	return root
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(flags *rootFlags, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if flags.store != "" {
		cfg.Storage.Backend = flags.store
	}
	if flags.data != "" {
		cfg.Storage.Path = flags.data
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})).
		With("session", uuid.NewString())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runSession(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	auth, err := cfg.Authenticator()
	if err != nil {
		return fmt.Errorf("login is not configured: %w", err)
	}

	sh := newShell(in, out, nil, logger)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.readPassword = func(prompt string) (string, error) { return readPassword(f, out, prompt) }
	}
	if err := sh.login(auth); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	manager, err := library.NewLibraryManager(store, cfg.ManagerOptions(logger))
	if err != nil {
		store.Close()
		return err
	}
	defer manager.Close()

	sh.mgr = manager
	return sh.run()
}

// readPassword securely reads a password with masking
func readPassword(f *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(int(f.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for admin.password_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				password string
				err      error
			)
			in := cmd.InOrStdin()
			if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				password, err = readPassword(f, cmd.ErrOrStderr(), "Password: ")
			} else {
				sh := newShell(in, io.Discard, nil, nil)
				password, err = sh.readLine("")
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			hash, err := library.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newConvertCmd(flags *rootFlags) *cobra.Command {
	var toStore, toPath string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Copy the library into another storage backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if toPath == "" {
				return fmt.Errorf("--to-path is required")
			}
			if toStore == cfg.Storage.Backend && toPath == cfg.Storage.Path {
				return fmt.Errorf("source and destination are the same")
			}

			src, err := cfg.OpenStore()
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			manager, err := library.NewLibraryManager(src, cfg.ManagerOptions(logger))
			if err != nil {
				src.Close()
				return err
			}
			defer manager.Close()

			dst, err := config.OpenStore(toStore, toPath, cfg.Limits)
			if err != nil {
				return fmt.Errorf("open destination: %w", err)
			}
			defer dst.Close()

			snap := manager.Snapshot()
			if err := dst.Save(snap); err != nil {
				return fmt.Errorf("write destination: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d book(s) and %d borrow record(s) to %s (%s).\n",
				len(snap.Books), len(snap.Records), toPath, toStore)
			return nil
		},
	}
	cmd.Flags().StringVar(&toStore, "to-store", config.BackendSQLite, "destination backend: file or sqlite")
	cmd.Flags().StringVar(&toPath, "to-path", "", "destination path")
	return cmd
}
