// Command appsreg loads, edits, validates and exports the portal's
// applications registry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	appregistry "github.com/albertocavalcante/go-appregistry"
	"github.com/albertocavalcante/go-appregistry/internal/config"
	"github.com/albertocavalcante/go-appregistry/storage"
)

var (
	// Global flags
	configPath  string
	offline     bool
	registryURL string
	verbose     bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "appsreg",
	Short: "Manage the portal applications registry",
	Long: `appsreg resolves the applications registry the same way the portal does
(shared document, local overrides, bundled defaults, built-in list), and
offers the admin operations: edit, validate, export and import.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("registry") {
			cfg.Registry = registryURL
		}
		if offline {
			cfg.Offline = true
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "skip the shared registry document")
	rootCmd.PersistentFlags().StringVar(&registryURL, "registry", "", "shared registry document URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// slogger bridges the CLI's zap logger to the library.
func slogger() *slog.Logger {
	return slog.New(zapslog.NewHandler(logger.Core()))
}

// session is an opened registry plus the storage it owns.
type session struct {
	reg     *appregistry.Registry
	st      storage.Storage
	watched []string
	close   func() error
}

// openRegistry builds a registry from the loaded configuration.
func openRegistry(ctx context.Context, extra ...appregistry.Option) (*session, error) {
	s := &session{close: func() error { return nil }}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		s.st = storage.NewMemory()
	case config.StorageSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		s.st = db
		s.close = db.Close
		s.watched = append(s.watched, db.Path())
	default:
		fs := storage.NewFile(cfg.Storage.Path)
		s.st = fs
		s.watched = append(s.watched, fs.Path(storage.DefaultKey))
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []appregistry.Option{
		appregistry.WithDocumentURL(cfg.Registry),
		appregistry.WithOffline(cfg.Offline),
		appregistry.WithStorage(s.st),
		appregistry.WithLogger(slogger()),
	}
	if timeout > 0 {
		opts = append(opts, appregistry.WithTimeout(timeout))
	}
	if cfg.Bundled != "" {
		opts = append(opts, appregistry.WithBundledFile(cfg.Bundled))
	}
	opts = append(opts, extra...)

	s.reg, err = appregistry.New(opts...)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

// loadRegistry opens and resolves the registry.
func loadRegistry(ctx context.Context, extra ...appregistry.Option) (*session, error) {
	s, err := openRegistry(ctx, extra...)
	if err != nil {
		return nil, err
	}
	s.reg.Load(ctx)
	return s, nil
}
