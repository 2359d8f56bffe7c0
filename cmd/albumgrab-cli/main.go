package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"albumgrab/internal/adapters/downloader"
	"albumgrab/internal/adapters/gallery"
	"albumgrab/internal/adapters/localstorage"
	"albumgrab/internal/adapters/progress"
	"albumgrab/internal/config"
	"albumgrab/internal/core/ports"
	"albumgrab/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albumgrab-cli",
		Short: "Download every album listed on a gallery page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("output-dir", "o", "", "Destination directory (created if missing)")
	flags.IntP("lanes", "n", config.DefaultLanes, "Number of parallel downloads")
	flags.String("listing-url", config.DefaultListingURL, "Gallery page to scrape")
	flags.Duration("request-timeout", config.DefaultRequestTimeout, "Timeout for a single request, 0 disables it")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.Bool("no-progress", false, "Do not print per-file progress")

	config.SetDefaults(v)
	mustBind(v, config.KeyOutputDir, flags.Lookup("output-dir"))
	mustBind(v, config.KeyLanes, flags.Lookup("lanes"))
	mustBind(v, config.KeyListingURL, flags.Lookup("listing-url"))
	mustBind(v, config.KeyRequestTimeout, flags.Lookup("request-timeout"))
	mustBind(v, config.KeyLogLevel, flags.Lookup("log-level"))
	mustBind(v, config.KeyNoProgress, flags.Lookup("no-progress"))

	return cmd
}

// mustBind panics on unknown flags; those are programming errors.
func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("no flag bound to config key %q", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %q: %v", flag.Name, err))
	}
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.LogLevel)

	logger.Info("=== Album Grabber ===")
	logger.Info("configuration",
		"listing", cfg.ListingURL,
		"output_dir", cfg.OutputDir,
		"lanes", cfg.Lanes)

	// Initialize adapters
	client := downloader.NewClient(cfg.RequestTimeout)
	scraper := gallery.NewGalleryScraper(client)
	dl := downloader.NewHTTPDownloader(client)
	storage := localstorage.NewLocalStorage(cfg.OutputDir)

	var sink ports.ProgressSink = progress.NewBoard(stderr, progress.DefaultInterval)
	if cfg.NoProgress {
		sink = progress.Discard
	}

	orchestrator := service.NewOrchestrator(
		scraper,
		dl,
		storage,
		sink,
		service.NewAdmissionController(cfg.Lanes),
		logger,
	)

	batch, err := orchestrator.RunJob(ctx, cfg.ListingURL)
	if err != nil {
		logger.Error("job failed", "error", err)
		return err
	}

	return service.WriteReport(stdout, batch)
}

func newLogger(w io.Writer, levelName string) *slog.Logger {
	level, err := config.ParseLevel(levelName)
	if err != nil {
		level = slog.LevelInfo
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    noColor,
	}))
}
