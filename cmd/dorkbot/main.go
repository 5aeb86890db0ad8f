package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arkid15r/utiso-dorkbot/internal/blocklist"
	"github.com/arkid15r/utiso-dorkbot/internal/config"
	"github.com/arkid15r/utiso-dorkbot/internal/datastore"
	"github.com/arkid15r/utiso-dorkbot/internal/indexer"
	"github.com/arkid15r/utiso-dorkbot/internal/logger"
	"github.com/arkid15r/utiso-dorkbot/internal/orchestrator"
	"github.com/arkid15r/utiso-dorkbot/internal/scanner"
	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	cfg, err := config.LoadGlobalConfig(flags.ConfigFile)
	if err != nil {
		stdlog.Fatalf("[FATAL] Could not load config: %v", err)
	}
	applyFlagOverrides(cfg, flags)

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		stdlog.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	if !flags.HasOperation() {
		flag.Usage()
		return
	}

	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		zLogger.Fatal().Err(err).Str("directory", cfg.Directory).Msg("Failed to create directory")
	}

	database := cfg.Database
	if database == "" {
		database = filepath.Join(cfg.Directory, "dorkbot.db")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, aborting")
		cancel()
	}()

	resolver := net.DefaultResolver

	store, err := datastore.NewTargetStore(database, resolver, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Str("database", database).Msg("Failed to open target database")
	}

	blocklists := openBlocklists(cfg, flags, database, zLogger)
	internal := blocklists[0]

	runMaintenance(store, internal, flags, zLogger)

	if err := store.Close(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to close target database")
	}

	orch := orchestrator.New(store, blocklists, resolver, zLogger)

	if flags.Indexer != "" {
		idx, err := indexer.New(flags.Indexer, indexer.Options{
			Directory: cfg.Directory,
			Args:      parseModuleArgs(flags.IndexerArgs),
		}, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to load indexer module")
		}
		if err := orch.Index(ctx, idx, flags.Source); err != nil {
			exitOnInterrupt(err, zLogger)
			zLogger.Fatal().Err(err).Msg("Indexing failed")
		}
	}

	if flags.Prune {
		if err := orch.Prune(cfg.ScanConfig.Random); err != nil {
			zLogger.Fatal().Err(err).Msg("Pruning failed")
		}
	}

	if flags.Scanner != "" {
		sc, err := scanner.New(flags.Scanner, scanner.Options{
			Directory: cfg.Directory,
			Args:      parseModuleArgs(flags.ScannerArgs),
		}, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to load scanner module")
		}

		reportDir := cfg.ReporterConfig.OutputDir
		if !filepath.IsAbs(reportDir) {
			reportDir = filepath.Join(cfg.Directory, reportDir)
		}
		opts := orchestrator.ScanOptions{
			ReportDir: reportDir,
			Label:     cfg.ReporterConfig.Label,
			Count:     cfg.ScanConfig.Count,
			Random:    cfg.ScanConfig.Random,
		}
		if err := orch.Scan(ctx, sc, opts); err != nil {
			exitOnInterrupt(err, zLogger)
			zLogger.Fatal().Err(err).Msg("Scanning failed")
		}
	}

	if flags.ListTargets || flags.ListUnscanned {
		listTargets(store, cfg, flags, zLogger)
	}

	for _, bl := range blocklists {
		_ = bl.Close()
	}
}

// applyFlagOverrides lets command-line flags win over config file values.
func applyFlagOverrides(cfg *config.GlobalConfig, flags AppFlags) {
	if flags.Directory != "" {
		cfg.Directory = flags.Directory
	}
	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if flags.LogFile != "" {
		cfg.LogConfig.LogFile = flags.LogFile
	}
	if flags.Verbose {
		cfg.LogConfig.LogLevel = "debug"
	}
	if flags.CountSet {
		cfg.ScanConfig.Count = flags.Count
	}
	if flags.Random {
		cfg.ScanConfig.Random = true
	}
	if flags.ReportDir != "" {
		cfg.ReporterConfig.OutputDir = flags.ReportDir
	}
	if flags.Label != "" {
		cfg.ReporterConfig.Label = flags.Label
	}
	if len(flags.ExternalBlocklists) > 0 {
		cfg.ExternalBlocklists = append(cfg.ExternalBlocklists, flags.ExternalBlocklists...)
	}
}

// openBlocklists builds the internal persisted blocklist plus every
// external list. The internal list shares the target database; a bare
// database path is addressed as an embedded store.
func openBlocklists(cfg *config.GlobalConfig, flags AppFlags, database string, zLogger zerolog.Logger) []*blocklist.Blocklist {
	internalURI := database
	if !datastore.HasScheme(internalURI) {
		internalURI = "sqlite3://" + internalURI
	}

	internal, err := blocklist.Open(internalURI, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to open internal blocklist")
	}

	blocklists := []*blocklist.Blocklist{internal}
	for _, external := range cfg.ExternalBlocklists {
		bl, err := blocklist.Open(external, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Str("blocklist", external).Msg("Failed to open external blocklist")
		}
		blocklists = append(blocklists, bl)
	}

	return blocklists
}

// runMaintenance executes the direct store and blocklist mutations in a
// fixed order before any indexing or scanning.
func runMaintenance(store *datastore.TargetStore, internal *blocklist.Blocklist, flags AppFlags, zLogger zerolog.Logger) {
	if flags.FlushBlocklist {
		if err := internal.Flush(); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to flush blocklist")
		}
	}
	if flags.AddBlocklistItem != "" {
		if err := internal.Add(flags.AddBlocklistItem); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to add blocklist item")
		}
	}
	if flags.DeleteBlocklistItem != "" {
		if err := internal.Delete(flags.DeleteBlocklistItem); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to delete blocklist item")
		}
	}
	if flags.ListBlocklist {
		for _, item := range internal.List() {
			fmt.Println(item)
		}
	}

	if flags.FlushFingerprints {
		if err := store.FlushFingerprints(); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to flush fingerprints")
		}
	}
	if flags.FlushTargets {
		if err := store.FlushTargets(); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to flush targets")
		}
	}
	if flags.AddTarget != "" {
		if err := store.AddTarget(flags.AddTarget, flags.Source); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to add target")
		}
	}
	if flags.DeleteTarget != "" {
		if err := store.DeleteTarget(flags.DeleteTarget); err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to delete target")
		}
	}
}

// listTargets prints a projection of the target table to stdout.
func listTargets(store *datastore.TargetStore, cfg *config.GlobalConfig, flags AppFlags, zLogger zerolog.Logger) {
	if err := store.Connect(); err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to reopen target database")
	}
	defer store.Close()

	urls, err := store.GetURLs(datastore.ListOptions{
		UnscannedOnly: flags.ListUnscanned,
		Source:        flags.Source,
		WithSource:    flags.ShowSource,
		Randomize:     cfg.ScanConfig.Random,
	})
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to get targets")
	}

	if cfg.ScanConfig.Count >= 0 && len(urls) > cfg.ScanConfig.Count {
		urls = urls[:cfg.ScanConfig.Count]
	}
	for _, url := range urls {
		fmt.Println(url)
	}
}

// exitOnInterrupt converts a context cancellation into a non-zero exit.
func exitOnInterrupt(err error, zLogger zerolog.Logger) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		zLogger.Info().Msg("Operation interrupted")
		os.Exit(1)
	}
}
