// Package orchestrator wires the target store, the blocklists and the
// external indexer/scanner modules into the index, scan and prune flows.
// It is a single sequential worker: one target at a time, with the store
// connection released while the external scanner runs.
package orchestrator

import (
	"context"
	"time"

	"github.com/arkid15r/utiso-dorkbot/internal/blocklist"
	"github.com/arkid15r/utiso-dorkbot/internal/datastore"
	"github.com/arkid15r/utiso-dorkbot/internal/indexer"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/arkid15r/utiso-dorkbot/internal/reporter"
	"github.com/arkid15r/utiso-dorkbot/internal/scanner"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator owns the control flow around the target store. Targets are
// borrowed from the store one at a time; a target matching any composed
// blocklist is rejected.
type Orchestrator struct {
	store      *datastore.TargetStore
	blocklists []*blocklist.Blocklist
	resolver   models.Resolver
	logger     zerolog.Logger
}

// New creates an orchestrator over one store and a set of blocklists (the
// internal persisted list plus any external lists).
func New(store *datastore.TargetStore, blocklists []*blocklist.Blocklist, resolver models.Resolver, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		blocklists: blocklists,
		resolver:   resolver,
		logger:     logger.With().Str("component", "Orchestrator").Logger(),
	}
}

// Index runs the indexer module and admits its URLs into the store.
// URLs matching a blocklist are dropped before insertion. The source
// label defaults to the module's label unless overridden.
func (o *Orchestrator) Index(ctx context.Context, idx indexer.Indexer, sourceOverride string) error {
	o.logger.Info().Str("indexer", idx.Name()).Msg("Indexing")

	urls, moduleSource, err := idx.Run(ctx)
	if err != nil {
		return err
	}

	source := moduleSource
	if sourceOverride != "" {
		source = sourceOverride
	}

	var admitted []string
	for _, url := range urls {
		target := models.NewTarget(url, o.resolver)
		if o.matchAny(target) {
			o.logger.Debug().Str("url", url).Msg("Ignoring (matches blocklist pattern)")
			continue
		}
		admitted = append(admitted, url)
	}

	if err := o.store.Connect(); err != nil {
		return err
	}
	defer o.store.Close()

	return o.store.AddTargets(admitted, source)
}

// ScanOptions controls one scanning session.
type ScanOptions struct {
	ReportDir string
	Label     string
	// Count limits how many targets are consumed; -1 consumes all.
	Count  int
	Random bool
}

// Scan claims targets one at a time and hands each to the scanner module.
// Claimed targets matching a blocklist are deleted instead of scanned.
// The store connection is closed around each external scanner invocation
// so a long scan never holds a database connection open. A failing scan
// logs the error and advances without writing a report.
func (o *Orchestrator) Scan(ctx context.Context, sc scanner.Scanner, opts ScanOptions) error {
	writer, err := reporter.NewJSONReporter(opts.ReportDir, opts.Label, o.logger)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	sessionLogger := o.logger.With().Str("scan_session_id", sessionID).Logger()
	sessionLogger.Info().Str("scanner", sc.Name()).Msg("Starting scan session")

	defer o.store.Close()

	scanned := 0
	for opts.Count == -1 || scanned < opts.Count {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.store.Connect(); err != nil {
			return err
		}
		target, err := o.store.ClaimNextTarget(opts.Random)
		if err != nil {
			return err
		}
		if target == nil {
			break
		}

		if o.matchAny(target) {
			sessionLogger.Debug().Str("url", target.URL).Msg("Deleting (matches blocklist pattern)")
			if err := o.store.DeleteTarget(target.URL); err != nil {
				return err
			}
			continue
		}

		if err := o.store.Close(); err != nil {
			return err
		}

		sessionLogger.Info().Str("url", target.URL).Msg("Scanning")
		results, scanErr := sc.Run(ctx, target)
		scanned++

		if scanErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sessionLogger.Error().Err(scanErr).Str("url", target.URL).Msg("Scan failed")
			continue
		}

		target.EndTime = time.Now()
		if _, err := writer.Write(target, results); err != nil {
			return err
		}
	}

	sessionLogger.Info().Int("scanned", scanned).Msg("Scan session finished")
	return nil
}

// Prune applies fingerprint dedup and blocklist filtering across the
// whole store without invoking any scanner.
func (o *Orchestrator) Prune(randomize bool) error {
	o.logger.Info().Msg("Pruning database")

	if err := o.store.Connect(); err != nil {
		return err
	}
	defer o.store.Close()

	matchers := make([]datastore.Matcher, len(o.blocklists))
	for i, bl := range o.blocklists {
		matchers[i] = bl
	}
	return o.store.Prune(matchers, randomize)
}

func (o *Orchestrator) matchAny(target *models.Target) bool {
	for _, bl := range o.blocklists {
		if bl.Match(target) {
			return true
		}
	}
	return false
}
