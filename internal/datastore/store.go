// Package datastore persists the scan queue: targets, fingerprints of
// previously-claimed targets and the internal blocklist. Three
// interchangeable database/sql backends (embedded SQLite, PostgreSQL,
// Apache Phoenix) sit behind one store type, selected by connection-string
// prefix. Transient connection losses on the claim hot path are retried
// with a fresh connection; any other database error surfaces to the caller.
package datastore

import (
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/arkid15r/utiso-dorkbot/internal/fingerprint"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// maxAttempts bounds how often an operation interrupted by connection loss
// is retried before the error escalates.
const maxAttempts = 3

const retryInterval = 250 * time.Millisecond

var targetSchema = []string{
	"CREATE TABLE IF NOT EXISTS targets (url VARCHAR PRIMARY KEY, source VARCHAR, scanned INTEGER DEFAULT 0)",
	"CREATE TABLE IF NOT EXISTS fingerprints (fingerprint VARCHAR PRIMARY KEY)",
	"CREATE TABLE IF NOT EXISTS blocklist (item VARCHAR PRIMARY KEY)",
}

// Matcher tests whether a target is excluded from scanning. It is
// satisfied by blocklist.Blocklist.
type Matcher interface {
	Match(target *models.Target) bool
}

// ListOptions controls GetURLs projections.
type ListOptions struct {
	UnscannedOnly bool
	Source        string
	WithSource    bool
	Randomize     bool
}

// TargetStore is the durable work queue of scan targets.
type TargetStore struct {
	dialect  Dialect
	db       *sql.DB
	logger   zerolog.Logger
	resolver models.Resolver
}

// NewTargetStore resolves the backend dialect for the given database
// identifier, connects and ensures the schema exists. The caller owns the
// returned store and must Close it; long operations may Close and Connect
// again to avoid holding a connection across external work.
func NewTargetStore(database string, resolver models.Resolver, logger zerolog.Logger) (*TargetStore, error) {
	dialect, err := ResolveDialect(database)
	if err != nil {
		return nil, err
	}

	store := &TargetStore{
		dialect:  dialect,
		logger:   logger.With().Str("component", "TargetStore").Str("backend", dialect.Backend).Logger(),
		resolver: resolver,
	}

	if err := store.Connect(); err != nil {
		return nil, err
	}

	for _, ddl := range targetSchema {
		if _, err := store.db.Exec(ddl); err != nil {
			store.Close()
			return nil, common.WrapError(err, "failed to initialize schema")
		}
	}
	store.logger.Debug().Str("dsn", dialect.DSN).Msg("Target store initialized and schema ensured")

	return store, nil
}

// Connect opens the backend connection. It is a no-op when already open.
func (s *TargetStore) Connect() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open(s.dialect.Driver, s.dialect.DSN)
	if err != nil {
		return common.WrapErrorf(err, "failed to open %s database", s.dialect.Backend)
	}
	s.db = db
	return nil
}

// Close releases the backend connection.
func (s *TargetStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *TargetStore) reconnect() error {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	return s.Connect()
}

// withRetry runs an operation, reconnecting and retrying up to maxAttempts
// times when it fails with a transient connection loss. Non-transient
// errors are returned immediately.
func (s *TargetStore) withRetry(name string, op func() error) error {
	attempt := func() error {
		err := classifyError(op())
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransient) {
			s.logger.Warn().Err(err).Str("operation", name).Msg("Transient storage error, reconnecting")
			if rerr := s.reconnect(); rerr != nil {
				return backoff.Permanent(rerr)
			}
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), maxAttempts-1)
	if err := backoff.Retry(attempt, policy); err != nil {
		return common.WrapErrorf(err, "%s failed", name)
	}
	return nil
}

// AddTarget upserts a single target. Re-adding an existing URL overwrites
// its source but never resets the scanned flag.
func (s *TargetStore) AddTarget(url, source string) error {
	_, err := s.db.Exec(s.dialect.upsertTarget, url, nullable(source))
	if err != nil {
		return common.WrapError(err, "failed to add target")
	}
	return nil
}

// AddTargets upserts a batch of targets sharing one source label.
func (s *TargetStore) AddTargets(urls []string, source string) error {
	for _, url := range urls {
		if err := s.AddTarget(url, source); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTarget removes a target. Deleting an absent URL is not an error.
func (s *TargetStore) DeleteTarget(url string) error {
	_, err := s.db.Exec(s.dialect.rebind("DELETE FROM targets WHERE url = ?"), url)
	if err != nil {
		return common.WrapError(err, "failed to delete target")
	}
	return nil
}

// GetURLs returns a read-only projection of the target table.
func (s *TargetStore) GetURLs(opts ListOptions) ([]string, error) {
	fields := "url"
	if opts.WithSource {
		fields += ", source"
	}

	query := "SELECT " + fields + " FROM targets"
	var clauses []string
	var args []any
	if opts.UnscannedOnly {
		clauses = append(clauses, "scanned != 1")
	}
	if opts.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, opts.Source)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.Query(s.dialect.rebind(query), args...)
	if err != nil {
		return nil, common.WrapError(err, "failed to get targets")
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		if opts.WithSource {
			var url string
			var source sql.NullString
			if err := rows.Scan(&url, &source); err != nil {
				return nil, common.WrapError(err, "failed to scan target row")
			}
			urls = append(urls, url+" | "+source.String)
			continue
		}
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, common.WrapError(err, "failed to scan target row")
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "failed to read target rows")
	}

	if opts.Randomize {
		rand.Shuffle(len(urls), func(i, j int) {
			urls[i], urls[j] = urls[j], urls[i]
		})
	}

	return urls, nil
}

// ClaimNextTarget selects the next unscanned target and claims it. Each
// candidate is marked scanned before its fingerprint is checked for
// novelty, so a crash between the two can under-scan but never hand the
// same fingerprint out twice. Candidates whose fingerprint matches a
// previous claim are consumed silently and the loop advances. Returns nil
// when no unscanned target remains.
func (s *TargetStore) ClaimNextTarget(randomize bool) (*models.Target, error) {
	candidates, err := s.GetURLs(ListOptions{UnscannedOnly: true, Randomize: randomize})
	if err != nil {
		return nil, err
	}

	for _, url := range candidates {
		fp := fingerprint.Generate(url)

		if err := s.markScanned(url); err != nil {
			return nil, err
		}

		seen, err := s.fingerprintSeen(fp)
		if err != nil {
			return nil, err
		}
		if seen {
			s.logger.Debug().Str("url", url).Msg("Skipping (matches fingerprint of previous scan)")
			continue
		}

		if err := s.recordFingerprint(fp); err != nil {
			return nil, err
		}
		return models.NewTarget(url, s.resolver), nil
	}

	return nil, nil
}

// markScanned flips the scanned flag for a URL. Retried on connection loss
// since long scan sessions are the most likely to outlive one.
func (s *TargetStore) markScanned(url string) error {
	return s.withRetry("mark target scanned", func() error {
		_, err := s.db.Exec(s.dialect.rebind("UPDATE targets SET scanned = 1 WHERE url = ?"), url)
		return err
	})
}

// fingerprintSeen reports whether a fingerprint is already recorded.
// Retried on connection loss.
func (s *TargetStore) fingerprintSeen(fp string) (bool, error) {
	var seen bool
	err := s.withRetry("fingerprint lookup", func() error {
		var found string
		err := s.db.QueryRow(s.dialect.rebind("SELECT fingerprint FROM fingerprints WHERE fingerprint = ?"), fp).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			seen = false
			return nil
		}
		if err != nil {
			return err
		}
		seen = true
		return nil
	})
	return seen, err
}

// recordFingerprint inserts a fingerprint; duplicate inserts are no-ops.
func (s *TargetStore) recordFingerprint(fp string) error {
	if _, err := s.db.Exec(s.dialect.insertFingerprint, fp); err != nil {
		return common.WrapError(err, "failed to record fingerprint")
	}
	return nil
}

// FlushFingerprints clears the fingerprint set and resets every scanned
// flag, re-opening the whole pool for rescanning.
func (s *TargetStore) FlushFingerprints() error {
	s.logger.Info().Msg("Flushing fingerprints")
	if _, err := s.db.Exec("DELETE FROM fingerprints"); err != nil {
		return common.WrapError(err, "failed to flush fingerprints")
	}
	if _, err := s.db.Exec("UPDATE targets SET scanned = 0"); err != nil {
		return common.WrapError(err, "failed to reset scanned flags")
	}
	return nil
}

// FlushTargets empties the target table. Fingerprints are unaffected.
func (s *TargetStore) FlushTargets() error {
	s.logger.Info().Msg("Flushing targets")
	if _, err := s.db.Exec("DELETE FROM targets"); err != nil {
		return common.WrapError(err, "failed to flush targets")
	}
	return nil
}

// Prune applies fingerprint dedup and blocklist filtering without running
// any scanner. Targets whose fingerprint was already seen in this pass or
// recorded in the store are marked scanned and kept; targets matching a
// blocklist are deleted; every other target contributes its fingerprint to
// the seen set. Running Prune twice without intervening additions changes
// nothing on the second pass.
func (s *TargetStore) Prune(matchers []Matcher, randomize bool) error {
	urls, err := s.GetURLs(ListOptions{Randomize: randomize})
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, url := range urls {
		target := models.NewTarget(url, s.resolver)
		fp := fingerprint.Generate(url)

		_, seenThisPass := seen[fp]
		if !seenThisPass {
			recorded, err := s.fingerprintSeen(fp)
			if err != nil {
				return err
			}
			seenThisPass = recorded
		}
		if seenThisPass {
			s.logger.Debug().Str("url", url).Msg("Marking scanned (matches fingerprint of another target)")
			if err := s.markScanned(url); err != nil {
				return err
			}
			continue
		}

		if matchAny(matchers, target) {
			s.logger.Debug().Str("url", url).Msg("Deleting (matches blocklist pattern)")
			if err := s.DeleteTarget(url); err != nil {
				return err
			}
			continue
		}

		seen[fp] = struct{}{}
	}

	return nil
}

func matchAny(matchers []Matcher, target *models.Target) bool {
	for _, matcher := range matchers {
		if matcher.Match(target) {
			return true
		}
	}
	return false
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
