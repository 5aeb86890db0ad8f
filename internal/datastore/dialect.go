package datastore

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arkid15r/utiso-dorkbot/internal/common"

	// Database drivers for the three supported backends.
	_ "github.com/apache/calcite-avatica-go/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Backend identifiers, selected by connection-string prefix.
const (
	BackendSQLite     = "sqlite"
	BackendPostgreSQL = "postgresql"
	BackendPhoenix    = "phoenixdb"
)

const (
	postgresPrefix = "postgresql://"
	phoenixPrefix  = "phoenixdb://"
	sqlitePrefix   = "sqlite3://"
)

// Dialect captures everything backend-specific about a storage connection:
// the registered driver, the resolved DSN and the upsert statements whose
// syntax differs between engines. All other statements use qmark
// placeholders and are rebound for engines with numbered parameters.
type Dialect struct {
	Backend string
	Driver  string
	DSN     string

	numbered bool

	upsertTarget      string
	insertFingerprint string
	insertBlocklist   string
}

// ResolveDialect maps a database identifier onto a concrete dialect.
// "postgresql://..." selects the PostgreSQL backend, "phoenixdb://..."
// selects Phoenix with the prefix stripped from the remainder, and
// anything else (optionally prefixed "sqlite3://") is treated as the path
// of an embedded SQLite database whose parent directory is created when
// missing.
func ResolveDialect(database string) (Dialect, error) {
	switch {
	case strings.HasPrefix(database, postgresPrefix):
		return Dialect{
			Backend:           BackendPostgreSQL,
			Driver:            "pgx",
			DSN:               database,
			numbered:          true,
			upsertTarget:      "INSERT INTO targets (url, source) VALUES ($1, $2) ON CONFLICT (url) DO UPDATE SET source = excluded.source",
			insertFingerprint: "INSERT INTO fingerprints (fingerprint) VALUES ($1) ON CONFLICT DO NOTHING",
			insertBlocklist:   "INSERT INTO blocklist (item) VALUES ($1) ON CONFLICT DO NOTHING",
		}, nil

	case strings.HasPrefix(database, phoenixPrefix):
		return Dialect{
			Backend:           BackendPhoenix,
			Driver:            "avatica",
			DSN:               strings.TrimPrefix(database, phoenixPrefix),
			upsertTarget:      "UPSERT INTO targets (url, source) VALUES (?, ?)",
			insertFingerprint: "UPSERT INTO fingerprints (fingerprint) VALUES (?)",
			insertBlocklist:   "UPSERT INTO blocklist (item) VALUES (?)",
		}, nil

	default:
		path, err := resolveSQLitePath(strings.TrimPrefix(database, sqlitePrefix))
		if err != nil {
			return Dialect{}, err
		}
		return Dialect{
			Backend:           BackendSQLite,
			Driver:            "sqlite",
			DSN:               path,
			upsertTarget:      "INSERT INTO targets (url, source) VALUES (?, ?) ON CONFLICT(url) DO UPDATE SET source = excluded.source",
			insertFingerprint: "INSERT OR IGNORE INTO fingerprints (fingerprint) VALUES (?)",
			insertBlocklist:   "INSERT OR IGNORE INTO blocklist (item) VALUES (?)",
		}, nil
	}
}

// HasScheme reports whether the identifier carries a "scheme://" form,
// which distinguishes database-backed blocklists from flat files.
func HasScheme(identifier string) bool {
	idx := strings.Index(identifier, "://")
	return idx > 0
}

func resolveSQLitePath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", common.WrapError(err, "failed to expand database path")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", common.WrapErrorf(err, "failed to create database directory '%s'", dir)
		}
	}

	return path, nil
}

// rebind rewrites qmark placeholders into numbered ones for engines that
// require them.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var builder strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			builder.WriteString("$" + strconv.Itoa(n))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
