package datastore

import (
	"database/sql"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/rs/zerolog"
)

// BlocklistStore persists blocklist items in a backend database, selected
// by the same connection-string prefix scheme as the target store. It
// satisfies blocklist.ItemStore.
type BlocklistStore struct {
	dialect Dialect
	db      *sql.DB
	logger  zerolog.Logger
}

// NewBlocklistStore connects to the backing database and ensures the
// blocklist table exists.
func NewBlocklistStore(database string, logger zerolog.Logger) (*BlocklistStore, error) {
	dialect, err := ResolveDialect(database)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dialect.DSN)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to open %s blocklist database", dialect.Backend)
	}

	store := &BlocklistStore{
		dialect: dialect,
		db:      db,
		logger:  logger.With().Str("component", "BlocklistStore").Str("backend", dialect.Backend).Logger(),
	}

	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS blocklist (item VARCHAR PRIMARY KEY)"); err != nil {
		store.Close()
		return nil, common.WrapError(err, "failed to initialize blocklist schema")
	}

	return store, nil
}

// Close releases the backend connection.
func (s *BlocklistStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ReadItems returns every stored blocklist item.
func (s *BlocklistStore) ReadItems() ([]string, error) {
	rows, err := s.db.Query("SELECT item FROM blocklist")
	if err != nil {
		return nil, common.WrapError(err, "failed to read blocklist items")
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, common.WrapError(err, "failed to scan blocklist row")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "failed to read blocklist rows")
	}

	return items, nil
}

// AddItem stores one item; duplicates are no-ops.
func (s *BlocklistStore) AddItem(item string) error {
	if _, err := s.db.Exec(s.dialect.insertBlocklist, item); err != nil {
		return common.WrapError(err, "failed to add blocklist item")
	}
	return nil
}

// DeleteItem removes one item; deleting an absent item is not an error.
func (s *BlocklistStore) DeleteItem(item string) error {
	if _, err := s.db.Exec(s.dialect.rebind("DELETE FROM blocklist WHERE item = ?"), item); err != nil {
		return common.WrapError(err, "failed to delete blocklist item")
	}
	return nil
}

// Flush removes every stored item.
func (s *BlocklistStore) Flush() error {
	if _, err := s.db.Exec("DELETE FROM blocklist"); err != nil {
		return common.WrapError(err, "failed to flush blocklist")
	}
	return nil
}
