package blocklist

import (
	"github.com/arkid15r/utiso-dorkbot/internal/datastore"
	"github.com/rs/zerolog"
)

// Open builds a blocklist from an identifier. Identifiers with a
// "scheme://" form select a database backing store through the same
// prefix scheme as the target database; anything else is treated as a
// flat text file of rules.
func Open(identifier string, logger zerolog.Logger) (*Blocklist, error) {
	if datastore.HasScheme(identifier) {
		store, err := datastore.NewBlocklistStore(identifier, logger)
		if err != nil {
			return nil, err
		}
		return New(store, logger)
	}

	store, err := newFileStore(identifier, logger)
	if err != nil {
		return nil, err
	}
	return New(store, logger)
}
