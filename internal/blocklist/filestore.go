package blocklist

import (
	"os"
	"strings"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/rs/zerolog"
)

// fileStore reads exclusion rules from a flat text file, one item per
// line. File-backed lists are read-only from the tool's point of view:
// add and delete are ignored with a warning, flush unlinks the file.
type fileStore struct {
	path   string
	logger zerolog.Logger
}

func newFileStore(path string, logger zerolog.Logger) (*fileStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, common.WrapError(err, "failed to read blocklist file")
	}
	return &fileStore{path: path, logger: logger}, nil
}

func (f *fileStore) ReadItems() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, common.WrapError(err, "failed to read blocklist file")
	}

	var items []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items, nil
}

func (f *fileStore) AddItem(item string) error {
	f.logger.Warn().Str("item", item).Msg("Add ignored (not implemented for file-based blocklist)")
	return nil
}

func (f *fileStore) DeleteItem(item string) error {
	f.logger.Warn().Str("item", item).Msg("Delete ignored (not implemented for file-based blocklist)")
	return nil
}

func (f *fileStore) Flush() error {
	if err := os.Remove(f.path); err != nil {
		return common.WrapError(err, "failed to delete blocklist file")
	}
	return nil
}

func (f *fileStore) Close() error {
	return nil
}
