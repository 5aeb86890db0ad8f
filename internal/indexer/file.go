package indexer

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/rs/zerolog"
)

// fileIndexer reads target URLs from a text file, one per line. Blank
// lines and '#' comments are skipped. The default source label is the
// file's base name.
type fileIndexer struct {
	path   string
	logger zerolog.Logger
}

func newFileIndexer(opts Options, logger zerolog.Logger) (*fileIndexer, error) {
	path, ok := opts.Args["path"]
	if !ok || path == "" {
		return nil, common.NewError("file indexer requires a path argument (-o path=<file>)")
	}
	return &fileIndexer{path: path, logger: logger}, nil
}

func (f *fileIndexer) Name() string {
	return "file"
}

func (f *fileIndexer) Run(ctx context.Context) ([]string, string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, "", common.WrapErrorf(err, "failed to open url file '%s'", f.path)
	}
	defer file.Close()

	urls, err := readURLs(ctx, file)
	if err != nil {
		return nil, "", err
	}

	f.logger.Info().Int("count", len(urls)).Str("file", f.path).Msg("Indexed URLs from file")
	return urls, filepath.Base(f.path), nil
}

func readURLs(ctx context.Context, file *os.File) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.WrapError(err, "failed to read urls")
	}
	return urls, nil
}
