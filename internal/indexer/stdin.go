package indexer

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// stdinIndexer reads target URLs from standard input, one per line.
type stdinIndexer struct {
	logger zerolog.Logger
}

func newStdinIndexer(logger zerolog.Logger) *stdinIndexer {
	return &stdinIndexer{logger: logger}
}

func (s *stdinIndexer) Name() string {
	return "stdin"
}

func (s *stdinIndexer) Run(ctx context.Context) ([]string, string, error) {
	urls, err := readURLs(ctx, os.Stdin)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Int("count", len(urls)).Msg("Indexed URLs from stdin")
	return urls, "stdin", nil
}
