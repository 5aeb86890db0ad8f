// Package indexer defines the collaborator contract for target producers
// and the built-in modules. An indexer returns a sequence of URLs plus a
// default source label; the core treats it as an opaque producer.
package indexer

import (
	"context"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/rs/zerolog"
)

// Options carries the working directory and the free-form key=value
// arguments passed to the module on the command line.
type Options struct {
	Directory string
	Args      map[string]string
}

// Indexer produces candidate target URLs.
type Indexer interface {
	Name() string
	// Run returns the produced URLs and the default source label applied
	// when the user did not supply one.
	Run(ctx context.Context) ([]string, string, error)
}

// New constructs a built-in indexer module by name.
func New(name string, opts Options, logger zerolog.Logger) (Indexer, error) {
	moduleLogger := logger.With().Str("indexer", name).Logger()
	switch name {
	case "stdin":
		return newStdinIndexer(moduleLogger), nil
	case "file":
		return newFileIndexer(opts, moduleLogger)
	default:
		return nil, common.NewError("indexer module not found: %s", name)
	}
}
