// Package scanner defines the collaborator contract for scanner modules.
// A scanner receives one claimed target and returns a serializable result
// value; a failing scan returns an error and the target is still
// considered consumed, just without a report.
package scanner

import (
	"context"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
)

// Options carries the working directory and the free-form key=value
// arguments passed to the module on the command line.
type Options struct {
	Directory string
	Args      map[string]string
}

// Scanner runs one external scan per target.
type Scanner interface {
	Name() string
	// Run returns the scan findings as a JSON-serializable value. An
	// error is the failure sentinel: the target advances without a
	// report.
	Run(ctx context.Context, target *models.Target) (any, error)
}

// New constructs a built-in scanner module by name.
func New(name string, opts Options, logger zerolog.Logger) (Scanner, error) {
	moduleLogger := logger.With().Str("scanner", name).Logger()
	switch name {
	case "command":
		return newCommandScanner(opts, moduleLogger)
	default:
		return nil, common.NewError("scanner module not found: %s", name)
	}
}
