package scanner

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
)

// commandScanner invokes an external scanner binary once per target, with
// the target URL appended as the final argument. The command is expected
// to print its findings as a JSON value on stdout; a non-zero exit or
// unparseable output is the failure sentinel.
type commandScanner struct {
	command []string
	logger  zerolog.Logger
}

func newCommandScanner(opts Options, logger zerolog.Logger) (*commandScanner, error) {
	raw, ok := opts.Args["cmd"]
	if !ok || raw == "" {
		return nil, common.NewError("command scanner requires a cmd argument (-p cmd=<command>)")
	}
	return &commandScanner{
		command: strings.Fields(raw),
		logger:  logger,
	}, nil
}

func (c *commandScanner) Name() string {
	return "command"
}

func (c *commandScanner) Run(ctx context.Context, target *models.Target) (any, error) {
	args := append(append([]string{}, c.command[1:]...), target.URL)
	cmd := exec.CommandContext(ctx, c.command[0], args...)

	output, err := cmd.Output()
	if err != nil {
		return nil, common.WrapErrorf(err, "scanner command failed for '%s'", target.URL)
	}

	var findings any
	if err := json.Unmarshal(output, &findings); err != nil {
		return nil, common.WrapError(err, "scanner output is not valid JSON")
	}
	return findings, nil
}
