// Package reporter writes one JSON report document per scanned target.
package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arkid15r/utiso-dorkbot/internal/common"
	"github.com/arkid15r/utiso-dorkbot/internal/fingerprint"
	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
)

// Report is the persisted result of one target scan.
type Report struct {
	Vulnerabilities any    `json:"vulnerabilities"`
	StartTime       string `json:"starttime"`
	EndTime         string `json:"endtime"`
	URL             string `json:"url"`
	Label           string `json:"label"`
}

// JSONReporter writes reports into an output directory, one file per
// target, named by a stable hash of the target URL.
type JSONReporter struct {
	outputDir string
	label     string
	logger    zerolog.Logger
}

// NewJSONReporter ensures the output directory exists and returns a
// reporter writing into it.
func NewJSONReporter(outputDir, label string, logger zerolog.Logger) (*JSONReporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create report directory '%s'", outputDir)
	}
	return &JSONReporter{
		outputDir: outputDir,
		label:     label,
		logger:    logger.With().Str("component", "JSONReporter").Logger(),
	}, nil
}

// Write persists the scan results for one target and returns the report
// path.
func (r *JSONReporter) Write(target *models.Target, results any) (string, error) {
	report := Report{
		Vulnerabilities: results,
		StartTime:       target.StartTime.Format(time.RFC3339),
		EndTime:         target.EndTime.Format(time.RFC3339),
		URL:             target.URL,
		Label:           r.label,
	}

	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return "", common.WrapError(err, "failed to marshal report")
	}

	path := filepath.Join(r.outputDir, fingerprint.URLHash(target.URL)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", common.WrapErrorf(err, "failed to write report '%s'", path)
	}

	r.logger.Info().Str("path", path).Msg("Report saved")
	return path, nil
}
