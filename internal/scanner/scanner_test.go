package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestNew_UnknownModule(t *testing.T) {
	_, err := New("wapiti", Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanner module not found")
}

func TestNew_CommandRequiresCmd(t *testing.T) {
	_, err := New("command", Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestCommandScanner_Run(t *testing.T) {
	script := writeScript(t, `echo "[{\"url\": \"$1\", \"type\": \"sqli\"}]"`)

	sc, err := New("command", Options{Args: map[string]string{"cmd": script}}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "command", sc.Name())

	target := &models.Target{URL: "http://example.com/page?id=1"}
	results, err := sc.Run(context.Background(), target)
	require.NoError(t, err)

	findings, ok := results.([]any)
	require.True(t, ok)
	require.Len(t, findings, 1)
	first, ok := findings[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://example.com/page?id=1", first["url"])
	assert.Equal(t, "sqli", first["type"])
}

func TestCommandScanner_ExtraArgsPrecedeURL(t *testing.T) {
	script := writeScript(t, `echo "[\"$1\", \"$2\"]"`)

	sc, err := New("command", Options{Args: map[string]string{"cmd": script + " --json"}}, zerolog.Nop())
	require.NoError(t, err)

	results, err := sc.Run(context.Background(), &models.Target{URL: "http://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, []any{"--json", "http://example.com/"}, results)
}

func TestCommandScanner_NonZeroExit(t *testing.T) {
	script := writeScript(t, "exit 3")

	sc, err := New("command", Options{Args: map[string]string{"cmd": script}}, zerolog.Nop())
	require.NoError(t, err)

	_, err = sc.Run(context.Background(), &models.Target{URL: "http://example.com/"})
	assert.Error(t, err)
}

func TestCommandScanner_InvalidJSONOutput(t *testing.T) {
	script := writeScript(t, "echo not json")

	sc, err := New("command", Options{Args: map[string]string{"cmd": script}}, zerolog.Nop())
	require.NoError(t, err)

	_, err = sc.Run(context.Background(), &models.Target{URL: "http://example.com/"})
	assert.Error(t, err)
}
