package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownModule(t *testing.T) {
	_, err := New("shodan", Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexer module not found")
}

func TestNew_FileRequiresPath(t *testing.T) {
	_, err := New("file", Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestFileIndexer_Run(t *testing.T) {
	content := `
http://example.com/a

# a comment
  http://example.com/b
`
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	idx, err := New("file", Options{Args: map[string]string{"path": path}}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "file", idx.Name())

	urls, source, err := idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/a", "http://example.com/b"}, urls)
	assert.Equal(t, "targets.txt", source)
}

func TestFileIndexer_MissingFile(t *testing.T) {
	idx, err := New("file", Options{Args: map[string]string{"path": filepath.Join(t.TempDir(), "nope.txt")}}, zerolog.Nop())
	require.NoError(t, err)

	_, _, err = idx.Run(context.Background())
	assert.Error(t, err)
}

func TestFileIndexer_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("http://example.com/a\n"), 0644))

	idx, err := New("file", Options{Args: map[string]string{"path": path}}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = idx.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
