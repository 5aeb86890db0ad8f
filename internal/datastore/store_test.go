package datastore

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/arkid15r/utiso-dorkbot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TargetStore {
	t.Helper()
	store, err := NewTargetStore(filepath.Join(t.TempDir(), "dorkbot.db"), nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddTarget_UpsertKeepsLatestSource(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://example.com/a", "first"))
	require.NoError(t, store.AddTarget("http://example.com/a", "second"))

	urls, err := store.GetURLs(ListOptions{WithSource: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/a | second"}, urls)
}

func TestAddTarget_UpsertNeverResetsScanned(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://example.com/a", "first"))

	claimed, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, store.AddTarget("http://example.com/a", "second"))

	unscanned, err := store.GetURLs(ListOptions{UnscannedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unscanned)
}

func TestDeleteTarget_AbsentURLIsNoError(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.DeleteTarget("http://never-added.example.com/"))
}

func TestGetURLs_SourceFilter(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://example.com/a", "alpha"))
	require.NoError(t, store.AddTarget("http://example.com/b", "beta"))

	urls, err := store.GetURLs(ListOptions{Source: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/a"}, urls)
}

func TestClaimNextTarget_DeduplicatesByFingerprint(t *testing.T) {
	store := newTestStore(t)

	// Same shape, differing only in parameter value: one fingerprint.
	require.NoError(t, store.AddTarget("http://h/p?x=1", ""))
	require.NoError(t, store.AddTarget("http://h/p?x=2", ""))

	first, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "http://h/p?x=1", first.URL)

	// The duplicate is consumed silently, so the pool is empty.
	second, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	assert.Nil(t, second)

	unscanned, err := store.GetURLs(ListOptions{UnscannedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unscanned)
}

func TestClaimNextTarget_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	target, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	assert.Nil(t, target)
}

func TestFlushFingerprints_ReopensPool(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://h/p?x=1", ""))
	claimed, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, store.FlushFingerprints())

	reclaimed, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Equal(t, "http://h/p?x=1", reclaimed.URL)
}

func TestFlushTargets_LeavesFingerprints(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://h/p?x=1", ""))
	_, err := store.ClaimNextTarget(false)
	require.NoError(t, err)

	require.NoError(t, store.FlushTargets())

	urls, err := store.GetURLs(ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, urls)

	// The fingerprint survives, so re-adding the same shape yields no
	// claimable target.
	require.NoError(t, store.AddTarget("http://h/p?x=3", ""))
	target, err := store.ClaimNextTarget(false)
	require.NoError(t, err)
	assert.Nil(t, target)
}

type hostMatcher struct {
	host string
}

func (m hostMatcher) Match(target *models.Target) bool {
	return target.Host == m.host
}

func TestPrune_DedupAndBlocklist(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://h/p?x=1", ""))
	require.NoError(t, store.AddTarget("http://h/p?x=2", ""))
	require.NoError(t, store.AddTarget("http://blocked.com/x", ""))

	matchers := []Matcher{hostMatcher{host: "blocked.com"}}
	require.NoError(t, store.Prune(matchers, false))

	// The blocklisted target is gone; the duplicate stays but inert.
	urls, err := store.GetURLs(ListOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"http://h/p?x=1", "http://h/p?x=2"}, urls)

	unscanned, err := store.GetURLs(ListOptions{UnscannedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://h/p?x=1"}, unscanned)
}

func TestPrune_Idempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddTarget("http://h/p?x=1", ""))
	require.NoError(t, store.AddTarget("http://h/p?x=2", ""))
	require.NoError(t, store.AddTarget("http://other.com/", ""))

	require.NoError(t, store.Prune(nil, false))
	afterFirst, err := store.GetURLs(ListOptions{UnscannedOnly: true})
	require.NoError(t, err)

	require.NoError(t, store.Prune(nil, false))
	afterSecond, err := store.GetURLs(ListOptions{UnscannedOnly: true})
	require.NoError(t, err)

	assert.Equal(t, afterFirst, afterSecond)

	all, err := store.GetURLs(ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWithRetry_RecoversFromTransientError(t *testing.T) {
	store := newTestStore(t)

	attempts := 0
	err := store.withRetry("test operation", func() error {
		attempts++
		if attempts < 3 {
			return syscall.ECONNRESET
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newTestStore(t)

	attempts := 0
	err := store.withRetry("test operation", func() error {
		attempts++
		return syscall.ECONNRESET
	})

	require.Error(t, err)
	assert.Equal(t, maxAttempts, attempts)
	assert.True(t, IsTransient(err))
}

func TestWithRetry_NonTransientIsImmediatelyFatal(t *testing.T) {
	store := newTestStore(t)

	attempts := 0
	err := store.withRetry("test operation", func() error {
		attempts++
		return assert.AnError
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.False(t, IsTransient(err))
}
