package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Deterministic(t *testing.T) {
	url := "http://example.com/app/page.php?id=1&cat=2"
	assert.Equal(t, Generate(url), Generate(url))
}

func TestGenerate_ParameterOrderIgnored(t *testing.T) {
	a := Generate("http://example.com/a?x=1&y=2")
	b := Generate("http://example.com/a?y=2&x=1")
	assert.Equal(t, a, b)
}

func TestGenerate_ParameterValuesIgnored(t *testing.T) {
	a := Generate("http://example.com/a?x=1&y=2")
	b := Generate("http://example.com/a?x=9999&y=other")
	assert.Equal(t, a, b)
}

func TestGenerate_ParameterNamesDiffer(t *testing.T) {
	a := Generate("http://example.com/a?x=1")
	b := Generate("http://example.com/a?z=1")
	assert.NotEqual(t, a, b)
}

func TestGenerate_PathDiffers(t *testing.T) {
	a := Generate("http://example.com/a?x=1")
	b := Generate("http://example.com/b?x=1")
	assert.NotEqual(t, a, b)
}

func TestGenerate_HostDiffers(t *testing.T) {
	a := Generate("http://example.com/a?x=1")
	b := Generate("http://example.org/a?x=1")
	assert.NotEqual(t, a, b)
}

// A parameter with an empty value does not contribute its name, so
// "?x=&y=1" fingerprints like "?y=1" alone.
func TestGenerate_EmptyValueExcluded(t *testing.T) {
	a := Generate("http://example.com/a?x=&y=1")
	b := Generate("http://example.com/a?y=1")
	assert.Equal(t, a, b)
}

// Same path depth and final segment with identical parameter names
// collapse even when intermediate segments differ only in values
// elsewhere; differing depth must not collapse.
func TestGenerate_DepthMatters(t *testing.T) {
	a := Generate("http://example.com/a/page?x=1")
	b := Generate("http://example.com/a/b/page?x=1")
	assert.NotEqual(t, a, b)
}

func TestGenerate_Length(t *testing.T) {
	assert.Len(t, Generate("http://example.com/"), 32)
}

func TestURLHash_Stable(t *testing.T) {
	assert.Equal(t, URLHash("http://example.com/x"), URLHash("http://example.com/x"))
	assert.NotEqual(t, URLHash("http://example.com/x"), URLHash("http://example.com/y"))
}
