package brands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory("acme.com", "lit", []Brand{
		{ID: "lit", Code: "LIT", Name: "Lit", Origins: []string{"https://lit.acme.com"}},
		{ID: "play", Code: "PLAY", Name: "Play", Origins: []string{"https://play.acme.com", "https://play.acme.com/"}},
	})
	require.NoError(t, err)
	return d
}

func TestNewDirectoryValidation(t *testing.T) {
	_, err := NewDirectory("", "", []Brand{{ID: "a", Code: "A"}})
	assert.Error(t, err)

	_, err = NewDirectory("acme.com", "", nil)
	assert.Error(t, err)

	_, err = NewDirectory("acme.com", "missing", []Brand{{ID: "a", Code: "A"}})
	assert.Error(t, err)

	_, err = NewDirectory("acme.com", "", []Brand{{ID: "a", Code: "A"}, {ID: "a", Code: "B"}})
	assert.Error(t, err)
}

func TestDefaultBrandFallsBackToFirst(t *testing.T) {
	d, err := NewDirectory("acme.com", "", []Brand{{ID: "a", Code: "A"}, {ID: "b", Code: "B"}})
	require.NoError(t, err)
	assert.Equal(t, "a", d.DefaultBrandID())
}

func TestLookups(t *testing.T) {
	d := testDirectory(t)

	b, ok := d.ByID("play")
	require.True(t, ok)
	assert.Equal(t, "PLAY", b.Code)

	b, ok = d.ByCode("play")
	require.True(t, ok)
	assert.Equal(t, "play", b.ID)

	_, ok = d.ByID("nope")
	assert.False(t, ok)
}

func TestDefaultClientLists(t *testing.T) {
	d := testDirectory(t)

	assert.Equal(t, []string{
		"https://lit.acme.com/*",
		"https://play.acme.com/*",
	}, d.DefaultClientRedirectURIs())

	assert.Equal(t, []string{
		"https://lit.acme.com",
		"https://play.acme.com",
	}, d.DefaultClientOrigins())
}

func TestWithinParentDomain(t *testing.T) {
	d := testDirectory(t)

	assert.True(t, d.WithinParentDomain("acme.com"))
	assert.True(t, d.WithinParentDomain("sso.acme.com"))
	assert.True(t, d.WithinParentDomain("SSO.ACME.COM:443"))
	assert.False(t, d.WithinParentDomain("evilacme.com"))
	assert.False(t, d.WithinParentDomain("acme.com.evil.net"))
	assert.False(t, d.WithinParentDomain(""))
}
