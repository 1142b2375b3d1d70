package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	p := NewProvider()
	assert.Equal(t, "Kenya", p.Name("en", "KE"))
	assert.Equal(t, "Kenya", p.Name("en", "ke"))
	assert.Equal(t, "Mozambique", p.Name("fr", "MZ"))
	assert.Equal(t, "Allemagne", p.Name("fr", "DE"))
	assert.Equal(t, "Atlantis", p.Name("en", "Atlantis"))
}

func TestCountriesSortedAndCached(t *testing.T) {
	p := NewProvider()
	list := p.Countries("en")
	require.Len(t, list, len(codes))
	for i := 1; i < len(list); i++ {
		assert.NotEqual(t, list[i-1].Code, list[i].Code)
	}
	assert.Equal(t, "AF", list[0].Code)

	list[0].Name = "changed"
	assert.NotEqual(t, "changed", p.Countries("en")[0].Name)
}

func TestUnsupportedLanguageUsesEnglish(t *testing.T) {
	p := NewProvider()
	assert.NotEmpty(t, p.Name("lg", "UG"))
	assert.Len(t, p.Countries("lg"), len(codes))
}

func TestLookup(t *testing.T) {
	p := NewProvider()
	code, ok := p.Lookup("Kenya")
	assert.True(t, ok)
	assert.Equal(t, "KE", code)

	code, ok = p.Lookup("Allemagne", "en", "fr")
	assert.True(t, ok)
	assert.Equal(t, "DE", code)

	_, ok = p.Lookup("Atlantis")
	assert.False(t, ok)
}
