package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_MODE", "")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_DSN", "user:pw@/aap")
	t.Setenv("DEFAULT_LANGUAGE", "FR")
	t.Setenv("TEMPLATE_FETCH_TIMEOUT", "3s")

	c := Default()
	applyEnv(c)
	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, "release", c.Server.Mode)
	assert.Equal(t, "mysql", c.Database.Type)
	assert.Equal(t, "user:pw@/aap", c.Database.DSN)
	assert.Equal(t, "fr", c.I18n.DefaultLanguage)
	assert.Equal(t, 3*time.Second, c.Fetch.Timeout)
}

func TestInvalidTimeoutKeepsDefault(t *testing.T) {
	t.Setenv("TEMPLATE_FETCH_TIMEOUT", "soon")
	c := Default()
	applyEnv(c)
	assert.Equal(t, 15*time.Second, c.Fetch.Timeout)
}

func TestSaveAndTemplateLookup(t *testing.T) {
	c := Default()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wahafa_2_fr")

	entry, ok := c.Template("wahafa_2_fr")
	require.True(t, ok)
	assert.Equal(t, "french", entry.Language)
	_, ok = c.Template("missing")
	assert.False(t, ok)
}
