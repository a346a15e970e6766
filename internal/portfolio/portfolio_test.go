package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = Load("")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	in := map[string]any{
		"TSLA": map[string]any{"shares": 10.0, "allocation": 0.25},
		"AAPL": map[string]any{"shares": 5.0, "allocation": 0.75},
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"AAPL", "TSLA"}, Keys(out))
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`["AAPL"]`), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "portfolio.json")
	require.NoError(t, Save(path, map[string]any{"cash": 100.0}))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cash": 100.0}, out)

	assert.Error(t, Save("", map[string]any{}))
}

func TestParse(t *testing.T) {
	p, err := Parse(`{"AAPL": 10, "note": "long term"}`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p["AAPL"])
	assert.Equal(t, "long term", p["note"])

	for _, bad := range []string{`["AAPL"]`, `null`, `not json`, ``} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}
