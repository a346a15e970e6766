package logger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"MarketBrief/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscard(t *testing.T) {
	l := Discard()
	require.NotNil(t, l)

	assert.NotPanics(t, func() {
		l.WithPrefix("x").WithContext("k", "v").Copy().Info().
			Str("a", "b").
			Strs("list", []string{"c"}).
			Int("n", 1).
			Int64("big", 2).
			Float64("f", 1.5).
			Bool("ok", true).
			Dur("elapsed", time.Second).
			Err(errors.New("boom")).
			Msg("dropped")
		l.Error().Msgf("dropped %d", 1)
	})

	logs, err := l.GetMemoryLogsWithLimit(10)
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, l.GetLogFilePath())
}

func TestNew_FileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := New(config.LoggingConfig{Level: "debug", Output: []string{"file"}, Dir: dir})
	require.NotNil(t, l)
	assert.DirExists(t, dir)
	assert.NotPanics(t, func() { l.Info().Str("test", "file").Msg("written") })
}
