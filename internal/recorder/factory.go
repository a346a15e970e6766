package recorder

import (
	"fmt"

	"MarketBrief/internal/config"

	"github.com/ternarybob/arbor"
)

// Open returns the recorder selected by cfg.Driver.
func Open(cfg config.DatabaseConfig, logger arbor.ILogger) (Recorder, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteRecorder(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresRecorder(cfg.PostgresDSN, logger)
	case "none", "":
		return NewNoopRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
