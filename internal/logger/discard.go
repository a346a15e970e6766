package logger

import (
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

// Discard returns a logger that drops every event. Components fall back to
// it when constructed without a logger.
func Discard() arbor.ILogger { return discardLogger{} }

type discardLogger struct{}

func (discardLogger) SetContextChannel(chan []models.LogEvent) {}
func (discardLogger) SetContextChannelWithBuffer(chan []models.LogEvent, int, time.Duration) {}
func (discardLogger) SetChannel(string, chan []models.LogEvent) {}
func (discardLogger) SetChannelWithBuffer(string, chan []models.LogEvent, int, time.Duration) {}
func (discardLogger) UnregisterChannel(string) {}

func (d discardLogger) WithContextWriter(string) arbor.ILogger { return d }
func (d discardLogger) WithWriters([]writers.IWriter) arbor.ILogger { return d }
func (d discardLogger) WithConsoleWriter(models.WriterConfiguration) arbor.ILogger { return d }
func (d discardLogger) WithFileWriter(models.WriterConfiguration) arbor.ILogger { return d }
func (d discardLogger) WithMemoryWriter(models.WriterConfiguration) arbor.ILogger { return d }
func (d discardLogger) WithPrefix(string) arbor.ILogger { return d }
func (d discardLogger) WithCorrelationId(string) arbor.ILogger { return d }
func (d discardLogger) ClearCorrelationId() arbor.ILogger { return d }
func (d discardLogger) ClearContext() arbor.ILogger { return d }
func (d discardLogger) WithLevel(arbor.LogLevel) arbor.ILogger { return d }
func (d discardLogger) WithLevelFromString(string) arbor.ILogger { return d }
func (d discardLogger) WithContext(string, string) arbor.ILogger { return d }
func (d discardLogger) Copy() arbor.ILogger { return d }

func (discardLogger) Trace() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Debug() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Info() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Warn() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Error() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Fatal() arbor.ILogEvent { return discardEvent{} }
func (discardLogger) Panic() arbor.ILogEvent { return discardEvent{} }

func (discardLogger) GetMemoryLogs(string, arbor.LogLevel) (map[string]string, error) {
	return map[string]string{}, nil
}
func (discardLogger) GetMemoryLogsForCorrelation(string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (discardLogger) GetMemoryLogsWithLimit(int) (map[string]string, error) {
	return map[string]string{}, nil
}
func (discardLogger) GinWriter(models.WriterConfiguration) interface{} { return nil }
func (discardLogger) GetLogFilePath() string { return "" }

type discardEvent struct{}

func (e discardEvent) Strs(string, []string) arbor.ILogEvent { return e }
func (e discardEvent) Str(string, string) arbor.ILogEvent { return e }
func (e discardEvent) Err(error) arbor.ILogEvent { return e }
func (discardEvent) Msg(string) {}
func (discardEvent) Msgf(string, ...interface{}) {}
func (e discardEvent) Int(string, int) arbor.ILogEvent { return e }
func (e discardEvent) Int32(string, int32) arbor.ILogEvent { return e }
func (e discardEvent) Int64(string, int64) arbor.ILogEvent { return e }
func (e discardEvent) Float32(string, float32) arbor.ILogEvent { return e }
func (e discardEvent) Dur(string, time.Duration) arbor.ILogEvent { return e }
func (e discardEvent) Float64(string, float64) arbor.ILogEvent { return e }
func (e discardEvent) Bool(string, bool) arbor.ILogEvent { return e }
