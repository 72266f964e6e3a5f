package logger

// Logger defines the interface for logging, args are key value pairs
type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NopLogger discards everything
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// OrNop returns l or a NopLogger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}

	return l
}
