package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestLogger buffers log entries and only writes them to the test output
// when the test fails
type TestLogger struct {
	t      *testing.T
	buffer []logEntry
	mu     sync.Mutex
}

type logEntry struct {
	level     string
	message   string
	args      []interface{}
	timestamp time.Time
}

// NewTestLogger creates a new TestLogger bound to t
func NewTestLogger(t *testing.T) *TestLogger {
	logger := &TestLogger{
		t:      t,
		buffer: make([]logEntry, 0),
	}

	t.Cleanup(logger.flushIfFailed)

	return logger
}

var _ Logger = (*TestLogger)(nil)

func (l *TestLogger) Info(msg string, args ...interface{}) {
	l.addEntry("INFO", msg, args)
}

func (l *TestLogger) Debug(msg string, args ...interface{}) {
	l.addEntry("DEBUG", msg, args)
}

func (l *TestLogger) Warn(msg string, args ...interface{}) {
	l.addEntry("WARN", msg, args)
}

func (l *TestLogger) Error(msg string, args ...interface{}) {
	l.addEntry("ERROR", msg, args)
}

// Messages returns the buffered messages with the given level, all levels
// when level is empty
func (l *TestLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []string{}
	for _, e := range l.buffer {
		if level == "" || e.level == level {
			out = append(out, e.message)
		}
	}

	return out
}

func (l *TestLogger) addEntry(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer = append(l.buffer, logEntry{
		level:     level,
		message:   msg,
		args:      args,
		timestamp: time.Now(),
	})
}

func (e logEntry) String() string {
	msg := fmt.Sprintf("[%s] [%s] %s", e.timestamp.Format("15:04:05.000"), e.level, e.message)

	// key=value like charmbracelet/log, a trailing odd arg is printed bare
	parts := []string{}
	for i := 0; i < len(e.args); i += 2 {
		if i+1 < len(e.args) {
			parts = append(parts, fmt.Sprintf("%v=%v", e.args[i], e.args[i+1]))
		} else {
			parts = append(parts, fmt.Sprintf("%v", e.args[i]))
		}
	}

	if len(parts) > 0 {
		msg += " " + strings.Join(parts, " ")
	}

	return msg
}

func (l *TestLogger) flushIfFailed() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.t.Failed() {
		l.t.Log("=== Buffered Logs (test failed) ===")
		for _, entry := range l.buffer {
			l.t.Log(entry.String())
		}
		l.t.Log("=== End Buffered Logs ===")
	}

	l.buffer = l.buffer[:0]
}
