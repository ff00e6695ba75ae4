// Package logger provides the logging interface shared by the prestoimport
// decoders, importer and CLI.
//
// Nothing logged through it may carry cookie values, passwords or key
// material. Decoders log counts, tags and stream offsets only.
package logger

import (
	"fmt"
	"log"
)

// Logger is a printf-style leveled logger.
type Logger interface {
	// Debug logs detail useful when diagnosing a corrupt container
	// (e.g., "skipped unknown tag 0x4a at offset 912").
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "imported 42 cookies").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., "dropped 2 invalid cookies").
	Warning(format string, args ...interface{})

	// Error logs a failure (e.g., "wand.dat: salt mismatch").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., a log file).
	// Safe to call multiple times.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console or file output.
// Debug messages are dropped unless enabled with SetDebug.
type StandardLogger struct {
	logger *log.Logger
	debug  bool
	closer func() error
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// NewFileLogger is a StandardLogger whose Close also runs closeFn, typically
// the Close of the file l writes to.
func NewFileLogger(l *log.Logger, closeFn func() error) *StandardLogger {
	return &StandardLogger{logger: l, closer: closeFn}
}

// SetDebug turns [DEBUG] output on or off.
func (s *StandardLogger) SetDebug(on bool) *StandardLogger {
	s.debug = on
	return s
}

// Debug logs with a [DEBUG] prefix when debug output is on.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close runs the close function given to NewFileLogger, once.
func (s *StandardLogger) Close() error {
	if s.closer == nil {
		return nil
	}
	fn := s.closer
	s.closer = nil
	return fn()
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests.
type MockLogger struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// All returns every recorded message regardless of level.
func (m *MockLogger) All() []string {
	var out []string
	out = append(out, m.DebugCalls...)
	out = append(out, m.InfoCalls...)
	out = append(out, m.WarningCalls...)
	return append(out, m.ErrorCalls...)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

var _ Logger = (*MockLogger)(nil)
