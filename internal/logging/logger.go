package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	tlog "github.com/tacusci/logging/v2"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var levelOrder = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// ParseLevel converts a level name such as "info" or "WARN" to a LogLevel
func ParseLevel(name string) (LogLevel, error) {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := levelOrder[level]; !ok {
		return LogLevelInfo, errors.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// SetLevel sets the process-wide console level
func SetLevel(level LogLevel) {
	tlog.ColorLogLevelLabelOnly = true
	tlog.CallbackLabel = false

	switch level {
	case LogLevelDebug:
		tlog.CurrentLoggingLevel = tlog.DebugLevel
		tlog.CallbackLabel = true
	case LogLevelInfo:
		tlog.CurrentLoggingLevel = tlog.InfoLevel
	default:
		tlog.CurrentLoggingLevel = tlog.WarnLevel
	}
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Error     error                  `json:"error,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// LogFormatter formats log entries for output
type LogFormatter interface {
	Format(entry *LogEntry) string
}

// TextFormatter formats logs as human-readable text
type TextFormatter struct {
	// OmitTimestamp drops the leading timestamp, for sinks that add their own
	OmitTimestamp bool
}

func (f *TextFormatter) Format(entry *LogEntry) string {
	var b strings.Builder
	if !f.OmitTimestamp {
		fmt.Fprintf(&b, "[%s] %s ", entry.Timestamp.Format("2006-01-02 15:04:05.000"), entry.Level)
	}
	fmt.Fprintf(&b, "[%s] %s", entry.Component, entry.Message)

	if entry.Error != nil {
		fmt.Fprintf(&b, " | error=%v", entry.Error)
	}

	if len(entry.Context) > 0 {
		keys := make([]string, 0, len(entry.Context))
		for k := range entry.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Context[k])
		}
	}

	return b.String()
}

// Logger provides structured logging functionality. Without extra outputs
// entries go to the console; AddOutput mirrors them to writers such as a
// log file.
type Logger struct {
	component string
	minLevel  LogLevel
	console   bool
	outputs   []io.Writer
	mu        sync.Mutex
	formatter LogFormatter
	now       func() time.Time
}

// NewLogger creates a new console logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		minLevel:  LogLevelDebug,
		console:   true,
		formatter: &TextFormatter{},
		now:       time.Now,
	}
}

// NewLoggerWithOutput creates a logger that writes only to w
func NewLoggerWithOutput(component string, w io.Writer) *Logger {
	l := NewLogger(component)
	l.console = false
	l.outputs = []io.Writer{w}
	return l
}

// SetMinLevel sets the minimum log level to output
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// AddOutput adds an output writer for logs
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
	return l
}

// Named returns a logger for another component sharing this logger's outputs
func (l *Logger) Named(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	outputs := make([]io.Writer, len(l.outputs))
	copy(outputs, l.outputs)

	return &Logger{
		component: component,
		minLevel:  l.minLevel,
		console:   l.console,
		outputs:   outputs,
		formatter: l.formatter,
		now:       l.now,
	}
}

// log writes a log entry
func (l *Logger) log(level LogLevel, message string, err error, context map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelOrder[level] < levelOrder[l.minLevel] {
		return
	}

	entry := &LogEntry{
		Timestamp: l.now(),
		Level:     level,
		Component: l.component,
		Message:   message,
		Error:     err,
		Context:   context,
	}

	if l.console {
		writeConsole(entry)
	}

	if len(l.outputs) == 0 {
		return
	}

	formatted := l.formatter.Format(entry) + "\n"
	for _, output := range l.outputs {
		output.Write([]byte(formatted))
	}
}

// writeConsole hands an entry to the console logger, which adds its own
// timestamp and coloured level label
func writeConsole(entry *LogEntry) {
	line := (&TextFormatter{OmitTimestamp: true}).Format(entry)

	switch entry.Level {
	case LogLevelDebug:
		tlog.Debug("%s", line)
	case LogLevelInfo:
		tlog.Info("%s", line)
	case LogLevelWarn:
		tlog.Warn("%s", line)
	default:
		tlog.Error("%s", line)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, message, nil, nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LogLevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, message, nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LogLevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, message, nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LogLevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, message, err, nil)
}

// WithContext returns a logger that attaches context to every entry
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(LogLevelDebug, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(LogLevelInfo, message, nil, cl.context)
}

// Infof logs a formatted info message with pre-set context
func (cl *ContextLogger) Infof(format string, args ...interface{}) {
	cl.logger.log(LogLevelInfo, fmt.Sprintf(format, args...), nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(LogLevelError, message, err, cl.context)
}
