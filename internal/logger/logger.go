package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m",
	INFO:  "\033[32m",
	WARN:  "\033[33m",
	ERROR: "\033[31m",
	FATAL: "\033[35m",
}

const colorReset = "\033[0m"

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger writes leveled, component-tagged log lines.
// Child loggers share the parent's writer and lock.
type Logger struct {
	mu          *sync.Mutex
	level       Level
	output      io.Writer
	component   string
	format      string // "text" or "json"
	colorOutput bool
	fields      Fields
}

// Fields represents structured logging fields
type Fields map[string]interface{}

// New creates a logger writing to stderr
func New(levelStr, format, component string) *Logger {
	return NewWithWriter(os.Stderr, levelStr, format, component)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, levelStr, format, component string) *Logger {
	if format != "json" {
		format = "text"
	}
	return &Logger{
		mu:          &sync.Mutex{},
		level:       parseLevel(levelStr),
		output:      w,
		component:   component,
		format:      format,
		colorOutput: format == "text" && isTerminal(w),
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWithWriter(io.Discard, "fatal", "text", "")
}

// WithComponent creates a child logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// WithFields creates a child logger that adds fields to every line
func (l *Logger) WithFields(fields Fields) *Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Fields) {
	l.log(ERROR, msg, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.log(FATAL, msg, fields)
	os.Exit(1)
}

func (l *Logger) log(level Level, msg string, fields []Fields) {
	if !l.Enabled(level) {
		return
	}

	all := mergeFields(append([]Fields{l.fields}, fields...)...)
	timestamp := time.Now().Format(timestampFormat)

	var line string
	if l.format == "json" {
		line = l.formatJSON(timestamp, level, msg, all)
	} else {
		line = l.formatText(timestamp, level, msg, all)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.output, line)
}

// Format: [TIMESTAMP] LEVEL [COMPONENT] message key=value key=value
func (l *Logger) formatText(timestamp string, level Level, msg string, fields Fields) string {
	var b strings.Builder

	if l.colorOutput {
		b.WriteString(levelColors[level])
	}
	fmt.Fprintf(&b, "[%s] %-5s", timestamp, levelNames[level])
	if l.colorOutput {
		b.WriteString(colorReset)
	}

	if l.component != "" {
		fmt.Fprintf(&b, " [%s]", l.component)
	}
	b.WriteString(" ")
	b.WriteString(msg)

	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}

	b.WriteString("\n")
	return b.String()
}

func (l *Logger) formatJSON(timestamp string, level Level, msg string, fields Fields) string {
	entry := make(map[string]interface{}, len(fields)+5)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["timestamp"] = timestamp
	entry["level"] = levelNames[level]
	entry["message"] = msg
	if l.component != "" {
		entry["component"] = l.component
	}

	// Caller info for errors and above
	if level >= ERROR {
		if _, file, line, ok := runtime.Caller(3); ok {
			entry["caller"] = fmt.Sprintf("%s:%d", file, line)
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data, _ = json.Marshal(map[string]string{
			"timestamp": timestamp,
			"level":     levelNames[level],
			"message":   msg,
			"log_error": err.Error(),
		})
	}
	return string(data) + "\n"
}

// parseLevel converts string to Level
func parseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// ValidLevel reports whether s names a known level
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "FATAL":
		return true
	}
	return false
}

// mergeFields combines multiple Fields maps, later maps win
func mergeFields(fields ...Fields) Fields {
	result := Fields{}
	for _, f := range fields {
		for k, v := range f {
			result[k] = v
		}
	}
	return result
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
