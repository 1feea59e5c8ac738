// logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the level name used in prefixes and config values.
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a level.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

type levelLoggers struct {
	color   [4]*log.Logger
	noColor [4]*log.Logger
}

type Logger struct {
	loggers       levelLoggers
	file          *os.File
	consoleOutput io.Writer
	fileOutput    io.Writer
	minLevel      LogLevel
}

var (
	defaultLogger *Logger
	once          sync.Once
	mu            sync.Mutex
)

var prefixes = [4]struct{ color, plain string }{
	DEBUG: {colorGray + "[DEBUG] " + colorReset, "[DEBUG] "},
	INFO:  {colorReset + "[INFO]  " + colorReset, "[INFO]  "},
	WARN:  {colorYellow + "[WARN]  " + colorReset, "[WARN]  "},
	ERROR: {colorRed + "[ERROR] " + colorReset, "[ERROR] "},
}

// ensureInitialized creates a default logger if one doesn't exist.
// The starting level comes from ANIMVID_LOG_LEVEL.
func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if defaultLogger != nil {
			return
		}
		level, err := ParseLevel(os.Getenv("ANIMVID_LOG_LEVEL"))
		defaultLogger = &Logger{
			consoleOutput: os.Stderr,
			minLevel:      level,
		}
		defaultLogger.setupLoggers()
		if err != nil {
			defaultLogger.output(WARN, err.Error())
		}
	})
}

// Init initializes the logger with optional file and console output
// If filename is empty, logs only to console
// If console is false, logs only to file
func Init(filename string, console bool) error {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()

	level := INFO
	if defaultLogger != nil {
		level = defaultLogger.minLevel
		if defaultLogger.file != nil {
			defaultLogger.file.Close()
		}
	} else if parsed, err := ParseLevel(os.Getenv("ANIMVID_LOG_LEVEL")); err == nil {
		level = parsed
	}

	next := &Logger{minLevel: level}

	if filename != "" {
		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		next.file = file
		next.fileOutput = file
	}

	if console {
		next.consoleOutput = os.Stderr
	}

	if next.fileOutput == nil && next.consoleOutput == nil {
		return fmt.Errorf("no output destination specified")
	}

	next.setupLoggers()
	defaultLogger = next
	return nil
}

// SetOutput sends console output to w without colors. Used by tests and by
// the CLI when a progress bar owns the terminal.
func SetOutput(w io.Writer) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	defaultLogger.consoleOutput = nil
	defaultLogger.fileOutput = w
	defaultLogger.setupLoggers()
}

// SetLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR)
// Messages below this level will not be logged
func SetLevel(level LogLevel) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	defaultLogger.minLevel = level
}

// Level returns the current minimum level.
func Level() LogLevel {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger.minLevel
}

func (l *Logger) setupLoggers() {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	l.loggers = levelLoggers{}
	for level, p := range prefixes {
		if l.consoleOutput != nil {
			l.loggers.color[level] = log.New(l.consoleOutput, p.color, flags)
		}
		if l.fileOutput != nil {
			l.loggers.noColor[level] = log.New(l.fileOutput, p.plain, flags)
		}
	}
}

// Close closes the log file if one is open
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
		defaultLogger.file = nil
		defaultLogger.fileOutput = nil
		defaultLogger.setupLoggers()
	}
}

// output writes msg at level. Calldepth 4 skips output, emit and the
// exported helper so Lshortfile points at the caller.
func (l *Logger) output(level LogLevel, msg string) {
	if level < l.minLevel {
		return
	}
	if lg := l.loggers.color[level]; lg != nil {
		lg.Output(4, msg)
	}
	if lg := l.loggers.noColor[level]; lg != nil {
		lg.Output(4, msg)
	}
}

func emit(level LogLevel, msg string) {
	ensureInitialized()
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	l.output(level, msg)
}

// Debug logs a debug message
func Debug(v ...interface{}) { emit(DEBUG, fmt.Sprint(v...)) }

// Debugf logs a formatted debug message
func Debugf(format string, v ...interface{}) { emit(DEBUG, fmt.Sprintf(format, v...)) }

// Info logs an info message
func Info(v ...interface{}) { emit(INFO, fmt.Sprint(v...)) }

// Infof logs a formatted info message
func Infof(format string, v ...interface{}) { emit(INFO, fmt.Sprintf(format, v...)) }

// Warn logs a warning message
func Warn(v ...interface{}) { emit(WARN, fmt.Sprint(v...)) }

// Warnf logs a formatted warning message
func Warnf(format string, v ...interface{}) { emit(WARN, fmt.Sprintf(format, v...)) }

// Error logs an error message
func Error(v ...interface{}) { emit(ERROR, fmt.Sprint(v...)) }

// Errorf logs a formatted error message
func Errorf(format string, v ...interface{}) { emit(ERROR, fmt.Sprintf(format, v...)) }

// Fatal logs an error message and exits the program
func Fatal(v ...interface{}) {
	emit(ERROR, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits the program
func Fatalf(format string, v ...interface{}) {
	emit(ERROR, fmt.Sprintf(format, v...))
	os.Exit(1)
}
