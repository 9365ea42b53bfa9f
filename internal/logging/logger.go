package logging

// Leveled logging for airprobe

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Level represents the logging level.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelInfo
	LevelVerbose
	LevelDebug
)

// ParseLevel maps a flag value to a Level. Unknown values get Info.
func ParseLevel(s string) Level {
	switch s {
	case "silent":
		return LevelSilent
	case "error":
		return LevelError
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger writes leveled messages to stdout/stderr and optionally to a
// log file. Errors always reach stderr; the rest reach stdout only at
// verbose and up, so normal runs stay quiet.
type Logger struct {
	mu      sync.Mutex
	level   Level
	file    *os.File
	fileLog *log.Logger
	stdout  *log.Logger
	stderr  *log.Logger
}

// New creates a logger. logFile may be empty.
func New(level Level, logFile string) (*Logger, error) {
	l := &Logger{
		level:  level,
		stdout: log.New(os.Stdout, "", 0),
		stderr: log.New(os.Stderr, "", 0),
	}

	if logFile != "" {
		file, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.file = file
		l.fileLog = log.New(file, "", log.LstdFlags)
	}

	return l, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	if l.level >= LevelError {
		l.write("ERROR: "+fmt.Sprintf(format, v...), true)
	}
}

// Info logs an info message.
func (l *Logger) Info(format string, v ...interface{}) {
	if l.level >= LevelInfo {
		l.write("INFO: "+fmt.Sprintf(format, v...), false)
	}
}

// Verbose logs a verbose message.
func (l *Logger) Verbose(format string, v ...interface{}) {
	if l.level >= LevelVerbose {
		l.write("VERBOSE: "+fmt.Sprintf(format, v...), false)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.level >= LevelDebug {
		l.write("DEBUG: "+fmt.Sprintf(format, v...), false)
	}
}

func (l *Logger) write(msg string, isError bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		l.fileLog.Println(msg)
	}

	if isError {
		l.stderr.Println(msg)
	} else if l.level >= LevelVerbose {
		l.stdout.Println(msg)
	}
}
