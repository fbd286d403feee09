// Package logger provides the run log shared by the session proxy, runner and CLI.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	mirror       io.Writer
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		globalLogger = newLogger()
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = newLogger()

	return nil
}

// SetVerbose mirrors every log line to w (usually os.Stderr). Pass nil to stop mirroring.
func SetVerbose(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	mirror = w
	globalLogger = newLogger()
}

func newLogger() *log.Logger {
	var writers []io.Writer
	if logFile != nil {
		writers = append(writers, logFile)
	}
	if mirror != nil {
		writers = append(writers, mirror)
	}
	if len(writers) == 0 {
		return nil
	}
	return log.New(io.MultiWriter(writers...), "", log.Ltime|log.Lmicroseconds)
}

// Close closes the log file. A verbose mirror stays active.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = newLogger()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	printf("[INFO] ", format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	printf("[DEBUG] ", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	printf("[ERROR] ", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	printf("[WARN] ", format, v...)
}

func printf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(level+format, v...)
	}
}

// GetWriter returns the underlying log file writer.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
