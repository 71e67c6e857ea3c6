package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileLogger appends audit events to a file as JSON lines
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileLogger opens (or creates) the audit log file in append mode
func NewFileLogger(path string) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &FileLogger{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Log writes the event as one JSON line
func (l *FileLogger) Log(_ context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.encoder == nil {
		return fmt.Errorf("audit logger is closed")
	}
	return l.encoder.Encode(event)
}

// Close flushes and closes the underlying file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.encoder = nil
	return err
}

// writerLogger wraps an arbitrary writer; used by tests and for stdout
// audit streams.
type writerLogger struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewWriterLogger returns a Logger writing JSON lines to w
func NewWriterLogger(w io.Writer) Logger {
	return &writerLogger{encoder: json.NewEncoder(w)}
}

func (l *writerLogger) Log(_ context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.encoder.Encode(event)
}

func (l *writerLogger) Close() error { return nil }
