package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// SinkSet holds the append-only success and failure log files operators read
// after a run. These are a write-only side channel: the pipeline records
// outcomes here but never reads them back.
type SinkSet struct {
	success *sinkWriter
	failure *sinkWriter
}

// sinkWriter appends timestamped lines to a single log file
type sinkWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewSinkSet opens (creating if needed) the success and failure log files
func NewSinkSet(successPath, failurePath string) (*SinkSet, error) {
	success, err := openSink(successPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open success log: %w", err)
	}

	failure, err := openSink(failurePath)
	if err != nil {
		success.close()
		return nil, fmt.Errorf("failed to open failure log: %w", err)
	}

	return &SinkSet{success: success, failure: failure}, nil
}

func openSink(path string) (*sinkWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &sinkWriter{file: file}, nil
}

// Success appends an INFO line to the success log
func (s *SinkSet) Success(format string, args ...interface{}) {
	s.success.write("INFO", fmt.Sprintf(format, args...))
}

// Failure appends an ERROR line to the failure log
func (s *SinkSet) Failure(format string, args ...interface{}) {
	s.failure.write("ERROR", fmt.Sprintf(format, args...))
}

// Warning appends a WARNING line to the failure log
func (s *SinkSet) Warning(format string, args ...interface{}) {
	s.failure.write("WARNING", fmt.Sprintf(format, args...))
}

// Close closes both sink files
func (s *SinkSet) Close() error {
	err := s.success.close()
	if ferr := s.failure.close(); err == nil {
		err = ferr
	}
	return err
}

// write appends one "timestamp - LEVEL - message" line
func (w *sinkWriter) write(level, message string) {
	if w == nil || w.file == nil {
		return
	}

	line := fmt.Sprintf("%s - %s - %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, message)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.file.WriteString(line)
}

func (w *sinkWriter) close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}
