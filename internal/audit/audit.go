// Package audit writes the append-only log of unhealthy probe outcomes, one
// "timestamp;status;host;message" line per event.
package audit

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hamed0406/sysmon/internal/domain"
)

const TimeLayout = "2006-01-02 15:04:05"

type Log struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// Open appends to the file at path, creating it on first write. The file is
// rotated at 50 MB and old copies are kept compressed.
func Open(path string) *Log {
	return New(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 10,
		Compress:   true,
	})
}

// New writes lines to w. Timestamps are rendered in local time.
func New(w io.Writer) *Log {
	return &Log{w: w, loc: time.Local}
}

// Append writes one line. Separators and newlines inside fields are replaced
// so every event stays on a single parseable line.
func (l *Log) Append(at time.Time, status domain.StatusKind, host, message string) error {
	line := Format(at.In(l.loc), status, host, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, line); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Format renders one audit line including the trailing newline.
func Format(at time.Time, status domain.StatusKind, host, message string) string {
	return fmt.Sprintf("%s;%s;%s;%s\n", at.Format(TimeLayout), status, clean(host), clean(message))
}

var fieldCleaner = strings.NewReplacer(";", ",", "\n", " ", "\r", " ")

func clean(s string) string { return fieldCleaner.Replace(s) }
