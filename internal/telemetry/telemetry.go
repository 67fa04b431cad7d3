// Package telemetry appends per-run resource usage to a log file.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/preciselake/preciselake/pkg/models"
)

// Appender writes one record per run to the end of a file. It is safe for
// concurrent use.
type Appender struct {
	path string
	mu   sync.Mutex
}

// NewAppender creates an appender for path. The file is created on the
// first Append.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Path returns the log file path.
func (a *Appender) Path() string {
	return a.path
}

// Append writes t as one record.
func (a *Appender) Append(t models.Telemetry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open telemetry log: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("failed to write telemetry log: %w", err)
	}
	return f.Close()
}

// Write formats t as a record followed by a blank line.
func Write(w io.Writer, t models.Telemetry) error {
	_, err := fmt.Fprintf(w, "Memory Usage: %.2f MB\tExecution Time: %.4f seconds\n\n",
		t.MemoryMB(), t.Elapsed.Seconds())
	return err
}
