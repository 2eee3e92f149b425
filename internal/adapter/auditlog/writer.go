// Package auditlog writes the append-only human-readable activity trail.
// The file is an audit artifact for humans, not a machine-parseable store;
// the in-memory instruction log is the source for dashboards.
package auditlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Entry is one dispatched instruction to record.
type Entry struct {
	TaskID      string
	AgentID     string
	AgentName   string
	Instruction string
	Priority    string
	Workspace   string
	At          time.Time
}

// Writer appends human-readable blocks to a flat log file. The file is
// opened, appended, and closed on every write; a mutex serializes writers
// within the process.
type Writer struct {
	mu   sync.Mutex
	path string
}

// New creates a Writer for the given path.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one block for the entry. Failures are returned to the
// caller for logging; a failed audit write never fails the dispatch.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Time:        %s\n", e.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "Task:        %s\n", e.TaskID)
	fmt.Fprintf(&b, "Agent:       %s (%s)\n", e.AgentName, e.AgentID)
	fmt.Fprintf(&b, "Priority:    %s\n", e.Priority)
	if e.Workspace != "" {
		fmt.Fprintf(&b, "Workspace:   %s\n", e.Workspace)
	}
	fmt.Fprintf(&b, "Instruction: %s\n", e.Instruction)

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// Tail returns up to n trailing lines of the raw log for display.
// A missing file yields an empty slice.
func (w *Writer) Tail(n int) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
