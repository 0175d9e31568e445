// Package journal provides a crash-safe append-only log of AccountEvents.
//
// Events are appended as newline-delimited JSON to a single per-session
// file. Each write is followed by an fsync so a crash mid-session loses at
// most the event that was in flight, never corrupts a previously-committed
// line. Load replays a file back into a slice of types.AccountEvent for
// startup recovery or offline inspection.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/encoding/json"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Journal appends AccountEvents to a single file. All operations are
// mutex-protected; one Journal is meant to be shared by one AccountCore.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// Open creates or appends to the journal file for session in dir, creating
// dir if necessary.
func Open(dir string, session string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	path := filepath.Join(dir, "events-"+session+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}

	return &Journal{file: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one event as a JSON line and fsyncs before returning.
func (j *Journal) Append(evt types.AccountEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')

	if _, err := j.w.Write(data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return j.file.Sync()
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush on close: %w", err)
	}
	return j.file.Close()
}

// Load replays every event recorded for session in dir, in append order.
// Returns an empty slice, not an error, if the file doesn't exist.
func Load(dir, session string) ([]types.AccountEvent, error) {
	path := filepath.Join(dir, "events-"+session+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	var events []types.AccountEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var evt types.AccountEvent
		if err := json.Unmarshal(line, &evt); err != nil {
			return events, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scan journal file: %w", err)
	}
	return events, nil
}
