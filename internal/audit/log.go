package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bridgeDrip/internal/model"
)

// Log appends audit entries to a JSONL file, one JSON object per line. The
// file is the only failure surface operators have, so every dispatch
// outcome lands here.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Append writes one entry. The timestamp is filled in if the caller left it
// empty.
func (l *Log) Append(entry model.AuditEntry) error {
	if entry.Time == "" {
		entry.Time = l.now().UTC().Format(time.RFC3339)
	}

	dir := filepath.Dir(l.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create audit dir: %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush audit log: %w", err)
	}

	return nil
}

// Read returns all entries in append order. A missing file yields an empty
// slice.
func (l *Log) Read() ([]model.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.AuditEntry{}, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	entries := []model.AuditEntry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return entries, nil
}
