package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bridgeDrip/internal/model"
)

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := NewLog(path)

	entries := []model.AuditEntry{
		{Recipient: "0xbbb", Outcome: model.OutcomeSent, Amount: "0.05", TxHash: "0x01"},
		{Recipient: "0xccc", Outcome: model.OutcomeEnoughFee, Balance: "0.5"},
		{Recipient: "0xddd", Outcome: model.OutcomeSendFailed, Error: "insufficient funds"},
	}
	for _, entry := range entries {
		if err := log.Append(entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := log.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("entry count mismatch: %d != %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].Recipient != entries[i].Recipient || got[i].Outcome != entries[i].Outcome {
			t.Fatalf("entry %d mismatch: %+v", i, got[i])
		}
		if got[i].Time == "" {
			t.Fatalf("entry %d missing timestamp", i)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "audit.log"))

	entries, err := log.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(entries))
	}
}

func TestOneJSONObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := NewLog(path)

	for i := 0; i < 3; i++ {
		if err := log.Append(model.AuditEntry{Recipient: "0xbbb", Outcome: model.OutcomeSent}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	lines := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry model.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not a JSON object: %v", lines, err)
		}
		lines++
	}
	if lines != 3 {
		t.Fatalf("line count mismatch: %d", lines)
	}
}

func TestConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := NewLog(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append(model.AuditEntry{Recipient: "0xbbb", Outcome: model.OutcomeSent}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := log.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("entry count mismatch: %d", len(entries))
	}
}
