package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ammScope/internal/model"
)

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// Path returns the backing file path.
func (s *JsonlStorage) Path() string {
	return s.path
}

// PutSnapshots appends snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshots(_ context.Context, snapshots []model.ReserveSnapshot) error {
	return appendLines(s, snapshots)
}

// PutQuotes appends quote records as JSON lines.
func (s *JsonlStorage) PutQuotes(_ context.Context, quotes []model.QuoteRecord) error {
	return appendLines(s, quotes)
}

// PutDecodeErrors appends decode failures as JSON lines.
func (s *JsonlStorage) PutDecodeErrors(_ context.Context, failures []model.DecodeError) error {
	return appendLines(s, failures)
}

// LatestSnapshot scans the file for the highest (block, logIndex) snapshot of pair.
func (s *JsonlStorage) LatestSnapshot(ctx context.Context, pair string) (model.ReserveSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ReserveSnapshot{}, false, nil
		}
		return model.ReserveSnapshot{}, false, fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var (
		latest model.ReserveSnapshot
		found  bool
		line   int
	)
	for scanner.Scan() {
		line++
		if line%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return model.ReserveSnapshot{}, false, err
			}
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var snap model.ReserveSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return model.ReserveSnapshot{}, false, fmt.Errorf("parse snapshot line %d: %w", line, err)
		}
		if !strings.EqualFold(snap.Pair, pair) {
			continue
		}
		if !found || snap.BlockNumber > latest.BlockNumber ||
			(snap.BlockNumber == latest.BlockNumber && snap.LogIndex > latest.LogIndex) {
			latest = snap
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return model.ReserveSnapshot{}, false, fmt.Errorf("scan snapshots: %w", err)
	}
	return latest, found, nil
}

func appendLines[T any](s *JsonlStorage, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
