package wal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const indexFile = "wal_index.json"

// IndexEntry describes one sealed WAL segment. Entries are appended as
// JSON lines; the file is only ever appended to, never rewritten.
type IndexEntry struct {
	File     string    `json:"file"`
	FirstSeq uint64    `json:"first_seq"`
	LastSeq  uint64    `json:"last_seq"`
	SealedAt time.Time `json:"sealed_at"`
}

func appendIndexEntry(dir string, entry IndexEntry) error {
	path := filepath.Join(dir, indexFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LoadIndex returns all sealed-segment entries, oldest first. A missing
// index file means no sealed segments yet.
func LoadIndex(dir string) ([]IndexEntry, error) {
	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []IndexEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e IndexEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // partial trailing line after a crash
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func lastIndexEntry(dir string) (*IndexEntry, error) {
	entries, err := LoadIndex(dir)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[len(entries)-1], nil
}
