package wal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testConfig(dir string) Config {
	return Config{
		Dir:             dir,
		SegmentSize:     1 << 20,
		SegmentDuration: time.Hour,
		FlushInterval:   0, // tests sync explicitly
	}
}

func submitRecord(seq, id uint64) *Record {
	return &Record{
		Type:    RecordSubmit,
		Seq:     seq,
		At:      time.Now().UnixNano(),
		OrderID: id,
		Side:    0,
		Price:   100,
		Qty:     10,
	}
}

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for seq := uint64(1); seq <= 5; seq++ {
		if err := w.Append(submitRecord(seq, seq)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Append(&Record{Type: RecordCancel, Seq: 6, OrderID: 3}); err != nil {
		t.Fatalf("append cancel: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []*Record
	err = Replay(dir, nil, func(r *Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 records, got %d", len(got))
	}
	for i, r := range got {
		if r.Seq != uint64(i+1) {
			t.Errorf("record %d out of order: seq=%d", i, r.Seq)
		}
	}
	if got[5].Type != RecordCancel || got[5].OrderID != 3 {
		t.Errorf("last record wrong: %+v", got[5])
	}
}

func TestReopenContinuesSequence(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := w.Append(submitRecord(seq, seq)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	// Simulate a crash: no Close, just drop the handle.
	w.file.Close()
	close(w.stopFlush)

	w2, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if w2.lastSeq != 3 {
		t.Errorf("expected lastSeq=3 after recovery, got %d", w2.lastSeq)
	}
	if err := w2.Append(submitRecord(4, 4)); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var seqs []uint64
	if err := Replay(dir, nil, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := []uint64{1, 2, 3, 4}
	if len(seqs) != len(want) {
		t.Fatalf("got %v, want %v", seqs, want)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("got %v, want %v", seqs, want)
		}
	}
}

func TestTornTailIsTruncated(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := w.Append(submitRecord(1, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	w.file.Close()
	close(w.stopFlush)

	// Corrupt the tail with a partial frame.
	path := filepath.Join(dir, currentFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	f.Write([]byte{0xde, 0xad, 0xbe})
	f.Close()

	w2, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("reopen over torn tail: %v", err)
	}
	defer w2.Close()
	if w2.lastSeq != 1 {
		t.Errorf("expected lastSeq=1, got %d", w2.lastSeq)
	}

	count := 0
	if err := Replay(dir, nil, func(*Record) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 replayable record, got %d", count)
	}
}

func TestRotationSealsSegments(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.SegmentSize = 128 // force frequent rotation

	w, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	total := uint64(20)
	for seq := uint64(1); seq <= total; seq++ {
		if err := w.Append(submitRecord(seq, seq)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected multiple sealed segments, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].FirstSeq != entries[i-1].LastSeq+1 {
			t.Errorf("gap between segments %d and %d: %+v", i-1, i, entries)
		}
	}

	count := uint64(0)
	if err := Replay(dir, nil, func(r *Record) error {
		count++
		if r.Seq != count {
			t.Fatalf("replay out of order at %d: seq=%d", count, r.Seq)
		}
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != total {
		t.Errorf("replayed %d records, want %d", count, total)
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	s := BinarySerializer{}
	in := &Record{
		Type:    RecordSubmit,
		Seq:     42,
		At:      1234567890,
		OrderID: 7,
		Side:    1,
		Price:   -3, // negative survives the round trip even if invalid upstream
		Qty:     99,
	}
	data, err := s.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := s.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}

	if _, err := s.Decode(data[:5]); err != ErrCorruptRecord {
		t.Errorf("short payload should fail with ErrCorruptRecord, got %v", err)
	}
}
