package wal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	currentFile     = "current.wal"
	frameHeaderSize = 8 // length(4) + crc32(4)
)

// Config controls segment rotation and flush cadence.
type Config struct {
	Dir             string
	SegmentSize     uint64
	SegmentDuration time.Duration
	FlushInterval   time.Duration
	Serializer      Serializer
}

// WAL is a segmented append-only command log. Records are framed as
// length + CRC32 + payload; the active segment is current.wal, sealed
// segments are renamed to a numbered file and recorded in the index.
type WAL struct {
	cfg Config

	mu              sync.Mutex
	file            *os.File
	writer          *bufio.Writer
	lastSeq         uint64
	segmentID       int
	segmentStartSeq uint64
	bytesWritten    uint64
	lastRotation    time.Time

	stopFlush chan struct{}
	flushDone chan struct{}
}

// Open creates the directory if needed, recovers the tail of the active
// segment, and starts the background flusher.
func Open(cfg Config) (*WAL, error) {
	if cfg.Serializer == nil {
		cfg.Serializer = BinarySerializer{}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	var segID int
	var seq uint64
	if last, err := lastIndexEntry(cfg.Dir); err != nil {
		return nil, err
	} else if last != nil {
		fmt.Sscanf(last.File, "%06d.wal", &segID)
		seq = last.LastSeq
	}

	path := filepath.Join(cfg.Dir, currentFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	w := &WAL{
		cfg:             cfg,
		file:            f,
		lastSeq:         seq,
		segmentID:       segID,
		segmentStartSeq: seq + 1,
		lastRotation:    time.Now(),
		stopFlush:       make(chan struct{}),
		flushDone:       make(chan struct{}),
	}

	if err := w.recoverTail(); err != nil {
		f.Close()
		return nil, err
	}
	w.writer = bufio.NewWriterSize(f, 1<<20)

	go w.flushLoop()
	return w, nil
}

// Append frames and writes one record. The caller assigns Seq; the WAL
// only tracks it for the segment index.
func (w *WAL) Append(rec *Record) error {
	data, err := w.cfg.Serializer.Encode(rec)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	frameSize := uint64(frameHeaderSize + len(data))
	if w.shouldRotate(frameSize) {
		if err := w.rotateLocked(); err != nil {
			return err
		}
	}

	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[4:8], crc32.ChecksumIEEE(data))
	if _, err := w.writer.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.writer.Write(data); err != nil {
		return err
	}

	w.lastSeq = rec.Seq
	w.bytesWritten += frameSize
	return nil
}

// Sync flushes buffered frames and fsyncs the active segment.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

// Close stops the flusher, seals the active segment, and records it in
// the index.
func (w *WAL) Close() error {
	close(w.stopFlush)
	<-w.flushDone

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	if w.bytesWritten == 0 {
		return nil // nothing to seal
	}
	return w.sealSegment()
}

func (w *WAL) shouldRotate(nextFrame uint64) bool {
	if w.bytesWritten == 0 {
		return false
	}
	return w.bytesWritten+nextFrame >= w.cfg.SegmentSize ||
		(w.cfg.SegmentDuration > 0 && time.Since(w.lastRotation) >= w.cfg.SegmentDuration)
}

func (w *WAL) rotateLocked() error {
	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := w.sealSegment(); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(w.cfg.Dir, currentFile), os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.writer = bufio.NewWriterSize(f, 1<<20)
	w.segmentStartSeq = w.lastSeq + 1
	w.bytesWritten = 0
	w.lastRotation = time.Now()
	return nil
}

func (w *WAL) sealSegment() error {
	w.segmentID++
	name := fmt.Sprintf("%06d.wal", w.segmentID)
	if err := os.Rename(
		filepath.Join(w.cfg.Dir, currentFile),
		filepath.Join(w.cfg.Dir, name),
	); err != nil {
		return err
	}
	return appendIndexEntry(w.cfg.Dir, IndexEntry{
		File:     name,
		FirstSeq: w.segmentStartSeq,
		LastSeq:  w.lastSeq,
		SealedAt: time.Now(),
	})
}

func (w *WAL) syncLocked() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *WAL) flushLoop() {
	defer close(w.flushDone)
	if w.cfg.FlushInterval <= 0 {
		<-w.stopFlush
		return
	}
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopFlush:
			return
		case <-ticker.C:
			_ = w.Sync()
		}
	}
}

// recoverTail scans the active segment and truncates a torn final frame
// left by a crash. It also restores lastSeq and bytesWritten.
func (w *WAL) recoverTail() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := bufio.NewReader(w.file)

	var valid int64
	var header [frameHeaderSize]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			break
		}
		length := binary.LittleEndian.Uint32(header[0:4])
		sum := binary.LittleEndian.Uint32(header[4:8])

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			break
		}
		if crc32.ChecksumIEEE(data) != sum {
			break
		}
		rec, err := w.cfg.Serializer.Decode(data)
		if err != nil {
			break
		}
		w.lastSeq = rec.Seq
		valid += frameHeaderSize + int64(length)
	}

	if valid < info.Size() {
		if err := w.file.Truncate(valid); err != nil {
			return err
		}
	}
	w.bytesWritten = uint64(valid)
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
