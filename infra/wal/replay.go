package wal

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// Replay visits every record in the log, sealed segments first (oldest
// to newest) and then the active segment, in append order. A torn tail
// frame in the active segment ends the scan without error; corruption
// inside a sealed segment is reported.
func Replay(dir string, s Serializer, fn func(*Record) error) error {
	if s == nil {
		s = BinarySerializer{}
	}

	entries, err := LoadIndex(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := replayFile(filepath.Join(dir, e.File), s, false, fn); err != nil {
			return err
		}
	}
	return replayFile(filepath.Join(dir, currentFile), s, true, fn)
}

func replayFile(path string, s Serializer, tolerateTail bool, fn func(*Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header [frameHeaderSize]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			if tolerateTail {
				return nil
			}
			return ErrCorruptRecord
		}
		length := binary.LittleEndian.Uint32(header[0:4])
		sum := binary.LittleEndian.Uint32(header[4:8])

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			if tolerateTail {
				return nil
			}
			return ErrCorruptRecord
		}
		if crc32.ChecksumIEEE(data) != sum {
			if tolerateTail {
				return nil
			}
			return ErrCorruptRecord
		}

		rec, err := s.Decode(data)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
