package wal

import (
	"encoding/binary"
	"errors"
)

var ErrCorruptRecord = errors.New("wal: corrupted record")

// Serializer converts records to and from their on-disk payload. The
// frame (length + checksum) is handled by the WAL itself.
type Serializer interface {
	Encode(*Record) ([]byte, error)
	Decode([]byte) (*Record, error)
}

const binaryRecordSize = 1 + 8 + 8 + 8 + 1 + 8 + 8

// BinarySerializer is the default fixed-width little-endian encoding.
type BinarySerializer struct{}

func (BinarySerializer) Encode(rec *Record) ([]byte, error) {
	buf := make([]byte, binaryRecordSize)
	buf[0] = byte(rec.Type)
	binary.LittleEndian.PutUint64(buf[1:], rec.Seq)
	binary.LittleEndian.PutUint64(buf[9:], uint64(rec.At))
	binary.LittleEndian.PutUint64(buf[17:], rec.OrderID)
	buf[25] = rec.Side
	binary.LittleEndian.PutUint64(buf[26:], uint64(rec.Price))
	binary.LittleEndian.PutUint64(buf[34:], uint64(rec.Qty))
	return buf, nil
}

func (BinarySerializer) Decode(b []byte) (*Record, error) {
	if len(b) != binaryRecordSize {
		return nil, ErrCorruptRecord
	}
	return &Record{
		Type:    RecordType(b[0]),
		Seq:     binary.LittleEndian.Uint64(b[1:]),
		At:      int64(binary.LittleEndian.Uint64(b[9:])),
		OrderID: binary.LittleEndian.Uint64(b[17:]),
		Side:    b[25],
		Price:   int64(binary.LittleEndian.Uint64(b[26:])),
		Qty:     int64(binary.LittleEndian.Uint64(b[34:])),
	}, nil
}
