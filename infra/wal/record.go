package wal

// RecordType identifies the command a WAL record carries.
type RecordType uint8

const (
	RecordSubmit RecordType = 1
	RecordCancel RecordType = 2
)

// Record is one logged order command. The WAL stores commands, not
// outcomes: replaying the same commands against an empty book
// reproduces engine state because the matching logic is deterministic.
type Record struct {
	Type RecordType
	Seq  uint64 // gateway arrival sequence
	At   int64  // unix nanos at ingress

	OrderID uint64
	Side    uint8 // 0 bid, 1 ask; unused for cancels
	Price   int64
	Qty     int64
}
