// Package outbox persists executed trades until a broadcaster has
// published them downstream. It is the durability half of an
// at-least-once outbox: the gateway writes every trade here in the same
// breath as the match, and the broadcaster walks pending entries,
// publishes, and acknowledges.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// State tracks a trade's publication progress.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

const keyPrefix = "trade/"

// Entry is one persisted trade awaiting publication. Payload is the
// serialized event exactly as it will be published.
type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// value encoding: [state:1][retries:4][lastAttempt:8][payload...]
const valueHeaderSize = 1 + 4 + 8

func encodeValue(e Entry) []byte {
	buf := make([]byte, valueHeaderSize+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[valueHeaderSize:], e.Payload)
	return buf
}

func decodeValue(seq uint64, b []byte) (Entry, error) {
	if len(b) < valueHeaderSize {
		return Entry{}, errors.New("outbox: short entry")
	}
	payload := make([]byte, len(b)-valueHeaderSize)
	copy(payload, b[valueHeaderSize:])
	return Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// Outbox is a pebble-backed trade store keyed by trade sequence.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put stores a freshly executed trade in state NEW.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	return o.db.Set(keyFor(seq), encodeValue(Entry{
		Seq:     seq,
		State:   StateNew,
		Payload: payload,
	}), pebble.Sync)
}

// MarkSent records a publish attempt before it happens, so a crash
// between send and ack resends rather than drops.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.transition(seq, StateSent)
}

// MarkAcked records a confirmed publish.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.transition(seq, StateAcked)
}

func (o *Outbox) transition(seq uint64, to State) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = to
	e.Retries++
	e.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq), encodeValue(e), pebble.Sync)
}

// Delete removes an entry, normally after it is ACKED.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns one entry by trade sequence.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeValue(seq, val)
}

// ScanPending visits every entry not yet ACKED, in sequence order.
// Returning an error from fn stops the scan.
func (o *Outbox) ScanPending(fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeValue(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State == StateAcked {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Compact deletes ACKED entries. Intended for a periodic cleanup job.
func (o *Outbox) Compact() error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}

	var acked []uint64
	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			iter.Close()
			return err
		}
		e, err := decodeValue(seq, iter.Value())
		if err != nil {
			iter.Close()
			return err
		}
		if e.State == StateAcked {
			acked = append(acked, seq)
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	for _, seq := range acked {
		if err := o.Delete(seq); err != nil {
			return err
		}
	}
	return nil
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(key []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(key[len(keyPrefix):]), "%d", &seq); err != nil {
		return 0, fmt.Errorf("outbox: bad key %q: %w", key, err)
	}
	return seq, nil
}
