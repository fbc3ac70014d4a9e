package service

import (
	"fmt"

	"matchbook/domain/book"
	"matchbook/infra/sequence"
	"matchbook/infra/wal"
)

// ReplayFromWAL rebuilds engine state by re-applying the command log
// against an empty book. Matching is deterministic, so the rebuilt book
// is identical to the pre-crash one, and re-running the matches tells
// us exactly how many trades had been emitted — which is how the trade
// sequencer catches up without a separate checkpoint.
//
// Commands that were rejected when first applied are rejected again
// here, so their errors are expected and ignored.
func ReplayFromWAL(
	dir string,
	bk *book.Book,
	seqGen, idGen, tradeSeq *sequence.Sequencer,
) (replayed uint64, err error) {
	err = wal.Replay(dir, wal.BinarySerializer{}, func(r *wal.Record) error {
		switch r.Type {
		case wal.RecordSubmit:
			trades, _ := bk.Submit(book.Order{
				ID:    r.OrderID,
				Side:  book.Side(r.Side),
				Price: r.Price,
				Qty:   r.Qty,
				Seq:   r.Seq,
			})
			tradeSeq.Advance(tradeSeq.Current() + uint64(len(trades)))
			idGen.Advance(r.OrderID)
		case wal.RecordCancel:
			bk.Cancel(r.OrderID)
		default:
			return fmt.Errorf("service: unknown wal record type %d", r.Type)
		}
		seqGen.Advance(r.Seq)
		replayed++
		return nil
	})
	return replayed, err
}
