package outbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestPutGetRoundTrip(t *testing.T) {
	o := openTest(t)

	require.NoError(t, o.Put(1, []byte(`{"seq":1}`)))
	e, err := o.Get(1)
	require.NoError(t, err)
	require.Equal(t, StateNew, e.State)
	require.Equal(t, []byte(`{"seq":1}`), e.Payload)
}

func TestStateTransitions(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(5, []byte("payload")))

	require.NoError(t, o.MarkSent(5))
	e, err := o.Get(5)
	require.NoError(t, err)
	require.Equal(t, StateSent, e.State)
	require.NotZero(t, e.LastAttempt)

	require.NoError(t, o.MarkAcked(5))
	e, err = o.Get(5)
	require.NoError(t, err)
	require.Equal(t, StateAcked, e.State)
	require.Equal(t, []byte("payload"), e.Payload, "payload survives transitions")
}

func TestScanPendingSkipsAcked(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(1, []byte("a")))
	require.NoError(t, o.Put(2, []byte("b")))
	require.NoError(t, o.Put(3, []byte("c")))
	require.NoError(t, o.MarkAcked(2))

	var seen []uint64
	require.NoError(t, o.ScanPending(func(e Entry) error {
		seen = append(seen, e.Seq)
		return nil
	}))
	require.Equal(t, []uint64{1, 3}, seen, "acked entries skipped, order by seq")
}

func TestCompactRemovesAcked(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(1, []byte("a")))
	require.NoError(t, o.Put(2, []byte("b")))
	require.NoError(t, o.MarkAcked(1))

	require.NoError(t, o.Compact())

	_, err := o.Get(1)
	require.Error(t, err, "acked entry should be gone")
	_, err = o.Get(2)
	require.NoError(t, err, "pending entry should remain")
}
