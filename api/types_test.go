package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceConverterRoundTrip(t *testing.T) {
	conv, err := NewPriceConverter("0.01")
	require.NoError(t, err)

	ticks, err := conv.ToTicks("100.55")
	require.NoError(t, err)
	require.Equal(t, int64(10055), ticks)

	require.Equal(t, "100.55", conv.FromTicks(10055))
}

func TestPriceConverterRejectsOffTick(t *testing.T) {
	conv, err := NewPriceConverter("0.05")
	require.NoError(t, err)

	_, err = conv.ToTicks("100.02")
	require.Error(t, err, "100.02 is not a multiple of 0.05")

	ticks, err := conv.ToTicks("100.10")
	require.NoError(t, err)
	require.Equal(t, int64(2002), ticks)
}

func TestPriceConverterBadInput(t *testing.T) {
	_, err := NewPriceConverter("0")
	require.Error(t, err)
	_, err = NewPriceConverter("-0.01")
	require.Error(t, err)
	_, err = NewPriceConverter("abc")
	require.Error(t, err)

	conv, err := NewPriceConverter("1")
	require.NoError(t, err)
	_, err = conv.ToTicks("not-a-price")
	require.Error(t, err)
}

func TestParseSide(t *testing.T) {
	for _, s := range []string{"buy", "bid"} {
		side, err := parseSide(s)
		require.NoError(t, err)
		require.Equal(t, "bid", side.String())
	}
	for _, s := range []string{"sell", "ask"} {
		side, err := parseSide(s)
		require.NoError(t, err)
		require.Equal(t, "ask", side.String())
	}
	_, err := parseSide("hold")
	require.Error(t, err)
}
