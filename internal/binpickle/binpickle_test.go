package binpickle_test

import (
	"bytes"
	"testing"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/stretchr/testify/require"
)

func TestUint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binpickle.WriteUint64(&buf, 0xdeadbeef))

	got, err := binpickle.ReadUint64(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(0xdeadbeef), got)
}

func TestByteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binpickle.WriteByte(&buf, 0x07))

	got, err := binpickle.ReadByte(&buf)
	require.NoError(t, err)
	require.Equal(t, byte(0x07), got)
}

func TestBlobRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello synthesis")
	require.NoError(t, binpickle.WriteBlob(&buf, payload))

	got, err := binpickle.ReadBlob(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestEmptyBlobRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binpickle.WriteBlob(&buf, nil))

	got, err := binpickle.ReadBlob(&buf)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMultipleBlobsPreserveOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binpickle.WriteBlob(&buf, []byte("one")))
	require.NoError(t, binpickle.WriteBlob(&buf, []byte("two")))

	first, err := binpickle.ReadBlob(&buf)
	require.NoError(t, err)
	second, err := binpickle.ReadBlob(&buf)
	require.NoError(t, err)

	require.Equal(t, []byte("one"), first)
	require.Equal(t, []byte("two"), second)
}

func TestReadUint64_TruncatedInput(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3})
	_, err := binpickle.ReadUint64(buf)
	require.Error(t, err)
}
