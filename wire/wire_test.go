package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOutRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderLen+4)
	EncodeOut(buf, 7, 3, true)

	assert.Equal(t, byte(MsgDevDepMsgOut), buf[0])
	assert.Equal(t, byte(7), buf[1])
	assert.Equal(t, byte(^byte(7)), buf[2])
	assert.Equal(t, byte(1), buf[8], "EOM bit should be set")

	h, err := DecodeIn(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(7), h.Tag)
	assert.Equal(t, uint32(3), h.NCharacters)
	assert.True(t, h.EOM)
}

func TestEncodeOutNotEOM(t *testing.T) {
	buf := make([]byte, HeaderLen)
	EncodeOut(buf, 1, 0, false)
	assert.Equal(t, byte(0), buf[8])
}

func TestTagInverseInvariant(t *testing.T) {
	for tag := 1; tag <= 255; tag++ {
		buf := make([]byte, HeaderLen)
		EncodeOut(buf, byte(tag), 0, false)
		assert.Equal(t, buf[2], ^buf[1])
	}
}

func TestEncodeRequestIn(t *testing.T) {
	buf := make([]byte, HeaderLen)
	EncodeRequestIn(buf, 9, 1024, true, '\n')
	assert.Equal(t, byte(MsgRequestDevDepMsgIn), buf[0])
	assert.Equal(t, byte(2), buf[8], "term-char-enabled bit should be bit 1")
	assert.Equal(t, byte('\n'), buf[9])

	buf2 := make([]byte, HeaderLen)
	EncodeRequestIn(buf2, 9, 1024, false, '\n')
	assert.Equal(t, byte(0), buf2[8])
}

func TestDecodeInShortHeaderErrors(t *testing.T) {
	_, err := DecodeIn(make([]byte, 4))
	require.Error(t, err)
}

func TestPayloadBoundsToActualBytes(t *testing.T) {
	buf := make([]byte, HeaderLen+5)
	EncodeOut(buf, 1, 5, true)
	copy(buf[HeaderLen:], []byte("hello"))

	h, err := DecodeIn(buf)
	require.NoError(t, err)
	p := Payload(buf, h)
	assert.Equal(t, []byte("hello"), p)
}

func TestPayloadClampsToShortBuffer(t *testing.T) {
	// Header claims more bytes than the buffer actually has (can
	// happen if a caller mis-sizes the receive buffer); Payload must
	// not panic or read out of bounds.
	buf := make([]byte, HeaderLen+2)
	EncodeOut(buf, 1, 999, true)
	h, err := DecodeIn(buf)
	require.NoError(t, err)
	p := Payload(buf, h)
	assert.LessOrEqual(t, len(p), 2)
}

func TestPadLen4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3, 2047: 1, 2048: 0}
	for n, want := range cases {
		assert.Equal(t, want, PadLen4(n), "PadLen4(%d)", n)
	}
}
