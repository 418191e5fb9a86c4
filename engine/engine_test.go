package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
	"github.com/neilo40/usbtmc/wire"
)

// writeInHeader builds a DEV_DEP_MSG_IN header for payload into buf
// and returns the total packet length.
func writeInHeader(buf, payload []byte) int {
	buf[0] = wire.MsgRequestDevDepMsgIn
	buf[1] = 1
	buf[2] = ^buf[1]
	buf[3] = 0
	n := uint32(len(payload))
	buf[4] = byte(n)
	buf[5] = byte(n >> 8)
	buf[6] = byte(n >> 16)
	buf[7] = byte(n >> 24)
	buf[8] = 1
	copy(buf[wire.HeaderLen:], payload)
	return wire.HeaderLen + len(payload)
}

func newTestSession() *session.Session {
	s := session.New(time.Second)
	s.BulkInAddr = 0x81
	s.BulkOutAddr = 0x02
	return s
}

func TestWriteMessageZeroBytesEmitsOneEOMPacket(t *testing.T) {
	s := newTestSession()
	var sent []byte
	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) {
			sent = append([]byte{}, buf...)
			return len(buf), nil
		},
	}
	n, err := WriteMessage(context.Background(), f, s, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.Len(t, sent, wire.HeaderLen)
	h, err := wire.DecodeIn(sent)
	require.NoError(t, err)
	assert.True(t, h.EOM)
	assert.EqualValues(t, 0, h.NCharacters)
}

func TestWriteMessageExactCapacityOnePacketNoPadding(t *testing.T) {
	s := newTestSession()
	capacity := len(s.IOBuffer) - wire.HeaderLen
	data := make([]byte, capacity)
	var packets [][]byte
	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) {
			packets = append(packets, append([]byte{}, buf...))
			return len(buf), nil
		},
	}
	n, err := WriteMessage(context.Background(), f, s, data)
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
	require.Len(t, packets, 1)
	assert.Len(t, packets[0], wire.HeaderLen+capacity)
}

func TestWriteMessageOneByteOverCapacitySplitsInTwo(t *testing.T) {
	s := newTestSession()
	capacity := len(s.IOBuffer) - wire.HeaderLen
	data := make([]byte, capacity+1)
	var packets [][]byte
	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) {
			packets = append(packets, append([]byte{}, buf...))
			return len(buf), nil
		},
	}
	n, err := WriteMessage(context.Background(), f, s, data)
	require.NoError(t, err)
	assert.Equal(t, capacity+1, n)
	require.Len(t, packets, 2)

	h0, err := wire.DecodeIn(packets[0])
	require.NoError(t, err)
	assert.False(t, h0.EOM)
	assert.EqualValues(t, capacity, h0.NCharacters)

	h1, err := wire.DecodeIn(packets[1])
	require.NoError(t, err)
	assert.True(t, h1.EOM)
	assert.EqualValues(t, 1, h1.NCharacters)
	assert.Len(t, packets[1], wire.HeaderLen+4) // 1 payload byte padded to 4
}

func TestWriteMessageTrimsTrailingNewlineWhenConfigured(t *testing.T) {
	s := newTestSession()
	s.RemNLOnWrite = true
	var sent []byte
	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) {
			sent = append([]byte{}, buf...)
			return len(buf), nil
		},
	}
	n, err := WriteMessage(context.Background(), f, s, []byte("ABC\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n) // caller's buffer is reported fully consumed

	h, err := wire.DecodeIn(sent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, h.NCharacters)
	assert.True(t, h.EOM)
	assert.Equal(t, []byte("ABC"), wire.Payload(sent, h))
}

func TestWriteMessageAutoAbortsOnFailure(t *testing.T) {
	s := newTestSession()
	s.AutoAbort = true
	s.LastOutBTag = 7
	abortCalled := false
	f := &transport.Fake{
		MaxPacket: 64,
		BulkOutFn: func(buf []byte) (int, error) {
			return 0, transport.ErrExhausted
		},
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			abortCalled = true
			data[0] = 0x01 // SUCCESS
			return len(data), nil
		},
	}
	_, err := WriteMessage(context.Background(), f, s, []byte("hi"))
	require.Error(t, err)
	assert.True(t, abortCalled)
}

func TestReadMessageShortPacketEndsLoopAndSetsEOFSticky(t *testing.T) {
	s := newTestSession()
	s.ReadMode = session.ReadModeFREAD
	reply := []byte("1.23")

	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) { return len(buf), nil },
		BulkInFn: func(buf []byte) (int, error) {
			n := writeInHeader(buf, reply)
			return n, nil
		},
	}
	buf := make([]byte, 128)
	n, err := ReadMessage(context.Background(), f, s, buf)
	require.NoError(t, err)
	assert.Equal(t, len(reply), n)
	assert.Equal(t, reply, buf[:n])
	assert.True(t, s.EOFSticky())

	// Next read under FREAD returns 0 and clears the sticky flag.
	n2, err := ReadMessage(context.Background(), f, s, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n2)
	assert.False(t, s.EOFSticky())
}

func TestReadMessageAddNLOnReadAppendsNewline(t *testing.T) {
	s := newTestSession()
	s.AddNLOnRead = true
	reply := []byte("1.23")
	f := &transport.Fake{
		BulkOutFn: func(buf []byte) (int, error) { return len(buf), nil },
		BulkInFn: func(buf []byte) (int, error) {
			n := writeInHeader(buf, reply)
			return n, nil
		},
	}
	buf := make([]byte, 8)
	n, err := ReadMessage(context.Background(), f, s, buf)
	require.NoError(t, err)
	assert.Equal(t, len(reply)+1, n)
	assert.Equal(t, byte('\n'), buf[n-1])
}

func TestReadMessageAutoAbortsOnResponseFailure(t *testing.T) {
	s := newTestSession()
	s.AutoAbort = true
	s.LastInBTag = 3
	abortCalled := false
	f := &transport.Fake{
		MaxPacket: 64,
		BulkOutFn: func(buf []byte) (int, error) { return len(buf), nil },
		BulkInFn: func(buf []byte) (int, error) { return 0, transport.ErrExhausted },
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			abortCalled = true
			data[0] = 0x01
			return len(data), nil
		},
	}
	buf := make([]byte, 16)
	_, err := ReadMessage(context.Background(), f, s, buf)
	require.Error(t, err)
	assert.True(t, abortCalled)
}
