package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

func newTestSession() *session.Session {
	s := session.New(time.Second)
	s.BulkInAddr = 0x81
	s.BulkOutAddr = 0x02
	s.LastOutBTag = 5
	s.LastInBTag = 6
	return s
}

func TestAbortBulkOutHappyPath(t *testing.T) {
	s := newTestSession()
	checkCalls := 0
	f := &transport.Fake{
		MaxPacket: 64,
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			switch request {
			case reqInitiateAbortBulkOut:
				assert.EqualValues(t, s.LastOutBTag, value)
				data[0] = StatusSuccess
			case reqCheckAbortBulkOutStatus:
				checkCalls++
				if checkCalls < 2 {
					data[0] = StatusPending
				} else {
					data[0] = StatusSuccess
				}
			}
			return len(data), nil
		},
	}
	err := AbortBulkOut(context.Background(), f, s)
	require.NoError(t, err)
	assert.Equal(t, 2, checkCalls)
	assert.Contains(t, f.Calls, "ClearHalt")
}

func TestAbortBulkOutInitiateFails(t *testing.T) {
	s := newTestSession()
	f := &transport.Fake{
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			data[0] = 0x00 // neither SUCCESS nor expected
			return len(data), nil
		},
	}
	err := AbortBulkOut(context.Background(), f, s)
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestAbortBulkOutCheckOverrunsCapFails(t *testing.T) {
	s := newTestSession()
	f := &transport.Fake{
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			switch request {
			case reqInitiateAbortBulkOut:
				data[0] = StatusSuccess
			case reqCheckAbortBulkOutStatus:
				data[0] = StatusPending
			}
			return len(data), nil
		},
	}
	err := AbortBulkOut(context.Background(), f, s)
	require.Error(t, err)
}

func TestAbortBulkInFailedMeansFIFOEmpty(t *testing.T) {
	s := newTestSession()
	f := &transport.Fake{
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			data[0] = StatusFailed
			return len(data), nil
		},
	}
	err := AbortBulkIn(context.Background(), f, s)
	require.NoError(t, err)
}

func TestAbortBulkInDrainsThenSucceeds(t *testing.T) {
	s := newTestSession()
	bulkReads := 0
	checkCalls := 0
	f := &transport.Fake{
		MaxPacket: 64,
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			switch request {
			case reqInitiateAbortBulkIn:
				data[0] = StatusSuccess
			case reqCheckAbortBulkInStatus:
				checkCalls++
				if checkCalls == 1 {
					data[0] = StatusPending
					data[1] = 1 // more data queued
				} else {
					data[0] = StatusSuccess
				}
			}
			return len(data), nil
		},
		BulkInFn: func(buf []byte) (int, error) {
			bulkReads++
			return 10, nil // short packet: < MaxPacket(64)
		},
	}
	err := AbortBulkIn(context.Background(), f, s)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bulkReads, 2, "initial drain plus the PENDING-with-data drain")
}

func TestClearDrainsOnPendingWithData(t *testing.T) {
	s := newTestSession()
	checkCalls := 0
	drainCalls := 0
	f := &transport.Fake{
		MaxPacket: 64,
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			switch request {
			case reqInitiateClear:
				data[0] = StatusSuccess
			case reqCheckClearStatus:
				checkCalls++
				if checkCalls == 1 {
					data[0] = StatusPending
					data[1] = 1
				} else {
					data[0] = StatusSuccess
				}
			}
			return len(data), nil
		},
		BulkInFn: func(buf []byte) (int, error) {
			drainCalls++
			return 1, nil
		},
	}
	err := Clear(context.Background(), f, s)
	require.NoError(t, err)
	assert.Equal(t, 1, drainCalls)
	assert.Equal(t, 2, checkCalls)
	assert.Contains(t, f.Calls, "ClearHalt")
}

func TestGetCapabilitiesReadsFourBytes(t *testing.T) {
	s := newTestSession()
	f := &transport.Fake{
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			data[0] = StatusSuccess
			data[4] = 0x01
			data[5] = 0x02
			data[14] = 0x03
			data[15] = 0x04
			return len(data), nil
		},
	}
	caps, err := GetCapabilities(context.Background(), f, s)
	require.NoError(t, err)
	assert.Equal(t, Capabilities{0x01, 0x02, 0x03, 0x04}, caps)
}

func TestIndicatorPulseRequiresSuccess(t *testing.T) {
	s := newTestSession()
	f := &transport.Fake{
		ControlFn: func(reqType, request uint8, value, index uint16, data []byte) (int, error) {
			data[0] = StatusPending
			return len(data), nil
		},
	}
	err := IndicatorPulse(context.Background(), f, s)
	require.Error(t, err)
}
