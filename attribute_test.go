package usbtmc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
)

func newAttrInstrument() *Instrument {
	return Open(&transport.Fake{MaxPacket: 64})
}

func TestTimeoutAttributeRoundTrip(t *testing.T) {
	inst := newAttrInstrument()
	require.NoError(t, inst.SetAttribute(AttrTimeout, 2500))
	v, err := inst.GetAttribute(AttrTimeout)
	require.NoError(t, err)
	assert.EqualValues(t, 2500, v)
	assert.Equal(t, 2500*time.Millisecond, inst.session.Timeout)
}

func TestBooleanAttributeRejectsOutOfRangeValue(t *testing.T) {
	inst := newAttrInstrument()
	err := inst.SetAttribute(AttrAutoAbortOnError, 7)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidArgument, kind)
}

func TestReadModeAttributeRoundTrip(t *testing.T) {
	inst := newAttrInstrument()
	require.NoError(t, inst.SetAttribute(AttrReadMode, int32(session.ReadModeREAD)))
	v, err := inst.GetAttribute(AttrReadMode)
	require.NoError(t, err)
	assert.EqualValues(t, session.ReadModeREAD, v)
}

func TestUnknownAttributeIDIsInvalidArgument(t *testing.T) {
	inst := newAttrInstrument()
	_, err := inst.GetAttribute(AttributeID(999))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidArgument, kind)
}

func TestWriteToReadOnlyAttributeIsInvalidArgument(t *testing.T) {
	inst := newAttrInstrument()
	err := inst.SetAttribute(AttrVersion, 999)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidArgument, kind)
}

func TestVersionAttributeIsDriverVersion(t *testing.T) {
	inst := newAttrInstrument()
	v, err := inst.GetAttribute(AttrVersion)
	require.NoError(t, err)
	assert.EqualValues(t, 110, v)
}

func TestNumInstrumentsReflectsRegistry(t *testing.T) {
	reg := NewRegistry()
	inst := newAttrInstrument()
	_, err := reg.Attach(inst)
	require.NoError(t, err)

	v, err := inst.GetAttribute(AttrNumInstruments)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}
