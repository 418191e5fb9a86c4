package usbtmc

import (
	"time"

	"github.com/neilo40/usbtmc/session"
)

// AttributeID names one tunable or derived value in the attribute
// store (spec.md §4.7). It forms a closed enumeration; GetAttribute
// and SetAttribute reject any value outside it with INVALID_ARGUMENT.
type AttributeID int

const (
	AttrAutoAbortOnError AttributeID = iota
	AttrReadMode
	AttrTimeout
	AttrTermCharEnabled
	AttrTermChar
	AttrAddNLOnRead
	AttrRemNLOnWrite
	AttrNumInstruments
	AttrMinorNumbers
	AttrSizeIOBuffer
	AttrDefaultTimeout
	AttrDebugMode
	AttrVersion
)

func (a AttributeID) String() string {
	switch a {
	case AttrAutoAbortOnError:
		return "AUTO_ABORT_ON_ERROR"
	case AttrReadMode:
		return "READ_MODE"
	case AttrTimeout:
		return "TIMEOUT"
	case AttrTermCharEnabled:
		return "TERM_CHAR_ENABLED"
	case AttrTermChar:
		return "TERM_CHAR"
	case AttrAddNLOnRead:
		return "ADD_NL_ON_READ"
	case AttrRemNLOnWrite:
		return "REM_NL_ON_WRITE"
	case AttrNumInstruments:
		return "NUM_INSTRUMENTS"
	case AttrMinorNumbers:
		return "MINOR_NUMBERS"
	case AttrSizeIOBuffer:
		return "SIZE_IO_BUFFER"
	case AttrDefaultTimeout:
		return "DEFAULT_TIMEOUT"
	case AttrDebugMode:
		return "DEBUG_MODE"
	case AttrVersion:
		return "VERSION"
	default:
		return "UNKNOWN"
	}
}

// AttributeDescriptor is the {attribute_id, value} pair carried by
// SET_ATTRIBUTE/GET_ATTRIBUTE (spec.md §3).
type AttributeDescriptor struct {
	ID    AttributeID
	Value int32
}

const boolOn, boolOff = 1, 0

// attributeEntry is one row of the dispatch table spec.md §9's
// "Capability dispatch" note asks for: a typed variant per attribute
// id rather than a monolithic switch spread across callers. get is
// always present; set is nil for read-only attributes.
type attributeEntry struct {
	get func(*Instrument) int32
	set func(*Instrument, int32) error
}

var attributeTable = map[AttributeID]attributeEntry{
	AttrAutoAbortOnError: {
		get: func(i *Instrument) int32 {
			if i.session.AutoAbort {
				return boolOn
			}
			return boolOff
		},
		set: func(i *Instrument, v int32) error {
			b, err := boolValue(v)
			if err != nil {
				return err
			}
			i.session.AutoAbort = b
			return nil
		},
	},
	AttrReadMode: {
		get: func(i *Instrument) int32 { return int32(i.session.ReadMode) },
		set: func(i *Instrument, v int32) error {
			switch session.ReadMode(v) {
			case session.ReadModeFREAD, session.ReadModeREAD:
				i.session.ReadMode = session.ReadMode(v)
				return nil
			default:
				return newError("SetAttribute", KindInvalidArgument, nil)
			}
		},
	},
	AttrTimeout: {
		get: func(i *Instrument) int32 { return int32(i.session.Timeout / time.Millisecond) },
		set: func(i *Instrument, v int32) error {
			if v < 0 {
				return newError("SetAttribute", KindInvalidArgument, nil)
			}
			i.session.Timeout = time.Duration(v) * time.Millisecond
			return nil
		},
	},
	AttrTermCharEnabled: {
		get: func(i *Instrument) int32 {
			if i.session.TermCharEnabled {
				return boolOn
			}
			return boolOff
		},
		set: func(i *Instrument, v int32) error {
			b, err := boolValue(v)
			if err != nil {
				return err
			}
			i.session.TermCharEnabled = b
			return nil
		},
	},
	AttrTermChar: {
		get: func(i *Instrument) int32 { return int32(i.session.TermChar) },
		set: func(i *Instrument, v int32) error {
			if v < 0 || v > 255 {
				return newError("SetAttribute", KindInvalidArgument, nil)
			}
			i.session.TermChar = byte(v)
			return nil
		},
	},
	AttrAddNLOnRead: {
		get: func(i *Instrument) int32 {
			if i.session.AddNLOnRead {
				return boolOn
			}
			return boolOff
		},
		set: func(i *Instrument, v int32) error {
			b, err := boolValue(v)
			if err != nil {
				return err
			}
			i.session.AddNLOnRead = b
			return nil
		},
	},
	AttrRemNLOnWrite: {
		get: func(i *Instrument) int32 {
			if i.session.RemNLOnWrite {
				return boolOn
			}
			return boolOff
		},
		set: func(i *Instrument, v int32) error {
			b, err := boolValue(v)
			if err != nil {
				return err
			}
			i.session.RemNLOnWrite = b
			return nil
		},
	},
	AttrNumInstruments: {
		get: func(i *Instrument) int32 {
			if i.reg == nil {
				return 0
			}
			return int32(i.reg.Count())
		},
	},
	AttrMinorNumbers: {
		get: func(*Instrument) int32 { return int32(MinorNumbers) },
	},
	AttrSizeIOBuffer: {
		get: func(*Instrument) int32 { return int32(IOBuffer) },
	},
	AttrDefaultTimeout: {
		get: func(*Instrument) int32 { return int32(DefaultTimeout / time.Millisecond) },
	},
	AttrDebugMode: {
		// Kernel-log tracing is explicitly out of scope (spec.md §1);
		// this remains a read-only stub so DEBUG_MODE stays a valid
		// GET_ATTRIBUTE target for callers that probe every id.
		get: func(*Instrument) int32 { return 0 },
	},
	AttrVersion: {
		get: func(*Instrument) int32 { return int32(driverVersion) },
	},
}

func boolValue(v int32) (bool, error) {
	switch v {
	case boolOn:
		return true, nil
	case boolOff:
		return false, nil
	default:
		return false, newError("SetAttribute", KindInvalidArgument, nil)
	}
}

// GetAttribute reads the current value of id (spec.md §4.7).
func (i *Instrument) GetAttribute(id AttributeID) (int32, error) {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()

	entry, ok := attributeTable[id]
	if !ok {
		return 0, newError("GetAttribute", KindInvalidArgument, nil)
	}
	return entry.get(i), nil
}

// SetAttribute writes value to id, or fails with INVALID_ARGUMENT if
// id is unknown, read-only, or value is out of range (spec.md §4.7).
func (i *Instrument) SetAttribute(id AttributeID, value int32) error {
	i.session.Mu.Lock()
	defer i.session.Mu.Unlock()

	entry, ok := attributeTable[id]
	if !ok || entry.set == nil {
		return newError("SetAttribute", KindInvalidArgument, nil)
	}
	return entry.set(i, value)
}
