// Package wire implements the USBTMC bulk header codec: pure
// functions that encode an OUT bulk header and decode an IN bulk
// header. No I/O happens here; see the transport and engine packages
// for the code that actually moves bytes across the wire.
package wire

import "fmt"

// HeaderLen is the fixed size of every USBTMC bulk header (spec.md
// §4.1).
const HeaderLen = 12

// Bulk message IDs carried in header byte 0.
const (
	MsgDevDepMsgOut       = 1
	MsgRequestDevDepMsgIn = 2
)

// EncodeOut writes a DEV_DEP_MSG_OUT header into dst[0:HeaderLen].
// dst must have length >= HeaderLen. eom sets bmTransferAttributes
// bit 0 (end of message, set only on the final chunk of a write).
func EncodeOut(dst []byte, tag byte, transferSize uint32, eom bool) {
	if len(dst) < HeaderLen {
		panic("wire: EncodeOut: dst shorter than HeaderLen")
	}
	dst[0] = MsgDevDepMsgOut
	dst[1] = tag
	dst[2] = ^tag
	dst[3] = 0
	putUint32LE(dst[4:8], transferSize)
	dst[8] = 0
	if eom {
		dst[8] = 1
	}
	dst[9] = 0
	dst[10] = 0
	dst[11] = 0
}

// EncodeRequestIn writes a REQUEST_DEV_DEP_MSG_IN header into
// dst[0:HeaderLen]. maxTransferSize is the largest payload the host
// will accept on the subsequent IN packet; termCharEnabled sets
// bmTransferAttributes bit 1 and carries termChar in byte 9.
func EncodeRequestIn(dst []byte, tag byte, maxTransferSize uint32, termCharEnabled bool, termChar byte) {
	if len(dst) < HeaderLen {
		panic("wire: EncodeRequestIn: dst shorter than HeaderLen")
	}
	dst[0] = MsgRequestDevDepMsgIn
	dst[1] = tag
	dst[2] = ^tag
	dst[3] = 0
	putUint32LE(dst[4:8], maxTransferSize)
	dst[8] = 0
	if termCharEnabled {
		dst[8] = 2
	}
	dst[9] = termChar
	dst[10] = 0
	dst[11] = 0
}

// InHeader is the decoded form of a DEV_DEP_MSG_IN bulk header.
type InHeader struct {
	MsgID        byte
	Tag          byte
	TagInverse   byte
	NCharacters  uint32
	EOM          bool
}

// DecodeIn parses the 12-byte header at the start of src. It does not
// validate that len(src) >= HeaderLen+NCharacters; callers must bound
// their own payload slicing against the actual bytes received.
func DecodeIn(src []byte) (InHeader, error) {
	if len(src) < HeaderLen {
		return InHeader{}, fmt.Errorf("wire: DecodeIn: short header (%d bytes)", len(src))
	}
	h := InHeader{
		MsgID:       src[0],
		Tag:         src[1],
		TagInverse:  src[2],
		NCharacters: getUint32LE(src[4:8]),
		EOM:         src[8]&1 != 0,
	}
	return h, nil
}

// Payload returns the slice of src holding the n_characters payload
// bytes described by h, bounded by both h.NCharacters and the actual
// length of src.
func Payload(src []byte, h InHeader) []byte {
	end := HeaderLen + int(h.NCharacters)
	if end > len(src) {
		end = len(src)
	}
	if end < HeaderLen {
		return nil
	}
	return src[HeaderLen:end]
}

// PadLen4 returns the number of zero bytes needed to round n up to a
// multiple of 4, per spec.md §4.1's OUT packet alignment rule.
func PadLen4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
