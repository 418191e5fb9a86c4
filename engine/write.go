// Package engine implements the USBTMC message engine (spec.md §4.4,
// §4.4b): the chunking, framing, alignment, terminator and
// end-of-message logic that turns a user byte buffer into one or more
// DEV_DEP_MSG_OUT bulk packets, and turns a sequence of
// REQUEST_DEV_DEP_MSG_IN / DEV_DEP_MSG_IN round trips back into a user
// byte buffer.
package engine

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/control"
	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
	"github.com/neilo40/usbtmc/wire"
)

// WriteMessage sends data as one or more DEV_DEP_MSG_OUT bulk packets
// (spec.md §4.4). It returns len(data) on success, matching the
// reference contract that the caller's buffer was fully consumed
// regardless of any trailing-newline trim applied to the wire payload.
//
// Callers must hold s.Mu for the duration of the call.
func WriteMessage(ctx context.Context, t transport.EndpointIO, s *session.Session, data []byte) (int, error) {
	s.SetEOFSticky(false)

	capacity := len(s.IOBuffer) - wire.HeaderLen
	if capacity <= 0 {
		return 0, fmt.Errorf("engine: WriteMessage: IOBuffer too small for a header")
	}

	n := len(data)
	done := 0
	for {
		remaining := n - done
		chunkLen := remaining
		last := true
		if remaining > capacity {
			chunkLen = capacity
			last = false
		}

		chunk := data[done : done+chunkLen]
		if last && s.RemNLOnWrite && chunkLen > 0 && chunk[chunkLen-1] == '\n' {
			chunkLen--
			chunk = chunk[:chunkLen]
		}

		tag := s.NextTag()
		s.LastOutBTag = tag

		wire.EncodeOut(s.IOBuffer, tag, uint32(chunkLen), last)
		copy(s.IOBuffer[wire.HeaderLen:], chunk)

		total := wire.HeaderLen + chunkLen
		pad := wire.PadLen4(total)
		for i := 0; i < pad; i++ {
			s.IOBuffer[total+i] = 0
		}
		total += pad

		if _, err := t.BulkOut(ctx, s.IOBuffer[:total], s.Timeout); err != nil {
			if s.AutoAbort {
				_ = control.AbortBulkOut(ctx, t, s)
			}
			return 0, fmt.Errorf("engine: WriteMessage: %w", err)
		}

		done += chunkLen
		// A non-full chunk is always the last one (it was sized to
		// `remaining`), so the walk of the input is done precisely
		// when this was the last chunk -- even though `done` may be
		// one byte short of `n` if a trailing newline was trimmed.
		if last {
			break
		}
	}

	return n, nil
}
