package engine

import (
	"context"
	"fmt"

	"github.com/neilo40/usbtmc/control"
	"github.com/neilo40/usbtmc/session"
	"github.com/neilo40/usbtmc/transport"
	"github.com/neilo40/usbtmc/wire"
)

// ReadMessage retrieves the instrument's response into buf, issuing
// as many REQUEST_DEV_DEP_MSG_IN / DEV_DEP_MSG_IN round trips as
// needed to either fill buf or observe a short packet (spec.md
// §4.4b). It returns the number of bytes actually placed in buf.
//
// Callers must hold s.Mu for the duration of the call.
func ReadMessage(ctx context.Context, t transport.EndpointIO, s *session.Session, buf []byte) (int, error) {
	if s.ReadMode == session.ReadModeFREAD && s.EOFSticky() {
		s.SetEOFSticky(false)
		return 0, nil
	}

	// Headroom reserves 3 bytes beyond the 12-byte header for
	// alignment, per spec.md §4.4b step 2.
	chunkCap := len(s.IOBuffer) - wire.HeaderLen - 3
	if chunkCap <= 0 {
		return 0, fmt.Errorf("engine: ReadMessage: IOBuffer too small")
	}

	n := len(buf)
	done := 0
	for remaining := n - done; remaining > 0; remaining = n - done {
		thisPart := remaining
		if thisPart > chunkCap {
			thisPart = chunkCap
		}

		outTag := s.NextTag()
		s.LastOutBTag = outTag
		maxTransfer := uint32(thisPart - wire.HeaderLen - 3)
		wire.EncodeRequestIn(s.IOBuffer, outTag, maxTransfer, s.TermCharEnabled, s.TermChar)

		if _, err := t.BulkOut(ctx, s.IOBuffer[:wire.HeaderLen], s.Timeout); err != nil {
			if s.AutoAbort {
				_ = control.AbortBulkOut(ctx, t, s)
			}
			return 0, fmt.Errorf("engine: ReadMessage: request: %w", err)
		}

		s.LastInBTag = outTag
		actual, err := t.BulkIn(ctx, s.IOBuffer[:len(s.IOBuffer)], s.Timeout)
		if err != nil {
			if s.AutoAbort {
				_ = control.AbortBulkIn(ctx, t, s)
			}
			return 0, fmt.Errorf("engine: ReadMessage: response: %w", err)
		}

		h, err := wire.DecodeIn(s.IOBuffer[:actual])
		if err != nil {
			return 0, fmt.Errorf("engine: ReadMessage: %w", err)
		}
		payload := wire.Payload(s.IOBuffer[:actual], h)
		copy(buf[done:], payload)
		done += len(payload)

		if int(h.NCharacters) < len(s.IOBuffer)-wire.HeaderLen {
			break
		}
	}

	if s.AddNLOnRead && done < n {
		buf[done] = '\n'
		done++
	}

	if done < n {
		s.SetEOFSticky(true)
	}

	return done, nil
}
