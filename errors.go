// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import "code.hybscloud.com/iox"

// ErrWouldBlock is the error-idiom counterpart of [Busy] and [Full].
//
// This package's containers return a [Result], not an error; ErrWouldBlock
// exists only so callers that bridge into the wider error-based
// code.hybscloud.com ecosystem (e.g. [code.hybscloud.com/iox] backoff
// helpers) have something to compare against via [ResultToErr].
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// ResultToErr translates a [Result] into the error idiom used elsewhere in
// the code.hybscloud.com ecosystem.
//
// Success and NotFound both translate to nil: NotFound is a normal,
// expected terminal state for a drain loop, not a failure. Busy and Full
// translate to [ErrWouldBlock] so callers can reuse [iox.Backoff]-based
// retry helpers. Every other Result becomes a plain error carrying the
// Result's String.
func ResultToErr(r Result) error {
	switch r {
	case Success, NotFound:
		return nil
	case Busy, Full:
		return ErrWouldBlock
	default:
		return resultError{r}
	}
}

type resultError struct{ r Result }

func (e resultError) Error() string { return "arena: " + e.r.String() }
