package tagstream

import (
	"errors"
	"fmt"
)

// MaxDepth caps nesting of recursive records. The container formats put no
// limit on it; a hostile file could otherwise exhaust the stack.
const MaxDepth = 64

// ErrTooDeep means records were nested beyond MaxDepth.
var ErrTooDeep = errors.New("tagstream: records nested too deeply")

// HandlerFunc handles one tag inside a record. It returns done when the tag
// terminates the record. Any error ends the loop.
type HandlerFunc func(tag uint32) (done bool, err error)

// ReadRecordEnd reads a length field and returns the absolute offset at which
// the record ends.
func (r *Reader) ReadRecordEnd() (int64, error) {
	n, err := r.ReadSize()
	if err != nil {
		return 0, err
	}
	if !r.Fits(int64(n)) {
		return 0, r.Fail(fmt.Errorf("%w: record of %d bytes at offset %d", ErrTooLarge, n, r.Pos()))
	}
	return r.Pos() + int64(n), nil
}

// DecodeRecord runs the bounded record loop. It reads the record length, then
// dispatches tags to h while the position is inside the record, input remains
// and the reader is healthy. A handler reporting done ends the record early;
// whatever is left of it is skipped.
func (r *Reader) DecodeRecord(h HandlerFunc) error {
	end, err := r.ReadRecordEnd()
	if err != nil {
		return err
	}
	for r.Pos() < end && !r.AtEOF() && !r.Failed() {
		tag, err := r.ReadTag()
		if err != nil {
			return err
		}
		done, err := h(tag)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	if r.Failed() {
		return r.Err()
	}
	switch pos := r.Pos(); {
	case pos > end:
		return r.Fail(fmt.Errorf("%w: ended at %d, record ends at %d", ErrOverrun, pos, end))
	case pos < end:
		return r.Skip(end - pos)
	}
	return nil
}

// DecodeUntil runs the flat loop used for sibling records that follow a
// node's own record: tags are dispatched until h reports done or the input
// ends. When mustTerminate is set, running out of input before h reports done
// fails the reader with ErrShortRead.
func (r *Reader) DecodeUntil(mustTerminate bool, h HandlerFunc) error {
	for !r.Failed() {
		if r.AtEOF() {
			if mustTerminate {
				return r.Fail(fmt.Errorf("%w: missing terminator at offset %d", ErrShortRead, r.Pos()))
			}
			return nil
		}
		tag, err := r.ReadTag()
		if err != nil {
			return err
		}
		done, err := h(tag)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return r.Err()
}

// CheckDepth fails the reader when depth exceeds MaxDepth.
func (r *Reader) CheckDepth(depth int) error {
	if depth > MaxDepth {
		return r.Fail(fmt.Errorf("%w (%d)", ErrTooDeep, depth))
	}
	return nil
}
