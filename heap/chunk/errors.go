package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrBadConfig indicates an unusable Config (see Config.Validate).
	ErrBadConfig = errors.New("chunk: bad config")

	// ErrBufferTooLarge indicates a buffer whose offsets do not fit in a Ref.
	ErrBufferTooLarge = errors.New("chunk: buffer too large")

	// ErrNoChain indicates that no chunk header could be found in an image.
	ErrNoChain = errors.New("chunk: no chunk chain in buffer")
)

// Fatal diagnostic messages passed to the DieFunc.
const (
	MsgNotAligned   = "not aligned"
	MsgOutOfBound   = "out of bound"
	MsgXorsum       = "xorsum"
	MsgOverflowed   = "overflowed"
	MsgCantMerge    = "cant merge"
	MsgDoubleFree   = "double free"
	MsgNotAllocated = "not allocated"
)

// DieFunc is the fatal-error hook. It is called with one of the Msg*
// constants when corruption or a logic error is detected. Whether or not it
// returns, the chain panics with a *CorruptionError right after.
type DieFunc func(msg string)

// CorruptionError is the panic value raised on a fatal check failure.
type CorruptionError struct {
	Msg string
	Ref Ref
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("chunk: %s at offset 0x%X", e.Msg, uint32(e.Ref))
}

// Fatal runs the die hook with msg and panics. It never returns.
func (c *Chain) Fatal(msg string, r Ref) {
	if c.die != nil {
		c.die(msg)
	}
	panic(&CorruptionError{Msg: msg, Ref: r})
}
