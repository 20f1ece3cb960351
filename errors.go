package rangebitmap

import (
	"errors"
	"fmt"
)

var (
	// ErrSealed is returned when appending to a builder after Seal.
	ErrSealed = errors.New("builder already sealed")

	// ErrClosed is returned when querying a structure whose backing
	// mapping has been closed.
	ErrClosed = errors.New("range bitmap closed")

	// ErrInvalidDomain is returned by NewBuilder when min exceeds max.
	ErrInvalidDomain = errors.New("invalid value domain")
)

// ErrValueOutOfRange indicates an appended value outside the builder's
// declared domain. It is fatal to that row: values are never clamped,
// since clamping would corrupt range semantics.
type ErrValueOutOfRange struct {
	Value uint64
	Min   uint64
	Max   uint64
}

func (e *ErrValueOutOfRange) Error() string {
	return fmt.Sprintf("value %d outside domain [%d, %d]", e.Value, e.Min, e.Max)
}

// ErrCodeOutOfDomain indicates a query code outside the structure's
// domain. It is a usage error, rejected before any slice is touched.
type ErrCodeOutOfDomain struct {
	Code uint64
	Min  uint64
	Max  uint64
}

func (e *ErrCodeOutOfDomain) Error() string {
	return fmt.Sprintf("query code %d outside domain [%d, %d]", e.Code, e.Min, e.Max)
}

// ErrRowOutOfOrder indicates an AppendAt call that skips or repeats a
// row. The structure is append-only in strict row order.
type ErrRowOutOfOrder struct {
	Row      uint32
	Expected uint32
}

func (e *ErrRowOutOfOrder) Error() string {
	return fmt.Sprintf("row %d appended out of order, expected %d", e.Row, e.Expected)
}
