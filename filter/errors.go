package filter

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("filter: invalid configuration")
	ErrNotPure              = errors.New("filter: decoding failed because involved buckets were not pure")
	ErrIncompatible         = errors.New("filter: filters are not compatible")
	ErrPeelIncomplete       = errors.New("filter: sketch could not be fully peeled")
	ErrMalformed            = errors.New("filter: malformed serialized filter")
)

// DecodeError reports the first mapped bucket that failed the purity check.
type DecodeError struct {
	Index   int
	Number  int64
	IDSum   uint64
	HashSum uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: bucket %d has number=%d idSum=%#x hashSum=%#x",
		ErrNotPure, e.Index, e.Number, e.IDSum, e.HashSum)
}

func (e *DecodeError) Unwrap() error { return ErrNotPure }

// IncompatibleFilterError is returned when two filters of different shape are combined.
type IncompatibleFilterError struct {
	Buckets      int
	OtherBuckets int
	K            int
	OtherK       int
	KeyMismatch  bool // same shape, different mapping key
}

func (e *IncompatibleFilterError) Error() string {
	if e.KeyMismatch {
		return fmt.Sprintf("%v: must use the same mapping key", ErrIncompatible)
	}
	if e.Buckets != e.OtherBuckets {
		return fmt.Sprintf("%v: must be of same length, %d buckets vs %d", ErrIncompatible, e.Buckets, e.OtherBuckets)
	}
	return fmt.Sprintf("%v: must have same number of buckets per element, %d vs %d", ErrIncompatible, e.K, e.OtherK)
}

func (e *IncompatibleFilterError) Unwrap() error { return ErrIncompatible }

// CheckCompatible returns an *IncompatibleFilterError unless both mappers have the same shape.
func CheckCompatible(a, b Mapper) error {
	if a.Compatible(b) {
		return nil
	}
	return &IncompatibleFilterError{
		Buckets:      a.N(),
		OtherBuckets: b.N(),
		K:            a.K(),
		OtherK:       b.K(),
		KeyMismatch:  a.N() == b.N() && a.K() == b.K() && !a.SameKey(b),
	}
}
