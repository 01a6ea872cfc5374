package filter

import (
	"bytes"
	"fmt"
)

// HeaderSize is the common serialized header: uint32(numberOfBuckets)|uint32(numberOfBucketsPerElement)
const HeaderSize = 4 + 4

func SerializeUint(buf *bytes.Buffer, value uint64, size int) {
	byteData := make([]byte, size)
	for i := range size {
		byteData[i] = byte(value >> (i * 8))
	}
	buf.Write(byteData)
}

func DeserializeUint[T uint64 | uint32](buf *bytes.Buffer, size int) (T, error) {
	byteData := make([]byte, size)
	if n, _ := buf.Read(byteData); n != size {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", ErrMalformed, size, n)
	}
	value := uint64(0)
	for i := range size {
		value |= uint64(byteData[i]) << (i * 8)
	}
	return T(value), nil
}

func SerializeHeader(buf *bytes.Buffer, m Mapper) {
	SerializeUint(buf, uint64(m.N()), 4)
	SerializeUint(buf, uint64(m.K()), 4)
}

// DeserializeHeader reads the shape header and returns a configuration with
// that shape and the given identity.
func DeserializeHeader[E any](buf *bytes.Buffer, identity Identity[E]) (Configuration[E], error) {
	n, err := DeserializeUint[uint32](buf, 4)
	if err != nil {
		return Configuration[E]{}, err
	}
	k, err := DeserializeUint[uint32](buf, 4)
	if err != nil {
		return Configuration[E]{}, err
	}
	if n == 0 || k == 0 {
		return Configuration[E]{}, fmt.Errorf("%w: zero shape n=%d k=%d", ErrMalformed, n, k)
	}
	return Configuration[E]{
		NumberOfBuckets:           int(n),
		NumberOfBucketsPerElement: int(k),
		Identity:                  identity,
	}, nil
}

// CheckPayload fails unless exactly want bytes are left in buf. Callers check
// before allocating anything sized from the header.
func CheckPayload(buf *bytes.Buffer, want int) error {
	if buf.Len() != want {
		return fmt.Errorf("%w: header needs %d payload bytes, got %d", ErrMalformed, want, buf.Len())
	}
	return nil
}
