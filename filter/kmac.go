package filter

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// rate of cSHAKE256 in bytes
const kmac256Rate = 136

// KMAC256 computes KMAC256(key, data, outLen*8, customization) as defined in
// NIST SP 800-185. A new cSHAKE256 state is built for every call.
func KMAC256(key, data []byte, outLen int, customization []byte) []byte {
	h := sha3.NewCShake256([]byte("KMAC"), customization)
	h.Write(bytepad(encodeString(key), kmac256Rate))
	h.Write(data)
	h.Write(rightEncode(uint64(outLen) * 8))

	out := make([]byte, outLen)
	h.Read(out)
	return out
}

func leftEncode(x uint64) []byte {
	var b [9]byte
	binary.BigEndian.PutUint64(b[1:], x)
	i := 1
	for i < 8 && b[i] == 0 {
		i++
	}
	b[i-1] = byte(9 - i)
	return b[i-1:]
}

func rightEncode(x uint64) []byte {
	var b [9]byte
	binary.BigEndian.PutUint64(b[:8], x)
	i := 0
	for i < 7 && b[i] == 0 {
		i++
	}
	b[8] = byte(8 - i)
	return b[i:]
}

func encodeString(s []byte) []byte {
	return append(leftEncode(uint64(len(s))*8), s...)
}

func bytepad(x []byte, w int) []byte {
	z := append(leftEncode(uint64(w)), x...)
	if rem := len(z) % w; rem != 0 {
		z = append(z, make([]byte, w-rem)...)
	}
	return z
}
