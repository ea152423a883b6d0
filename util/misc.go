package util

import "encoding/binary"

// UintToBytes encodes num as 8 big endian bytes so that encoded values sort like the numbers.
func UintToBytes(num uint64) []byte {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, num)
	return val
}

// BytesToUint decodes the first 8 bytes written by UintToBytes.
func BytesToUint(num []byte) uint64 {
	return binary.BigEndian.Uint64(num[:8])
}
