package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeScores encodes a similarity row as a BLOB of little-endian IEEE 754
// float64 values with no length prefix.
func EncodeScores(row []float64) []byte {
	b := make([]byte, len(row)*8)
	for i, v := range row {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

// DecodeScores decodes a BLOB produced by EncodeScores.
func DecodeScores(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("storage: invalid scores blob length %d (not multiple of 8)", len(b))
	}
	row := make([]float64, len(b)/8)
	for i := range row {
		row[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return row, nil
}
