package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs a float32 vector into little-endian bytes.
func encodeVector(v []float32) []byte {
	const size = 4
	out := make([]byte, len(v)*size)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(x))
	}
	return out
}

// decodeVector unpacks little-endian float32 bytes. The payload length must
// match the recorded dimension exactly; anything else is a data integrity
// error, never silently truncated or padded.
func decodeVector(b []byte, dim int) ([]float32, error) {
	const size = 4
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	if len(b) != dim*size {
		return nil, fmt.Errorf("embedding payload is %d bytes, expected %d for dimension %d",
			len(b), dim*size, dim)
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out, nil
}
