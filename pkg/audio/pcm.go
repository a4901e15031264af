package audio

import "encoding/binary"

// Float32ToInt16 clamps s to [-1, 1] and scales it to a signed 16-bit sample.
func Float32ToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}

// PCM16 encodes samples as little-endian signed 16-bit mono PCM.
func PCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(Float32ToInt16(s)))
	}
	return out
}
