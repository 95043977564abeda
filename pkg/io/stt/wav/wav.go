// Package wav builds canonical 44-byte-header PCM wave files.
package wav

import "encoding/binary"

const (
	HeaderSize    = 44
	numChannels   = 1
	bitsPerSample = 16
	pcmFormat     = 1
)

// Encode wraps mono signed 16-bit samples in a RIFF/WAVE container.
func Encode(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, HeaderSize+dataSize)
	writeHeader(out[:HeaderSize], dataSize, sampleRate)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[HeaderSize+2*i:], uint16(s))
	}
	return out
}

func writeHeader(header []byte, dataSize, sampleRate int) {
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	// RIFF chunk descriptor
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")

	// fmt sub-chunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	// data sub-chunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
}
