package texttospeech

import (
	"bytes"
	"encoding/binary"
)

var (
	riffMagic = []byte("RIFF")
	waveMagic = []byte("WAVE")
	dataMagic = []byte("data")
)

// RepairHeader patches the RIFF and data chunk sizes of a streamed WAV
// payload. The provider emits placeholder sizes when it does not know the
// final length up front, which breaks some players. Payloads that do not
// start with a RIFF/WAVE header are returned unchanged, so the repair is safe
// to apply to every supported format.
func RepairHeader(audio []byte) []byte {
	if len(audio) < 12 || !bytes.Equal(audio[0:4], riffMagic) || !bytes.Equal(audio[8:12], waveMagic) {
		return audio
	}

	out := make([]byte, len(audio))
	copy(out, audio)

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	// Walk the chunk list to the data chunk; its size is whatever remains.
	offset := 12
	for offset+8 <= len(out) {
		id := out[offset : offset+4]
		size := binary.LittleEndian.Uint32(out[offset+4 : offset+8])
		if bytes.Equal(id, dataMagic) {
			binary.LittleEndian.PutUint32(out[offset+4:offset+8], uint32(len(out)-offset-8))
			break
		}
		next := offset + 8 + int(size)
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}
	return out
}
