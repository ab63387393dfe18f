package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speecheval-server/pkg/errors"
)

// buildWAV assembles a minimal RIFF/WAVE file around the given samples.
func buildWAV(format, channels, bits uint16, sampleRate uint32, samples []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, format)
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	byteRate := sampleRate * uint32(channels) * uint32(bits) / 8
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)
	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	samples := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}
	wav := buildWAV(1, 1, 16, 16000, samples)

	pcm, err := DecodeWAV(bytes.NewReader(wav))
	require.NoError(t, err)
	assert.Equal(t, 16000, pcm.SampleRate)
	assert.Equal(t, samples, pcm.Samples)
}

func TestDecodeWAVRejectsNonWAV(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not audio")))
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAudio))
}

func TestDecodeWAVRejectsStereo(t *testing.T) {
	wav := buildWAV(1, 2, 16, 16000, make([]byte, 8))
	_, err := DecodeWAV(bytes.NewReader(wav))
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAudio))
}

func TestDecodeWAVRejectsCompressed(t *testing.T) {
	wav := buildWAV(7, 1, 16, 8000, make([]byte, 8)) // mu-law
	_, err := DecodeWAV(bytes.NewReader(wav))
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAudio))
}

func TestDecodeWAVRejectsEightBit(t *testing.T) {
	wav := buildWAV(1, 1, 8, 8000, make([]byte, 8))
	_, err := DecodeWAV(bytes.NewReader(wav))
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAudio))
}

func TestDecodeWAVRejectsTruncatedChunk(t *testing.T) {
	wav := buildWAV(1, 1, 16, 16000, make([]byte, 8))
	_, err := DecodeWAV(bytes.NewReader(wav[:len(wav)-4]))
	assert.True(t, errors.Is(err, errors.ErrUnsupportedAudio))
}
