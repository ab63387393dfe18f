package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"speecheval-server/pkg/errors"
)

// PCM holds decoded audio ready for recognition: mono 16-bit
// little-endian samples plus their rate.
type PCM struct {
	Samples    []byte
	SampleRate int
}

// DecodeWAV extracts mono 16-bit PCM samples from a RIFF/WAVE stream.
// Uploads must already be in the required format; resampling and channel
// mixing belong to an upstream collaborator, so compressed, multi-channel
// or non-16-bit files are rejected as input errors.
func DecodeWAV(r io.Reader) (*PCM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading audio upload")
	}
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, errors.Wrap(errors.ErrUnsupportedAudio, "not a RIFF/WAVE file")
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		samples       []byte
		haveFmt       bool
	)

	// Walk the chunk list; chunks are word-aligned.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			return nil, errors.Wrap(errors.ErrUnsupportedAudio, "truncated WAV chunk")
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errors.Wrap(errors.ErrUnsupportedAudio, "malformed fmt chunk")
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			samples = data[body : body+chunkSize]
		}

		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || samples == nil {
		return nil, errors.Wrap(errors.ErrUnsupportedAudio, "missing fmt or data chunk")
	}
	if audioFormat != 1 {
		return nil, errors.Wrap(errors.ErrUnsupportedAudio, fmt.Sprintf("compressed WAV (format %d) not supported", audioFormat))
	}
	if channels != 1 {
		return nil, errors.Wrap(errors.ErrUnsupportedAudio, fmt.Sprintf("expected mono audio, got %d channels", channels))
	}
	if bitsPerSample != 16 {
		return nil, errors.Wrap(errors.ErrUnsupportedAudio, fmt.Sprintf("expected 16-bit samples, got %d", bitsPerSample))
	}

	return &PCM{
		Samples:    samples,
		SampleRate: int(sampleRate),
	}, nil
}
