package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

// PCMToWAV wraps 16-bit little endian PCM into a WAV container
func PCMToWAV(pcm []byte, numChannels, sampleRate int) ([]byte, error) {
	if err := ValidatePCM(pcm, numChannels); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	const (
		bitsPerSample  = 16
		audioFormatPCM = 1
		subchunk1Size  = 16
	)

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(pcm)

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(subchunk1Size))
	binary.Write(&buf, binary.LittleEndian, uint16(audioFormatPCM))
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// wavInfo is what parseWAV recovers from a RIFF/WAVE container
type wavInfo struct {
	pcm        []byte
	channels   int
	sampleRate int
}

// parseWAV extracts the data chunk and format of a 16-bit PCM WAV file
func parseWAV(data []byte) (wavInfo, error) {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return wavInfo{}, errors.New("invalid WAV: missing RIFF/WAVE header")
	}

	info := wavInfo{}
	i := 12
	for i+8 <= len(data) {
		chunkID := string(data[i : i+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		next := i + 8 + chunkSize
		if next > len(data) || next < i {
			return wavInfo{}, errors.New("invalid WAV: chunk exceeds buffer length")
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return wavInfo{}, errors.New("invalid WAV: short fmt chunk")
			}
			body := data[i+8 : next]
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return wavInfo{}, errors.New("invalid WAV: only PCM is supported")
			}
			info.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			if bits := binary.LittleEndian.Uint16(body[14:16]); bits != 16 {
				return wavInfo{}, errors.New("invalid WAV: only 16-bit samples are supported")
			}
		case "data":
			if info.channels == 0 {
				return wavInfo{}, errors.New("invalid WAV: data before fmt chunk")
			}
			info.pcm = data[i+8 : next]
			return info, nil
		}

		// Account for padding to even boundary
		if chunkSize%2 != 0 {
			next++
		}
		i = next
	}

	return wavInfo{}, errors.New("invalid WAV: data chunk not found")
}

// ValidatePCM validates a 16-bit PCM byte slice for basic integrity
func ValidatePCM(pcm []byte, numChannels int) error {
	if len(pcm) == 0 {
		return errors.New("PCM data is empty")
	}
	if numChannels <= 0 || numChannels > 2 {
		return errors.New("only mono (1) or stereo (2) channels supported")
	}
	if len(pcm)%(2*numChannels) != 0 {
		return errors.New("PCM data length doesn't match channel count")
	}
	return nil
}

// PCMDuration returns the playing time of 16-bit PCM data
func PCMDuration(pcmBytes, numChannels, sampleRate int) time.Duration {
	if numChannels <= 0 || sampleRate <= 0 {
		return 0
	}
	frames := pcmBytes / (2 * numChannels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
