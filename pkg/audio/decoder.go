package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidChannelCount is returned for a non-positive channel count.
	ErrInvalidChannelCount = errors.New("channel count must be positive")
)

// DecodeBase64 converts standard base64 text into raw bytes. Input missing
// its trailing padding is accepted as well.
func DecodeBase64(text string) ([]byte, error) {
	if text == "" {
		return []byte{}, nil
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err == nil {
		return b, nil
	}
	if strings.HasSuffix(text, "=") {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	b, rawErr := base64.RawStdEncoding.DecodeString(text)
	if rawErr != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return b, nil
}

// DecodePCM16 de-interleaves little-endian signed 16-bit samples into a
// SampleBuffer of normalized floats.
//
// Malformed lengths are truncated rather than rejected: a trailing odd byte
// is dropped, and so are trailing samples that do not fill a whole frame.
// Empty input yields a zero-frame buffer.
func DecodePCM16(data []byte, sampleRate, channelCount int) (*SampleBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannelCount, channelCount)
	}

	samples := LEToPCMInt16(data)
	frames := len(samples) / channelCount

	buf := &SampleBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channelCount),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames*channelCount; i++ {
		buf.Channels[i%channelCount][i/channelCount] = float32(samples[i]) / pcm16Scale
	}

	return buf, nil
}
