// Package audio holds the PCM formats and pure conversion helpers used by the
// narration pipeline.
package audio

// Format constants shared by the speech backend, decoder and output layers.
const (
	// Synthesized narration payloads.
	NarrationSampleRate = 24_000 // Hz
	NarrationChannels   = 1

	// BytesPerSample is the width of one linear PCM16 sample.
	BytesPerSample = 2

	// pcm16Scale maps an int16 sample into [-1.0, 1.0).
	pcm16Scale = 32768.0
)
