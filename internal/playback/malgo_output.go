package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/pkg/audio"
)

const bytesPerFloat32 = 4

// ErrOutputClosed is returned when starting playback on a closed output.
var ErrOutputClosed = errors.New("audio output closed")

// MalgoOutput is an Output backed by a miniaudio playback device. The
// device runs continuously once opened; its clock counts rendered frames.
type MalgoOutput struct {
	logger     *zap.Logger
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int

	mu       sync.Mutex
	rendered uint64
	voice    *malgoVoice
	scratch  []float32
	closed   bool
}

type malgoVoice struct {
	buf     *audio.SampleBuffer
	pos     int
	onEnded func()
	done    bool
}

// NewMalgoOutputFactory returns an OutputFactory that opens the default
// playback device.
func NewMalgoOutputFactory(logger *zap.Logger) OutputFactory {
	return func(sampleRate, channels int) (Output, error) {
		return OpenMalgoOutput(logger, sampleRate, channels)
	}
}

// OpenMalgoOutput initializes a miniaudio context and starts a float32
// playback device with the given format.
func OpenMalgoOutput(logger *zap.Logger, sampleRate, channels int) (*MalgoOutput, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid output format %d Hz x %d", sampleRate, channels)
	}

	o := &MalgoOutput{
		logger:     logger.Named("malgo"),
		sampleRate: sampleRate,
		channels:   channels,
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		o.logger.Debug("miniaudio", zap.String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: o.render,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()

		return nil, fmt.Errorf("init playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()

		return nil, fmt.Errorf("start playback device: %w", err)
	}

	o.ctx = ctx
	o.device = device

	o.logger.Debug("Audio output opened",
		zap.Int("sample_rate", sampleRate),
		zap.Int("channels", channels))

	return o, nil
}

// Now returns the duration of audio the device has rendered.
func (o *MalgoOutput) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	return audio.FramesToDuration(int(o.rendered), o.sampleRate)
}

// Start replaces any active voice with a new one reading buf from offset.
func (o *MalgoOutput) Start(buf *audio.SampleBuffer, offset time.Duration, onEnded func()) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, ErrOutputClosed
	}

	if o.voice != nil {
		o.finishLocked(o.voice)
	}

	v := &malgoVoice{
		buf:     buf,
		pos:     audio.DurationToFrames(offset, buf.SampleRate),
		onEnded: onEnded,
	}
	o.voice = v

	return &malgoHandle{out: o, voice: v}, nil
}

// Close stops the device and frees the miniaudio context. Safe to call
// more than once.
func (o *MalgoOutput) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()

		return nil
	}
	o.closed = true
	if o.voice != nil {
		o.finishLocked(o.voice)
	}
	o.mu.Unlock()

	// Uninit blocks until the device thread has left render.
	if o.device != nil {
		o.device.Uninit()
	}
	if o.ctx == nil {
		return nil
	}

	err := o.ctx.Uninit()
	o.ctx.Free()
	if err != nil {
		return fmt.Errorf("uninit audio context: %w", err)
	}

	return nil
}

// render is the device data callback. It runs on the audio thread.
func (o *MalgoOutput) render(out, _ []byte, frameCount uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := int(frameCount) * o.channels
	if cap(o.scratch) < n {
		o.scratch = make([]float32, n)
	}
	samples := o.scratch[:n]
	clear(samples)

	if v := o.voice; v != nil {
		frames := v.buf.Frames()
		srcChannels := v.buf.NumChannels()
		for f := 0; f < int(frameCount) && v.pos < frames; f++ {
			for ch := 0; ch < o.channels; ch++ {
				samples[f*o.channels+ch] = v.buf.Channels[ch%srcChannels][v.pos]
			}
			v.pos++
		}
		if v.pos >= frames {
			o.finishLocked(v)
		}
	}

	if len(out) >= n*bytesPerFloat32 {
		audio.EncodeFloat32LE(out, samples)
	}
	o.rendered += uint64(frameCount)
}

func (o *MalgoOutput) finishLocked(v *malgoVoice) {
	if o.voice == v {
		o.voice = nil
	}
	if v.done {
		return
	}
	v.done = true
	if v.onEnded != nil {
		go v.onEnded()
	}
}

type malgoHandle struct {
	out   *MalgoOutput
	voice *malgoVoice
}

func (h *malgoHandle) Stop() {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	h.out.finishLocked(h.voice)
}
