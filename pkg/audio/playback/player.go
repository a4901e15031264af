// Package playback plays float PCM buffers on the default output device.
package playback

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio"
)

const channels = 1

// Player owns a malgo context shared by all streams it starts. Starting a new
// stream closes the previous one.
type Player struct {
	mctx       *malgo.AllocatedContext
	sampleRate int

	mu      sync.Mutex
	current *Stream
}

// NewPlayer initialises the audio backend for sampleRate mono output.
func NewPlayer(sampleRate int) (*Player, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Player{mctx: mctx, sampleRate: sampleRate}, nil
}

// Play copies samples and starts playing them. The returned stream finishes on
// its own once drained.
func (p *Player) Play(samples []float32) (audio.Stream, error) {
	s := &Stream{
		pending: audio.PCM16(samples),
		done:    make(chan struct{}),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = uint32(p.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(p.mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	s.device = device

	p.mu.Lock()
	prev := p.current
	p.current = s
	p.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	if err := device.Start(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start playback device: %w", err)
	}

	go func() {
		<-s.done
		_ = s.Close()
	}()

	return s, nil
}

// Close stops the current stream and releases the audio context.
func (p *Player) Close() error {
	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()
	if cur != nil {
		_ = cur.Close()
	}

	if err := p.mctx.Uninit(); err != nil {
		return err
	}
	p.mctx.Free()
	return nil
}

type Stream struct {
	device *malgo.Device

	mu      sync.Mutex
	pending []byte

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func (s *Stream) onSamples(pOutput, pInput []byte, frameCount uint32) {
	if pOutput == nil {
		return
	}

	s.mu.Lock()
	// The device asks for a new period only after playing the previous one,
	// so a request that finds the queue empty means the last samples are out.
	drained := len(s.pending) == 0
	n := copy(pOutput, s.pending)
	s.pending = s.pending[n:]
	s.mu.Unlock()

	// Fill remaining with silence
	for i := n; i < len(pOutput); i++ {
		pOutput[i] = 0
	}

	if drained {
		s.finish()
	}
}

func (s *Stream) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close stops the device. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.device != nil {
			err = s.device.Stop()
			s.device.Uninit()
		}
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		s.finish()
	})
	return err
}
