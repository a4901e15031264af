// Package generator holds SegmentGenerator implementations.
package generator

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
)

// Tone is a deterministic stand-in for a model server. It renders a sine
// whose pitch is derived from the prompt and whose phase picks up where the
// continuity buffer left off. Useful offline and in demos.
type Tone struct {
	sampleRate int
	amplitude  float64
}

func NewTone(sampleRate int) *Tone {
	if sampleRate <= 0 {
		sampleRate = orchestrator.DefaultSampleRate
	}
	return &Tone{sampleRate: sampleRate, amplitude: 0.3}
}

func (g *Tone) Generate(ctx context.Context, prompt string, secs int, continuity []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	freq := pitchFor(prompt)
	step := 2 * math.Pi * freq / float64(g.sampleRate)
	phase := g.resumePhase(continuity, step)

	samples := make([]float32, secs*g.sampleRate)
	for i := range samples {
		samples[i] = float32(g.amplitude * math.Sin(phase+float64(i+1)*step))
	}
	return samples, nil
}

// resumePhase recovers the phase of the last continuity sample. With two
// samples both sine and cosine of the phase are known, which keeps the
// direction of the wave across the seam.
func (g *Tone) resumePhase(continuity []float32, step float64) float64 {
	n := len(continuity)
	if n == 0 {
		return 0
	}
	last := float64(continuity[n-1]) / g.amplitude
	if n == 1 || math.Abs(math.Sin(step)) < 1e-9 {
		return math.Asin(clamp(last))
	}
	prev := float64(continuity[n-2]) / g.amplitude
	cos := (last*math.Cos(step) - prev) / math.Sin(step)
	return math.Atan2(last, cos)
}

func (g *Tone) SampleRate() int {
	return g.sampleRate
}

func (g *Tone) Name() string {
	return "tone"
}

// pitchFor maps a prompt onto A3..A5.
func pitchFor(prompt string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	semitone := float64(h.Sum32() % 24)
	return 220 * math.Pow(2, semitone/12)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
