package orchestrator

import (
	"math"
	"slices"
	"testing"
)

func ramp(n int, base float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = base + float32(i)
	}
	return out
}

func TestCrossFadeTwoChunks(t *testing.T) {
	const w = 8
	chunk1 := ramp(20, 0)
	chunk2 := ramp(15, 100)

	c := NewCompositor(CrossFade, w)
	c.Add(chunk1)
	c.Add(chunk2)
	out := c.Samples()

	if len(out) != len(chunk1)+len(chunk2)-w {
		t.Fatalf("expected %d samples, got %d", len(chunk1)+len(chunk2)-w, len(out))
	}

	start := len(chunk1) - w
	if !slices.Equal(out[:start], chunk1[:start]) {
		t.Error("samples before the window must be untouched")
	}
	if out[start] != chunk1[start] {
		t.Errorf("first blended sample should equal chunk1 exactly, got %v want %v", out[start], chunk1[start])
	}

	last := out[start+w-1]
	maxDiff := math.Abs(float64(chunk1[len(chunk1)-1]-chunk2[w-1])) / w
	if diff := math.Abs(float64(last - chunk2[w-1])); diff > maxDiff+1e-4 {
		t.Errorf("last blended sample should approach chunk2: got %v, chunk2 %v", last, chunk2[w-1])
	}

	for i := 0; i < w; i++ {
		tt := float32(i) / w
		want := chunk1[start+i]*(1-tt) + chunk2[i]*tt
		if math.Abs(float64(out[start+i]-want)) > 1e-4 {
			t.Errorf("blend %d: got %v want %v", i, out[start+i], want)
		}
	}

	if !slices.Equal(out[len(chunk1):], chunk2[w:]) {
		t.Error("samples after the window must be chunk2 unchanged")
	}
}

func TestCrossFadeWindowLimitedByChunk(t *testing.T) {
	c := NewCompositor(CrossFade, 50)
	c.Add(ramp(20, 0))
	c.Add(ramp(10, 100))

	if c.Len() != 20 {
		t.Errorf("a chunk shorter than the window is fully blended into the tail, got %d samples", c.Len())
	}
}

func TestCrossFadeZeroOverlapAppends(t *testing.T) {
	chunk1, chunk2 := ramp(5, 0), ramp(5, 10)
	c := NewCompositor(CrossFade, 0)
	c.Add(chunk1)
	c.Add(chunk2)

	if !slices.Equal(c.Samples(), append(slices.Clone(chunk1), chunk2...)) {
		t.Error("zero overlap should append chunks unmodified")
	}
}

func TestCrossFadeAfterEmptyFirstChunk(t *testing.T) {
	c := NewCompositor(CrossFade, 4)
	c.Add(nil)
	c.Add(ramp(6, 1))

	if !slices.Equal(c.Samples(), ramp(6, 1)) {
		t.Error("blending against an empty output should append the chunk")
	}
	if c.Chunks() != 2 {
		t.Errorf("expected 2 chunks counted, got %d", c.Chunks())
	}
}

func TestSkipDuplicateTwoChunks(t *testing.T) {
	const skip = 6
	chunk1 := ramp(20, 0)
	chunk2 := ramp(15, 100)

	c := NewCompositor(SkipDuplicate, skip)
	c.Add(chunk1)
	c.Add(chunk2)
	out := c.Samples()

	if len(out) != len(chunk1)+len(chunk2)-skip {
		t.Fatalf("expected %d samples, got %d", len(chunk1)+len(chunk2)-skip, len(out))
	}
	if !slices.Equal(out[:len(chunk1)], chunk1) {
		t.Error("first chunk must be kept whole")
	}
	if !slices.Equal(out[len(chunk1):], chunk2[skip:]) {
		t.Error("samples after the skip point must be bit-identical to chunk2")
	}
}

func TestSkipDuplicateChunkShorterThanSkip(t *testing.T) {
	c := NewCompositor(SkipDuplicate, 10)
	c.Add(ramp(20, 0))
	c.Add(ramp(4, 100))

	if c.Len() != 20 {
		t.Errorf("a chunk inside the skipped prefix adds nothing, got %d samples", c.Len())
	}
}

func TestFirstChunkIsNeverModified(t *testing.T) {
	for _, mode := range []CompositionMode{CrossFade, SkipDuplicate} {
		chunk := ramp(10, 3)
		c := NewCompositor(mode, 4)
		c.Add(chunk)
		if !slices.Equal(c.Samples(), chunk) {
			t.Errorf("%s: first chunk should be appended as is", mode)
		}
	}
}
