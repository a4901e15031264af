package orchestrator

// Compositor accumulates chunks into a single output buffer. It is owned by
// one orchestration call and is not safe for concurrent use.
type Compositor struct {
	mode   CompositionMode
	window int
	out    []float32
	chunks int
}

// NewCompositor creates a compositor whose overlap window is windowSamples
// long. Callers derive windowSamples from the generator's sample rate.
func NewCompositor(mode CompositionMode, windowSamples int) *Compositor {
	if mode == "" {
		mode = CrossFade
	}
	return &Compositor{
		mode:   mode,
		window: max(windowSamples, 0),
	}
}

// Add merges chunk into the output. The first chunk is always appended as is.
func (c *Compositor) Add(chunk []float32) {
	defer func() { c.chunks++ }()

	if c.chunks == 0 {
		c.out = append(c.out, chunk...)
		return
	}

	switch c.mode {
	case SkipDuplicate:
		c.out = skipPrefix(c.out, chunk, c.window)
	default:
		c.out = crossFade(c.out, chunk, c.window)
	}
}

// Samples returns the composed buffer. The slice is owned by the compositor
// until the orchestration call returns it.
func (c *Compositor) Samples() []float32 {
	return c.out
}

func (c *Compositor) Len() int {
	return len(c.out)
}

// Chunks is the number of chunks added so far.
func (c *Compositor) Chunks() int {
	return c.chunks
}

// crossFade replaces the trailing window of out with a linear blend into the
// head of chunk and appends the rest of chunk.
func crossFade(out, chunk []float32, window int) []float32 {
	tail := min(window, len(out), len(chunk))
	if tail == 0 {
		return append(out, chunk...)
	}

	start := len(out) - tail
	for i := 0; i < tail; i++ {
		t := float32(i) / float32(tail)
		out[start+i] = out[start+i]*(1-t) + chunk[i]*t
	}
	return append(out, chunk[tail:]...)
}

func skipPrefix(out, chunk []float32, skip int) []float32 {
	if skip >= len(chunk) {
		return out
	}
	return append(out, chunk[skip:]...)
}
