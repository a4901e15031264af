package orchestrator

// PlanChunks splits totalSecs into per-call durations of at most chunkSecs.
// The last entry is whatever remains, so the plan sums to totalSecs.
func PlanChunks(totalSecs, chunkSecs int) []int {
	if totalSecs <= 0 || chunkSecs <= 0 {
		return nil
	}
	plan := make([]int, 0, (totalSecs+chunkSecs-1)/chunkSecs)
	for generated := 0; generated < totalSecs; {
		this := min(chunkSecs, totalSecs-generated)
		plan = append(plan, this)
		generated += this
	}
	return plan
}

// SecsToSamples converts seconds to a sample count at rate.
func SecsToSamples(secs, rate int) int {
	if secs <= 0 || rate <= 0 {
		return 0
	}
	return secs * rate
}

// continuityFrom copies the trailing window of a raw chunk so the next call
// never aliases the composed output.
func continuityFrom(chunk []float32, window int) []float32 {
	n := min(len(chunk), window)
	if n <= 0 {
		return nil
	}
	history := make([]float32, n)
	copy(history, chunk[len(chunk)-n:])
	return history
}
