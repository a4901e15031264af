package orchestrator

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func collect(t *testing.T, j *Job) []JobEvent {
	t.Helper()
	var events []JobEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-j.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for job events")
		}
	}
}

func eventTypes(events []JobEvent) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestJobCompletes(t *testing.T) {
	orch := New(newMockGenerator(10), DefaultConfig())
	req := GenerationRequest{Prompt: "x", TotalSecs: 45, ChunkSecs: 30, OverlapSecs: 10}

	j := orch.StartJob(context.Background(), req, true)
	events := collect(t, j)

	want := []EventType{JobStarted, ChunkProgress, ChunkProgress, JobCompleted}
	if !slices.Equal(eventTypes(events), want) {
		t.Fatalf("expected events %v, got %v", want, eventTypes(events))
	}
	if p := events[2].Data.(Progress); p.Elapsed != 45 || p.Total != 45 {
		t.Errorf("unexpected final progress %+v", p)
	}
	for _, ev := range events {
		if ev.JobID != j.ID {
			t.Errorf("event carries job id %q, want %q", ev.JobID, j.ID)
		}
	}

	samples, err := j.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 350 {
		t.Errorf("expected 350 samples, got %d", len(samples))
	}
}

func TestJobStopAtChunkBoundary(t *testing.T) {
	gen := newMockGenerator(10)
	gen.release = make(chan struct{})
	orch := New(gen, DefaultConfig())
	req := GenerationRequest{Prompt: "x", TotalSecs: 90, ChunkSecs: 30, OverlapSecs: 10}

	j := orch.StartJob(context.Background(), req, true)
	j.Stop()
	j.Stop()
	close(gen.release)

	samples, err := j.Wait(context.Background())
	if err != nil {
		t.Fatalf("a stopped job is not a failure, got %v", err)
	}
	if n := len(gen.Calls()); n != 1 {
		t.Errorf("expected the job to stop after the chunk in flight, got %d calls", n)
	}
	if !slices.Equal(samples, mockChunk(0, 300)) {
		t.Error("expected exactly the first chunk")
	}

	types := eventTypes(collect(t, j))
	if types[len(types)-1] != JobStopped {
		t.Errorf("expected a JobStopped event last, got %v", types)
	}
}

func TestJobSingleShot(t *testing.T) {
	gen := newMockGenerator(10)
	orch := New(gen, DefaultConfig())

	j := orch.StartJob(context.Background(), GenerationRequest{Prompt: "x", TotalSecs: 5}, false)
	samples, err := j.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 50 || len(gen.Calls()) != 1 {
		t.Errorf("expected one 5s call, got %d samples from %d calls", len(samples), len(gen.Calls()))
	}
}

func TestJobFailure(t *testing.T) {
	gen := newMockGenerator(10)
	gen.failAt = 0
	gen.err = errors.New("model crashed")
	orch := New(gen, DefaultConfig())

	j := orch.StartJob(context.Background(), GenerationRequest{Prompt: "x", TotalSecs: 60, ChunkSecs: 30, OverlapSecs: 5}, true)
	events := collect(t, j)
	if last := events[len(events)-1]; last.Type != ErrorEvent {
		t.Errorf("expected an error event, got %v", last.Type)
	}

	if _, err := j.Wait(context.Background()); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestJobWaitHonoursContext(t *testing.T) {
	gen := newMockGenerator(10)
	gen.release = make(chan struct{})
	defer close(gen.release)
	orch := New(gen, DefaultConfig())

	j := orch.StartJob(context.Background(), GenerationRequest{Prompt: "x", TotalSecs: 5}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := j.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
