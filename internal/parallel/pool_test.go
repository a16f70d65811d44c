package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
)

func TestPoolRunsAllTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(4)
	var count int64
	tasks := make([]Task, 50)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt64(&count, 1)
			return nil
		}
	}
	if err := p.Run(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 50 {
		t.Fatalf("expected 50 tasks to run, got %d", count)
	}
}

func TestPoolPropagatesFirstError(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(2)
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return nil },
	}
	err := p.Run(context.Background(), tasks)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestPoolRespectsCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(2)
	tasks := []Task{
		func(ctx context.Context) error { return nil },
	}
	if err := p.Run(ctx, tasks); err == nil {
		t.Fatalf("expected context error after cancellation")
	}
}
