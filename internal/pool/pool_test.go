package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestRun_PreservesOrder verifies result[i] corresponds to item[i]
// regardless of completion order
func TestRun_PreservesOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	results := Run(context.Background(), items, func(ctx context.Context, n int) int {
		// Make later items finish first
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		return n * n
	}, Options{Concurrency: 3})

	if len(results) != len(items) {
		t.Fatalf("Expected %d results, got %d", len(items), len(results))
	}
	for i, n := range items {
		if results[i] != n*n {
			t.Errorf("results[%d] = %d, expected %d", i, results[i], n*n)
		}
	}
}

// TestRun_RespectsConcurrencyCeiling verifies at most C workers run
// simultaneously when C < number of items
func TestRun_RespectsConcurrencyCeiling(t *testing.T) {
	const concurrency = 3
	var active, peak int64

	items := make([]int, 20)
	Run(context.Background(), items, func(ctx context.Context, _ int) int {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return 0
	}, Options{Concurrency: concurrency})

	if got := atomic.LoadInt64(&peak); got > concurrency {
		t.Errorf("Peak concurrency was %d, ceiling is %d", got, concurrency)
	}
}

// TestRun_NilResultsAllowed verifies a worker returning nil does not
// disturb the rest of the batch
func TestRun_NilResultsAllowed(t *testing.T) {
	items := []string{"a", "b", "c"}

	results := Run(context.Background(), items, func(ctx context.Context, s string) *string {
		if s == "b" {
			return nil
		}
		return &s
	}, Options{Concurrency: 2})

	if results[0] == nil || *results[0] != "a" {
		t.Error("Expected results[0] = a")
	}
	if results[1] != nil {
		t.Error("Expected results[1] = nil")
	}
	if results[2] == nil || *results[2] != "c" {
		t.Error("Expected results[2] = c")
	}
}

func TestRun_EmptyInput(t *testing.T) {
	results := Run(context.Background(), nil, func(ctx context.Context, _ int) int { return 1 }, Options{})
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
}

// TestRun_CancelSkipsRemaining verifies items not yet started keep
// their zero results after cancellation, and Run still returns
func TestRun_CancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started int64
	var once sync.Once

	items := make([]int, 50)
	results := Run(ctx, items, func(ctx context.Context, _ int) int {
		atomic.AddInt64(&started, 1)
		once.Do(cancel)
		return 1
	}, Options{Concurrency: 1})

	if got := atomic.LoadInt64(&started); got >= 50 {
		t.Errorf("Expected cancellation to skip some items, all %d started", got)
	}
	zero := 0
	for _, r := range results {
		if r == 0 {
			zero++
		}
	}
	if zero == 0 {
		t.Error("Expected skipped items to keep zero results")
	}
}

// TestRun_DelayPacesCompletions verifies the per-completion delay holds
// the slot, bounding throughput to roughly items/concurrency * delay
func TestRun_DelayPacesCompletions(t *testing.T) {
	items := make([]int, 6)
	start := time.Now()

	Run(context.Background(), items, func(ctx context.Context, _ int) int { return 0 }, Options{
		Concurrency: 2,
		Delay:       20 * time.Millisecond,
	})

	// 6 items / 2 slots = 3 waves of 20ms each
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected at least ~60ms of pacing, finished in %s", elapsed)
	}
}
