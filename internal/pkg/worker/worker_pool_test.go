package worker

import (
	"context"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"

	"sitewatch/internal/pkg/logger"
	"sitewatch/internal/pkg/queue"
)

func init() {
	// Ensure that the logger is not nil during tests.
	logger.Log = zap.NewNop()
}

// Records every URL it is handed.
type recordingProcessor struct {
	mu   sync.Mutex
	urls []string
}

func (rp *recordingProcessor) ProcessURL(ctx context.Context, url string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.urls = append(rp.urls, url)
}

// With a single worker the batch is processed sequentially in input order.
func TestSingleWorkerPreservesOrder(t *testing.T) {
	q, err := queue.CreateQueue(3)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	input := []string{"http://a.com", "http://b.com", "http://c.com"}
	for _, url := range input {
		if err := q.Insert(url); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	rp := &recordingProcessor{}
	pool := NewWorkerPool(1, q, rp)
	pool.Start(context.Background())
	pool.Wait()

	if len(rp.urls) != 3 {
		t.Fatalf("Expected 3 processed URLs, got %d", len(rp.urls))
	}
	for i, want := range input {
		if rp.urls[i] != want {
			t.Errorf("Expected %q at position %d, got %q", want, i, rp.urls[i])
		}
	}
}

// Multiple workers drain the whole batch exactly once each URL.
func TestMultipleWorkersDrainQueue(t *testing.T) {
	q, err := queue.CreateQueue(10)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	var input []string
	for _, url := range []string{"a", "b", "c", "d", "e", "f"} {
		full := "http://" + url + ".com"
		input = append(input, full)
		if err := q.Insert(full); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	rp := &recordingProcessor{}
	pool := NewWorkerPool(3, q, rp)
	pool.Start(context.Background())
	pool.Wait()

	if len(rp.urls) != len(input) {
		t.Fatalf("Expected %d processed URLs, got %d", len(input), len(rp.urls))
	}
	got := append([]string(nil), rp.urls...)
	sort.Strings(got)
	for i, want := range input {
		if got[i] != want {
			t.Errorf("Expected %q in processed set, got %q", want, got[i])
		}
	}
}

// A cancelled context stops workers without draining the queue.
func TestWorkersStopOnCancel(t *testing.T) {
	q, err := queue.CreateQueue(2)
	if err != nil {
		t.Fatalf("Failed to create queue: %v", err)
	}
	q.Insert("http://a.com")
	q.Insert("http://b.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rp := &recordingProcessor{}
	pool := NewWorkerPool(1, q, rp)
	pool.Start(ctx)
	pool.Wait()

	if len(rp.urls) != 0 {
		t.Errorf("Expected no URLs processed after cancellation, got %d", len(rp.urls))
	}
}
