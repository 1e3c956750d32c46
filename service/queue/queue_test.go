package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	if q.Len() != 5 {
		t.Fatalf("Expected 5 pending, got %d", q.Len())
	}

	for i := 0; i < 5; i++ {
		got, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if got != i {
			t.Errorf("Expected %d, got %d", i, got)
		}
	}
}

func TestCloseDrainsThenReportsClosed(t *testing.T) {
	q := New[string]()
	_ = q.Push("a")
	_ = q.Push("b")
	q.Close()
	q.Close()

	if err := q.Push("c"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed on push after close, got %v", err)
	}

	for _, want := range []string{"a", "b"} {
		got, err := q.Pop(context.Background())
		if err != nil || got != want {
			t.Fatalf("Expected %q, got %q (%v)", want, got, err)
		}
	}

	if _, err := q.Pop(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed on empty closed queue, got %v", err)
	}
}

func TestPopUnblocksOnClose(t *testing.T) {
	q := New[int]()

	errC := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errC <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errC:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout: Pop did not observe Close")
	}
}

func TestPopHonoursContext(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestDrain(t *testing.T) {
	q := New[int]()
	_ = q.Push(1)
	_ = q.Push(2)

	items := q.Drain()
	if len(items) != 2 || q.Len() != 0 {
		t.Errorf("Expected 2 drained and empty queue, got %v / %d", items, q.Len())
	}
}

func TestConcurrentExactlyOnce(t *testing.T) {
	const (
		producers = 8
		perProd   = 500
		consumers = 6
	)

	q := New[int]()
	seen := make([]int32, producers*perProd)

	var consumed sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for {
				item, err := q.Pop(context.Background())
				if err != nil {
					return
				}
				atomic.AddInt32(&seen[item], 1)
			}
		}()
	}

	var produced sync.WaitGroup
	for p := 0; p < producers; p++ {
		produced.Add(1)
		go func(p int) {
			defer produced.Done()
			for i := 0; i < perProd; i++ {
				_ = q.Push(p*perProd + i)
			}
		}(p)
	}
	produced.Wait()
	q.Close()

	done := make(chan struct{})
	go func() {
		consumed.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("Timeout: %d items still queued", q.Len())
	}

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("Item %d consumed %d times", i, n)
		}
	}
}
