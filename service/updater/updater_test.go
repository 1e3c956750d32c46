package updater

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/service/notify"
	"github.com/kylycht/ledger/storage/cache"
)

func newTable() *cache.RateTable {
	table := cache.New("USD")
	table.Seed(model.DefaultRates())
	return table
}

func TestTickBounds(t *testing.T) {
	tests := []struct {
		name   string
		random float64
		factor float64
	}{
		{name: "lower bound", random: 0, factor: 0.99},
		{name: "midpoint", random: 0.5, factor: 1},
		{name: "upper bound", random: 0.999999, factor: 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTable()
			u := New(table, nil, time.Second, WithRandom(func() float64 { return tt.random }))

			u.Tick()

			eur, _ := table.Get("EUR")
			want := 0.85 * tt.factor
			if eur < want-1e-5 || eur > want+1e-5 {
				t.Errorf("Expected EUR ~%f, got %f", want, eur)
			}

			if usd, _ := table.Get("USD"); usd != 1.0 {
				t.Errorf("Base must stay 1.0, got %f", usd)
			}
			if u.Ticks() != 1 || u.LastTick().IsZero() {
				t.Errorf("Expected one recorded tick, got %d", u.Ticks())
			}
		})
	}
}

func TestTickPublishesSummary(t *testing.T) {
	var got []string
	bus := notify.New(service.ObserverFunc(func(msg string) { got = append(got, msg) }))

	u := New(newTable(), bus, time.Second, WithRandom(func() float64 { return 0.5 }))
	u.Tick()

	if len(got) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(got))
	}
	if !strings.Contains(got[0], "EUR=0.8500") || !strings.Contains(got[0], "RUB=75.0000") {
		t.Errorf("Unexpected summary: %s", got[0])
	}
}

func TestStartAndStop(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks int
	)

	u := New(newTable(), nil, 10*time.Millisecond, WithTickHook(func(time.Duration) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}))

	u.Start(context.Background())
	time.Sleep(55 * time.Millisecond)

	if err := u.Stop(time.Second); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if ticks < 2 {
		t.Errorf("Expected at least 2 ticks, got %d", ticks)
	}

	after := u.Ticks()
	time.Sleep(30 * time.Millisecond)
	if u.Ticks() != after {
		t.Error("Updater kept ticking after Stop")
	}
}

func TestStopBoundedWhenTickHangs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	entered := make(chan struct{}, 1)
	bus := notify.New(service.ObserverFunc(func(string) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	}))

	u := New(newTable(), bus, time.Hour)
	u.Start(context.Background())

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for first tick")
	}

	start := time.Now()
	err := u.Stop(50 * time.Millisecond)
	if !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("Expected ErrStopTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %s, expected bounded wait", elapsed)
	}
}

func TestTickSurvivesPanic(t *testing.T) {
	bus := notify.New()
	u := New(newTable(), bus, 10*time.Millisecond, WithRandom(func() float64 { panic("bad source") }))

	u.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	if err := u.Stop(time.Second); err != nil {
		t.Fatalf("Stop after panicking ticks failed: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	u := New(newTable(), nil, time.Second)
	if err := u.Stop(time.Millisecond); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
