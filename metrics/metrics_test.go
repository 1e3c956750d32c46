package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTransaction(t *testing.T) {
	m := New("test")

	m.RecordSubmit("DEPOSIT", 3)
	m.RecordTransaction("DEPOSIT", "", time.Millisecond)
	m.RecordTransaction("WITHDRAWAL", "insufficient_funds", time.Millisecond)

	if got := testutil.ToFloat64(m.TransactionsSubmitted.WithLabelValues("DEPOSIT")); got != 1 {
		t.Errorf("Expected 1 submitted, got %f", got)
	}
	if got := testutil.ToFloat64(m.TransactionsApplied.WithLabelValues("DEPOSIT")); got != 1 {
		t.Errorf("Expected 1 applied, got %f", got)
	}
	if got := testutil.ToFloat64(m.TransactionsFailed.WithLabelValues("WITHDRAWAL", "insufficient_funds")); got != 1 {
		t.Errorf("Expected 1 failed, got %f", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 3 {
		t.Errorf("Expected queue depth 3, got %f", got)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := New("test")
	b := New("test")

	a.RecordAbandoned(4)
	b.RecordShutdownTimeout("drain")

	if got := testutil.ToFloat64(a.TransactionsAbandoned); got != 4 {
		t.Errorf("Expected 4 abandoned, got %f", got)
	}
	if got := testutil.ToFloat64(b.TransactionsAbandoned); got != 0 {
		t.Errorf("Registries should be independent, got %f", got)
	}
	if got := testutil.ToFloat64(b.ShutdownTimeouts.WithLabelValues("drain")); got != 1 {
		t.Errorf("Expected 1 drain timeout, got %f", got)
	}
}
