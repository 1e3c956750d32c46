package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunDemo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour

	var out bytes.Buffer
	if err := runDemo(context.Background(), cfg, &out); err != nil {
		t.Fatalf("demo failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Deposit: client #1 deposited 500",
		"Withdrawal: client #2 withdrew 300",
		"Client 1:",
		"Client 2:",
		"Done. processed=4",
		"Exchange rates updated",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"demo", "--config", writeConfig(t, "tick_interval: 1h\nworkers: 2\n")})

	if err := root.Execute(); err != nil {
		t.Fatalf("demo command failed: %v", err)
	}
	if !strings.Contains(out.String(), "Done.") {
		t.Errorf("Expected demo output, got:\n%s", out.String())
	}

	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"demo", "--config", writeConfig(t, "rate_source: nowhere\n")})
	if err := root.Execute(); err == nil {
		t.Error("Expected error for invalid config")
	}
}
