package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"calc-history/internal/calculator"
	"calc-history/internal/history"

	"go.uber.org/zap"
)

func newTestSession(t *testing.T) *calculator.Session {
	t.Helper()
	if err := history.InitMetrics(); err != nil {
		t.Fatalf("initializing history metrics: %v", err)
	}
	log := history.New(history.NewMemoryStore(), zap.NewNop())
	t.Cleanup(log.Wait)
	return calculator.NewSession(log, calculator.WallClock, time.Minute)
}

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		word string
		want []string
	}{
		{word: "12+3=", want: []string{"1", "2", "+", "3", "="}},
		{word: "Enter", want: []string{"Enter"}},
		{word: "Backspace", want: []string{"Backspace"}},
		{word: "7", want: []string{"7"}},
	}

	for _, tc := range tests {
		if got := splitKeys(tc.word); strings.Join(got, " ") != strings.Join(tc.want, " ") {
			t.Fatalf("splitKeys(%q): expected %q, got %q", tc.word, tc.want, got)
		}
	}
}

func TestReplPrintsDisplayAfterEachLine(t *testing.T) {
	s := newTestSession(t)
	in := strings.NewReader("2 + 3\n* 4 Enter\nhistory\nquit\n9\n")
	var out bytes.Buffer

	if err := repl(in, &out, s); err != nil {
		t.Fatalf("repl: %v", err)
	}

	want := strings.Join([]string{
		"0",
		"2 +  3",
		"20",
		"20",
		"  5 × 4 = 20",
		"  2 + 3 = 5",
	}, "\n") + "\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestReplReportsUnknownKeys(t *testing.T) {
	s := newTestSession(t)
	var out bytes.Buffer

	if err := repl(strings.NewReader("2x\n"), &out, s); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.Contains(out.String(), `unknown key "x"`) {
		t.Fatalf("expected unknown key message, got %q", out.String())
	}
	if v := s.View(); v.Display != "2" {
		t.Fatalf("expected valid keys to apply, got display %q", v.Display)
	}
}

func TestReplClearHistory(t *testing.T) {
	s := newTestSession(t)
	var out bytes.Buffer

	if err := repl(strings.NewReader("1+1=\nclear-history\n"), &out, s); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if n := len(s.View().History); n != 0 {
		t.Fatalf("expected empty history, got %d records", n)
	}
}

func TestEvalCommand(t *testing.T) {
	t.Setenv("CALC_CONFIG", "")
	t.Setenv("HISTORY_STORE", "memory")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"eval", "2", "+", "3", "*", "4", "="})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "20" {
		t.Fatalf("expected 20, got %q", got)
	}
}

func TestEvalCommandRejectsUnknownKey(t *testing.T) {
	t.Setenv("CALC_CONFIG", "")
	t.Setenv("HISTORY_STORE", "memory")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "2", "^", "3"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
