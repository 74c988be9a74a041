package calculator

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"calc-history/internal/history"
)

func TestMain(m *testing.M) {
	if err := InitMetrics(); err != nil {
		fmt.Fprintf(os.Stderr, "initializing calculator metrics: %v\n", err)
		os.Exit(1)
	}
	if err := history.InitMetrics(); err != nil {
		fmt.Fprintf(os.Stderr, "initializing history metrics: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// manualScheduler fires callbacks only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every callback that became due.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of timers that have neither fired nor stopped.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recorder collects appended calculation texts.
type recorder struct {
	texts []string
}

func (r *recorder) Append(text string) {
	r.texts = append(r.texts, text)
}

// press feeds key names to the machine as ParseKey would classify them.
func press(t *testing.T, m *Machine, keys ...string) {
	t.Helper()
	for _, k := range keys {
		in, err := ParseKey(k)
		if err != nil {
			t.Fatalf("parsing key %q: %v", k, err)
		}
		switch in.Kind {
		case InputDigit:
			m.InputDigit(in.Digit)
		case InputOperator:
			m.InputOperator(in.Operator)
		case InputCommand:
			m.Do(in.Command)
		}
	}
}
