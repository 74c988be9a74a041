package calculator

import (
	"sync"
	"time"

	"calc-history/internal/history"
)

// View is what a presentation layer renders after each input.
type View struct {
	Display        string   `json:"display"`
	Expression     string   `json:"expression"`
	Error          bool     `json:"error"`
	History        []string `json:"history"`
	HistoryVisible bool     `json:"history_visible"`
}

// Result is the outcome of one input call.
type Result struct {
	View View
	// Failure is set when this call moved the machine into the Error display.
	Failure error
}

// Session serialises access to one Machine and its history log, including
// the Error reset callbacks scheduled by the machine.
type Session struct {
	mu             sync.Mutex
	machine        *Machine
	history        *history.Log
	historyVisible bool
}

// NewSession wires a machine to log. sched may be nil for WallClock.
func NewSession(log *history.Log, sched Scheduler, errorReset time.Duration) *Session {
	if sched == nil {
		sched = WallClock
	}
	if errorReset <= 0 {
		errorReset = DefaultErrorReset
	}

	s := &Session{history: log}
	var rec Recorder
	if log != nil {
		rec = log
	}
	s.machine = NewMachine(rec,
		WithScheduler(lockedScheduler{mu: &s.mu, next: sched}),
		WithErrorReset(errorReset),
	)
	return s
}

func (s *Session) Digit(token string) (Result, error) {
	if !isDigitToken(token) {
		return Result{}, ErrUnknownToken
	}
	return s.apply(func(m *Machine) { m.InputDigit(token) }), nil
}

func (s *Session) Operator(token string) (Result, error) {
	op, err := ParseOperator(token)
	if err != nil {
		return Result{}, err
	}
	return s.apply(func(m *Machine) { m.InputOperator(op) }), nil
}

func (s *Session) Command(token string) (Result, error) {
	c, err := ParseCommand(token)
	if err != nil {
		return Result{}, err
	}
	return s.command(c), nil
}

// Key applies a keyboard key, see ParseKey.
func (s *Session) Key(key string) (Input, Result, error) {
	in, err := ParseKey(key)
	if err != nil {
		return Input{}, Result{}, err
	}

	switch in.Kind {
	case InputDigit:
		return in, s.apply(func(m *Machine) { m.InputDigit(in.Digit) }), nil
	case InputOperator:
		return in, s.apply(func(m *Machine) { m.InputOperator(in.Operator) }), nil
	default:
		return in, s.command(in.Command), nil
	}
}

// ClearHistory empties the history log; the calculator state is untouched.
func (s *Session) ClearHistory() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history != nil {
		s.history.Clear()
	}
	return s.viewLocked()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Records returns the history log, newest first.
func (s *Session) Records() []history.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.history == nil {
		return []history.Record{}
	}
	return s.history.Records()
}

func (s *Session) command(c Command) Result {
	if c == CmdToggleHistory {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.historyVisible = !s.historyVisible
		return Result{View: s.viewLocked()}
	}
	return s.apply(func(m *Machine) { m.Do(c) })
}

func (s *Session) apply(fn func(m *Machine)) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasFailed := s.machine.Failed()
	fn(s.machine)

	res := Result{View: s.viewLocked()}
	if !wasFailed && s.machine.Failed() {
		res.Failure = s.machine.Failure()
	}
	return res
}

func (s *Session) viewLocked() View {
	v := View{
		Display:        s.machine.Display(),
		Expression:     s.machine.Expression(),
		Error:          s.machine.Failed(),
		History:        []string{},
		HistoryVisible: s.historyVisible,
	}
	if s.history != nil {
		v.History = s.history.Texts()
	}
	return v
}

// lockedScheduler runs scheduled callbacks under the session lock.
type lockedScheduler struct {
	mu   *sync.Mutex
	next Scheduler
}

func (l lockedScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return l.next.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		f()
	})
}
