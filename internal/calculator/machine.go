package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultErrorReset is how long the Error display stays up before the
// machine clears itself.
const DefaultErrorReset = 1500 * time.Millisecond

// ErrorDisplay replaces the current operand after a failed calculation.
const ErrorDisplay = "Error"

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrNonFinite      = errors.New("result is not finite")
)

// Recorder receives the text of every completed calculation.
type Recorder interface {
	Append(text string)
}

// State is a snapshot of the machine's operands.
type State struct {
	Current         string
	Previous        string
	Pending         Operator
	AwaitingOperand bool
}

// Machine interprets digit, operator and command input into a running
// computation with a single pending operator.
//
// A Machine is not safe for concurrent use. Callbacks scheduled through its
// Scheduler must run on the same logical thread as its other calls.
type Machine struct {
	current  string
	previous string
	pending  Operator
	awaiting bool

	failure    error
	failureGen uint64
	recovery   Timer

	recorder   Recorder
	scheduler  Scheduler
	errorReset time.Duration
}

type Option func(*Machine)

// WithScheduler sets the scheduler used for the Error display reset.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) { m.scheduler = s }
}

// WithErrorReset sets how long the Error display stays up.
func WithErrorReset(d time.Duration) Option {
	return func(m *Machine) { m.errorReset = d }
}

// NewMachine returns a cleared machine that appends completed calculations
// to rec. rec may be nil.
func NewMachine(rec Recorder, opts ...Option) *Machine {
	m := &Machine{
		current:    "0",
		recorder:   rec,
		scheduler:  WallClock,
		errorReset: DefaultErrorReset,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) State() State {
	return State{
		Current:         m.current,
		Previous:        m.previous,
		Pending:         m.pending,
		AwaitingOperand: m.awaiting,
	}
}

// Display returns the main display text.
func (m *Machine) Display() string {
	return m.current
}

// Expression returns "prev SYM" while an operator is pending.
func (m *Machine) Expression() string {
	if m.pending == OpNone || m.previous == "" {
		return ""
	}
	return m.previous + " " + m.pending.Symbol()
}

// Failed reports whether the Error display is showing.
func (m *Machine) Failed() bool {
	return m.failure != nil
}

// Failure returns the cause of the current Error display, or nil.
func (m *Machine) Failure() error {
	return m.failure
}

// InputDigit appends a digit or the decimal point to the current operand.
// While the Error display is showing, a digit starts over from a cleared
// machine.
func (m *Machine) InputDigit(d string) {
	if !isDigitToken(d) {
		return
	}
	if m.Failed() {
		m.Clear()
	}
	if d == "." && strings.Contains(m.current, ".") {
		return
	}

	if m.awaiting {
		if d == "." {
			m.current = "0."
		} else {
			m.current = d
		}
		m.awaiting = false
		return
	}

	if m.current == "0" && d != "." {
		m.current = d
		return
	}
	m.current += d
}

// InputOperator sets the pending operator. A second operand already entered
// for an earlier operator is calculated first.
func (m *Machine) InputOperator(op Operator) {
	if op == OpNone || m.Failed() {
		return
	}
	if m.pending != OpNone && !m.awaiting {
		m.Calculate()
		if m.Failed() {
			return
		}
	}

	m.pending = op
	m.previous = m.current
	m.awaiting = true
}

// Calculate applies the pending operator to the previous and current
// operands and records the result.
func (m *Machine) Calculate() {
	if m.Failed() || m.pending == OpNone || m.awaiting {
		return
	}

	prev, err := strconv.ParseFloat(m.previous, 64)
	if err != nil {
		return
	}
	cur, err := strconv.ParseFloat(m.current, 64)
	if err != nil {
		return
	}

	if m.pending == OpDivide && cur == 0 {
		m.fail(ErrDivisionByZero)
		return
	}
	raw := m.pending.apply(prev, cur)
	if math.IsInf(raw, 0) || math.IsNaN(raw) {
		m.fail(ErrNonFinite)
		return
	}

	result := Format(raw)
	if m.recorder != nil {
		m.recorder.Append(fmt.Sprintf("%s %s %s = %s", m.previous, m.pending.Symbol(), m.current, result))
	}

	m.current = result
	m.previous = ""
	m.pending = OpNone
	m.awaiting = true
}

// Clear resets the machine and cancels a pending Error reset.
func (m *Machine) Clear() {
	if m.recovery != nil {
		m.recovery.Stop()
		m.recovery = nil
	}
	m.failure = nil

	m.current = "0"
	m.previous = ""
	m.pending = OpNone
	m.awaiting = false
}

// Delete removes the last character of the current operand.
func (m *Machine) Delete() {
	if m.awaiting || m.Failed() {
		return
	}
	if len(m.current) > 1 {
		m.current = m.current[:len(m.current)-1]
		return
	}
	m.current = "0"
}

// Percent divides the current operand by 100.
func (m *Machine) Percent() {
	if m.Failed() {
		return
	}
	v, err := strconv.ParseFloat(m.current, 64)
	if err != nil {
		return
	}
	m.current = formatNumber(v / 100)
}

// Do runs a command. CmdToggleHistory has no effect on the machine.
func (m *Machine) Do(c Command) {
	switch c {
	case CmdClear:
		m.Clear()
	case CmdDelete:
		m.Delete()
	case CmdPercent:
		m.Percent()
	case CmdEquals:
		m.Calculate()
	}
}

func (m *Machine) fail(cause error) {
	m.current = ErrorDisplay
	m.failure = cause

	if m.recovery != nil {
		m.recovery.Stop()
	}
	m.failureGen++
	gen := m.failureGen
	m.recovery = m.scheduler.AfterFunc(m.errorReset, func() {
		// A Clear or a newer failure may have happened since scheduling.
		if m.failure != nil && m.failureGen == gen {
			m.Clear()
		}
	})
}
