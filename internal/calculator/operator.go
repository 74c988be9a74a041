package calculator

import "errors"

// ErrUnknownToken is returned by the token parsers for input that is not part
// of the calculator vocabulary.
var ErrUnknownToken = errors.New("unknown token")

// Operator is a pending binary operation.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

// String returns the operator's token name.
func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	default:
		return "none"
	}
}

// Symbol returns the display glyph used in history records.
func (op Operator) Symbol() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "−"
	case OpMultiply:
		return "×"
	case OpDivide:
		return "÷"
	default:
		return ""
	}
}

func (op Operator) apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	default:
		return a / b
	}
}

// ParseOperator accepts operator names, ASCII keys and display glyphs.
func ParseOperator(token string) (Operator, error) {
	switch token {
	case "add", "+":
		return OpAdd, nil
	case "subtract", "-", "−":
		return OpSubtract, nil
	case "multiply", "*", "×":
		return OpMultiply, nil
	case "divide", "/", "÷":
		return OpDivide, nil
	}
	return OpNone, ErrUnknownToken
}

// Command is a non-arithmetic calculator action.
type Command int

const (
	CmdClear Command = iota + 1
	CmdDelete
	CmdPercent
	CmdEquals
	CmdToggleHistory
)

func (c Command) String() string {
	switch c {
	case CmdClear:
		return "clear"
	case CmdDelete:
		return "delete"
	case CmdPercent:
		return "percent"
	case CmdEquals:
		return "equals"
	case CmdToggleHistory:
		return "history"
	default:
		return "unknown"
	}
}

func ParseCommand(token string) (Command, error) {
	switch token {
	case "clear":
		return CmdClear, nil
	case "delete":
		return CmdDelete, nil
	case "percent":
		return CmdPercent, nil
	case "equals":
		return CmdEquals, nil
	case "history", "toggleHistoryView":
		return CmdToggleHistory, nil
	}
	return 0, ErrUnknownToken
}

// isDigitToken reports whether token is a single digit or the decimal point.
func isDigitToken(token string) bool {
	if len(token) != 1 {
		return false
	}
	return token == "." || (token[0] >= '0' && token[0] <= '9')
}

// InputKind classifies a key press.
type InputKind int

const (
	InputDigit InputKind = iota + 1
	InputOperator
	InputCommand
)

func (k InputKind) String() string {
	switch k {
	case InputDigit:
		return "digit"
	case InputOperator:
		return "operator"
	case InputCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Input is a classified key press.
type Input struct {
	Kind     InputKind
	Digit    string
	Operator Operator
	Command  Command
}

// ParseKey maps a keyboard key name onto calculator input.
func ParseKey(key string) (Input, error) {
	if isDigitToken(key) {
		return Input{Kind: InputDigit, Digit: key}, nil
	}

	switch key {
	case "+", "-", "*", "/":
		op, _ := ParseOperator(key)
		return Input{Kind: InputOperator, Operator: op}, nil
	case "Enter", "=":
		return Input{Kind: InputCommand, Command: CmdEquals}, nil
	case "Escape", "c", "C":
		return Input{Kind: InputCommand, Command: CmdClear}, nil
	case "Backspace", "Delete":
		return Input{Kind: InputCommand, Command: CmdDelete}, nil
	case "%":
		return Input{Kind: InputCommand, Command: CmdPercent}, nil
	}
	return Input{}, ErrUnknownToken
}
