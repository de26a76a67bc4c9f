package vm

import (
	"errors"
	"fmt"

	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

// ErrorKind classifies a fatal runtime fault.
type ErrorKind string

const (
	KindTypeMismatch     ErrorKind = "TypeMismatchError"
	KindDivisionByZero   ErrorKind = "DivisionByZeroError"
	KindOverflow         ErrorKind = "OverflowError"
	KindOutOfBounds      ErrorKind = "OutOfBoundsError"
	KindStackUnderflow   ErrorKind = "StackUnderflowError"
	KindStackOverflow    ErrorKind = "StackOverflowError"
	KindAddressRouting   ErrorKind = "AddressRoutingError"
	KindUninitialized    ErrorKind = "UninitializedReadError"
	KindActivation       ErrorKind = "ActivationError"
	KindInvalidOperand   ErrorKind = "InvalidOperandError"
	KindStepLimit        ErrorKind = "StepLimitError"
	KindOutput           ErrorKind = "OutputError"
	KindInvalidOperation ErrorKind = "InvalidOperationError"
)

// Sentinels for errors.Is matching against a *RuntimeError.
var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrOverflow         = errors.New("integer overflow")
	ErrOutOfBounds      = errors.New("array index out of bounds")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrAddressRouting   = errors.New("address routing")
	ErrUninitialized    = errors.New("uninitialized read")
	ErrActivation       = errors.New("activation")
	ErrInvalidOperand   = errors.New("invalid operand")
	ErrStepLimit        = errors.New("step limit exceeded")
	ErrOutput           = errors.New("output")
	ErrInvalidOperation = errors.New("invalid operation")
)

var sentinels = map[ErrorKind]error{
	KindTypeMismatch:     ErrTypeMismatch,
	KindDivisionByZero:   ErrDivisionByZero,
	KindOverflow:         ErrOverflow,
	KindOutOfBounds:      ErrOutOfBounds,
	KindStackUnderflow:   ErrStackUnderflow,
	KindStackOverflow:    ErrStackOverflow,
	KindAddressRouting:   ErrAddressRouting,
	KindUninitialized:    ErrUninitialized,
	KindActivation:       ErrActivation,
	KindInvalidOperand:   ErrInvalidOperand,
	KindStepLimit:        ErrStepLimit,
	KindOutput:           ErrOutput,
	KindInvalidOperation: ErrInvalidOperation,
}

// RuntimeError is the single error type returned by the engine. Every fault
// aborts the run.
type RuntimeError struct {
	Kind     ErrorKind
	IP       int
	Op       quad.Operator
	Message  string
	Operands []runtime.Kind
	// CallStack holds the return addresses of the live calls, innermost first.
	CallStack []int
	Err       error
}

func (e *RuntimeError) Error() string {
	if e.IP < 0 {
		return fmt.Sprintf("runtime: %s", e.Message)
	}
	return fmt.Sprintf("runtime: instruction %d (%s): %s", e.IP, e.Op, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func (e *RuntimeError) Is(target error) bool {
	if sentinel, ok := sentinels[e.Kind]; ok && sentinel == target {
		return true
	}
	return false
}

func newFault(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, IP: -1, Message: fmt.Sprintf(format, args...)}
}

func wrapFault(kind ErrorKind, err error, format string, args ...any) *RuntimeError {
	fault := newFault(kind, format, args...)
	fault.Err = err
	return fault
}

func typeMismatch(op quad.Operator, left, right runtime.Kind) *RuntimeError {
	fault := newFault(KindTypeMismatch, "operand types %s and %s are incompatible with %s", left, right, op)
	fault.Operands = []runtime.Kind{left, right}
	return fault
}

// attachContext stamps the instruction index, operator and live call stack on
// a fault raised by a handler.
func (e *Engine) attachContext(err error, ip int, op quad.Operator) error {
	if err == nil {
		return nil
	}
	var fault *RuntimeError
	if !errors.As(err, &fault) {
		fault = wrapFault(KindInvalidOperation, err, "%v", err)
	}
	if fault.IP < 0 {
		fault.IP = ip
		fault.Op = op
	}
	if fault.CallStack == nil {
		fault.CallStack = e.returnAddresses()
	}
	return fault
}
