package finance

import (
	"errors"
	"fmt"
	"math"
)

// ErrorKind classifies a failed calculation.
type ErrorKind int

const (
	InvalidRate ErrorKind = iota + 1
	NoSignChange
	NoConvergence
	DivisionByZero
	InvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidRate:
		return "invalid_rate"
	case NoSignChange:
		return "no_sign_change"
	case NoConvergence:
		return "no_convergence"
	case DivisionByZero:
		return "division_by_zero"
	case InvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// CalculationError is returned by every engine function that cannot produce a result
// for its inputs. Op names the function that failed.
type CalculationError struct {
	Kind   ErrorKind
	Op     string
	Detail string
}

func (e *CalculationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
}

// Is matches any CalculationError of the same kind, so errors.Is(err, ErrNoSignChange)
// works regardless of Op and Detail.
func (e *CalculationError) Is(target error) bool {
	var t *CalculationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidRate    = &CalculationError{Kind: InvalidRate}
	ErrNoSignChange   = &CalculationError{Kind: NoSignChange}
	ErrNoConvergence  = &CalculationError{Kind: NoConvergence}
	ErrDivisionByZero = &CalculationError{Kind: DivisionByZero}
	ErrInvalidInput   = &CalculationError{Kind: InvalidInput}
)

// KindOf returns the kind of a calculation error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var ce *CalculationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func newError(kind ErrorKind, op, format string, args ...interface{}) error {
	return &CalculationError{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// checkResult rejects a result that overflowed float64 for finite inputs.
func checkResult(op string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newError(InvalidInput, op, "result overflows")
		}
	}
	return nil
}

func checkRate(op string, rate float64) error {
	if math.IsNaN(rate) || rate <= -1 {
		return newError(InvalidRate, op, "rate %g must be greater than -100%%", rate)
	}
	return nil
}
