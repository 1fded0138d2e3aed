package finance

import (
	"math"
)

const (
	// MaxIterations is the default iteration budget of the root finder.
	MaxIterations = 100
	// Precision is the default tolerance on both |f(r)| and |Δr|.
	Precision = 1e-7
	// DefaultGuess is the starting rate (10%) when none is given.
	DefaultGuess = 0.1

	// BracketLow and BracketHigh bound every rate the solver will evaluate.
	BracketLow  = -0.999
	BracketHigh = 10.0

	derivativeStep = 1e-6
)

// Solver finds a rate r with f(r) = 0. A zero MaxIterations, Tolerance or bracket takes
// the package default; a Guess outside the bracket starts from its midpoint.
type Solver struct {
	Guess         float64
	MaxIterations int
	Tolerance     float64
	Low           float64
	High          float64
}

// Root is a converged solution and the number of iterations it took.
type Root struct {
	Value      float64
	Iterations int
}

func DefaultSolver() Solver {
	return Solver{
		Guess:         DefaultGuess,
		MaxIterations: MaxIterations,
		Tolerance:     Precision,
		Low:           BracketLow,
		High:          BracketHigh,
	}
}

func (s Solver) withDefaults() Solver {
	d := DefaultSolver()
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.Tolerance <= 0 {
		s.Tolerance = d.Tolerance
	}
	if s.Low == 0 && s.High == 0 {
		s.Low, s.High = d.Low, d.High
	}
	if math.IsNaN(s.Guess) || s.Guess <= s.Low || s.Guess >= s.High {
		s.Guess = (s.Low + s.High) / 2
	}
	return s
}

// Solve runs Newton's method with a central-difference derivative. A step that is not
// finite, leaves the bracket, or comes from a derivative within derivativeStep of zero
// is replaced by bisection whenever f changes sign across [Low, High].
func (s Solver) Solve(f func(float64) float64) (Root, error) {
	s = s.withDefaults()

	a, b := s.Low, s.High
	fa, fb := f(a), f(b)
	bracketed := !math.IsNaN(fa) && !math.IsNaN(fb) && fa != 0 && fb != 0 &&
		math.Signbit(fa) != math.Signbit(fb)

	r := s.Guess
	for i := 1; i <= s.MaxIterations; i++ {
		fr := f(r)
		if math.Abs(fr) < s.Tolerance {
			return Root{Value: r, Iterations: i}, nil
		}
		if bracketed && !math.IsNaN(fr) {
			if math.Signbit(fr) == math.Signbit(fa) {
				a, fa = r, fr
			} else {
				b = r
			}
		}

		next, ok := newtonStep(f, r, fr)
		if ok && (next <= s.Low || next >= s.High) {
			ok = false
		}
		if ok && bracketed && (next <= a || next >= b) {
			ok = false
		}

		if !ok {
			switch {
			case bracketed:
				next = (a + b) / 2
			case math.IsNaN(next) || math.IsInf(next, 0):
				return Root{}, newError(NoConvergence, "solve", "derivative vanished at rate %g", r)
			case next <= s.Low:
				next = (r + s.Low) / 2
			default:
				next = (r + s.High) / 2
			}
		}

		step := next - r
		r = next
		// A damped step shrinking toward an edge is not convergence.
		if math.Abs(step) < s.Tolerance && (ok || bracketed) {
			return Root{Value: r, Iterations: i}, nil
		}
	}
	return Root{}, newError(NoConvergence, "solve", "no root within %g after %d iterations", s.Tolerance, s.MaxIterations)
}

// newtonStep returns NaN with ok=false when the derivative estimate is unusable.
func newtonStep(f func(float64) float64, r, fr float64) (float64, bool) {
	if math.IsNaN(fr) || math.IsInf(fr, 0) {
		return math.NaN(), false
	}
	d := (f(r+derivativeStep) - f(r-derivativeStep)) / (2 * derivativeStep)
	if math.IsNaN(d) || math.IsInf(d, 0) || math.Abs(d) < derivativeStep {
		return math.NaN(), false
	}
	next := r - fr/d
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return math.NaN(), false
	}
	return next, true
}

// Solve finds a root of f starting at initialGuess.
func Solve(f func(float64) float64, initialGuess float64, maxIterations int, tolerance float64) (float64, error) {
	s := DefaultSolver()
	s.Guess = initialGuess
	s.MaxIterations = maxIterations
	s.Tolerance = tolerance
	root, err := s.Solve(f)
	if err != nil {
		return 0, err
	}
	return root.Value, nil
}
