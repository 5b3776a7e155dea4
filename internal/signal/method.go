// Package signal reads binding-signal records and reduces them to gene level scores.
package signal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// ErrUnknownMethod is returned for an unrecognized aggregation method name.
var ErrUnknownMethod = errors.New("unknown aggregation method")

// Method selects how multiple scores of one gene are reduced to one.
type Method int

const (
	Max Method = iota
	Min
	Mean
	Median
	Sum
)

var methodNames = [...]string{
	Max:    "max",
	Min:    "min",
	Mean:   "mean",
	Median: "median",
	Sum:    "sum",
}

// MethodNames lists the accepted aggregation method names.
func MethodNames() []string {
	return []string{"min", "max", "mean", "median", "sum"}
}

// String returns the configuration name of the method.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if strings.EqualFold(name, n) {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("%w %q (want one of %s)", ErrUnknownMethod, name, strings.Join(MethodNames(), ", "))
}

// Reducer reduces a non-empty list of scores to one value.
type Reducer func([]float64) float64

// Reducer returns the reduction function for m. It panics on a Method value
// outside the enumeration; ParseMethod never produces one.
func (m Method) Reducer() Reducer {
	var fn func(stats.Float64Data) (float64, error)
	switch m {
	case Max:
		fn = stats.Max
	case Min:
		fn = stats.Min
	case Mean:
		fn = stats.Mean
	case Median:
		fn = stats.Median
	case Sum:
		fn = stats.Sum
	default:
		panic(fmt.Sprintf("signal: invalid method %d", int(m)))
	}
	return func(scores []float64) float64 {
		v, err := fn(scores)
		if err != nil {
			// stats only fails on empty input, which callers never pass.
			panic(fmt.Sprintf("signal: reduce %s: %v", m, err))
		}
		return v
	}
}
