package contracts

import "math"

// Metric is an optional float64 carried through the screening pipeline.
// A fundamental the provider did not report, or a ratio whose denominator
// is zero, is undefined. The zero value is undefined. No stage ever stores
// a sentinel number (0, -1, NaN) in place of an undefined marker, because
// sentinels would corrupt downstream mean and percentile computations.
type Metric struct {
	Float64 float64 `json:"value"`
	Valid   bool    `json:"valid"`
}

// Defined returns a defined metric. Non-finite inputs are undefined.
func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Float64: v, Valid: true}
}

// Undefined returns the explicit "no value" marker.
func Undefined() Metric {
	return Metric{}
}

// FromPtr converts a nullable JSON numeric into a Metric.
func FromPtr(p *float64) Metric {
	if p == nil {
		return Metric{}
	}
	return Defined(*p)
}

// Div returns num/den, undefined when either operand is undefined or the
// denominator is zero. Division never produces Inf or NaN.
func Div(num, den Metric) Metric {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return Metric{}
	}
	return Defined(num.Float64 / den.Float64)
}
