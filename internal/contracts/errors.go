package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBudget rejects a non-positive or non-numeric portfolio budget
// before any allocation is attempted.
var ErrInvalidBudget = errors.New("portfolio budget must be a positive number")

// FetchError reports a failed provider batch request. Symbols names the
// chunk that failed so the caller can retry or abort that subset without
// discarding already-fetched chunks.
type FetchError struct {
	Symbols []string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for batch [%s]: %v", strings.Join(e.Symbols, ","), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ImputationError reports a metric column with zero defined values across
// the universe: its mean is undefined, so the column must be excluded from
// composite scoring instead of silently propagating NaN.
type ImputationError struct {
	Columns []Column
}

func (e *ImputationError) Error() string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.String()
	}
	return fmt.Sprintf("no defined values in metric column(s): %s", strings.Join(names, ","))
}

// InsufficientUniverseError flags a universe smaller than the requested
// selection size. Selection still returns every available row.
type InsufficientUniverseError struct {
	Requested int
	Available int
}

func (e *InsufficientUniverseError) Error() string {
	return fmt.Sprintf("universe has %d rows, fewer than the %d requested", e.Available, e.Requested)
}

// InvalidPriceError rejects a row whose price cannot produce a sensible
// share count.
type InvalidPriceError struct {
	Ticker string
	Price  float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %v for %s", e.Price, e.Ticker)
}
