package models

import (
	"errors"
	"fmt"
)

// ErrCandleDataUnavailable is fatal for every horizon: without candles no
// feature table can be built. Auxiliary sources degrade to neutral instead.
var ErrCandleDataUnavailable = errors.New("candle data unavailable")

// InsufficientHistoryError is returned when a candle series is shorter than
// the largest indicator window and no complete row can be produced.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d candles, need at least %d", e.Have, e.Need)
}

// SchemaMismatchError is raised when a field named by a model's feature
// schema is absent from the joined feature table. It is a configuration bug,
// fatal for that horizon, never silently recovered.
type SchemaMismatchError struct {
	Horizon int
	Field   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %dh model: feature %q not in joined table", e.Horizon, e.Field)
}

// ModelUnavailableError marks a horizon whose artifacts were not loaded.
// The horizon is skipped; sibling horizons proceed.
type ModelUnavailableError struct {
	Horizon int
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("no model loaded for horizon %dh", e.Horizon)
}

// IsModelUnavailable reports whether err is a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var me *ModelUnavailableError
	return errors.As(err, &me)
}
