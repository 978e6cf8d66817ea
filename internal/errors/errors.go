// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data for trend estimation")
	ErrStoreUnavailable = errors.New("position store unavailable")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ScenarioUnavailableError indicates the scoring capability failed to produce
// a usable scenario after the retry budget was exhausted.
type ScenarioUnavailableError struct {
	StockID string
	Err     error
}

func (e *ScenarioUnavailableError) Error() string {
	return fmt.Sprintf("scenario unavailable for %s: %v", e.StockID, e.Err)
}

func (e *ScenarioUnavailableError) Unwrap() error {
	return e.Err
}

// NewScenarioUnavailableError creates a new ScenarioUnavailableError.
func NewScenarioUnavailableError(stockID string, err error) *ScenarioUnavailableError {
	return &ScenarioUnavailableError{StockID: stockID, Err: err}
}

// InsufficientUnitAmountError indicates the configured unit amount cannot buy
// a single share at the current price. Treated as a skip, not a fatal error.
type InsufficientUnitAmountError struct {
	UnitAmount float64
	Price      float64
}

func (e *InsufficientUnitAmountError) Error() string {
	return fmt.Sprintf("unit amount %.0f cannot buy one share at %.0f", e.UnitAmount, e.Price)
}

// NewInsufficientUnitAmountError creates a new InsufficientUnitAmountError.
func NewInsufficientUnitAmountError(unitAmount, price float64) *InsufficientUnitAmountError {
	return &InsufficientUnitAmountError{UnitAmount: unitAmount, Price: price}
}

// DuplicatePositionError indicates an open was attempted for a stock that
// already has an open position.
type DuplicatePositionError struct {
	StockID string
}

func (e *DuplicatePositionError) Error() string {
	return fmt.Sprintf("position already open for %s", e.StockID)
}

// NoSuchPositionError indicates a close was attempted for a stock with no
// open position.
type NoSuchPositionError struct {
	StockID string
}

func (e *NoSuchPositionError) Error() string {
	return fmt.Sprintf("no open position for %s", e.StockID)
}

// ExecutionRejectedError indicates the brokerage collaborator rejected an
// order request.
type ExecutionRejectedError struct {
	StockID string
	Side    string
	Reason  string
}

func (e *ExecutionRejectedError) Error() string {
	return fmt.Sprintf("execution rejected [%s %s]: %s", e.Side, e.StockID, e.Reason)
}

// NewExecutionRejectedError creates a new ExecutionRejectedError.
func NewExecutionRejectedError(stockID, side, reason string) *ExecutionRejectedError {
	return &ExecutionRejectedError{StockID: stockID, Side: side, Reason: reason}
}

// StrategyError represents an error from a decision strategy.
type StrategyError struct {
	Strategy  string
	Operation string
	Err       error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy error [%s] %s: %v", e.Strategy, e.Operation, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// NewStrategyError creates a new StrategyError.
func NewStrategyError(strategy, operation string, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Operation: operation, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
