package services

import (
	"errors"

	"github.com/sbilibin2017/bank-system/internal/models"
)

// Error variables
var (
	// ErrAccountNotFound is returned when no active account has the given number.
	ErrAccountNotFound = errors.New("account not found or inactive")
	// ErrInvalidPIN is returned when the supplied PIN does not match.
	ErrInvalidPIN = errors.New("invalid PIN")
	// ErrInvalidCredentials is returned when the PIN or password does not match.
	ErrInvalidCredentials = errors.New("invalid PIN or password")
	// ErrInvalidAmount is returned for non-positive amounts and for deposits
	// that would take the balance past models.MaxAmount.
	ErrInvalidAmount = errors.New("invalid amount, must be positive")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTableFull is returned when no more accounts can be created.
	ErrTableFull = models.ErrTableFull
	// ErrValidationFailed is returned when a PIN or password has the wrong format.
	ErrValidationFailed = errors.New("validation failed")
	// ErrPersistenceFailure wraps snapshot save errors. The in-memory change is kept.
	ErrPersistenceFailure = errors.New("failed to save data")
)
