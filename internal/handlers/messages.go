package handlers

import (
	"errors"

	"github.com/sbilibin2017/bank-system/internal/middlewares"
	"github.com/sbilibin2017/bank-system/internal/services"
	"github.com/sbilibin2017/bank-system/internal/validators"
)

func validPIN(pin string) bool {
	return validators.ValidatePIN(pin)
}

func validPassword(password string) bool {
	return validators.ValidatePassword(password)
}

// savedLater reports whether err only concerns the snapshot write.
// The operation itself took effect and should be reported as done.
func savedLater(err error) bool {
	return errors.Is(err, services.ErrPersistenceFailure)
}

// report prints the user-facing message for err.
func (c *Console) report(err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		c.printf("Account not found or inactive!\n")
	case errors.Is(err, services.ErrInvalidPIN):
		c.printf("Invalid PIN!\n")
	case errors.Is(err, services.ErrInvalidCredentials):
		c.printf("Invalid PIN or Password!\n")
	case errors.Is(err, services.ErrInvalidAmount):
		c.printf("Invalid amount! Must be positive.\n")
	case errors.Is(err, services.ErrInsufficientBalance):
		c.printf("Insufficient balance!\n")
	case errors.Is(err, services.ErrTableFull):
		c.printf("Maximum account limit reached!\n")
	case errors.Is(err, services.ErrValidationFailed):
		c.printf("Invalid input: %s\n", err)
	case errors.Is(err, services.ErrPersistenceFailure):
		c.printf("Error saving data!\n")
	case errors.Is(err, middlewares.ErrNoSession):
		c.printf("Please log in first!\n")
	default:
		c.log.Errorw("unexpected error", "error", err)
		c.printf("Unexpected error: %v\n", err)
	}
}
