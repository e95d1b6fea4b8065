package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest balance or amount that fits the stored int64 cents.
var MaxAmount = decimal.New(math.MaxInt64, -2)

// Account holds a customer's balance, credentials and transaction history.
type Account struct {
	AccountNumber int             `json:"account_number"` // AccountNumber is the 6-digit account identifier
	Name          string          `json:"name"`           // Name is the account holder's display name
	Balance       decimal.Decimal `json:"balance"`        // Balance is never negative
	PIN           string          `json:"-"`              // PIN is exactly 4 digits
	Password      string          `json:"-"`              // Password is exactly 8 characters
	Transactions  []Transaction   `json:"transactions"`   // Transactions is the append-only history
	IsActive      bool            `json:"is_active"`      // IsActive is false once the account is soft-deleted
}

// AppendTransaction records tx unless the history already holds limit entries.
// It reports whether tx was stored. A limit of zero or less means unbounded.
func (a *Account) AppendTransaction(tx Transaction, limit int) bool {
	if limit > 0 && len(a.Transactions) >= limit {
		return false
	}
	a.Transactions = append(a.Transactions, tx)
	return true
}

// BalanceInfo is the read-only view returned by a balance query.
type BalanceInfo struct {
	Name          string          `json:"name"`
	AccountNumber int             `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}
