package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels an entry in an account's history.
type TransactionType string

// Supported transaction types
const (
	TransactionDeposit         TransactionType = "Deposit"
	TransactionWithdrawal      TransactionType = "Withdrawal"
	TransactionAccountCreation TransactionType = "Account Creation"
	TransactionAccountDeletion TransactionType = "Account Deletion"
)

// Layouts used for the textual date and time of a transaction.
const (
	DateLayout = "02-01-2006"
	TimeLayout = "15:04:05"
)

// Transaction represents one immutable entry of an account's history.
type Transaction struct {
	Type   TransactionType `json:"type"`   // Type is the event label, e.g. "Deposit"
	Amount decimal.Decimal `json:"amount"` // Amount is the monetary value, zero for non-monetary events
	Date   string          `json:"date"`   // Date is the calendar day in DD-MM-YYYY form
	Time   string          `json:"time"`   // Time is the 24-hour HH:MM:SS time of day
}

// NewTransaction builds a transaction stamped with the date and time of at.
func NewTransaction(typ TransactionType, amount decimal.Decimal, at time.Time) Transaction {
	return Transaction{
		Type:   typ,
		Amount: amount,
		Date:   at.Format(DateLayout),
		Time:   at.Format(TimeLayout),
	}
}
