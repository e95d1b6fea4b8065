package models

import "errors"

// NotFound is the index returned by AccountTable.Find when no active account matches.
const NotFound = -1

// ErrTableFull is returned when the table already holds its maximum number of accounts.
var ErrTableFull = errors.New("maximum account limit reached")

// AccountTable is the ordered set of every account ever created, deleted ones included.
// Accounts are never removed, so indexes stay stable for the life of the process.
type AccountTable struct {
	Accounts        []*Account
	MaxAccounts     int // MaxAccounts caps len(Accounts)
	MaxTransactions int // MaxTransactions caps each account's history
}

// NewAccountTable creates an empty table with the given capacities.
func NewAccountTable(maxAccounts, maxTransactions int) *AccountTable {
	return &AccountTable{
		Accounts:        make([]*Account, 0, maxAccounts),
		MaxAccounts:     maxAccounts,
		MaxTransactions: maxTransactions,
	}
}

// Len returns the number of records, active and inactive.
func (t *AccountTable) Len() int {
	return len(t.Accounts)
}

// Full reports whether another account can be added.
func (t *AccountTable) Full() bool {
	return len(t.Accounts) >= t.MaxAccounts
}

// Add appends a to the table.
func (t *AccountTable) Add(a *Account) error {
	if t.Full() {
		return ErrTableFull
	}
	t.Accounts = append(t.Accounts, a)
	return nil
}

// Find returns the index of the first active account with the given number, or NotFound.
// Soft-deleted accounts are never returned.
func (t *AccountTable) Find(accountNumber int) int {
	for i, a := range t.Accounts {
		if a.AccountNumber == accountNumber && a.IsActive {
			return i
		}
	}
	return NotFound
}

// At returns the account stored at index i, including inactive ones.
func (t *AccountTable) At(i int) *Account {
	return t.Accounts[i]
}

// Replace swaps the table contents for accounts, keeping the configured capacities.
func (t *AccountTable) Replace(accounts []*Account) {
	t.Accounts = accounts
}
