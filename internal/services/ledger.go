package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/bank-system/internal/logger"
	"github.com/sbilibin2017/bank-system/internal/models"
	"github.com/sbilibin2017/bank-system/internal/validators"
)

//go:generate mockgen -source=ledger.go -destination=ledger_mock.go -package=services

// MaxNameLength is the longest account holder name, in bytes, that is stored.
const MaxNameLength = 49

// Account number range
const (
	MinAccountNumber = 100000
	MaxAccountNumber = 999999
)

// SnapshotSaver persists the whole account table.
type SnapshotSaver interface {
	Save(ctx context.Context, table *models.AccountTable) error // Overwrites the stored snapshot with table
}

// AccountNumberGenerator produces candidate account numbers.
type AccountNumberGenerator interface {
	Generate() int // Returns a number in [MinAccountNumber, MaxAccountNumber]
}

// Clock supplies the time used to stamp transactions.
type Clock interface {
	Now() time.Time
}

// RandomAccountNumberGenerator draws uniformly distributed 6-digit numbers.
// It does not check for collisions with existing accounts.
type RandomAccountNumberGenerator struct{}

// Generate returns a random number in [MinAccountNumber, MaxAccountNumber].
func (RandomAccountNumberGenerator) Generate() int {
	return MinAccountNumber + rand.Intn(MaxAccountNumber-MinAccountNumber+1)
}

// SystemClock reports the local wall-clock time.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// LedgerService runs the guarded account operations against an account table
// and flushes the table after each mutation.
type LedgerService struct {
	table *models.AccountTable
	saver SnapshotSaver
	gen   AccountNumberGenerator
	clock Clock
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	table *models.AccountTable,
	saver SnapshotSaver,
	gen AccountNumberGenerator,
	clock Clock,
) *LedgerService {
	return &LedgerService{
		table: table,
		saver: saver,
		gen:   gen,
		clock: clock,
	}
}

// Table returns the underlying account table, including soft-deleted accounts.
func (s *LedgerService) Table() *models.AccountTable {
	return s.table
}

// FindAccount returns the table index of the active account with the given number.
func (s *LedgerService) FindAccount(ctx context.Context, accountNumber int) (int, error) {
	idx := s.table.Find(accountNumber)
	if idx == models.NotFound {
		return models.NotFound, ErrAccountNotFound
	}
	return idx, nil
}

// CanCreateAccount reports ErrTableFull when the table has no room for another account.
func (s *LedgerService) CanCreateAccount(ctx context.Context) error {
	if s.table.Full() {
		return ErrTableFull
	}
	return nil
}

// CreateAccount opens a new account with a zero balance and a creation record.
func (s *LedgerService) CreateAccount(ctx context.Context, name, pin, password string) (*models.Account, error) {
	if !validators.ValidatePIN(pin) {
		return nil, fmt.Errorf("%w: PIN must be exactly %d digits", ErrValidationFailed, validators.PINLength)
	}
	if !validators.ValidatePassword(password) {
		return nil, fmt.Errorf("%w: password must be %d characters with uppercase, lowercase and digits",
			ErrValidationFailed, validators.PasswordLength)
	}
	if s.table.Full() {
		logger.Log.Errorw("account table full", "max_accounts", s.table.MaxAccounts)
		return nil, ErrTableFull
	}

	account := &models.Account{
		AccountNumber: s.gen.Generate(),
		Name:          truncateName(name),
		Balance:       decimal.Zero,
		PIN:           pin,
		Password:      password,
		IsActive:      true,
	}
	account.AppendTransaction(
		models.NewTransaction(models.TransactionAccountCreation, decimal.Zero, s.clock.Now()),
		s.table.MaxTransactions,
	)

	if err := s.table.Add(account); err != nil {
		return nil, err
	}
	logger.Log.Infow("account created", "account_number", account.AccountNumber)

	return account, s.persist(ctx, "create", account.AccountNumber)
}

// Login checks the PIN and password of an active account.
// No session state is kept; callers pass credentials to each operation.
func (s *LedgerService) Login(ctx context.Context, accountNumber int, pin, password string) error {
	_, err := s.authorizeFull(ctx, accountNumber, pin, password)
	return err
}

// Deposit adds amount to the balance and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, accountNumber int, pin string, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.authorizePIN(ctx, accountNumber, pin)
	if err != nil {
		return decimal.Zero, err
	}

	amount = roundAmount(amount)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.GreaterThan(models.MaxAmount.Sub(account.Balance)) {
		logger.Log.Errorw("deposit exceeds maximum balance", "account_number", accountNumber)
		return decimal.Zero, fmt.Errorf("%w: balance cannot exceed %s", ErrInvalidAmount, models.MaxAmount.StringFixed(2))
	}

	account.Balance = account.Balance.Add(amount)
	s.record(account, models.TransactionDeposit, amount)
	logger.Log.Infow("deposit applied", "account_number", accountNumber, "amount", amount.StringFixed(2))

	return account.Balance, s.persist(ctx, "deposit", accountNumber)
}

// Withdraw removes amount from the balance and returns the new balance.
// The balance never goes below zero.
func (s *LedgerService) Withdraw(ctx context.Context, accountNumber int, pin string, amount decimal.Decimal) (decimal.Decimal, error) {
	account, err := s.authorizePIN(ctx, accountNumber, pin)
	if err != nil {
		return decimal.Zero, err
	}

	amount = roundAmount(amount)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.GreaterThan(account.Balance) {
		return account.Balance, fmt.Errorf("%w: available %s", ErrInsufficientBalance, account.Balance.StringFixed(2))
	}

	account.Balance = account.Balance.Sub(amount)
	s.record(account, models.TransactionWithdrawal, amount)
	logger.Log.Infow("withdrawal applied", "account_number", accountNumber, "amount", amount.StringFixed(2))

	return account.Balance, s.persist(ctx, "withdraw", accountNumber)
}

// CheckBalance returns the holder name, number and balance of an account.
func (s *LedgerService) CheckBalance(ctx context.Context, accountNumber int, pin string) (*models.BalanceInfo, error) {
	account, err := s.authorizePIN(ctx, accountNumber, pin)
	if err != nil {
		return nil, err
	}
	return &models.BalanceInfo{
		Name:          account.Name,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}

// History returns a copy of the account's transactions in append order.
func (s *LedgerService) History(ctx context.Context, accountNumber int, pin string) ([]models.Transaction, error) {
	account, err := s.authorizePIN(ctx, accountNumber, pin)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(account.Transactions))
	copy(out, account.Transactions)
	return out, nil
}

// DeleteAccount soft-deletes an account after checking both credentials.
// When confirmed is false nothing changes and deleted is false.
// The balance is left as is and recorded in the deletion transaction.
func (s *LedgerService) DeleteAccount(ctx context.Context, accountNumber int, pin, password string, confirmed bool) (deleted bool, err error) {
	account, err := s.authorizeFull(ctx, accountNumber, pin, password)
	if err != nil {
		return false, err
	}
	if !confirmed {
		logger.Log.Infow("account deletion cancelled", "account_number", accountNumber)
		return false, nil
	}

	account.IsActive = false
	s.record(account, models.TransactionAccountDeletion, account.Balance)
	logger.Log.Infow("account deleted", "account_number", accountNumber, "final_balance", account.Balance.StringFixed(2))

	return true, s.persist(ctx, "delete", accountNumber)
}

func (s *LedgerService) lookup(ctx context.Context, accountNumber int) (*models.Account, error) {
	idx, err := s.FindAccount(ctx, accountNumber)
	if err != nil {
		logger.Log.Errorw("account lookup failed", "account_number", accountNumber, "error", err)
		return nil, err
	}
	return s.table.At(idx), nil
}

func (s *LedgerService) authorizePIN(ctx context.Context, accountNumber int, pin string) (*models.Account, error) {
	account, err := s.lookup(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if account.PIN != pin {
		logger.Log.Errorw("invalid PIN", "account_number", accountNumber)
		return nil, ErrInvalidPIN
	}
	return account, nil
}

func (s *LedgerService) authorizeFull(ctx context.Context, accountNumber int, pin, password string) (*models.Account, error) {
	account, err := s.lookup(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if account.PIN != pin || account.Password != password {
		logger.Log.Errorw("invalid credentials", "account_number", accountNumber)
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// record appends a transaction, silently dropping it when the history is full.
func (s *LedgerService) record(account *models.Account, typ models.TransactionType, amount decimal.Decimal) {
	tx := models.NewTransaction(typ, amount, s.clock.Now())
	if !account.AppendTransaction(tx, s.table.MaxTransactions) {
		logger.Log.Warnw("transaction history full, record dropped",
			"account_number", account.AccountNumber,
			"type", typ,
		)
	}
}

func (s *LedgerService) persist(ctx context.Context, op string, accountNumber int) error {
	if err := s.saver.Save(ctx, s.table); err != nil {
		logger.Log.Errorw("failed to persist snapshot", "operation", op, "account_number", accountNumber, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return nil
}

func roundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// truncateName cuts name to MaxNameLength bytes without splitting a rune.
func truncateName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	cut := MaxNameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
