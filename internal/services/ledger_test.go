package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/bank-system/internal/models"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, maxAccounts, maxTransactions int) (*LedgerService, *MockSnapshotSaver, *MockAccountNumberGenerator) {
	t.Helper()
	ctrl := gomock.NewController(t)

	saver := NewMockSnapshotSaver(ctrl)
	gen := NewMockAccountNumberGenerator(ctrl)
	clock := NewMockClock(ctrl)
	clock.EXPECT().Now().Return(fixedNow).AnyTimes()

	table := models.NewAccountTable(maxAccounts, maxTransactions)
	return NewLedgerService(table, saver, gen, clock), saver, gen
}

// openAccount creates an account for name with PIN 1234 and password Passw0rd.
func openAccount(t *testing.T, svc *LedgerService, saver *MockSnapshotSaver, gen *MockAccountNumberGenerator, number int, name string) *models.Account {
	t.Helper()
	gen.EXPECT().Generate().Return(number)
	saver.EXPECT().Save(gomock.Any(), svc.Table()).Return(nil)

	acc, err := svc.CreateAccount(context.Background(), name, "1234", "Passw0rd")
	require.NoError(t, err)
	return acc
}

func TestLedgerService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)

	acc := openAccount(t, svc, saver, gen, 482913, "Alice")
	assert.Equal(t, 482913, acc.AccountNumber)
	assert.True(t, acc.Balance.Equal(decimal.Zero))
	require.Len(t, acc.Transactions, 1)
	assert.Equal(t, models.TransactionAccountCreation, acc.Transactions[0].Type)
	assert.Equal(t, "05-03-2024", acc.Transactions[0].Date)
	assert.Equal(t, "14:07:09", acc.Transactions[0].Time)

	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	balance, err := svc.Deposit(ctx, 482913, "1234", dec("150.00"))
	require.NoError(t, err)
	assert.Equal(t, "150.00", balance.StringFixed(2))

	history, err := svc.History(ctx, 482913, "1234")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionDeposit, history[1].Type)
	assert.True(t, history[1].Amount.Equal(dec("150")))

	_, err = svc.Withdraw(ctx, 482913, "1234", dec("200.00"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	info, err := svc.CheckBalance(ctx, 482913, "1234")
	require.NoError(t, err)
	assert.Equal(t, "150.00", info.Balance.StringFixed(2))
	history, _ = svc.History(ctx, 482913, "1234")
	assert.Len(t, history, 2)

	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	balance, err = svc.Withdraw(ctx, 482913, "1234", dec("150.00"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.StringFixed(2))
	history, _ = svc.History(ctx, 482913, "1234")
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionWithdrawal, history[2].Type)
	assert.True(t, history[2].Amount.Equal(dec("150")))

	info, err = svc.CheckBalance(ctx, 482913, "0000")
	assert.ErrorIs(t, err, ErrInvalidPIN)
	assert.Nil(t, info)
}

func TestLedgerService_CreateAccount_Errors(t *testing.T) {
	tests := []struct {
		name     string
		pin      string
		password string
		wantErr  error
	}{
		{name: "short PIN", pin: "123", password: "Passw0rd", wantErr: ErrValidationFailed},
		{name: "non-digit PIN", pin: "12a4", password: "Passw0rd", wantErr: ErrValidationFailed},
		{name: "password without digit", pin: "1234", password: "Password", wantErr: ErrValidationFailed},
		{name: "password too long", pin: "1234", password: "Passw0rd!", wantErr: ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestLedger(t, 100, 100)

			acc, err := svc.CreateAccount(context.Background(), "Alice", tt.pin, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, acc)
			assert.Zero(t, svc.Table().Len())
		})
	}
}

func TestLedgerService_CreateAccount_TableFull(t *testing.T) {
	svc, saver, gen := newTestLedger(t, 1, 100)
	require.NoError(t, svc.CanCreateAccount(context.Background()))
	openAccount(t, svc, saver, gen, 111111, "Alice")

	assert.ErrorIs(t, svc.CanCreateAccount(context.Background()), ErrTableFull)

	acc, err := svc.CreateAccount(context.Background(), "Bob", "1234", "Passw0rd")
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Nil(t, acc)
	assert.Equal(t, 1, svc.Table().Len())
}

func TestLedgerService_CreateAccount_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)
	openAccount(t, svc, saver, gen, 555555, "Alice")
	openAccount(t, svc, saver, gen, 555555, "Bob")

	assert.Equal(t, 2, svc.Table().Len())
	info, err := svc.CheckBalance(ctx, 555555, "1234")
	require.NoError(t, err)
	assert.Equal(t, "Alice", info.Name)
}

func TestLedgerService_CreateAccount_TruncatesName(t *testing.T) {
	svc, saver, gen := newTestLedger(t, 100, 100)

	acc := openAccount(t, svc, saver, gen, 123456, strings.Repeat("a", 48)+"é")
	assert.Equal(t, strings.Repeat("a", 48), acc.Name)
}

func TestLedgerService_CreateAccount_PersistenceFailure(t *testing.T) {
	svc, saver, gen := newTestLedger(t, 100, 100)
	gen.EXPECT().Generate().Return(222222)
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	acc, err := svc.CreateAccount(context.Background(), "Alice", "1234", "Passw0rd")
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	require.NotNil(t, acc)
	assert.Equal(t, 0, svc.Table().Find(222222))
}

func TestLedgerService_Deposit(t *testing.T) {
	tests := []struct {
		name    string
		number  int
		pin     string
		amount  string
		saveErr error
		wantErr error
		want    string
	}{
		{name: "success", number: 111111, pin: "1234", amount: "50", want: "50.00"},
		{name: "rounds to cents", number: 111111, pin: "1234", amount: "10.005", want: "10.01"},
		{name: "zero amount", number: 111111, pin: "1234", amount: "0", wantErr: ErrInvalidAmount},
		{name: "negative amount", number: 111111, pin: "1234", amount: "-5", wantErr: ErrInvalidAmount},
		{name: "rounds to zero", number: 111111, pin: "1234", amount: "0.004", wantErr: ErrInvalidAmount},
		{name: "beyond storable range", number: 111111, pin: "1234", amount: "100000000000000000", wantErr: ErrInvalidAmount},
		{name: "wrong PIN", number: 111111, pin: "9999", amount: "50", wantErr: ErrInvalidPIN},
		{name: "unknown account", number: 999999, pin: "1234", amount: "50", wantErr: ErrAccountNotFound},
		{name: "save fails", number: 111111, pin: "1234", amount: "50", saveErr: errors.New("io"), wantErr: ErrPersistenceFailure, want: "50.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, saver, gen := newTestLedger(t, 100, 100)
			openAccount(t, svc, saver, gen, 111111, "Alice")

			succeeds := tt.wantErr == nil || errors.Is(tt.wantErr, ErrPersistenceFailure)
			if succeeds {
				saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(tt.saveErr)
			}

			balance, err := svc.Deposit(context.Background(), tt.number, tt.pin, dec(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			acc := svc.Table().At(0)
			if succeeds {
				assert.Equal(t, tt.want, balance.StringFixed(2))
				assert.Equal(t, tt.want, acc.Balance.StringFixed(2))
				assert.Len(t, acc.Transactions, 2)
			} else {
				assert.True(t, acc.Balance.IsZero())
				assert.Len(t, acc.Transactions, 1)
			}
		})
	}
}

func TestLedgerService_Deposit_MaxBalance(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)
	openAccount(t, svc, saver, gen, 111111, "Alice")
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := svc.Deposit(ctx, 111111, "1234", dec("100"))
	require.NoError(t, err)
	balance, err := svc.Deposit(ctx, 111111, "1234", models.MaxAmount.Sub(dec("100")))
	require.NoError(t, err)
	assert.True(t, balance.Equal(models.MaxAmount))

	_, err = svc.Deposit(ctx, 111111, "1234", dec("0.01"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.True(t, svc.Table().At(0).Balance.Equal(models.MaxAmount))
	assert.Len(t, svc.Table().At(0).Transactions, 3)
}

func TestLedgerService_Deposit_NotIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)
	openAccount(t, svc, saver, gen, 111111, "Alice")
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := svc.Deposit(ctx, 111111, "1234", dec("50"))
	require.NoError(t, err)
	balance, err := svc.Deposit(ctx, 111111, "1234", dec("50"))
	require.NoError(t, err)

	assert.Equal(t, "100.00", balance.StringFixed(2))
	history, err := svc.History(ctx, 111111, "1234")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestLedgerService_Deposit_HistoryFull(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 2)
	openAccount(t, svc, saver, gen, 111111, "Alice")
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	for i := 0; i < 3; i++ {
		_, err := svc.Deposit(ctx, 111111, "1234", dec("10"))
		require.NoError(t, err)
	}

	acc := svc.Table().At(0)
	assert.Equal(t, "30.00", acc.Balance.StringFixed(2))
	require.Len(t, acc.Transactions, 2)
	assert.Equal(t, models.TransactionAccountCreation, acc.Transactions[0].Type)
	assert.Equal(t, models.TransactionDeposit, acc.Transactions[1].Type)
}

func TestLedgerService_Withdraw(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		amount  string
		wantErr error
		want    string
	}{
		{name: "partial", pin: "1234", amount: "30.50", want: "69.50"},
		{name: "whole balance", pin: "1234", amount: "100", want: "0.00"},
		{name: "more than balance", pin: "1234", amount: "100.01", wantErr: ErrInsufficientBalance},
		{name: "zero", pin: "1234", amount: "0", wantErr: ErrInvalidAmount},
		{name: "negative", pin: "1234", amount: "-1", wantErr: ErrInvalidAmount},
		{name: "wrong PIN", pin: "4321", amount: "10", wantErr: ErrInvalidPIN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, saver, gen := newTestLedger(t, 100, 100)
			openAccount(t, svc, saver, gen, 111111, "Alice")
			saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			_, err := svc.Deposit(ctx, 111111, "1234", dec("100"))
			require.NoError(t, err)

			if tt.wantErr == nil {
				saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			}

			balance, err := svc.Withdraw(ctx, 111111, tt.pin, dec(tt.amount))
			acc := svc.Table().At(0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "100.00", acc.Balance.StringFixed(2))
				assert.Len(t, acc.Transactions, 2)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, balance.StringFixed(2))
			assert.False(t, acc.Balance.IsNegative())
			assert.Len(t, acc.Transactions, 3)
		})
	}
}

func TestLedgerService_BalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 1000)
	openAccount(t, svc, saver, gen, 111111, "Alice")
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	ops := []struct {
		deposit bool
		amount  string
	}{
		{true, "10"}, {false, "3.33"}, {false, "7"}, {true, "0.01"},
		{false, "0.02"}, {false, "0.01"}, {true, "99.99"}, {false, "100"},
		{false, "99.99"}, {false, "0.01"},
	}
	for _, op := range ops {
		if op.deposit {
			_, _ = svc.Deposit(ctx, 111111, "1234", dec(op.amount))
		} else {
			_, _ = svc.Withdraw(ctx, 111111, "1234", dec(op.amount))
		}
		assert.False(t, svc.Table().At(0).Balance.IsNegative())
	}
	assert.Equal(t, "6.63", svc.Table().At(0).Balance.StringFixed(2))
}

func TestLedgerService_Login(t *testing.T) {
	tests := []struct {
		name     string
		number   int
		pin      string
		password string
		wantErr  error
	}{
		{name: "success", number: 111111, pin: "1234", password: "Passw0rd"},
		{name: "wrong PIN", number: 111111, pin: "0000", password: "Passw0rd", wantErr: ErrInvalidCredentials},
		{name: "wrong password", number: 111111, pin: "1234", password: "Passw0rD", wantErr: ErrInvalidCredentials},
		{name: "unknown account", number: 123123, pin: "1234", password: "Passw0rd", wantErr: ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, saver, gen := newTestLedger(t, 100, 100)
			openAccount(t, svc, saver, gen, 111111, "Alice")

			err := svc.Login(context.Background(), tt.number, tt.pin, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)
	openAccount(t, svc, saver, gen, 111111, "Alice")
	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	_, err := svc.Deposit(ctx, 111111, "1234", dec("42.50"))
	require.NoError(t, err)

	deleted, err := svc.DeleteAccount(ctx, 111111, "1234", "wrongPw1", true)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, deleted)

	deleted, err = svc.DeleteAccount(ctx, 111111, "1234", "Passw0rd", false)
	assert.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, svc.Table().At(0).IsActive)

	saver.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	deleted, err = svc.DeleteAccount(ctx, 111111, "1234", "Passw0rd", true)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.FindAccount(ctx, 111111)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = svc.CheckBalance(ctx, 111111, "1234")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = svc.DeleteAccount(ctx, 111111, "1234", "Passw0rd", true)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	acc := svc.Table().At(0)
	assert.False(t, acc.IsActive)
	assert.Equal(t, "42.50", acc.Balance.StringFixed(2))
	require.Len(t, acc.Transactions, 3)
	last := acc.Transactions[2]
	assert.Equal(t, models.TransactionAccountDeletion, last.Type)
	assert.Equal(t, "42.50", last.Amount.StringFixed(2))
}

func TestLedgerService_History_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	svc, saver, gen := newTestLedger(t, 100, 100)
	openAccount(t, svc, saver, gen, 111111, "Alice")

	history, err := svc.History(ctx, 111111, "1234")
	require.NoError(t, err)
	history[0].Type = models.TransactionDeposit

	assert.Equal(t, models.TransactionAccountCreation, svc.Table().At(0).Transactions[0].Type)
}

func TestRandomAccountNumberGenerator(t *testing.T) {
	var gen RandomAccountNumberGenerator
	for i := 0; i < 1000; i++ {
		n := gen.Generate()
		assert.GreaterOrEqual(t, n, MinAccountNumber)
		assert.LessOrEqual(t, n, MaxAccountNumber)
	}
}
