package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sbilibin2017/bank-system/internal/middlewares"
	"github.com/sbilibin2017/bank-system/internal/models"
	"github.com/sbilibin2017/bank-system/internal/services"
)

//go:generate mockgen -source=console.go -destination=console_mock.go -package=handlers

// maxSecretLength bounds masked input; longer entries are cut and then fail validation.
const maxSecretLength = 64

// Ledger defines the account operations the console drives.
type Ledger interface {
	FindAccount(ctx context.Context, accountNumber int) (int, error)
	CanCreateAccount(ctx context.Context) error
	CreateAccount(ctx context.Context, name, pin, password string) (*models.Account, error)
	Login(ctx context.Context, accountNumber int, pin, password string) error
	Deposit(ctx context.Context, accountNumber int, pin string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, accountNumber int, pin string, amount decimal.Decimal) (decimal.Decimal, error)
	CheckBalance(ctx context.Context, accountNumber int, pin string) (*models.BalanceInfo, error)
	History(ctx context.Context, accountNumber int, pin string) ([]models.Transaction, error)
	DeleteAccount(ctx context.Context, accountNumber int, pin, password string, confirmed bool) (bool, error)
}

// Console runs the interactive menus on top of a Ledger.
type Console struct {
	ledger  Ledger
	in      *bufio.Reader
	out     io.Writer
	secrets SecretReader
	log     *zap.SugaredLogger
}

// NewConsole creates a console reading from in and writing to out.
// When secrets is nil, PINs and passwords are read as plain lines from in.
func NewConsole(ledger Ledger, in io.Reader, out io.Writer, secrets SecretReader, log *zap.SugaredLogger) *Console {
	br := bufio.NewReader(in)
	if secrets == nil {
		secrets = lineSecretReader{in: br}
	}
	return &Console{
		ledger:  ledger,
		in:      br,
		out:     out,
		secrets: secrets,
		log:     log,
	}
}

type menuItem struct {
	label string
	name  string
	run   middlewares.Command
}

// Run shows the main menu until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	items := []menuItem{
		{"Create New Account", "create", c.createAccount},
		{"Login to Account", "login", c.login},
		{"Delete Account", "delete", c.deleteAccount},
		{"Deposit Money", "deposit", c.deposit},
		{"Withdraw Money", "withdraw", c.withdraw},
		{"Check Balance", "balance", c.checkBalance},
		{"View Transaction History", "history", c.history},
	}

	for {
		c.printf("\n========== MAIN MENU ==========\n")
		for i, it := range items {
			c.printf("%d. %s\n", i+1, it.label)
		}
		c.printf("%d. Exit\n", len(items)+1)
		c.printf("===============================\n")
		c.printf("Enter your choice: ")

		choice, err := c.readChoice()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			c.printf("Invalid input! Please enter a number.\n")
			continue
		}
		if choice == len(items)+1 {
			return nil
		}
		if choice < 1 || choice > len(items) {
			c.printf("Invalid choice! Please try again.\n")
			continue
		}

		it := items[choice-1]
		if err := c.wrap(it.name, it.run)(ctx); errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (c *Console) wrap(name string, cmd middlewares.Command, extra ...func(middlewares.Command) middlewares.Command) middlewares.Command {
	mws := append([]func(middlewares.Command) middlewares.Command{
		middlewares.LoggingMiddleware(c.log, name),
		middlewares.RecoverMiddleware(),
	}, extra...)
	return middlewares.Chain(cmd, mws...)
}

func (c *Console) createAccount(ctx context.Context) error {
	c.printf("\n======== CREATE ACCOUNT ========\n")
	if err := c.ledger.CanCreateAccount(ctx); err != nil {
		c.report(err)
		return err
	}

	c.printf("Enter your name: ")
	name, err := readLine(c.in)
	if err != nil {
		return err
	}

	var pin string
	for {
		c.printf("Enter 4-digit PIN: ")
		if pin, err = c.secrets.ReadSecret(maxSecretLength); err != nil {
			return err
		}
		if validPIN(pin) {
			break
		}
		c.printf("Invalid PIN! Must be exactly 4 digits.\n")
	}

	var password string
	for {
		c.printf("Enter password (8 chars, mix of upper/lower/digits): ")
		if password, err = c.secrets.ReadSecret(maxSecretLength); err != nil {
			return err
		}
		if validPassword(password) {
			break
		}
		c.printf("\nInvalid password! Must be 8 characters with uppercase, lowercase, and digits.\n")
	}

	account, err := c.ledger.CreateAccount(ctx, name, pin, password)
	if err != nil {
		c.report(err)
		if !savedLater(err) {
			return err
		}
	}

	c.printf("\nAccount created successfully!\n")
	c.printf("Your Account Number: %d\n", account.AccountNumber)
	c.printf("Keep your PIN and password secure!\n")
	return err
}

func (c *Console) login(ctx context.Context) error {
	c.printf("\n========== LOGIN ==========\n")

	number, err := c.readAccount(ctx)
	if err != nil {
		return err
	}

	c.printf("Enter PIN: ")
	pin, err := c.secrets.ReadSecret(maxSecretLength)
	if err != nil {
		return err
	}
	c.printf("\nEnter Password: ")
	password, err := c.secrets.ReadSecret(maxSecretLength)
	if err != nil {
		return err
	}

	if err := c.ledger.Login(ctx, number, pin, password); err != nil {
		c.printf("\n")
		c.report(err)
		return err
	}
	c.printf("\nLogin successful!\n")

	session := middlewares.NewSession(number, pin)
	c.log.Infow("session started", "session_id", session.ID, "account_number", number)
	err = c.accountMenu(middlewares.SetSessionToContext(ctx, session))
	c.log.Infow("session ended", "session_id", session.ID, "account_number", number)
	return err
}

// accountMenu runs the post-login menu until logout.
func (c *Console) accountMenu(ctx context.Context) error {
	items := []menuItem{
		{"Deposit Money", "session.deposit", c.sessionDeposit},
		{"Withdraw Money", "session.withdraw", c.sessionWithdraw},
		{"Check Balance", "session.balance", c.sessionBalance},
		{"View Transactions", "session.history", c.sessionHistory},
	}

	for {
		c.printf("\n======== ACCOUNT MENU ========\n")
		for i, it := range items {
			c.printf("%d. %s\n", i+1, it.label)
		}
		c.printf("%d. Logout\n", len(items)+1)
		c.printf("==============================\n")
		c.printf("Enter choice: ")

		choice, err := c.readChoice()
		if errors.Is(err, io.EOF) {
			return err
		}
		if err != nil || choice < 1 || choice > len(items)+1 {
			c.printf("Invalid choice!\n")
			continue
		}
		if choice == len(items)+1 {
			c.printf("Logged out successfully!\n")
			return nil
		}

		it := items[choice-1]
		if err := c.wrap(it.name, it.run, middlewares.AuthMiddleware())(ctx); errors.Is(err, io.EOF) {
			return err
		}
	}
}

func (c *Console) deleteAccount(ctx context.Context) error {
	c.printf("\n======== DELETE ACCOUNT ========\n")

	number, err := c.readAccount(ctx)
	if err != nil {
		return err
	}

	c.printf("Enter PIN: ")
	pin, err := c.secrets.ReadSecret(maxSecretLength)
	if err != nil {
		return err
	}
	c.printf("\nEnter Password: ")
	password, err := c.secrets.ReadSecret(maxSecretLength)
	if err != nil {
		return err
	}

	if err := c.ledger.Login(ctx, number, pin, password); err != nil {
		c.printf("\n")
		c.report(err)
		c.printf("Deletion failed.\n")
		return err
	}

	c.printf("\nWARNING: This will permanently delete your account!\n")
	c.printf("Are you sure? (y/n): ")
	answer, err := readLine(c.in)
	if err != nil {
		return err
	}
	confirmed := answer == "y" || answer == "Y"

	deleted, err := c.ledger.DeleteAccount(ctx, number, pin, password, confirmed)
	if err != nil {
		c.report(err)
		if !savedLater(err) {
			return err
		}
	}
	if deleted {
		c.printf("Account deleted successfully!\n")
	} else {
		c.printf("Account deletion cancelled.\n")
	}
	return err
}

func (c *Console) deposit(ctx context.Context) error {
	c.printf("\n========== DEPOSIT ==========\n")
	number, pin, err := c.readAccountAndPIN(ctx)
	if err != nil {
		return err
	}
	return c.doDeposit(ctx, number, pin)
}

func (c *Console) withdraw(ctx context.Context) error {
	c.printf("\n========== WITHDRAW ==========\n")
	number, pin, err := c.readAccountAndPIN(ctx)
	if err != nil {
		return err
	}
	return c.doWithdraw(ctx, number, pin)
}

func (c *Console) checkBalance(ctx context.Context) error {
	c.printf("\n======== CHECK BALANCE ========\n")
	number, pin, err := c.readAccountAndPIN(ctx)
	if err != nil {
		return err
	}
	return c.doCheckBalance(ctx, number, pin)
}

func (c *Console) history(ctx context.Context) error {
	c.printf("\n===== TRANSACTION HISTORY =====\n")
	number, pin, err := c.readAccountAndPIN(ctx)
	if err != nil {
		return err
	}
	return c.doHistory(ctx, number, pin)
}

func (c *Console) sessionDeposit(ctx context.Context) error {
	s := middlewares.GetSessionFromContext(ctx)
	c.printf("\n========== DEPOSIT ==========\n")
	return c.doDeposit(ctx, s.AccountNumber, s.PIN)
}

func (c *Console) sessionWithdraw(ctx context.Context) error {
	s := middlewares.GetSessionFromContext(ctx)
	c.printf("\n========== WITHDRAW ==========\n")
	return c.doWithdraw(ctx, s.AccountNumber, s.PIN)
}

func (c *Console) sessionBalance(ctx context.Context) error {
	s := middlewares.GetSessionFromContext(ctx)
	c.printf("\n======== CHECK BALANCE ========\n")
	return c.doCheckBalance(ctx, s.AccountNumber, s.PIN)
}

func (c *Console) sessionHistory(ctx context.Context) error {
	s := middlewares.GetSessionFromContext(ctx)
	c.printf("\n===== TRANSACTION HISTORY =====\n")
	return c.doHistory(ctx, s.AccountNumber, s.PIN)
}

func (c *Console) doDeposit(ctx context.Context, number int, pin string) error {
	c.printf("Enter amount to deposit: $")
	amount, err := c.readAmount()
	if err != nil {
		return err
	}

	balance, err := c.ledger.Deposit(ctx, number, pin, amount)
	if err != nil {
		c.report(err)
		if !savedLater(err) {
			return err
		}
	}
	c.printf("Deposit successful! New balance: $%s\n", balance.StringFixed(2))
	return err
}

func (c *Console) doWithdraw(ctx context.Context, number int, pin string) error {
	c.printf("Enter amount to withdraw: $")
	amount, err := c.readAmount()
	if err != nil {
		return err
	}

	balance, err := c.ledger.Withdraw(ctx, number, pin, amount)
	if errors.Is(err, services.ErrInsufficientBalance) {
		c.printf("Insufficient balance! Available: $%s\n", balance.StringFixed(2))
		return err
	}
	if err != nil {
		c.report(err)
		if !savedLater(err) {
			return err
		}
	}
	c.printf("Withdrawal successful! New balance: $%s\n", balance.StringFixed(2))
	return err
}

func (c *Console) doCheckBalance(ctx context.Context, number int, pin string) error {
	info, err := c.ledger.CheckBalance(ctx, number, pin)
	if err != nil {
		c.report(err)
		return err
	}

	c.printf("\nAccount Holder: %s\n", info.Name)
	c.printf("Account Number: %d\n", info.AccountNumber)
	c.printf("Current Balance: $%s\n", info.Balance.StringFixed(2))
	return nil
}

func (c *Console) doHistory(ctx context.Context, number int, pin string) error {
	txs, err := c.ledger.History(ctx, number, pin)
	if err != nil {
		c.report(err)
		return err
	}
	info, err := c.ledger.CheckBalance(ctx, number, pin)
	if err != nil {
		c.report(err)
		return err
	}

	c.printf("\nAccount Holder: %s\n", info.Name)
	c.printf("Account Number: %d\n", info.AccountNumber)
	c.printf("\nTransaction History:\n")
	c.printf("------------------------------------------------------------\n")
	c.printf("Type\t\tAmount\t\tDate\t\tTime\n")
	c.printf("------------------------------------------------------------\n")
	for _, tx := range txs {
		c.printf("%-16s $%-10s %-12s %-12s\n", tx.Type, tx.Amount.StringFixed(2), tx.Date, tx.Time)
	}
	if len(txs) == 0 {
		c.printf("No transactions found.\n")
	}
	c.printf("------------------------------------------------------------\n")
	return nil
}

// readAccount prompts for an account number and checks that it is active.
func (c *Console) readAccount(ctx context.Context) (int, error) {
	c.printf("Enter Account Number: ")
	line, err := readLine(c.in)
	if err != nil {
		return 0, err
	}
	number, err := strconv.Atoi(line)
	if err != nil {
		c.printf("Invalid account number!\n")
		return 0, fmt.Errorf("parse account number: %w", err)
	}
	if _, err := c.ledger.FindAccount(ctx, number); err != nil {
		c.report(err)
		return 0, err
	}
	return number, nil
}

func (c *Console) readAccountAndPIN(ctx context.Context) (int, string, error) {
	number, err := c.readAccount(ctx)
	if err != nil {
		return 0, "", err
	}
	c.printf("Enter PIN: ")
	pin, err := c.secrets.ReadSecret(maxSecretLength)
	if err != nil {
		return 0, "", err
	}
	c.printf("\n")
	return number, pin, nil
}

func (c *Console) readAmount() (decimal.Decimal, error) {
	line, err := readLine(c.in)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(line)
	if err != nil {
		c.printf("Invalid amount! Must be positive.\n")
		return decimal.Zero, fmt.Errorf("parse amount: %w", err)
	}
	return amount, nil
}

func (c *Console) readChoice() (int, error) {
	line, err := readLine(c.in)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(line)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next input line without surrounding whitespace.
// A final line without a newline is returned as is; io.EOF is returned only
// when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
