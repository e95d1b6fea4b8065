package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sbilibin2017/bank-system/internal/handlers"
	"github.com/sbilibin2017/bank-system/internal/logger"
	"github.com/sbilibin2017/bank-system/internal/models"
	"github.com/sbilibin2017/bank-system/internal/repositories"
	"github.com/sbilibin2017/bank-system/internal/services"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the application
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds the runtime settings read from the environment.
type config struct {
	DataFile        string
	MaxAccounts     int
	MaxTransactions int
	LogLevel        string
	LogFile         string
}

func main() {
	printBuildInfo(os.Stdout)
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo(w io.Writer) {
	fmt.Fprintf(w, "Version: %s, Commit: %s, Build: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// the storage, capacity and logging configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	cfg.DataFile = getEnv("BANK_DATA_FILE", "bank_data.dat")
	cfg.LogLevel = getEnv("BANK_LOG_LEVEL", "info")
	cfg.LogFile = getEnv("BANK_LOG_FILE", "bank.log")

	if cfg.MaxAccounts, err = strconv.Atoi(getEnv("BANK_MAX_ACCOUNTS", "100")); err != nil {
		return cfg, fmt.Errorf("BANK_MAX_ACCOUNTS: %w", err)
	}
	if cfg.MaxTransactions, err = strconv.Atoi(getEnv("BANK_MAX_TRANSACTIONS", "100")); err != nil {
		return cfg, fmt.Errorf("BANK_MAX_TRANSACTIONS: %w", err)
	}
	if cfg.MaxAccounts <= 0 || cfg.MaxTransactions <= 0 {
		return cfg, fmt.Errorf("capacities must be positive: accounts=%d transactions=%d",
			cfg.MaxAccounts, cfg.MaxTransactions)
	}

	return cfg, nil
}

// run initializes the logger, loads the account snapshot and runs the console
// until the user exits. The snapshot is saved once more on the way out.
func run(ctx context.Context, cfg config, stdin *os.File, stdout io.Writer) error {
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(stdout, "failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel)

	repo := repositories.NewSnapshotRepository(cfg.DataFile)
	table := loadTable(ctx, repo, cfg, stdout)

	ledger := services.NewLedgerService(
		table,
		repo,
		services.RandomAccountNumberGenerator{},
		services.SystemClock{},
	)

	var secrets handlers.SecretReader
	if handlers.IsTerminal(stdin) {
		secrets = handlers.NewTerminalSecretReader(stdin, stdout)
	}
	console := handlers.NewConsole(ledger, stdin, stdout, secrets, logger.Log)

	fmt.Fprintf(stdout, "\n==========================================\n")
	fmt.Fprintf(stdout, "     WELCOME TO BANK ACCOUNT SYSTEM\n")
	fmt.Fprintf(stdout, "==========================================\n")

	if err := console.Run(ctx); err != nil {
		return err
	}

	if err := repo.Save(ctx, table); err != nil {
		fmt.Fprintln(stdout, "Error saving data!")
		logger.Log.Errorw("final save failed", "error", err)
	}
	fmt.Fprintf(stdout, "\nThank you for using our banking system!\n")
	return nil
}

// loadTable builds the account table from the snapshot file.
// Any load error leaves the table empty so the bank stays usable.
func loadTable(ctx context.Context, repo *repositories.SnapshotRepository, cfg config, out io.Writer) *models.AccountTable {
	table := models.NewAccountTable(cfg.MaxAccounts, cfg.MaxTransactions)

	accounts, err := repo.Load(ctx)
	if err != nil {
		logger.Log.Warnw("snapshot unreadable, starting with no accounts", "path", repo.Path(), "error", err)
		fmt.Fprintln(out, "No existing data found. Starting fresh.")
		return table
	}
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No existing data found. Starting fresh.")
		return table
	}

	table.Replace(accounts)
	return table
}
