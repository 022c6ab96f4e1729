package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finsight/internal/ai"
	"github.com/dvloznov/finsight/internal/app"
	"github.com/dvloznov/finsight/internal/budget"
	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/domain"
	"github.com/dvloznov/finsight/internal/export"
	"github.com/dvloznov/finsight/internal/logger"
	"github.com/dvloznov/finsight/internal/stats"
	"github.com/dvloznov/finsight/internal/store"
	"github.com/dvloznov/finsight/internal/store/localdisk"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		runList(log)
	case "add":
		runAdd(log)
	case "delete":
		runDelete(log)
	case "stats":
		runStats(log)
	case "budgets":
		runBudgets(log)
	case "export":
		runExport(log)
	case "forecast":
		runForecast(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FinSight CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  list      List transactions, optionally filtered")
	fmt.Println("  add       Log a new transaction")
	fmt.Println("  delete    Delete a transaction by ID")
	fmt.Println("  stats     Show dashboard totals and category breakdown")
	fmt.Println("  budgets   Show budget progress, or set a limit")
	fmt.Println("  export    Write the transaction log as CSV to stdout")
	fmt.Println("  forecast  Ask the AI for a next-month spending forecast")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// open loads persisted state and wires the domain components the same
// way the API server does. Mutations are persisted on the spot.
func open(log zerolog.Logger) (*store.Store, *budget.Ledger, config.Config) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	storage, err := localdisk.New(cfg.StateDir, log)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("Failed to open state directory")
	}

	txs, budgets, err := app.LoadState(storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted state")
	}

	return store.New(txs, storage, log), budget.NewLedger(budgets, storage, log), cfg
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	query := fs.String("q", "", "Filter by description or category substring")
	typ := fs.String("type", "all", "Filter by type: expense, income or all")
	fs.Parse(os.Args[2:])

	txStore, _, _ := open(log)

	for _, tx := range txStore.Filter(*query, *typ) {
		fmt.Printf("%-36s  %s  %-8s %9.2f  %-15s %s\n",
			tx.ID, tx.Date, tx.Type, tx.Amount, tx.Category, tx.Description)
	}
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	description := fs.String("description", "", "What the money was for")
	amount := fs.Float64("amount", 0, "Amount (positive)")
	date := fs.String("date", time.Now().Format("2006-01-02"), "Date (YYYY-MM-DD)")
	category := fs.String("category", "Other", "Category name")
	typ := fs.String("type", "expense", "expense or income")
	fs.Parse(os.Args[2:])

	txStore, _, _ := open(log)

	tx, err := txStore.Add(domain.Draft{
		Description: *description,
		Amount:      *amount,
		Date:        *date,
		Category:    *category,
		Type:        domain.TxType(*typ),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to log transaction")
	}

	fmt.Printf("Logged %s\n", tx.ID)
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	txStore, _, _ := open(log)

	if err := txStore.Delete(*id); err != nil {
		log.Fatal().Err(err).Msg("Failed to delete transaction")
	}

	fmt.Printf("Deleted %s\n", *id)
}

func runStats(log zerolog.Logger) {
	txStore, _, _ := open(log)
	txs := txStore.List()

	totals := stats.ComputeTotals(txs)
	fmt.Printf("Income:       %9.2f\n", totals.TotalIncome)
	fmt.Printf("Expenses:     %9.2f\n", totals.TotalExpense)
	fmt.Printf("Balance:      %9.2f\n", totals.Balance)
	fmt.Printf("Savings rate: %8.1f%%\n", totals.SavingsRate)

	fmt.Println("\nBy category:")
	for _, c := range stats.ComputeCategoryBreakdown(txs) {
		fmt.Printf("  %-15s %9.2f\n", c.Category, c.Amount)
	}
}

func runBudgets(log zerolog.Logger) {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	month := fs.String("month", time.Now().Format("2006-01"), "Month to report on (YYYY-MM)")
	setCategory := fs.String("set", "", "Category whose limit to change")
	limit := fs.Float64("limit", 0, "New monthly limit, used with -set")
	fs.Parse(os.Args[2:])

	txStore, ledger, _ := open(log)

	if *setCategory != "" {
		if err := ledger.Upsert(*setCategory, *limit); err != nil {
			log.Fatal().Err(err).Msg("Failed to update budget")
		}
		fmt.Printf("Set %s to %.2f\n", *setCategory, *limit)
		return
	}

	progress := stats.ComputeBudgetProgress(txStore.List(), ledger.Snapshot(), *month)
	summary := stats.ComputeBudgetSummary(progress)

	fmt.Printf("Budgets for %s (spent %.2f of %.2f)\n\n", *month, summary.TotalSpent, summary.TotalBudget)
	for _, b := range progress {
		fmt.Printf("  %-15s %9.2f / %9.2f  (%5.1f%%)\n", b.Category, b.Actual, b.Limit, b.Percentage)
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	query := fs.String("q", "", "Filter by description or category substring")
	typ := fs.String("type", "all", "Filter by type: expense, income or all")
	fs.Parse(os.Args[2:])

	txStore, _, _ := open(log)

	if err := export.WriteCSV(os.Stdout, txStore.Filter(*query, *typ)); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
}

func runForecast(log zerolog.Logger) {
	txStore, _, cfg := open(log)

	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required for forecasting")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.Model, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create AI client")
	}

	forecast, err := client.GenerateForecast(ctx, txStore.List(), time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("Forecast degraded to fallback")
	}

	fmt.Printf("Predicted spend next month: %.2f\n", forecast.PredictedSpendNextMonth)
	fmt.Printf("Savings potential:          %.2f\n", forecast.SavingsPotential)
	fmt.Printf("Risk factor:                %s\n", forecast.RiskFactor)
	for _, a := range forecast.Advice {
		fmt.Printf("  - %s\n", a)
	}
	if len(forecast.Anomalies) > 0 {
		fmt.Println("Anomalies:")
		for _, a := range forecast.Anomalies {
			fmt.Printf("  - %s\n", a)
		}
	}
	for _, s := range forecast.SearchSources {
		fmt.Printf("  [%s] %s\n", s.Title, s.URI)
	}
}
