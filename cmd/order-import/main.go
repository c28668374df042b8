// Command order-import replays archived order submissions (gzip-compressed
// JSON Lines) through the order service into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartmenu/order-intake/internal/domain/order"
	"github.com/smartmenu/order-intake/internal/importer"
	"github.com/smartmenu/order-intake/internal/storage/postgres"
)

func main() {
	var (
		databaseURL   string
		taxRate       string
		currency      string
		expectedLines uint
		verbose       bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&taxRate, "tax-rate", order.DefaultTaxRate, "inclusive tax rate applied to imported totals")
	flag.StringVar(&currency, "currency", order.DefaultCurrency, "currency code stored on imported orders")
	flag.UintVar(&expectedLines, "expected-lines", 1_000_000, "expected number of lines, sizes the duplicate filter")
	flag.BoolVar(&verbose, "verbose", false, "log every imported order")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE.jsonl.gz...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	lg, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, lg, databaseURL, taxRate, currency, expectedLines, flag.Args()); err != nil {
		lg.Fatal("Order import failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, taxRate, currency string, expectedLines uint, files []string) error {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return errors.Wrap(err, "parse tax rate")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	svc, err := order.NewService(postgres.NewOrderRepository(pool), nil, order.Pricing{TaxRate: rate, Currency: currency})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	stats, err := importer.New(svc, importer.Config{ExpectedLines: expectedLines}).ImportFiles(ctx, files...)
	if err != nil {
		return errors.Wrap(err, "import")
	}

	lg.Info("Order import completed",
		zap.Int("imported", stats.Imported),
		zap.Int("rejected", stats.Rejected),
		zap.Int("malformed", stats.Malformed),
		zap.Int("duplicates", stats.Duplicates),
	)
	return nil
}
