package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portsim/internal/engine"
	"portsim/internal/report"
	"portsim/internal/repository"
	"portsim/internal/simulator"
	"portsim/strategies/equalweight"
	"portsim/types"
)

func main() {
	var (
		csvPath    = flag.String("csv", "", "path to a CSV price file (date column + one column per ticker)")
		dbURL      = flag.String("db", "", "postgres connection string (used when -csv is not given)")
		tickers    = flag.String("tickers", "", "comma separated tickers to load from the database")
		interval   = flag.String("interval", string(types.Day), "price interval: D, W or M")
		startStr   = flag.String("start", "", "start date (2006-01-02), database mode only")
		endStr     = flag.String("end", "", "end date (2006-01-02), database mode only")
		aumStr     = flag.String("aum", "1000000", "initial assets under management")
		costFactor = flag.String("cost-factor", "0", "linear cost per unit of traded notional")
		costBias   = flag.String("cost-bias", "0", "linear cost per traded unit")
		riskFree   = flag.String("risk-free", "0", "annual risk-free rate for the Sharpe ratio")
		outDir     = flag.String("out", "", "directory for CSV and chart output (optional)")
		progress   = flag.Bool("progress", true, "show a progress bar")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	if err := run(log, *csvPath, *dbURL, *tickers, *interval, *startStr, *endStr,
		*aumStr, *costFactor, *costBias, *riskFree, *outDir, *progress); err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}
}

func run(log zerolog.Logger, csvPath, dbURL, tickers, interval, startStr, endStr,
	aumStr, costFactor, costBias, riskFree, outDir string, progress bool) error {

	aum, err := decimal.NewFromString(aumStr)
	if err != nil {
		return fmt.Errorf("parse -aum: %w", err)
	}
	factor, err := decimal.NewFromString(costFactor)
	if err != nil {
		return fmt.Errorf("parse -cost-factor: %w", err)
	}
	bias, err := decimal.NewFromString(costBias)
	if err != nil {
		return fmt.Errorf("parse -cost-bias: %w", err)
	}
	rf, err := decimal.NewFromString(riskFree)
	if err != nil {
		return fmt.Errorf("parse -risk-free: %w", err)
	}

	prices, err := loadPrices(log, csvPath, dbURL, tickers, interval, startStr, endStr)
	if err != nil {
		return err
	}

	var cost simulator.CostModel = simulator.ZeroCost{}
	if !factor.IsZero() || !bias.IsZero() {
		cost = simulator.LinearCost{Factor: factor, Bias: bias}
	}

	cfg := engine.NewRunConfig(aum, cost, progress)
	portfolio, err := engine.NewEngine(prices, equalweight.New(), cfg, log).Run()
	if err != nil {
		return err
	}

	rep, err := report.Generate(portfolio, rf)
	if err != nil {
		return err
	}
	rep.Print(os.Stdout)

	if outDir == "" {
		return nil
	}
	return writeOutputs(log, outDir, portfolio)
}

func loadPrices(log zerolog.Logger, csvPath, dbURL, tickers, interval, startStr, endStr string) (*simulator.Frame, error) {
	if csvPath != "" {
		log.Info().Str("path", csvPath).Msg("loading prices from CSV")
		return repository.LoadPriceFrameFile(csvPath)
	}
	if dbURL == "" {
		return nil, fmt.Errorf("either -csv or -db is required")
	}
	if tickers == "" {
		return nil, fmt.Errorf("-tickers is required in database mode")
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, fmt.Errorf("parse -start: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return nil, fmt.Errorf("parse -end: %w", err)
	}

	db, err := repository.NewDatabase(dbURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	list := strings.Split(tickers, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	log.Info().Strs("tickers", list).Str("interval", interval).Msg("loading prices from database")
	return db.GetPriceFrame(list, types.Interval(interval), start, end, context.Background())
}

func writeOutputs(log zerolog.Logger, outDir string, portfolio *simulator.Portfolio) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	summary := filepath.Join(outDir, "summary.csv")
	if err := report.WriteSummaryCSVFile(summary, portfolio); err != nil {
		return err
	}
	units := filepath.Join(outDir, "units.csv")
	if err := report.WriteFrameCSVFile(units, portfolio.Units()); err != nil {
		return err
	}
	weights := filepath.Join(outDir, "weights.csv")
	if err := report.WriteFrameCSVFile(weights, portfolio.Weights()); err != nil {
		return err
	}

	navChart := filepath.Join(outDir, "nav.png")
	if err := report.WriteChartFile(navChart, portfolio, types.ChartNAV); err != nil {
		return err
	}
	ddChart := filepath.Join(outDir, "drawdown.png")
	if err := report.WriteChartFile(ddChart, portfolio, types.ChartDrawdown); err != nil {
		return err
	}

	log.Info().Str("dir", outDir).Msg("wrote summary, units, weights and charts")
	return nil
}
