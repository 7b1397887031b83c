package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/ruiqi-w/portfolio-engine/internal/adapter/marketdata/yahoo"
	"github.com/ruiqi-w/portfolio-engine/internal/adapter/repository/sqldb"
	"github.com/ruiqi-w/portfolio-engine/internal/config"
	"github.com/ruiqi-w/portfolio-engine/internal/usecase/calendar"
	"github.com/ruiqi-w/portfolio-engine/internal/usecase/pricing"
	"github.com/ruiqi-w/portfolio-engine/internal/usecase/seeder"
	"github.com/ruiqi-w/portfolio-engine/internal/usecase/valuation"
)

// seriesPoints is how many observation dates the full-history series samples.
const seriesPoints = 30

func main() {
	configPath := flag.String("config", ".", "directory containing engine.yaml")
	seed := flag.Bool("seed", false, "load the demo portfolio into an empty database")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	loc, err := cfg.Market.Location()
	if err != nil {
		log.WithError(err).Fatal("Failed to resolve market timezone")
	}

	ctx := context.Background()

	db, err := sqldb.New(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to migrate database schema")
	}

	priceRepo := sqldb.NewPriceRepository(db)
	holdingRepo := sqldb.NewHoldingRepository(db)
	cashRepo := sqldb.NewCashRepository(db)
	gainRepo := sqldb.NewRealizedGainRepository(db)

	if *seed {
		if err := seeder.NewSeeder(holdingRepo, cashRepo, gainRepo).Seed(ctx); err != nil {
			log.WithError(err).Fatal("Failed to seed demo portfolio")
		}
		log.Info("Demo portfolio seeded")
	}

	oracle := calendar.New(cfg.Market.Exchange, log)
	provider := yahoo.NewClient(cfg.Provider, log)

	prices := pricing.NewService(priceRepo, provider, oracle, pricing.Config{
		CryptoTickers:    cfg.Market.CryptoTickers,
		Location:         loc,
		MaxRetries:       cfg.Provider.MaxRetries,
		FetchConcurrency: cfg.Provider.FetchConcurrency,
	}, log)

	portfolio := valuation.NewService(holdingRepo, cashRepo, gainRepo, prices, valuation.Config{
		Location: loc,
	}, log)

	first, _, ok, err := holdingRepo.DateRange(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to read holdings date range")
	}
	if !ok {
		log.Info("Portfolio is empty, nothing to value (run with -seed for a demo)")
		return
	}

	today := portfolio.Today()
	dates := valuation.EvenlySpacedDates(first, today, seriesPoints)

	tickers, err := holdingRepo.DistinctTickers(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to list portfolio tickers")
	}

	log.WithFields(logrus.Fields{
		"tickers": len(tickers),
		"from":    first,
		"to":      today,
		"points":  len(dates),
	}).Info("Warming price cache")
	prices.WarmPrices(ctx, tickers, dates)

	series, err := portfolio.BuildSeries(ctx, dates)
	if err != nil {
		log.WithError(err).Fatal("Failed to build valuation series")
	}

	windows := portfolio.StandardWindows(series)
	for _, name := range []valuation.WindowName{
		valuation.WindowYTD,
		valuation.Window1M,
		valuation.Window3M,
		valuation.Window6M,
	} {
		window := windows[name]
		summary := window.Summarize()
		log.WithFields(logrus.Fields{
			"window":       name,
			"points":       window.Len(),
			"start_profit": summary.StartProfit,
			"end_profit":   summary.EndProfit,
			"change_pct":   summary.ChangePct.Round(2),
		}).Info("Window profit summary")
	}

	slices, err := portfolio.PieSnapshot(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to build portfolio snapshot")
	}
	for _, slice := range slices {
		log.WithFields(logrus.Fields{
			"label": slice.Label,
			"value": slice.Value.Round(2),
		}).Info("Current position")
	}

	rows, err := portfolio.TickerReturns(ctx, today)
	if err != nil {
		log.WithError(err).Fatal("Failed to compute ticker returns")
	}
	for _, row := range rows {
		log.WithFields(logrus.Fields{
			"ticker":     row.Ticker,
			"value":      row.Value.Round(2),
			"cost":       row.Cost.Round(2),
			"unrealized": row.UnrealizedGain.Round(2),
			"realized":   row.RealizedGain.Round(2),
			"return_pct": row.ReturnPct.Round(2),
		}).Info("Ticker return")
	}
}
