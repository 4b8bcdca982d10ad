// Command distribute runs a rental-income distribution for one property and
// period from the command line and prints the payout report. Reports are
// persisted like API-triggered runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"domira/internal/config"
	"domira/internal/database"
	"domira/internal/logger"
	"domira/internal/services"

	"github.com/shopspring/decimal"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Distribution error: %v", err)
	}
}

func run() error {
	var (
		propertyID  = flag.String("property", "", "property ID (required)")
		period      = flag.String("period", time.Now().Format("2006-01"), "distribution period, YYYY-MM")
		gross       = flag.String("gross", "", "gross income override; defaults to the property's monthly rent")
		holdersFile = flag.String("holders", "", "path to a JSON holder snapshot; defaults to the on-chain snapshot")
		asJSON      = flag.Bool("json", false, "print the full report as JSON")
	)
	flag.Parse()

	if *propertyID == "" {
		flag.Usage()
		return fmt.Errorf("property ID is required")
	}

	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	passportService := services.NewPassportService()
	propertyService := services.NewPropertyService(db, passportService)
	distributionService := services.NewDistributionService(db, propertyService, nil)

	var grossOverride *decimal.Decimal
	if *gross != "" {
		value, err := decimal.NewFromString(*gross)
		if err != nil {
			return fmt.Errorf("invalid gross income %q: %w", *gross, err)
		}
		grossOverride = &value
	}

	var holders []services.Holder
	if *holdersFile != "" {
		raw, err := os.ReadFile(*holdersFile)
		if err != nil {
			return fmt.Errorf("failed to read holders file: %w", err)
		}
		if err := json.Unmarshal(raw, &holders); err != nil {
			return fmt.Errorf("failed to parse holders file: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report, err := distributionService.DistributeForProperty(ctx, *propertyID, *period, grossOverride, holders)
	if err != nil {
		return err
	}

	if *asJSON {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	printReport(report)
	return nil
}

func printReport(report *services.DistributionReport) {
	fmt.Printf("Rental distribution for %s (%s)\n", report.PropertyName, report.Period)
	fmt.Printf("  Gross income:       %12s EUR\n", report.GrossIncome.StringFixed(2))
	fmt.Printf("  Management fee:     %12s EUR (%s%%)\n", report.ManagementFee.StringFixed(2), report.ManagementFeePercent)
	fmt.Printf("  Net income:         %12s EUR\n", report.NetIncome.StringFixed(2))
	fmt.Printf("  Income per fraction:%12s EUR\n", report.IncomePerFraction.StringFixed(4))
	fmt.Printf("  Holders:            %12d\n", report.HolderCount)
	fmt.Printf("  Total distributed:  %12s EUR\n", report.TotalDistributed.StringFixed(2))
	fmt.Printf("  Residual:           %12s EUR\n", report.Residual.StringFixed(2))
	fmt.Println()
	fmt.Printf("  %-44s %10s %9s %14s\n", "WALLET", "FRACTIONS", "SHARE", "AMOUNT")
	for _, payout := range report.Payouts {
		fmt.Printf("  %-44s %10d %8s%% %14s\n",
			payout.WalletAddress, payout.Fractions, payout.Percentage.StringFixed(2), payout.Amount.StringFixed(2))
	}
}
