package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"freightmatch/internal/config"
	"freightmatch/internal/pipeline"
	"freightmatch/internal/server"
	"freightmatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "quote:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "path to a JSON array of quotes")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		count, err := pipeline.ImportQuotesJSON(db, *input)
		must(err)
		fmt.Printf("imported %d quotes from %s\n", count, *input)
	case "quote:price":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		quoteID := fs.String("id", "", "quote id to price")
		miles := fs.Float64("miles", 0, "route distance in miles, if known")
		batch := fs.Int("batch", 0, "price up to N pending quotes instead")
		_ = fs.Parse(os.Args[2:])

		svc := pipeline.NewPricingService(db, cfg)
		if strings.TrimSpace(*quoteID) != "" {
			var distance *float64
			if *miles > 0 {
				distance = miles
			}
			result, err := svc.PriceQuote(context.Background(), *quoteID, distance)
			must(err)
			printed, _ := json.MarshalIndent(result.Recommendation, "", "  ")
			fmt.Printf("%s\nmatches=%d\n", printed, len(result.Matches))
			return
		}
		if *batch <= 0 {
			must(fmt.Errorf("--id or --batch is required"))
		}
		processed, err := svc.ProcessPending(context.Background(), *batch)
		must(err)
		fmt.Printf("priced %d pending quotes\n", processed)
	case "weights:learn":
		svc := pipeline.NewPricingService(db, cfg)
		learned, err := svc.LearnWeights()
		must(err)
		if learned == nil {
			fmt.Println("no feedback yet, weights unchanged")
			return
		}
		printed, _ := json.MarshalIndent(learned, "", "  ")
		fmt.Printf("%s\n", printed)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		quoteID := fs.String("id", "", "quote id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*quoteID) == "" {
			must(fmt.Errorf("--id is required"))
		}
		outputPath := *out
		if strings.TrimSpace(outputPath) == "" {
			outputPath = filepath.Join(cfg.OutputDir, *quoteID+".xlsx")
		}
		must(pipeline.ExportQuoteXLSX(db, *quoteID, outputPath))
		fmt.Printf("exported quote %s to %s\n", *quoteID, outputPath)
	case "serve":
		svc := pipeline.NewPricingService(db, cfg)
		srv := server.New(db, svc)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(srv.Run(ctx, cfg.HTTPAddr))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: freightmatch <command>")
	fmt.Println("commands:")
	fmt.Println("  quote:import --input=./quotes.json")
	fmt.Println("  quote:price --id=<quoteId> [--miles=240] | --batch=20")
	fmt.Println("  weights:learn")
	fmt.Println("  export:xlsx --id=<quoteId> [--out=./out/quote.xlsx]")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
