package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mvipergts/value/internal/appraisal"
	"github.com/mvipergts/value/internal/maintenance"
	"github.com/mvipergts/value/internal/nhtsa"
)

func main() {
	_ = godotenv.Load()

	vehicle := flag.String("vehicle", "", "VIN or \"year make model\" label")
	reportPath := flag.String("report", "", "path to the vehicle history text file (- for stdin)")
	mileage := flag.Int("mileage", 0, "current odometer reading in miles")
	year := flag.Int("year", 0, "model year fallback when VIN decoding is unavailable")
	retail := flag.Float64("retail", 0, "retail base valuation in dollars")
	wholesale := flag.Float64("wholesale", 0, "wholesale base valuation in dollars")
	asJSON := flag.Bool("json", false, "print the full result envelope as JSON instead of markdown")
	flag.Parse()

	if *vehicle == "" || *retail <= 0 || *wholesale <= 0 {
		fmt.Fprintln(os.Stderr, "usage: appraise -vehicle <vin|label> -retail <dollars> -wholesale <dollars> [-report file] [-mileage n] [-json]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	reportText, err := readReport(*reportPath)
	if err != nil {
		log.Fatalf("read report: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := nhtsa.NewClient(nhtsa.Config{})
	if err != nil {
		log.Fatalf("nhtsa client: %v", err)
	}

	p := &appraisal.Pipeline{
		Resolver:   client,
		Recalls:    client,
		Complaints: client,
		Bulletins:  client,
	}
	if est, err := maintenance.NewAnthropicEstimatorFromEnv(); err == nil {
		p.Estimator = est
	} else {
		log.Printf("cost estimator disabled: %v", err)
	}

	res := p.Run(ctx, appraisal.Request{
		Vehicle:       *vehicle,
		ReportText:    reportText,
		Mileage:       *mileage,
		Year:          *year,
		RetailBase:    *retail,
		WholesaleBase: *wholesale,
	})

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("encode result: %v", err)
		}
		return
	}
	fmt.Print(res.ReportMarkdown)
}

func readReport(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
