// Command stockinfo resolves a KRX company name, downloads its daily prices
// and writes stock_data.csv, stock_data.xlsx and stock_chart.png.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/bobmcallan/stockinfo/internal/app"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stockinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	company := fs.String("company", "NAVER", "company name exactly as listed on KIND")
	market := fs.String("market", string(models.MarketKOSPI), "market: kospi or kosdaq")
	start := fs.String("start", "2019-01-01", "first date (YYYY-MM-DD, inclusive)")
	end := fs.String("end", "2021-12-31", "last date (YYYY-MM-DD, inclusive)")
	outDir := fs.String("out", ".", "directory for the output files")
	configPath := fs.String("config", "", "path to stockinfo.toml")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := models.ParseMarket(*market)
	if err != nil {
		fmt.Fprintf(stderr, "stockinfo: %v\n", err)
		return 2
	}
	dr, err := models.ParseDateRange(*start, *end)
	if err != nil {
		fmt.Fprintf(stderr, "stockinfo: %v\n", err)
		return 2
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "stockinfo: %v\n", err)
		return 1
	}

	report, err := a.Pipeline.Run(ctx, interfaces.ReportRequest{Company: *company, Market: m, Range: dr})
	if err != nil {
		fmt.Fprintf(stderr, "stockinfo: %v\n", err)
		if errors.Is(err, models.ErrInvalidRequest) {
			return 2
		}
		return 1
	}

	if err := writeArtifacts(*outDir, report); err != nil {
		fmt.Fprintf(stderr, "stockinfo: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "[%s] %s  %s  %d rows\n\n", report.Company, report.Ticker.Symbol, dr, report.Rows)
	if report.Ticker.Ambiguous() {
		fmt.Fprintf(stdout, "note: %d listings named %q, using the first (%s)\n\n", report.Ticker.Matches, report.Ticker.Name, report.Ticker.Symbol)
	}
	printPreview(stdout, report.Preview)
	fmt.Fprintf(stdout, "\nwrote %s, %s, %s to %s\n", models.CSVFileName, models.XLSXFileName, models.ChartFileName, *outDir)
	return 0
}

func writeArtifacts(dir string, report *models.PriceReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	files := []struct {
		name string
		data []byte
	}{
		{models.CSVFileName, report.CSV},
		{models.XLSXFileName, report.XLSX},
		{models.ChartFileName, report.ChartPNG},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func printPreview(w io.Writer, bars []models.PriceBar) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tOpen\tHigh\tLow\tClose\tAdj Close\tVolume\tDividends\tStock Splits\t")
	for _, b := range bars {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t\n",
			b.Date.Format(models.DateLayout),
			num(b.Open), num(b.High), num(b.Low), num(b.Close), num(b.AdjClose),
			b.Volume,
			num(b.Dividends), num(b.StockSplits))
	}
	tw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
