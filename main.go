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
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/analyzer"
	"github.com/insightdelivered/statement-insights/internal/api"
	"github.com/insightdelivered/statement-insights/internal/categorizer"
	"github.com/insightdelivered/statement-insights/internal/config"
	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/insights"
	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/session"
	"github.com/insightdelivered/statement-insights/internal/worker"
	"github.com/insightdelivered/statement-insights/internal/writer"
)

const version = "2.0.0"

type fileOptions struct {
	password string
	format   analyzer.Format
	output   string
	report   models.TxnType
	header   bool
	json     bool
}

func main() {
	// CLI flags
	serveFlag := flag.Bool("serve", false, "Start the HTTP server instead of analyzing files")
	passwordFlag := flag.String("password", "", "Password for encrypted PDF statements")
	formatFlag := flag.String("format", "auto", "Input format: auto, tabular (csv) or document (pdf)")
	policyFlag := flag.String("credit-policy", "", "Credit handling: keyword, income or none (defaults to CREDIT_POLICY)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to <input>_analyzed.csv)")
	reportFlag := flag.String("report", "", "Also write a category report for debit or credit transactions")
	headerFlag := flag.Bool("header", true, "Include summary header rows in the output CSV")
	jsonFlag := flag.Bool("json", false, "Print the analysis as JSON instead of a text summary")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Insights
by Insight Delivered (QEA AutoLens)

Reads bank statements (CSV exports or PDF documents, including scanned and
password protected ones), categorizes every transaction and summarizes
spending.

Usage:
  statement-insights [flags] <statement> [statement2 ...]
  statement-insights -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Analyze a CSV export
  statement-insights may.csv

  # Encrypted PDF with a debit report
  statement-insights -password=secret -report=debit may.pdf

  # Machine-readable output
  statement-insights -json -credit-policy=income may.pdf

  # Run the upload server (PORT, WORKERS, ... from the environment or .env)
  statement-insights -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-insights v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (!*serveFlag && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}
	if *policyFlag != "" {
		cfg.CreditPolicy = *policyFlag
	}

	decimal.MarshalJSONWithoutQuotes = true
	log := logger.New(cfg.LogLevel)

	an, err := newAnalyzer(cfg, log)
	if err != nil {
		fatalf("%v\n", err)
	}

	if *serveFlag {
		if err := serve(cfg, an, log); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	format, err := analyzer.ParseFormat(*formatFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	var report models.TxnType
	if *reportFlag != "" {
		report = models.TxnType(strings.ToLower(*reportFlag))
		if !report.Valid() {
			fatalf("Unknown report type %q. Supported: debit, credit\n", *reportFlag)
		}
	}

	opts := fileOptions{
		password: *passwordFlag,
		format:   format,
		output:   *outputFlag,
		report:   report,
		header:   *headerFlag,
		json:     *jsonFlag,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Process each input file
	for _, inputPath := range flag.Args() {
		if err := processFile(ctx, an, cfg.AnalysisTimeout, inputPath, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func newAnalyzer(cfg *config.Config, log zerolog.Logger) (*analyzer.Analyzer, error) {
	policy, err := categorizer.ParseCreditPolicy(cfg.CreditPolicy)
	if err != nil {
		return nil, err
	}

	if !extractor.IsOCRAvailable() {
		log.Warn().Msg("pdftoppm or tesseract not found; scanned PDFs cannot be read")
	}
	ocr := &extractor.TesseractOCR{
		Language: cfg.OCRLanguage,
		DPI:      cfg.OCRDPI,
		PSM:      cfg.OCRPSM,
		Log:      log,
	}
	ext := extractor.New(extractor.Options{
		MinTextChars:     cfg.MinTextChars,
		MinReadableRatio: cfg.MinReadableRatio,
	}, ocr, log)

	return analyzer.New(ext, categorizer.New(policy), insights.Options{
		LargeThreshold: cfg.LargeTxnThreshold,
	}, log), nil
}

func serve(cfg *config.Config, an *analyzer.Analyzer, log zerolog.Logger) error {
	app := api.New(an, session.NewStore(cfg.SessionTTL), worker.NewPool(cfg.Workers, cfg.AnalysisTimeout), log, api.Options{
		Version:        version,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Int("workers", cfg.Workers).Msg("server listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func processFile(ctx context.Context, an *analyzer.Analyzer, timeout time.Duration, inputPath string, opts fileOptions) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := an.Analyze(ctx, analyzer.Input{
		Data:     data,
		Filename: filepath.Base(inputPath),
		Format:   opts.format,
		Password: opts.password,
	})
	if err != nil {
		return err
	}

	outPath, err := outputPath(inputPath, opts.output)
	if err != nil {
		return err
	}

	w := &writer.CSVWriter{IncludeHeader: opts.header}
	if err := w.WriteToFile(outPath, report.Transactions, &report.Summary); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}

	var reportPath string
	if opts.report != "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		reportPath = fmt.Sprintf("%s_%s_report.csv", base, opts.report)
		if err := writeCategoryReport(reportPath, report.Transactions, opts.report); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(api.UploadResponse{
			Format:       report.Format,
			Source:       report.Source,
			Transactions: report.Transactions,
			Skipped:      len(report.SkippedRows) + len(report.SkippedLines),
			Summary:      report.Summary,
		})
	}

	printSummary(inputPath, report, outPath, reportPath)
	return nil
}

// outputPath picks where the analyzed CSV goes. The default sits next to the
// input as <name>_analyzed.csv; a path that would overwrite the input is
// rejected.
func outputPath(inputPath, output string) (string, error) {
	out := output
	if out == "" {
		out = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_analyzed.csv"
	}

	in, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("resolving input path: %w", err)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	if abs == in {
		return "", fmt.Errorf("output %s would overwrite the input statement", out)
	}
	return out, nil
}

func writeCategoryReport(path string, txns []models.Transaction, typ models.TxnType) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", path, err)
	}
	defer f.Close()

	w := &writer.CSVWriter{}
	if err := w.WriteCategoryReport(f, txns, typ); err != nil {
		return fmt.Errorf("report write failed: %w", err)
	}
	return nil
}

func printSummary(inputPath string, report *analyzer.Report, outPath, reportPath string) {
	s := report.Summary
	fmt.Printf("Processing: %s\n", inputPath)
	fmt.Printf("  Read as %s (%s)\n", report.Format, report.Source)
	fmt.Printf("  Found %d transaction(s)", len(report.Transactions))
	if skipped := len(report.SkippedRows) + len(report.SkippedLines); skipped > 0 {
		fmt.Printf(", skipped %d", skipped)
	}
	fmt.Println()
	fmt.Printf("  Total debit:  %s\n", s.TotalDebit.StringFixed(2))
	fmt.Printf("  Total credit: %s\n", s.TotalCredit.StringFixed(2))
	fmt.Printf("  Top category: %s\n", s.TopCategory)
	if s.HighestSpendingMonth != nil {
		fmt.Printf("  Highest spending month: %s\n", *s.HighestSpendingMonth)
	}
	if s.ExpenseRatio != nil {
		fmt.Printf("  Expense ratio: %s%%\n", s.ExpenseRatio.StringFixed(2))
	}
	fmt.Printf("  Status: %s\n", s.NetStatus)
	if s.LargeTransactionCount > 0 {
		fmt.Printf("  Large transactions: %d\n", s.LargeTransactionCount)
	}
	fmt.Printf("  Output: %s\n", outPath)
	if reportPath != "" {
		fmt.Printf("  Report: %s\n", reportPath)
	}
	fmt.Println("  Done.")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
