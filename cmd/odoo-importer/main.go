package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/neo2475/odoo-importer/internal/adapter"
	"github.com/neo2475/odoo-importer/internal/config"
	"github.com/neo2475/odoo-importer/internal/csvexport"
	"github.com/neo2475/odoo-importer/internal/logging"
	"github.com/neo2475/odoo-importer/internal/mail"
	"github.com/neo2475/odoo-importer/internal/odoo"
	"github.com/neo2475/odoo-importer/internal/port"
	"github.com/neo2475/odoo-importer/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		provider  = flag.String("provider", "", "force a vendor adapter instead of autodetecting")
		outDir    = flag.String("out", "", "output directory for CSV files (default from config)")
		xlsx      = flag.Bool("xlsx", false, "also write an XLSX next to each CSV")
		doImport  = flag.Bool("import", false, "create draft purchase orders in Odoo")
		fetchMail = flag.Bool("fetch-mail", false, "download PDFs from the configured mailbox first")
		inbox     = flag.String("inbox", "", "PDF inbox directory (default from config)")
	)
	flag.Parse()

	// Optional .env for local runs.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *outDir == "" {
		*outDir = cfg.Paths.OutputDir
	}
	if *inbox == "" {
		*inbox = cfg.Paths.InputDir
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *fetchMail {
		fetcher := mail.NewFetcher(cfg.Mail, logger)
		files, err := fetcher.FetchPDFs(ctx, *inbox)
		if err != nil {
			return fmt.Errorf("mail fetch failed: %w", err)
		}
		logger.Info("mail fetch done", zap.Int("pdfs", len(files)), zap.String("inbox", *inbox))
	}

	// Positional argument overrides the inbox as processing target.
	target := *inbox
	if flag.NArg() > 0 {
		target = flag.Arg(0)
	}

	pdfs, err := service.ListPDFs(target)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", target, err)
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDFs to process in %s", target)
	}

	var importer port.OrderImporter
	if *doImport {
		client, err := odoo.Dial(cfg.Odoo)
		if err != nil {
			return err
		}
		defer client.Close()
		importer = odoo.NewImporter(client, cfg.Import, logger)
	}

	pipeline := service.NewPipeline(
		adapter.Default(),
		csvexport.NewFileExporter(*outDir, *xlsx),
		importer,
		service.PipelineConfig{
			ForcedProvider: *provider,
			ProcessedDir:   cfg.Paths.ProcessedDir,
			Concurrency:    cfg.Import.Concurrency,
		},
		logger,
	)

	sum := pipeline.Run(ctx, pdfs)
	for path, err := range sum.Failed {
		logger.Error("failed", zap.String("pdf", path), zap.Error(err))
	}
	if len(sum.Processed) == 0 {
		return fmt.Errorf("no PDFs processed successfully (%d failed)", len(sum.Failed))
	}

	fmt.Printf("Processed %d PDFs, %d failed. CSVs in %s\n", len(sum.Processed), len(sum.Failed), *outDir)
	return nil
}
