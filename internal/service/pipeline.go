// Package service orchestrates the delivery-note pipeline: text extraction,
// vendor detection, parsing, export and optional purchase-order import.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neo2475/odoo-importer/internal/adapter"
	"github.com/neo2475/odoo-importer/internal/pdftext"
	"github.com/neo2475/odoo-importer/internal/port"
	"github.com/neo2475/odoo-importer/internal/record"
)

// PipelineConfig holds the per-run pipeline settings.
type PipelineConfig struct {
	// ForcedProvider skips detection when set.
	ForcedProvider string
	// ProcessedDir receives PDFs after successful processing. Empty
	// disables the move.
	ProcessedDir string
	Concurrency  int
}

// Result describes the outcome for one PDF.
type Result struct {
	PDFPath    string
	Provider   string
	ExportPath string
	Import     *port.ImportResult
}

// Summary aggregates a batch run.
type Summary struct {
	RunID     string
	Processed []Result
	Failed    map[string]error
}

// Pipeline processes delivery-note PDFs end to end.
type Pipeline struct {
	registry *adapter.Registry
	exporter port.Exporter
	importer port.OrderImporter // nil disables ERP import
	cfg      PipelineConfig
	log      *zap.Logger

	// extract is swappable in tests.
	extract func(path string) (string, error)
}

// NewPipeline wires the pipeline. importer may be nil for export-only runs.
func NewPipeline(registry *adapter.Registry, exporter port.Exporter, importer port.OrderImporter, cfg PipelineConfig, log *zap.Logger) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		registry: registry,
		exporter: exporter,
		importer: importer,
		cfg:      cfg,
		log:      log,
		extract:  pdftext.ExtractText,
	}
}

// ProcessFile runs one PDF through detection, parsing, export and import.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.cfg.ForcedProvider
	if key == "" {
		text, err := p.extract(path)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
		}
		key, err = p.registry.Detect(text, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("detect %s: %w", filepath.Base(path), err)
		}
	}

	a, err := p.registry.Get(key)
	if err != nil {
		return nil, err
	}

	doc, err := a.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s (%s): %w", filepath.Base(path), key, err)
	}

	table := record.Build(doc)
	exportPath, err := p.exporter.Export(path, table)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	p.log.Info("table exported",
		zap.String("pdf", filepath.Base(path)),
		zap.String("provider", key),
		zap.String("csv", exportPath))

	res := &Result{PDFPath: path, Provider: key, ExportPath: exportPath}

	if p.importer != nil {
		imp, err := p.importer.ImportTable(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
		}
		res.Import = imp
	}

	if p.cfg.ProcessedDir != "" {
		if err := moveFile(path, filepath.Join(p.cfg.ProcessedDir, filepath.Base(path))); err != nil {
			p.log.Error("could not move processed pdf", zap.String("pdf", path), zap.Error(err))
		}
	}
	return res, nil
}

// Run processes a batch of PDFs concurrently. Per-file failures are
// collected; they do not abort the batch.
func (p *Pipeline) Run(ctx context.Context, paths []string) *Summary {
	sum := &Summary{RunID: uuid.NewString(), Failed: map[string]error{}}
	p.log.Info("pipeline run starting",
		zap.String("run_id", sum.RunID), zap.Int("pdfs", len(paths)))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.cfg.Concurrency)
	)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		path := path
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := p.ProcessFile(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Error("pdf failed", zap.String("pdf", path), zap.Error(err))
				sum.Failed[path] = err
				return
			}
			sum.Processed = append(sum.Processed, *res)
		}()
	}
	wg.Wait()

	p.log.Info("pipeline run finished",
		zap.String("run_id", sum.RunID),
		zap.Int("ok", len(sum.Processed)),
		zap.Int("failed", len(sum.Failed)))
	return sum
}

// ListPDFs returns target itself when it is a PDF file, or the PDFs directly
// inside it when it is a directory.
func ListPDFs(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if isPDF(target) {
			return []string{target}, nil
		}
		return nil, nil
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var pdfs []string
	for _, e := range entries {
		if !e.IsDir() && isPDF(e.Name()) {
			pdfs = append(pdfs, filepath.Join(target, e.Name()))
		}
	}
	return pdfs, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// moveFile renames, falling back to copy and delete across filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
