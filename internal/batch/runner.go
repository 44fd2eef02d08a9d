package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/lehigh-university-libraries/photoform/internal/compose"
	"github.com/lehigh-university-libraries/photoform/internal/filename"
	"github.com/lehigh-university-libraries/photoform/internal/layout"
	"github.com/lehigh-university-libraries/photoform/internal/metrics"
	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/sheet"
)

const notRendered = "not rendered: run canceled"

type RunnerConfig struct {
	Composer    *compose.Composer
	OutputDir   string
	Concurrency int
	// XLSX also writes a spreadsheet next to every PDF
	XLSX    bool
	Metrics *metrics.Metrics
}

// Runner renders documents concurrently, one document per task
type Runner struct {
	composer    *compose.Composer
	outputDir   string
	concurrency int
	xlsx        bool
	metrics     *metrics.Metrics
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Runner{
		composer:    cfg.Composer,
		outputDir:   cfg.OutputDir,
		concurrency: cfg.Concurrency,
		xlsx:        cfg.XLSX,
		metrics:     cfg.Metrics,
	}, nil
}

// Run renders docs and writes the manifest. Failures of single documents are
// recorded in the manifest; the returned error is only set when the run was
// canceled or the manifest could not be written.
func (r *Runner) Run(ctx context.Context, dataset string, docs []Document, baseDir string) (*Manifest, error) {
	m := &Manifest{
		Dataset:     dataset,
		GeneratedAt: timestamp(),
		Policy:      r.composer.LayoutConfig().EmptySlotPolicy.String(),
		Documents:   make([]DocumentResult, len(docs)),
	}

	names := outputNames(docs)

	slog.Info("Rendering documents", "documents", len(docs), "concurrency", r.concurrency, "output", r.outputDir)

	pool := pond.NewPool(r.concurrency, pond.WithContext(ctx))

	for i, doc := range docs {
		m.Documents[i] = DocumentResult{
			ID:          doc.ID,
			Kind:        string(doc.Kind),
			Title:       doc.Title,
			SiteAddress: doc.SiteAddress,
			Entries:     len(doc.Rows),
			Error:       notRendered,
		}

		res := &m.Documents[i]
		name := names[i]
		pool.Submit(func() {
			r.render(doc, baseDir, name, res)
		})
	}

	_ = pool.Stop().Wait()

	if err := WriteManifest(filepath.Join(r.outputDir, ManifestFile), m); err != nil {
		return m, err
	}

	if err := ctx.Err(); err != nil {
		return m, fmt.Errorf("batch canceled: %w", err)
	}

	slog.Info("Finished rendering", "documents", len(docs), "failed", m.Failed())

	return m, nil
}

// outputNames picks a unique base name per document, named after the site
// address or title. Clashes get the document ID appended.
func outputNames(docs []Document) []string {
	names := make([]string, len(docs))
	used := make(map[string]bool)

	for i, doc := range docs {
		base := strings.TrimSuffix(filename.ForDocument(doc.SiteAddress, doc.Title, "pdf"), ".pdf")
		name := base
		if used[name] {
			name = base + "_" + filename.Sanitize(doc.ID)
		}
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%s_%d", base, filename.Sanitize(doc.ID), n)
		}
		used[name] = true
		names[i] = name
	}

	return names
}

func (r *Runner) render(doc Document, baseDir, name string, res *DocumentResult) {
	res.Error = ""

	spec, warnings := doc.Spec(baseDir, r.composer.LayoutConfig().TargetAspectRatio)
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}

	l := r.composer.Layout(spec)
	res.Photos = l.Count(layout.CellPhoto)
	res.Cells = len(l.Cells) - l.Count(layout.CellFiller)
	res.Pages = l.Pages

	pdfName := name + ".pdf"
	if err := r.write(pdfName, "pdf", func() ([]byte, error) { return r.composer.ComposePDF(spec) }); err != nil {
		res.Error = err.Error()
		slog.Error("Failed to render document", "document", doc.ID, "format", "pdf", "err", err)
		return
	}
	res.PDF = pdfName

	if r.xlsx {
		xlsxName := name + ".xlsx"
		if err := r.write(xlsxName, "xlsx", func() ([]byte, error) { return r.composeXLSX(spec) }); err != nil {
			res.Error = err.Error()
			slog.Error("Failed to render document", "document", doc.ID, "format", "xlsx", "err", err)
			return
		}
		res.XLSX = xlsxName
	}

	slog.Debug("Rendered document", "document", doc.ID, "pdf", res.PDF, "photos", res.Photos, "warnings", len(res.Warnings))
}

func (r *Runner) composeXLSX(spec models.DocumentSpec) ([]byte, error) {
	return sheet.ComposeXLSX(spec, r.composer.LayoutConfig())
}

func (r *Runner) write(name, format string, render func() ([]byte, error)) error {
	start := time.Now()
	data, err := render()
	if r.metrics != nil {
		r.metrics.ObserveRender(format, start, err)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(r.outputDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
