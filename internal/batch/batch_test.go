package batch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lehigh-university-libraries/photoform/internal/compose"
	"github.com/lehigh-university-libraries/photoform/internal/form"
	"github.com/lehigh-university-libraries/photoform/internal/layout"
	"github.com/lehigh-university-libraries/photoform/internal/metrics"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 200, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func sampleRows() []Row {
	return []Row{
		{DocumentID: "doc-1", Kind: "cascade", SiteAddress: "12 Example Rd", Slot: 2, Category: "Lower Piping", PhotoPath: "b.png"},
		{DocumentID: "doc-1", Slot: 1, Category: "Equipment Delivery", PhotoPath: "a.png"},
		{DocumentID: "doc-2", Kind: "ventilation", Slot: 1, Category: "Custom", CustomText: "Fan coil", PhotoPath: "missing.png"},
		{DocumentID: "doc-1", Slot: 3, Category: "Custom", CustomText: "Custom Label A"},
	}
}

func TestLoaderUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("rows.csv").Load(); err == nil {
		t.Errorf("Expected error for csv")
	}
}

func TestLoaderJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	content := `{"document_id":"doc-1","kind":"cascade","slot":1,"category":"Drain Hose","photo_path":"a.png"}

{"document_id":"doc-1","slot":2,"category":"Custom","custom_text":"Hood"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Category != "Drain Hose" || rows[1].CustomText != "Hood" {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestLoaderJSONLBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(path).Load(); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("Expected line number in error, got %v", err)
	}
}

func TestLoaderParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.parquet")
	if err := parquet.WriteFile(path, sampleRows()); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loader := NewLoader(path)
	rows, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}
	if rows[2].CustomText != "Fan coil" || rows[2].Slot != 1 {
		t.Errorf("Unexpected row %+v", rows[2])
	}
	if loader.Dir() != filepath.Dir(path) {
		t.Errorf("Expected dir %s, got %s", filepath.Dir(path), loader.Dir())
	}
}

func TestGroup(t *testing.T) {
	docs, err := Group(sampleRows())
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}

	first := docs[0]
	if first.ID != "doc-1" || first.Kind != form.KindCascade || first.Title != "Cascade Billing Form" {
		t.Errorf("Unexpected header %+v", first)
	}
	if first.SiteAddress != "12 Example Rd" {
		t.Errorf("Expected address from first row, got %q", first.SiteAddress)
	}
	for i, row := range first.Rows {
		if int(row.Slot) != i+1 {
			t.Errorf("Expected slot %d at %d, got %d", i+1, i, row.Slot)
		}
	}

	if docs[1].Title != "Ventilation Billing Form" {
		t.Errorf("Expected ventilation title, got %q", docs[1].Title)
	}
}

func TestGroupErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{"missing id", []Row{{Slot: 1}}},
		{"unknown kind", []Row{{DocumentID: "x", Kind: "roofing"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Group(tt.rows); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

func TestDocumentInputs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 40, 30)

	doc := Document{
		Kind: form.KindCascade,
		Rows: []Row{
			{Slot: 1, PhotoPath: "a.png"},
			{Slot: 2, Category: "Drain Hose", PhotoPath: "gone.png"},
		},
	}

	inputs, warnings := doc.Inputs(dir)
	if len(inputs) != 2 {
		t.Fatalf("Expected 2 inputs, got %d", len(inputs))
	}
	if len(inputs[0].Photo) == 0 || len(inputs[1].Photo) != 0 {
		t.Errorf("Expected only the first photo to load")
	}
	if inputs[0].Category != "Equipment Delivery" {
		t.Errorf("Expected blank category to default, got %q", inputs[0].Category)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", warnings)
	}
}

func TestOutputNames(t *testing.T) {
	docs := []Document{
		{ID: "1", SiteAddress: "12 Example Rd", Title: "Cascade Billing Form"},
		{ID: "2", SiteAddress: "12 Example Rd", Title: "Cascade Billing Form"},
		{ID: "3", Title: "Ventilation Billing Form"},
	}

	names := outputNames(docs)
	expected := []string{
		"12 Example Rd_billing_form",
		"12 Example Rd_billing_form_2",
		"Ventilation Billing Form_billing_form",
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected %q, got %q", expected[i], names[i])
		}
	}
}

func TestRunnerRun(t *testing.T) {
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writePNG(t, filepath.Join(dataDir, "a.png"), 64, 48)
	writePNG(t, filepath.Join(dataDir, "b.png"), 30, 90)

	docs, err := Group(sampleRows())
	if err != nil {
		t.Fatal(err)
	}

	composer, err := compose.NewComposer(compose.ComposerConfig{Layout: layout.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}

	runner, err := NewRunner(RunnerConfig{
		Composer:    composer,
		OutputDir:   outDir,
		Concurrency: 2,
		XLSX:        true,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	m, err := runner.Run(context.Background(), "rows.parquet", docs, dataDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if m.Failed() != 0 {
		t.Fatalf("Expected no failures, got %+v", m.Documents)
	}

	first := m.Documents[0]
	if first.Photos != 2 || first.Cells != 3 || first.Pages != 1 {
		t.Errorf("Unexpected counts %+v", first)
	}
	if first.PDF != "12 Example Rd_billing_form.pdf" || first.XLSX != "12 Example Rd_billing_form.xlsx" {
		t.Errorf("Unexpected output names %q, %q", first.PDF, first.XLSX)
	}

	second := m.Documents[1]
	if len(second.Warnings) != 1 {
		t.Errorf("Expected the missing photo to be reported, got %v", second.Warnings)
	}
	if second.Photos != 0 || second.Cells != 1 {
		t.Errorf("Expected one placeholder cell, got %+v", second)
	}

	for _, name := range []string{first.PDF, first.XLSX, second.PDF, ManifestFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}

	saved, err := ReadManifest(filepath.Join(outDir, ManifestFile))
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if len(saved.Documents) != 2 || saved.Policy != "placeholder" {
		t.Errorf("Unexpected saved manifest %+v", saved)
	}
}

func TestRunnerCanceled(t *testing.T) {
	composer, err := compose.NewComposer(compose.ComposerConfig{Layout: layout.DefaultConfig()})
	if err != nil {
		t.Fatal(err)
	}
	runner, err := NewRunner(RunnerConfig{Composer: composer, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []Document{{ID: "1", Kind: form.KindCascade, Title: "Cascade Billing Form"}}
	if _, err := runner.Run(ctx, "rows.jsonl", docs, t.TempDir()); err == nil {
		t.Errorf("Expected cancellation error")
	}
}

func TestNewRunnerRequiresComposer(t *testing.T) {
	if _, err := NewRunner(RunnerConfig{OutputDir: t.TempDir()}); err == nil {
		t.Errorf("Expected error without composer")
	}
}

func TestLoadDocumentFile(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 40, 30)

	path := filepath.Join(dir, "site.yaml")
	content := `kind: ventilation
site_address: 9 Side St
entries:
  - category: Custom
    custom_text: Fan housing
    photo: a.png
  - custom_text: Vent cap
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, baseDir, err := LoadDocumentFile(path)
	if err != nil {
		t.Fatalf("LoadDocumentFile failed: %v", err)
	}
	if baseDir != dir {
		t.Errorf("Expected base dir %s, got %s", dir, baseDir)
	}
	if doc.Title != "Ventilation Billing Form" {
		t.Errorf("Expected default title, got %q", doc.Title)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(doc.Rows))
	}

	spec, warnings := doc.Spec(baseDir, 4.0/3.0)
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if got := spec.Entries[0].Label.Display(); got != "Fan housing" {
		t.Errorf("Expected custom caption, got %q", got)
	}
	if !spec.Entries[0].HasImage() {
		t.Errorf("Expected first entry to carry its photo")
	}
	if spec.Entries[1].HasImage() {
		t.Errorf("Expected second entry without photo")
	}
}

func TestLoadDocumentFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown kind", "kind: roofing\n"},
		{"unknown category", "kind: ventilation\nentries:\n  - category: Lower Piping\n"},
		{"bad yaml", "entries: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "doc.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := LoadDocumentFile(path); err == nil {
				t.Errorf("Expected error")
			}
		})
	}

	if _, _, err := LoadDocumentFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}
