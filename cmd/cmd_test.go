package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDocument(t *testing.T, dir string) string {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, "delivery.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	path := filepath.Join(dir, "site.yaml")
	content := `kind: cascade
site_address: 12 Example Rd
entries:
  - category: Equipment Delivery
    photo: delivery.png
  - category: Lower Piping
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"WARN", "", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		err := initLogger(&buf, tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("initLogger(%q, %q): expected error %v, got %v", tt.level, tt.format, tt.wantErr, err)
		}
	}
}

func TestInitLoggerJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := initLogger(&buf, "info", "json"); err != nil {
		t.Fatalf("initLogger failed: %v", err)
	}
	defer func() { _ = initLogger(os.Stderr, "info", "text") }()

	slog.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected JSON log line, got %q", buf.String())
	}
	if record["message"] != "hello" {
		t.Errorf("Expected message key, got %v", record)
	}
	if _, ok := record["timestamp"]; !ok {
		t.Errorf("Expected timestamp key, got %v", record)
	}
}

func TestRenderAndInspect(t *testing.T) {
	dir := t.TempDir()
	spec := writeDocument(t, dir)
	pdfPath := filepath.Join(dir, "form.pdf")
	xlsxPath := filepath.Join(dir, "form.xlsx")

	if _, err := run(t, "render", "--spec", spec, "--out", pdfPath, "--xlsx", xlsxPath); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, p := range []string{pdfPath, xlsxPath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("Expected %s to be written", p)
		}
	}

	out, err := run(t, "inspect", pdfPath)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, "valid, 1 page(s)") {
		t.Errorf("Expected one valid page, got %q", out)
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	spec := writeDocument(t, dir)

	out, err := run(t, "layout", "--spec", spec)
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	for _, want := range []string{"rows: 1", "kind: photo", "kind: placeholder", "kind: filler", "value_text: 12 Example Rd"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in layout output", want)
		}
	}
}

func TestInspectRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "inspect", path); err == nil {
		t.Errorf("Expected error for invalid PDF")
	}
}
