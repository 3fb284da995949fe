package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airframesio/data-validator/cmd/compressors"
	"github.com/airframesio/data-validator/cmd/formatters"
	"github.com/airframesio/data-validator/cmd/validation"
)

func sampleResults() []ValidationResult {
	return []ValidationResult{
		NewResult("daily_totals", &validation.Summary{
			Status: validation.StatusFail,
			Details: validation.Differences{
				"amt": validation.ValueMismatch{
					Expected: map[int]interface{}{1: 20.0},
					Actual:   map[int]interface{}{1: 20.0005},
				},
			},
			SourceRows: 2,
			TargetRows: 2,
		}),
		NewResult("row_counts", &validation.Summary{
			Status:     validation.StatusPass,
			SourceRows: 5,
			TargetRows: 5,
		}),
	}
}

func newHandler(t *testing.T, config FileHandlerConfig) *FileHandler {
	t.Helper()
	h, err := NewFileHandler(config, nil)
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}
	h.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return h
}

func TestNewResult(t *testing.T) {
	r := NewResult("m", &validation.Summary{Status: validation.StatusPass})
	if r.Details == nil {
		t.Errorf("expected non-nil details")
	}
	if !r.Passed() {
		t.Errorf("expected pass")
	}
	if AllPassed(sampleResults()) {
		t.Errorf("expected AllPassed to be false with a failing result")
	}
	if !AllPassed(nil) {
		t.Errorf("no results means nothing failed")
	}
}

func TestFileHandlerCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_results.csv")
	h := newHandler(t, FileHandlerConfig{Path: path})

	if err := h.Handle(context.Background(), sampleResults()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "metric,status,details\n" +
		`daily_totals,fail,"{""amt"":{""expected"":{""1"":20},""actual"":{""1"":20.0005}}}"` + "\n" +
		"row_counts,pass,{}\n"
	if string(data) != want {
		t.Errorf("unexpected CSV:\n got %q\nwant %q", data, want)
	}
}

func TestFileHandlerJSON(t *testing.T) {
	dir := t.TempDir()
	h := newHandler(t, FileHandlerConfig{
		Path:  filepath.Join(dir, "{YYYY}", "{MM}", "results-{run}.json"),
		RunID: "run-1",
	})

	if err := h.Handle(context.Background(), sampleResults()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "2024", "05", "results-run-1.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected results at templated path: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 results, got %d", len(decoded))
	}
	if decoded[1]["metric"] != "row_counts" || decoded[1]["source_rows"] != 5.0 {
		t.Errorf("unexpected second result %v", decoded[1])
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind")
	}
}

func TestFileHandlerCompression(t *testing.T) {
	dir := t.TempDir()
	h := newHandler(t, FileHandlerConfig{
		Path:        filepath.Join(dir, "results.jsonl"),
		Compression: "zstd",
	})

	if got := h.Destination(); got != filepath.Join(dir, "results.jsonl.zst") {
		t.Fatalf("unexpected destination %s", got)
	}
	if err := h.Handle(context.Background(), sampleResults()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "results.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	zstd, _ := compressors.GetCompressor("zstd")
	reader, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	rows, err := formatters.NewJSONLReader(reader).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0]["status"] != "fail" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestFileHandlerYAML(t *testing.T) {
	h := newHandler(t, FileHandlerConfig{Path: "out.yaml"})
	data, err := h.Render(sampleResults()[1:])
	if err != nil {
		t.Fatal(err)
	}
	want := "- metric: row_counts\n  status: pass\n  details: {}\n  source_rows: 5\n  target_rows: 5\n"
	if string(data) != want {
		t.Errorf("unexpected YAML:\n got %q\nwant %q", data, want)
	}
}

func TestNewFileHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		config FileHandlerConfig
		want   error
	}{
		{"empty path", FileHandlerConfig{}, ErrInvalidDestination},
		{"s3 without key", FileHandlerConfig{Path: "s3://bucket"}, ErrInvalidDestination},
		{"unknown extension", FileHandlerConfig{Path: "results.txt"}, formatters.ErrUnsupportedFormat},
		{"unknown format", FileHandlerConfig{Path: "results.csv", Format: "xml"}, formatters.ErrUnsupportedFormat},
		{"unknown compression", FileHandlerConfig{Path: "results.csv", Compression: "brotli"}, compressors.ErrUnsupportedCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFileHandler(tt.config, nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, ok := parseS3URL("s3://results/2024/05/run.csv")
	if !ok || bucket != "results" || key != "2024/05/run.csv" {
		t.Errorf("unexpected parse: %s %s %v", bucket, key, ok)
	}
	if _, _, ok := parseS3URL("/tmp/run.csv"); ok {
		t.Errorf("local path must not parse as S3")
	}
}

func TestPathTemplate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	got := NewPathTemplate("s3://b/{YYYY}/{MM}/{DD}/{HH}/{run}.csv").Generate("abc", ts)
	if got != "s3://b/2024/01/02/15/abc.csv" {
		t.Errorf("unexpected path %s", got)
	}
}

func TestTextReport(t *testing.T) {
	results := sampleResults()
	results = append(results, NewResult("composite", &validation.Summary{
		Status: validation.StatusFail,
		Details: validation.Differences{
			"NullValidation": validation.Differences{
				"note": validation.NullMismatch{MismatchedRows: 2, ActualNullCount: 2, RowsWithDifferences: []int{0, 1}},
			},
			"DistributionValidation": validation.Differences{
				"amt": validation.DistributionMismatch{
					"mean": {Expected: 10, Actual: 11, DifferencePct: 10},
				},
			},
		},
	}))

	var buf bytes.Buffer
	if err := TextReport(&buf, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"VALIDATION RESULTS",
		"❌ daily_totals: fail",
		"✅ row_counts: pass",
		"• amt: 1 rows differ",
		"• NullValidation",
		"• note: 2 rows disagree on nulls",
		"• amt mean: expected 10, actual 11 (10.00%)",
		"Checks: 3  Passed: 1  Failed: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

var _ Handler = (*FileHandler)(nil)
