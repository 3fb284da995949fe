package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/airframesio/data-validator/cmd/compressors"
	"github.com/airframesio/data-validator/cmd/dataset"
)

// writeArchiveFile writes data under root, compressed with the named compressor
func writeArchiveFile(t *testing.T, root, key, compression string, data []byte) {
	t.Helper()
	c, err := compressors.GetCompressor(compression)
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := compressors.Compress(c, data)
	if err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, compressed, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newLocalArchive(t *testing.T, config ArchiveConfig) *Archive {
	t.Helper()
	a := NewArchive(config, newTestLogger())
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return a
}

func TestArchiveSingleFile(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "orders/2024-01-01.jsonl.zst", "zstd", []byte(
		`{"id":1,"amount":10.5,"label":"a"}`+"\n"+
			`{"id":2,"amount":20,"label":"b"}`+"\n"))

	a := newLocalArchive(t, ArchiveConfig{Root: root})
	d, err := a.Query(context.Background(), "orders/{day}.jsonl.zst", map[string]interface{}{"day": "2024-01-01"})
	if err != nil {
		t.Fatal(err)
	}

	if d.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", d.RowCount())
	}
	amount, ok := d.Column("amount")
	if !ok || amount.Kind != dataset.KindNumeric || amount.Values[1] != int64(20) {
		t.Errorf("unexpected amount column %+v", amount)
	}
}

func TestArchivePrefixConcatenatesInKeyOrder(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "orders/part-2.csv.gz", "gzip", []byte("id,label\n3,c\n"))
	writeArchiveFile(t, root, "orders/part-1.csv", "none", []byte("id,label\n1,a\n2,b\n"))
	writeArchiveFile(t, root, "orders/schema.dump", "none", []byte("not data"))
	writeArchiveFile(t, root, "other/part-1.csv", "none", []byte("id\n9\n"))

	// a batch size of one exercises chunked reads
	a := newLocalArchive(t, ArchiveConfig{Root: root, BatchSize: 1})
	d, err := a.Query(context.Background(), "orders/", nil)
	if err != nil {
		t.Fatal(err)
	}

	id, _ := d.Column("id")
	want := []interface{}{int64(1), int64(2), int64(3)}
	if len(id.Values) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), id.Values)
	}
	for i := range want {
		if id.Values[i] != want[i] {
			t.Errorf("row %d: expected %v, got %v", i, want[i], id.Values[i])
		}
	}
	if names := d.ColumnNames(); len(names) != 2 || names[0] != "id" || names[1] != "label" {
		t.Errorf("unexpected columns %v", names)
	}
}

func TestArchiveFormatOverride(t *testing.T) {
	root := t.TempDir()
	writeArchiveFile(t, root, "export.dat", "lz4", []byte(`{"v":"x"}`+"\n"))

	a := newLocalArchive(t, ArchiveConfig{Root: root, Format: "jsonl", Compression: "lz4"})
	d, err := a.Query(context.Background(), "export.dat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.RowCount() != 1 {
		t.Errorf("expected 1 row, got %d", d.RowCount())
	}
}

func TestArchiveErrors(t *testing.T) {
	root := t.TempDir()
	a := newLocalArchive(t, ArchiveConfig{Root: root})

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"missing file", "nope.jsonl", os.ErrNotExist},
		{"empty prefix", "empty/", ErrNoObjects},
		{"missing parameter", "{table}.jsonl", ErrMissingParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Query(context.Background(), tt.query, nil)
			if !errors.Is(err, ErrSource) {
				t.Errorf("expected ErrSource, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("not connected", func(t *testing.T) {
		_, err := NewArchive(ArchiveConfig{Root: root}, nil).Query(context.Background(), "x.jsonl", nil)
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("root is not a directory", func(t *testing.T) {
		file := filepath.Join(root, "file")
		if err := os.WriteFile(file, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := NewArchive(ArchiveConfig{Root: file}, nil).Connect(context.Background()); !errors.Is(err, ErrSource) {
			t.Errorf("expected ErrSource, got %v", err)
		}
	})
}

func TestDetectFormatAndCompression(t *testing.T) {
	tests := []struct {
		filename            string
		overrideFormat      string
		overrideCompression string
		wantFormat          string
		wantCompression     string
		wantErr             bool
	}{
		{"a.jsonl.zst", "", "", "jsonl", "zstd", false},
		{"a.csv", "", "", "csv", "none", false},
		{"a.parquet", "", "", "parquet", "none", false},
		{"a.bin", "csv", "gzip", "csv", "gzip", false},
		{"a.bin", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			format, compression, err := detectFormatAndCompression(tt.filename, tt.overrideFormat, tt.overrideCompression)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if format != tt.wantFormat || compression != tt.wantCompression {
				t.Errorf("got (%s, %s), want (%s, %s)", format, compression, tt.wantFormat, tt.wantCompression)
			}
		})
	}
}
