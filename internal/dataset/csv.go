package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// LoadCSV reads a CSV file into a Table. The first row is treated as headers
// (column names). Cells that parse as numbers become float64, empty cells
// become nil and everything else is kept as a string. Paths ending in .gz or
// .zst are decompressed on the fly.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("csv: gzip %s: %w", path, err)
		}
		defer gz.Close() //nolint:errcheck
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("csv: zstd %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	t, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses CSV content with a header row into a Table.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty (no header row)")
	}

	headers := records[0]
	columns := make([][]any, len(headers))
	for j := range columns {
		columns[j] = make([]any, 0, len(records)-1)
	}

	for _, record := range records[1:] {
		for j, cell := range record {
			columns[j] = append(columns[j], parseCell(cell))
		}
	}

	return NewTable(headers, columns...)
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
