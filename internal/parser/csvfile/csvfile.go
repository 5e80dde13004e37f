// Package csvfile reads a delimited source file into memory as a header
// plus rows. The pipeline is a whole-dataset batch job, so unlike a
// streaming parser this one materializes the full table; the Telco dataset
// is a few thousand rows.
//
// The reader is strict about arity (every row must match the header width,
// enforced by encoding/csv) and tolerant about encoding artifacts: a UTF-8
// BOM on the first header cell is stripped.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Options controls parsing.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// TrimSpace trims surrounding whitespace from every cell. The raw
	// audit reads with this off so placeholder cells like " " stay
	// observable; the transformation reads with it on.
	TrimSpace bool
}

// Table is a fully parsed delimited file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read parses r into a Table. The first record is the header; an input
// without one is an error.
func Read(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csvfile: empty input, no header")
	}
	if err != nil {
		return nil, fmt.Errorf("csvfile: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvfile: read row: %w", err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		if opts.TrimSpace {
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
		}
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}
