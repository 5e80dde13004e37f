// Package ingest runs the bronze stage: fetch the raw dataset through a
// datasource.Provider, audit it read-only, and persist the metadata and
// validation artifacts beside the raw file. The raw file itself is never
// modified; cleaning belongs to the transformation stage.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"churnetl/internal/artifact"
	"churnetl/internal/datasource"
	"churnetl/internal/metrics"
	"churnetl/internal/parser/csvfile"
)

// Artifact filenames written into the bronze directory.
const (
	MetadataFile   = "metadata.json"
	ValidationFile = "validation_results.json"
)

// Metadata is the persisted description of one fetched raw file.
type Metadata struct {
	Source        string    `json:"source"`
	RetrievedAt   time.Time `json:"retrieved_at"`
	FilePath      string    `json:"file_path"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	FileSizeMB    float64   `json:"file_size_mb"`
}

// Audit is the read-only shape check of the raw file. Cells are examined
// untrimmed, so the source's single-space placeholders are still visible
// as non-empty here.
type Audit struct {
	FileExists   bool      `json:"file_exists"`
	RowCount     int       `json:"row_count"`
	ColumnCount  int       `json:"column_count"`
	Columns      []string  `json:"columns"`
	EmptyCells   int       `json:"empty_cells"`
	EmptyColumns []string  `json:"empty_columns,omitempty"`
	ValidatedAt  time.Time `json:"validation_timestamp"`
}

// Result is what the bronze stage hands to the rest of the run.
type Result struct {
	Path  string
	Meta  Metadata
	Audit Audit
}

// Ingestor runs the bronze stage.
type Ingestor struct {
	log      *zap.SugaredLogger
	provider datasource.Provider
	job      string
	now      func() time.Time
}

func New(log *zap.SugaredLogger, provider datasource.Provider, job string) *Ingestor {
	return &Ingestor{log: log, provider: provider, job: job, now: time.Now}
}

// Run fetches the raw file, audits it, and writes the bronze artifacts
// into the directory the file landed in.
func (i *Ingestor) Run(ctx context.Context) (*Result, error) {
	path, meta, err := i.provider.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	i.log.Infow("raw file fetched",
		"source", meta.Source, "path", path, "size_bytes", meta.SizeBytes)

	audit, err := i.audit(path)
	if err != nil {
		return nil, fmt.Errorf("audit raw file: %w", err)
	}

	res := &Result{
		Path: path,
		Meta: Metadata{
			Source:        meta.Source,
			RetrievedAt:   meta.RetrievedAt,
			FilePath:      path,
			FileSizeBytes: meta.SizeBytes,
			FileSizeMB:    float64(meta.SizeBytes) / (1 << 20),
		},
		Audit: audit,
	}

	dir := filepath.Dir(path)
	if err := artifact.WriteJSON(filepath.Join(dir, MetadataFile), res.Meta); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	if err := artifact.WriteJSON(filepath.Join(dir, ValidationFile), res.Audit); err != nil {
		return nil, fmt.Errorf("write validation results: %w", err)
	}

	metrics.RecordRows(i.job, "raw", int64(audit.RowCount))
	i.log.Infow("bronze validation complete",
		"rows", audit.RowCount,
		"columns", audit.ColumnCount,
		"empty_cells", audit.EmptyCells,
	)
	return res, nil
}

// audit reads the file without trimming so placeholder cells keep their
// raw form.
func (i *Ingestor) audit(path string) (Audit, error) {
	tbl, err := csvfile.ReadFile(path, csvfile.Options{})
	if err != nil {
		return Audit{}, err
	}

	empties := make(map[int]int, len(tbl.Header))
	total := 0
	for _, row := range tbl.Rows {
		for col, cell := range row {
			if cell == "" {
				empties[col]++
				total++
			}
		}
	}
	var emptyCols []string
	for col, name := range tbl.Header {
		if empties[col] > 0 {
			emptyCols = append(emptyCols, name)
		}
	}

	return Audit{
		FileExists:   true,
		RowCount:     len(tbl.Rows),
		ColumnCount:  len(tbl.Header),
		Columns:      tbl.Header,
		EmptyCells:   total,
		EmptyColumns: emptyCols,
		ValidatedAt:  i.now().UTC(),
	}, nil
}
