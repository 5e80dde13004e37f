// Package materialize persists the transformed customer set into the
// silver staging table and proves the load back. Loading is a full
// replace inside one transaction, and every run re-queries the
// persisted table so a count that drifted from the in-memory set fails
// the stage instead of poisoning downstream models.
package materialize

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"churnetl/internal/artifact"
	"churnetl/internal/metrics"
	"churnetl/internal/schema"
	"churnetl/internal/storage"
	"churnetl/internal/transform"
)

// Artifact filenames written into the silver directory.
const (
	ReportFile     = "transformation_report.json"
	ValidationFile = "validation_results.json"
)

// Validation is the read-back summary of the persisted staging table.
// It is compared against the in-memory set and written alongside the
// transformation report.
type Validation struct {
	TotalRecords        int64          `json:"total_records"`
	UniqueCustomers     int64          `json:"unique_customers"`
	ChurnedCount        int64          `json:"churned_count"`
	NullCheck           int64          `json:"null_check"`
	SegmentDistribution []SegmentCount `json:"segment_distribution"`
}

// SegmentCount is one row of the persisted segment distribution.
type SegmentCount struct {
	CustomerSegment string `json:"customer_segment"`
	Count           int64  `json:"count"`
}

// MismatchError reports a persisted count that disagrees with the
// in-memory set after a replace.
type MismatchError struct {
	Check    string
	Expected int64
	Actual   int64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("staging verification failed: %s expected %d, persisted %d", e.Check, e.Expected, e.Actual)
}

// Materializer owns the silver load: stamp, replace, verify, and write
// the silver artifacts.
type Materializer struct {
	log  *zap.SugaredLogger
	repo storage.Repository
	dir  string
	job  string

	now func() time.Time
}

// New returns a Materializer writing artifacts into silverDir.
func New(log *zap.SugaredLogger, repo storage.Repository, silverDir, job string) *Materializer {
	return &Materializer{
		log:  log,
		repo: repo,
		dir:  silverDir,
		job:  job,
		now:  time.Now,
	}
}

// Run replaces the staging table with records, verifies the persisted
// counts against the in-memory set, and writes the transformation
// report plus the validation summary. The entire batch shares a single
// ingested_at stamp.
func (m *Materializer) Run(ctx context.Context, records []schema.Customer, rep *transform.Report) (*Validation, error) {
	tables := schema.TablesFor(m.repo.Kind())
	stamp := m.now().UTC()

	rows := make([][]any, len(records))
	for i := range records {
		rows[i] = records[i].Values(stamp)
	}

	n, err := m.repo.Replace(ctx, tables.SilverStaging, schema.SilverColumns, rows)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", tables.SilverStaging, err)
	}
	if n != int64(len(records)) {
		return nil, &MismatchError{Check: "rows_loaded", Expected: int64(len(records)), Actual: n}
	}

	val, err := m.readBack(ctx, tables.SilverStaging)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", tables.SilverStaging, err)
	}

	unique := make(map[string]struct{}, len(records))
	var churned int64
	for i := range records {
		unique[records[i].CustomerID] = struct{}{}
		if records[i].Churned {
			churned++
		}
	}
	checks := []struct {
		name     string
		expected int64
		actual   int64
	}{
		{"row_count", int64(len(records)), val.TotalRecords},
		{"unique_customers", int64(len(unique)), val.UniqueCustomers},
		{"churned_count", churned, val.ChurnedCount},
		{"null_customer_ids", 0, val.NullCheck},
	}
	for _, c := range checks {
		if c.expected != c.actual {
			return nil, &MismatchError{Check: c.name, Expected: c.expected, Actual: c.actual}
		}
	}

	if err := artifact.WriteJSON(filepath.Join(m.dir, ReportFile), rep); err != nil {
		return nil, err
	}
	if err := artifact.WriteJSON(filepath.Join(m.dir, ValidationFile), val); err != nil {
		return nil, err
	}

	metrics.RecordRows(m.job, "staged", n)
	m.log.Infow("silver staging replaced",
		"table", tables.SilverStaging,
		"rows", n,
		"unique_customers", val.UniqueCustomers,
		"churned", val.ChurnedCount,
		"ingested_at", stamp.Format(time.RFC3339),
	)
	return val, nil
}

// readBack queries the persisted staging table for the counts the
// validation artifact records.
func (m *Materializer) readBack(ctx context.Context, table string) (*Validation, error) {
	val := &Validation{}

	var err error
	if val.TotalRecords, err = m.count(ctx, sq.Select("COUNT(*) AS n").From(table)); err != nil {
		return nil, err
	}
	if val.UniqueCustomers, err = m.count(ctx, sq.Select("COUNT(DISTINCT customer_id) AS n").From(table)); err != nil {
		return nil, err
	}
	if val.ChurnedCount, err = m.count(ctx, sq.Select("COUNT(*) AS n").From(table).Where(churnedPredicate(m.repo.Kind()))); err != nil {
		return nil, err
	}
	if val.NullCheck, err = m.count(ctx, sq.Select("COUNT(*) AS n").From(table).Where("customer_id IS NULL")); err != nil {
		return nil, err
	}

	stmt, _, err := sq.Select("customer_segment", "COUNT(*) AS n").
		From(table).
		GroupBy("customer_segment").
		OrderBy("customer_segment").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build segment query: %w", err)
	}
	segRows, err := m.repo.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	for _, row := range segRows {
		val.SegmentDistribution = append(val.SegmentDistribution, SegmentCount{
			CustomerSegment: asString(row["customer_segment"]),
			Count:           asCount(row["n"]),
		})
	}
	return val, nil
}

// count runs a single-row COUNT query built by q and returns its n
// column.
func (m *Materializer) count(ctx context.Context, q sq.SelectBuilder) (int64, error) {
	stmt, _, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	rows, err := m.repo.Query(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("count query %q returned %d rows", stmt, len(rows))
	}
	return asCount(rows[0]["n"]), nil
}

// churnedPredicate returns the boolean-true comparison for the backend.
// Postgres has a real boolean type; sqlite and SQL Server store 0/1.
func churnedPredicate(kind string) string {
	if kind == "postgres" {
		return "churned = TRUE"
	}
	return "churned = 1"
}

func asCount(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case []byte:
		n, _ := strconv.ParseInt(string(t), 10, 64)
		return n
	}
	return 0
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprintf("%v", v)
}
