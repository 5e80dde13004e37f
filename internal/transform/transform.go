// Package transform turns raw source rows into the cleaned staging
// record set. The chain runs in fixed order: header normalization, type
// and null coercion, categorical canonicalization, derived fields, then
// the data-quality gate. Structural problems (missing columns, flag
// values outside their closed set) are fatal; data-quality problems
// (nulls, duplicates, out-of-range numerics) are repaired in place and
// tallied in the Report.
package transform

import (
	"fmt"

	"go.uber.org/zap"

	"churnetl/internal/parser/csvfile"
	"churnetl/internal/schema"
)

// Transformer runs the transformation chain over one parsed table.
type Transformer struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Transformer {
	return &Transformer{log: log}
}

// Run executes the chain and returns the final record set plus its
// report. The returned records carry no load timestamp; the materializer
// stamps one at write time.
func (t *Transformer) Run(tbl *csvfile.Table) ([]schema.Customer, *Report, error) {
	positions, err := schema.Normalize(tbl.Header)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize header: %w", err)
	}

	rep := &Report{InitialRows: len(tbl.Rows)}
	co := newCoercer()
	cz := newCanonicalizer()

	records := make([]schema.Customer, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		line := i + 2 // 1-based, after the header line
		rec := schema.Bind(positions, row)

		c, err := co.coerceRecord(rec, line)
		if err != nil {
			return nil, nil, fmt.Errorf("coerce: %w", err)
		}
		cz.apply(&c)
		deriveFields(&c)
		records = append(records, c)
	}

	records = gate(records, rep)

	rep.NullsByColumn = co.nulls
	rep.NullCells = co.total()
	rep.UnknownCategories = cz.unknown
	rep.finish(records)

	t.logSummary(rep)
	return records, rep, nil
}

func (t *Transformer) logSummary(rep *Report) {
	if rep.DuplicatesRemoved > 0 {
		t.log.Warnw("removed duplicate customer ids", "count", rep.DuplicatesRemoved)
	}
	if rep.TenureRepairs > 0 {
		t.log.Warnw("clamped negative tenure to zero", "count", rep.TenureRepairs)
	}
	if rep.ChargeRepairs > 0 {
		t.log.Warnw("clamped negative monthly charges to zero", "count", rep.ChargeRepairs)
	}
	for field, values := range rep.UnknownCategories {
		for value, count := range values {
			t.log.Warnw("categorical value outside known domain",
				"field", field, "value", value, "count", count)
		}
	}
	t.log.Infow("transformation summary",
		"initial_rows", rep.InitialRows,
		"final_rows", rep.FinalRows,
		"rows_removed", rep.RowsRemoved,
		"null_cells", rep.NullCells,
		"duplicates_removed", rep.DuplicatesRemoved,
		"fingerprint", rep.Fingerprint,
	)
}
