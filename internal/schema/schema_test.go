package schema

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// TestColumnMapCoversRawColumns guards the mapping tables against
// drifting apart: every raw column must map to a canonical name, and
// every canonical name must appear in the staging schema.
func TestColumnMapCoversRawColumns(t *testing.T) {
	t.Parallel()

	if len(ColumnMap) != len(RawColumns) {
		t.Fatalf("ColumnMap has %d entries, RawColumns has %d", len(ColumnMap), len(RawColumns))
	}

	silver := make(map[string]bool, len(SilverColumns))
	for _, c := range SilverColumns {
		silver[c] = true
	}
	for _, raw := range RawColumns {
		canonical, ok := ColumnMap[raw]
		if !ok {
			t.Errorf("raw column %q has no canonical mapping", raw)
			continue
		}
		if !silver[canonical] {
			t.Errorf("canonical column %q missing from SilverColumns", canonical)
		}
	}

	if got := SilverColumns[len(SilverColumns)-1]; got != "ingested_at" {
		t.Fatalf("last silver column = %q, want ingested_at", got)
	}
}

// TestNormalize verifies name-based header resolution: reordering is
// fine, extras are ignored, and any missing required column is fatal
// with all absences named at once.
func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("exact header", func(t *testing.T) {
		t.Parallel()
		pos, err := Normalize(RawColumns)
		if err != nil {
			t.Fatalf("Normalize error: %v", err)
		}
		if len(pos) != len(RawColumns) {
			t.Fatalf("got %d positions, want %d", len(pos), len(RawColumns))
		}
		if pos["customerID"] != 0 || pos["Churn"] != 20 {
			t.Fatalf("unexpected positions: customerID=%d Churn=%d", pos["customerID"], pos["Churn"])
		}
	})

	t.Run("reordered with extras", func(t *testing.T) {
		t.Parallel()
		header := append([]string{"RowID"}, RawColumns...)
		pos, err := Normalize(header)
		if err != nil {
			t.Fatalf("Normalize error: %v", err)
		}
		if pos["customerID"] != 1 {
			t.Fatalf("customerID position = %d, want 1", pos["customerID"])
		}
		if _, ok := pos["RowID"]; ok {
			t.Fatalf("unexpected position entry for extra column RowID")
		}
	})

	t.Run("missing columns all reported", func(t *testing.T) {
		t.Parallel()
		header := make([]string, 0, len(RawColumns)-2)
		for _, c := range RawColumns {
			if c == "tenure" || c == "Churn" {
				continue
			}
			header = append(header, c)
		}

		_, err := Normalize(header)
		var mismatch *MismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected *MismatchError, got %T (%v)", err, err)
		}
		if len(mismatch.Missing) != 2 {
			t.Fatalf("Missing = %v, want both absent columns", mismatch.Missing)
		}
		msg := mismatch.Error()
		if !strings.Contains(msg, "tenure") || !strings.Contains(msg, "Churn") {
			t.Fatalf("error message %q does not name both missing columns", msg)
		}
	})
}

// TestBind verifies row projection onto canonical names, including
// short rows that leave trailing cells unset.
func TestBind(t *testing.T) {
	t.Parallel()

	pos := map[string]int{"customerID": 0, "tenure": 2}
	rec := Bind(pos, []string{"0001-TEST", "Female", "12"})
	if rec["customer_id"] != "0001-TEST" || rec["tenure_months"] != "12" {
		t.Fatalf("unexpected record: %v", rec)
	}

	short := Bind(pos, []string{"0002-TEST"})
	if _, ok := short["tenure_months"]; ok {
		t.Fatalf("expected no tenure entry for short row, got %q", short["tenure_months"])
	}
}

// TestTablesFor verifies dialect naming: schema-qualified for engines
// with schemas, prefix-folded for sqlite.
func TestTablesFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind        string
		wantStaging string
		wantSummary string
	}{
		{kind: "postgres", wantStaging: "silver.customers_staging", wantSummary: "gold.churn_summary"},
		{kind: "mssql", wantStaging: "silver.customers_staging", wantSummary: "gold.churn_summary"},
		{kind: "sqlite", wantStaging: "silver_customers_staging", wantSummary: "gold_churn_summary"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()
			tabs := TablesFor(tt.kind)
			if tabs.SilverStaging != tt.wantStaging {
				t.Fatalf("SilverStaging = %q, want %q", tabs.SilverStaging, tt.wantStaging)
			}
			if tabs.ChurnSummary != tt.wantSummary {
				t.Fatalf("ChurnSummary = %q, want %q", tabs.ChurnSummary, tt.wantSummary)
			}
		})
	}
}

// TestCustomerValues verifies that Values stays aligned with
// SilverColumns and stamps ingested_at last.
func TestCustomerValues(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Customer{
		CustomerID:        "7590-VHVEG",
		Gender:            "Female",
		TenureMonths:      1,
		MonthlyCharge:     29.85,
		TotalCharge:       29.85,
		AvgMonthlyRevenue: 29.85,
		CustomerSegment:   "New",
	}

	vals := c.Values(ts)
	if len(vals) != len(SilverColumns) {
		t.Fatalf("Values returned %d items, want %d", len(vals), len(SilverColumns))
	}
	if vals[0] != "7590-VHVEG" {
		t.Fatalf("vals[0] = %v, want customer id", vals[0])
	}
	if got, ok := vals[len(vals)-1].(time.Time); !ok || !got.Equal(ts) {
		t.Fatalf("last value = %v, want ingested_at %v", vals[len(vals)-1], ts)
	}
	if vals[21] != "New" {
		t.Fatalf("vals[21] = %v, want customer segment", vals[21])
	}
}
