// Package schema is the single authority on dataset shape: the raw
// column set the source file must carry, the canonical column names the
// staging table uses, and the physical table names per storage dialect.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// RawColumns is the exact header the raw Telco export carries. Matching
// is by name, so column order in the file does not matter.
var RawColumns = []string{
	"customerID",
	"gender",
	"SeniorCitizen",
	"Partner",
	"Dependents",
	"tenure",
	"PhoneService",
	"MultipleLines",
	"InternetService",
	"OnlineSecurity",
	"OnlineBackup",
	"DeviceProtection",
	"TechSupport",
	"StreamingTV",
	"StreamingMovies",
	"Contract",
	"PaperlessBilling",
	"PaymentMethod",
	"MonthlyCharges",
	"TotalCharges",
	"Churn",
}

// ColumnMap maps raw export column names to canonical snake_case names.
var ColumnMap = map[string]string{
	"customerID":       "customer_id",
	"gender":           "gender",
	"SeniorCitizen":    "senior_citizen",
	"Partner":          "partner",
	"Dependents":       "dependents",
	"tenure":           "tenure_months",
	"PhoneService":     "phone_service",
	"MultipleLines":    "multiple_lines",
	"InternetService":  "internet_service",
	"OnlineSecurity":   "online_security",
	"OnlineBackup":     "online_backup",
	"DeviceProtection": "device_protection",
	"TechSupport":      "tech_support",
	"StreamingTV":      "streaming_tv",
	"StreamingMovies":  "streaming_movies",
	"Contract":         "contract_type",
	"PaperlessBilling": "paperless_billing",
	"PaymentMethod":    "payment_method",
	"MonthlyCharges":   "monthly_charge",
	"TotalCharges":     "total_charge",
	"Churn":            "churned",
}

// SilverColumns is the staging table schema in insert order: the
// canonical source columns, the two derived columns, churned, then the
// load timestamp. Customer.Values must match this order.
var SilverColumns = []string{
	"customer_id",
	"gender",
	"senior_citizen",
	"partner",
	"dependents",
	"tenure_months",
	"phone_service",
	"multiple_lines",
	"internet_service",
	"online_security",
	"online_backup",
	"device_protection",
	"tech_support",
	"streaming_tv",
	"streaming_movies",
	"contract_type",
	"paperless_billing",
	"payment_method",
	"monthly_charge",
	"total_charge",
	"avg_monthly_revenue",
	"customer_segment",
	"churned",
	"ingested_at",
}

// RawRecord is one source row keyed by canonical column name. Values
// are kept as strings until coercion.
type RawRecord map[string]string

// MismatchError reports every expected column missing from a header, so
// a broken export can be fixed in one round trip.
type MismatchError struct {
	Missing []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("header missing %d required column(s): %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Normalize resolves a raw header into a name-to-position index. All
// expected columns must be present; extra columns are ignored. On
// mismatch it returns a *MismatchError naming every missing column.
func Normalize(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	var missing []string
	for _, want := range RawColumns {
		if _, ok := idx[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MismatchError{Missing: missing}
	}

	positions := make(map[string]int, len(RawColumns))
	for _, want := range RawColumns {
		positions[want] = idx[want]
	}
	return positions, nil
}

// Bind projects one physical row onto a RawRecord using the position
// index produced by Normalize, renaming each column to its canonical
// name as it goes.
func Bind(positions map[string]int, row []string) RawRecord {
	rec := make(RawRecord, len(positions))
	for name, i := range positions {
		if i < len(row) {
			rec[ColumnMap[name]] = row[i]
		}
	}
	return rec
}

// Tables holds the physical table and view names for one storage
// dialect.
type Tables struct {
	SilverStaging           string
	ChurnSummary            string
	RevenueAnalysis         string
	ServiceChurnCorrelation string
	ExecutiveSummary        string
}

// TablesFor returns the physical names for a storage kind. Postgres and
// SQL Server use silver/gold schemas; sqlite has no schemas, so layer
// prefixes are folded into the table name.
func TablesFor(kind string) Tables {
	if kind == "sqlite" {
		return Tables{
			SilverStaging:           "silver_customers_staging",
			ChurnSummary:            "gold_churn_summary",
			RevenueAnalysis:         "gold_revenue_analysis",
			ServiceChurnCorrelation: "gold_service_churn_correlation",
			ExecutiveSummary:        "gold_executive_summary",
		}
	}
	return Tables{
		SilverStaging:           "silver.customers_staging",
		ChurnSummary:            "gold.churn_summary",
		RevenueAnalysis:         "gold.revenue_analysis",
		ServiceChurnCorrelation: "gold.service_churn_correlation",
		ExecutiveSummary:        "gold.executive_summary",
	}
}
