// Package modeling builds the gold analytics layer on top of the silver
// staging table and verifies it. Every run drops and recreates three
// aggregate tables plus the executive summary view, reads the results
// back into typed rows, derives the business insights, and writes the
// gold validation artifact.
package modeling

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"churnetl/internal/artifact"
	"churnetl/internal/metrics"
	"churnetl/internal/schema"
	"churnetl/internal/storage"
)

// ValidationFile is the artifact written into the gold directory.
const ValidationFile = "validation_results.json"

// ChurnSummaryRow is one segment of gold.churn_summary.
type ChurnSummaryRow struct {
	CustomerSegment   string  `json:"customer_segment"`
	TotalCustomers    int64   `json:"total_customers"`
	ChurnedCustomers  int64   `json:"churned_customers"`
	ChurnRatePercent  float64 `json:"churn_rate_percent"`
	AvgTenureMonths   float64 `json:"avg_tenure_months"`
	AvgMonthlyCharges float64 `json:"avg_monthly_charges"`
}

// RevenueRow is one contract/payment combination of gold.revenue_analysis.
type RevenueRow struct {
	ContractType        string  `json:"contract_type"`
	PaymentMethod       string  `json:"payment_method"`
	CustomerCount       int64   `json:"customer_count"`
	TotalMonthlyRevenue float64 `json:"total_monthly_revenue"`
	ChurnRatePercent    float64 `json:"churn_rate_percent"`
}

// ServiceChurnRow is one service combination of
// gold.service_churn_correlation.
type ServiceChurnRow struct {
	InternetService  string  `json:"internet_service"`
	OnlineSecurity   string  `json:"online_security"`
	TechSupport      string  `json:"tech_support"`
	CustomerCount    int64   `json:"customer_count"`
	ChurnRatePercent float64 `json:"churn_rate_percent"`
}

// ExecutiveSummary is the single row of the gold.executive_summary view.
type ExecutiveSummary struct {
	TotalCustomers        int64   `json:"total_customers"`
	TotalChurned          int64   `json:"total_churned"`
	OverallChurnRate      float64 `json:"overall_churn_rate"`
	TotalMonthlyRevenue   float64 `json:"total_monthly_revenue"`
	AtRiskRevenue         float64 `json:"at_risk_revenue"`
	AvgRevenuePerCustomer float64 `json:"avg_revenue_per_customer"`
	AvgCustomerTenure     float64 `json:"avg_customer_tenure"`
}

// Validation is the gold artifact: typed samples of every model, the
// executive summary, per-table row counts, and the derived insights.
// Revenue and service rows keep the original top-10 cut.
type Validation struct {
	ChurnSummary    []ChurnSummaryRow `json:"churn_summary"`
	RevenueAnalysis []RevenueRow      `json:"revenue_analysis_top10"`
	ServiceChurn    []ServiceChurnRow `json:"service_churn_top10"`
	Executive       ExecutiveSummary  `json:"executive_summary"`
	TableCounts     map[string]int64  `json:"table_counts"`
	Insights        *Insights         `json:"insights,omitempty"`
}

// Builder owns the gold stage for one backend.
type Builder struct {
	log  *zap.SugaredLogger
	repo storage.Repository
	dir  string
	job  string
}

// New returns a Builder writing artifacts into goldDir.
func New(log *zap.SugaredLogger, repo storage.Repository, goldDir, job string) *Builder {
	return &Builder{log: log, repo: repo, dir: goldDir, job: job}
}

// Run builds the gold layer, validates it, derives the insights, and
// writes the gold artifact.
func (b *Builder) Run(ctx context.Context) (*Validation, error) {
	if err := b.Build(ctx); err != nil {
		return nil, err
	}
	val, err := b.Validate(ctx)
	if err != nil {
		return nil, err
	}
	val.Insights = BuildInsights(val.Executive, val.ChurnSummary, val.RevenueAnalysis)

	if err := artifact.WriteJSON(filepath.Join(b.dir, ValidationFile), val); err != nil {
		return nil, err
	}

	var modeled int64
	for _, n := range val.TableCounts {
		modeled += n
	}
	metrics.RecordRows(b.job, "modeled", modeled)
	b.log.Infow("gold layer validated",
		"total_customers", val.Executive.TotalCustomers,
		"overall_churn_rate", val.Executive.OverallChurnRate,
		"at_risk_revenue", val.Executive.AtRiskRevenue,
	)
	return val, nil
}

// Build executes the gold statement list in order. Drop-then-create
// leaves a window where an object is missing on first runs or present
// on reruns; errors from those states are skipped, anything else is
// fatal.
func (b *Builder) Build(ctx context.Context) error {
	stmts := Statements(b.repo.Kind())
	var skipped int
	for _, st := range stmts {
		if _, err := b.repo.Exec(ctx, st.SQL); err != nil {
			if benignDDLError(err) {
				skipped++
				b.log.Debugw("benign DDL error skipped", "object", st.Object, "action", st.Action, "error", err.Error())
				continue
			}
			return fmt.Errorf("gold %s %s: %w", st.Action, st.Object, err)
		}
	}
	b.log.Infow("gold layer built", "statements", len(stmts), "skipped", skipped)
	return nil
}

// benignDDLError reports whether err is an expected artifact of
// drop-then-create DDL rather than a real failure. Matching is on the
// lowered message because each backend words these differently.
func benignDDLError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{
		"does not exist",
		"already exists",
		"no such table",
		"no such view",
		"already an object named",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// Validate reads every gold object back into typed rows and collects
// per-table counts.
func (b *Builder) Validate(ctx context.Context) (*Validation, error) {
	t := schema.TablesFor(b.repo.Kind())
	val := &Validation{TableCounts: make(map[string]int64)}

	rows, err := b.query(ctx, sq.Select(
		"customer_segment", "total_customers", "churned_customers",
		"churn_rate_percent", "avg_tenure_months", "avg_monthly_charges",
	).From(t.ChurnSummary).OrderBy("customer_segment"))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		val.ChurnSummary = append(val.ChurnSummary, ChurnSummaryRow{
			CustomerSegment:   asText(r["customer_segment"]),
			TotalCustomers:    asInt(r["total_customers"]),
			ChurnedCustomers:  asInt(r["churned_customers"]),
			ChurnRatePercent:  asFloat(r["churn_rate_percent"]),
			AvgTenureMonths:   asFloat(r["avg_tenure_months"]),
			AvgMonthlyCharges: asFloat(r["avg_monthly_charges"]),
		})
	}

	rows, err = b.query(ctx, b.limit10(sq.Select(
		"contract_type", "payment_method", "customer_count",
		"total_monthly_revenue", "churn_rate_percent",
	).From(t.RevenueAnalysis).OrderBy("total_monthly_revenue DESC")))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		val.RevenueAnalysis = append(val.RevenueAnalysis, RevenueRow{
			ContractType:        asText(r["contract_type"]),
			PaymentMethod:       asText(r["payment_method"]),
			CustomerCount:       asInt(r["customer_count"]),
			TotalMonthlyRevenue: asFloat(r["total_monthly_revenue"]),
			ChurnRatePercent:    asFloat(r["churn_rate_percent"]),
		})
	}

	rows, err = b.query(ctx, b.limit10(sq.Select(
		"internet_service", "online_security", "tech_support",
		"customer_count", "churn_rate_percent",
	).From(t.ServiceChurnCorrelation).OrderBy("churn_rate_percent DESC")))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		val.ServiceChurn = append(val.ServiceChurn, ServiceChurnRow{
			InternetService:  asText(r["internet_service"]),
			OnlineSecurity:   asText(r["online_security"]),
			TechSupport:      asText(r["tech_support"]),
			CustomerCount:    asInt(r["customer_count"]),
			ChurnRatePercent: asFloat(r["churn_rate_percent"]),
		})
	}

	rows, err = b.query(ctx, sq.Select(
		"total_customers", "total_churned", "overall_churn_rate",
		"total_monthly_revenue", "at_risk_revenue",
		"avg_revenue_per_customer", "avg_customer_tenure",
	).From(t.ExecutiveSummary))
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("gold validate: executive summary returned %d rows, want 1", len(rows))
	}
	val.Executive = ExecutiveSummary{
		TotalCustomers:        asInt(rows[0]["total_customers"]),
		TotalChurned:          asInt(rows[0]["total_churned"]),
		OverallChurnRate:      asFloat(rows[0]["overall_churn_rate"]),
		TotalMonthlyRevenue:   asFloat(rows[0]["total_monthly_revenue"]),
		AtRiskRevenue:         asFloat(rows[0]["at_risk_revenue"]),
		AvgRevenuePerCustomer: asFloat(rows[0]["avg_revenue_per_customer"]),
		AvgCustomerTenure:     asFloat(rows[0]["avg_customer_tenure"]),
	}

	for name, table := range map[string]string{
		"churn_summary":             t.ChurnSummary,
		"revenue_analysis":          t.RevenueAnalysis,
		"service_churn_correlation": t.ServiceChurnCorrelation,
	} {
		rows, err := b.query(ctx, sq.Select("COUNT(*) AS n").From(table))
		if err != nil {
			return nil, err
		}
		if len(rows) != 1 {
			return nil, fmt.Errorf("gold validate: count of %s returned %d rows", table, len(rows))
		}
		val.TableCounts[name] = asInt(rows[0]["n"])
	}
	return val, nil
}

func (b *Builder) query(ctx context.Context, q sq.SelectBuilder) ([]map[string]any, error) {
	stmt, _, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("gold validate: build query: %w", err)
	}
	rows, err := b.repo.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("gold validate: %w", err)
	}
	return rows, nil
}

// limit10 caps a ranked query at ten rows. SQL Server has no LIMIT, so
// it takes the OFFSET/FETCH form instead.
func (b *Builder) limit10(q sq.SelectBuilder) sq.SelectBuilder {
	if b.repo.Kind() == "mssql" {
		return q.Suffix("OFFSET 0 ROWS FETCH FIRST 10 ROWS ONLY")
	}
	return q.Limit(10)
}

// asInt, asFloat, and asText absorb the scan-type differences between
// the drivers. mssql returns DECIMAL aggregates as []byte strings.
func asInt(v any) int64 {
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
		n, _ := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	}
	return 0
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case int:
		return float64(t)
	case []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprintf("%v", v)
}
