package modeling

import (
	"fmt"
	"strings"

	"churnetl/internal/schema"
)

// Statement is one gold-layer DDL step. Object carries the physical
// table or view name for logging and error messages.
type Statement struct {
	Object string
	Action string
	SQL    string
}

// Statements returns the ordered gold build list for the backend. Each
// object is dropped and recreated from the current staging table, so
// the gold layer is always a full rebuild. Drops run without IF EXISTS
// and rely on the benign-error classifier on first runs.
func Statements(kind string) []Statement {
	t := schema.TablesFor(kind)
	churn := churnedOneZero(kind)
	churnRate := roundExpr(kind, fmt.Sprintf("100.0 * SUM(%s) / COUNT(*)", churn), 2)

	churnSummary := selectSpec{
		target: t.ChurnSummary,
		columns: []string{
			"customer_segment",
			"COUNT(*) AS total_customers",
			fmt.Sprintf("SUM(%s) AS churned_customers", churn),
			churnRate + " AS churn_rate_percent",
			roundExpr(kind, "AVG(tenure_months)", 1) + " AS avg_tenure_months",
			roundExpr(kind, "AVG(monthly_charge)", 2) + " AS avg_monthly_charges",
		},
		from:    t.SilverStaging,
		groupBy: "customer_segment",
	}
	revenueAnalysis := selectSpec{
		target: t.RevenueAnalysis,
		columns: []string{
			"contract_type",
			"payment_method",
			"COUNT(*) AS customer_count",
			roundExpr(kind, "SUM(monthly_charge)", 2) + " AS total_monthly_revenue",
			churnRate + " AS churn_rate_percent",
		},
		from:    t.SilverStaging,
		groupBy: "contract_type, payment_method",
	}
	serviceChurn := selectSpec{
		target: t.ServiceChurnCorrelation,
		columns: []string{
			"internet_service",
			"online_security",
			"tech_support",
			"COUNT(*) AS customer_count",
			churnRate + " AS churn_rate_percent",
		},
		from:    t.SilverStaging,
		groupBy: "internet_service, online_security, tech_support",
	}
	executive := selectSpec{
		target: t.ExecutiveSummary,
		columns: []string{
			"COUNT(*) AS total_customers",
			fmt.Sprintf("SUM(%s) AS total_churned", churn),
			churnRate + " AS overall_churn_rate",
			roundExpr(kind, "SUM(monthly_charge)", 2) + " AS total_monthly_revenue",
			roundExpr(kind, fmt.Sprintf("SUM(%s)", atRiskRevenue(kind)), 2) + " AS at_risk_revenue",
			roundExpr(kind, "AVG(monthly_charge)", 2) + " AS avg_revenue_per_customer",
			roundExpr(kind, "AVG(tenure_months)", 1) + " AS avg_customer_tenure",
		},
		from: t.SilverStaging,
	}

	return []Statement{
		{t.ChurnSummary, "drop", "DROP TABLE " + t.ChurnSummary},
		{t.ChurnSummary, "create", churnSummary.createTable(kind)},
		{t.RevenueAnalysis, "drop", "DROP TABLE " + t.RevenueAnalysis},
		{t.RevenueAnalysis, "create", revenueAnalysis.createTable(kind)},
		{t.ServiceChurnCorrelation, "drop", "DROP TABLE " + t.ServiceChurnCorrelation},
		{t.ServiceChurnCorrelation, "create", serviceChurn.createTable(kind)},
		{t.ExecutiveSummary, "drop", "DROP VIEW " + t.ExecutiveSummary},
		{t.ExecutiveSummary, "create", executive.createView()},
	}
}

// selectSpec describes one gold aggregate: its target object, the
// projected columns, and the grouping.
type selectSpec struct {
	target  string
	columns []string
	from    string
	groupBy string
}

// body renders the SELECT, injecting an INTO clause when set (the
// SQL Server form of CREATE TABLE AS).
func (s selectSpec) body(into string) string {
	var b strings.Builder
	b.WriteString("SELECT\n    ")
	b.WriteString(strings.Join(s.columns, ",\n    "))
	if into != "" {
		b.WriteString("\nINTO ")
		b.WriteString(into)
	}
	b.WriteString("\nFROM ")
	b.WriteString(s.from)
	if s.groupBy != "" {
		b.WriteString("\nGROUP BY ")
		b.WriteString(s.groupBy)
	}
	return b.String()
}

func (s selectSpec) createTable(kind string) string {
	if kind == "mssql" {
		return s.body(s.target)
	}
	return "CREATE TABLE " + s.target + " AS\n" + s.body("")
}

func (s selectSpec) createView() string {
	return "CREATE VIEW " + s.target + " AS\n" + s.body("")
}

// churnedOneZero maps the churned flag to 1/0 for summing. Postgres
// stores a real boolean; sqlite and SQL Server store 0/1.
func churnedOneZero(kind string) string {
	if kind == "postgres" {
		return "CASE WHEN churned THEN 1 ELSE 0 END"
	}
	return "CASE WHEN churned = 1 THEN 1 ELSE 0 END"
}

func atRiskRevenue(kind string) string {
	if kind == "postgres" {
		return "CASE WHEN churned THEN monthly_charge ELSE 0 END"
	}
	return "CASE WHEN churned = 1 THEN monthly_charge ELSE 0 END"
}

// roundExpr rounds expr to places for the backend. Postgres has no
// ROUND(double precision, int), so the value detours through numeric
// and comes back as float8.
func roundExpr(kind, expr string, places int) string {
	if kind == "postgres" {
		return fmt.Sprintf("ROUND((%s)::numeric, %d)::float8", expr, places)
	}
	return fmt.Sprintf("ROUND(%s, %d)", expr, places)
}
