package modeling

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Insights is the executive readout derived from the gold layer. Each
// group holds ready-to-print lines in report order.
type Insights struct {
	OverallHealth      []string `json:"overall_health"`
	SegmentPerformance []string `json:"segment_performance"`
	RevenueRisk        []string `json:"revenue_risk"`
	RecommendedActions []string `json:"recommended_actions"`
}

// BuildInsights derives the business readout from validated gold rows.
// It is a pure function over the typed results and never touches the
// store.
func BuildInsights(exec ExecutiveSummary, segments []ChurnSummaryRow, revenue []RevenueRow) *Insights {
	ins := &Insights{
		OverallHealth: []string{
			fmt.Sprintf("%s active customers", humanize.Comma(exec.TotalCustomers)),
			fmt.Sprintf("%.2f%% churn rate", exec.OverallChurnRate),
			fmt.Sprintf("%s monthly recurring revenue", money(exec.TotalMonthlyRevenue)),
			fmt.Sprintf("%s at risk from churned customers", money(exec.AtRiskRevenue)),
		},
	}

	for _, seg := range segments {
		ins.SegmentPerformance = append(ins.SegmentPerformance, fmt.Sprintf(
			"%s: %s customers, %.2f%% churn, %.1f months avg tenure, %s avg monthly charges",
			seg.CustomerSegment,
			humanize.Comma(seg.TotalCustomers),
			seg.ChurnRatePercent,
			seg.AvgTenureMonths,
			money(seg.AvgMonthlyCharges),
		))
	}

	atRiskPct := 0.0
	if exec.TotalMonthlyRevenue > 0 {
		atRiskPct = exec.AtRiskRevenue / exec.TotalMonthlyRevenue * 100
	}
	ins.RevenueRisk = []string{
		fmt.Sprintf("%.1f%% of monthly revenue comes from churned customers", atRiskPct),
		fmt.Sprintf("annual revenue impact %s", money(exec.AtRiskRevenue*12)),
	}

	if worst := highestChurnSegment(segments); worst != nil {
		ins.RecommendedActions = append(ins.RecommendedActions, fmt.Sprintf(
			"focus retention on the %s segment (%.2f%% churn)",
			worst.CustomerSegment, worst.ChurnRatePercent,
		))
	}
	if top := topRevenueCombination(revenue); top != nil {
		ins.RecommendedActions = append(ins.RecommendedActions, fmt.Sprintf(
			"protect %s / %s customers (%s monthly revenue)",
			top.ContractType, top.PaymentMethod, money(top.TotalMonthlyRevenue),
		))
	}
	return ins
}

func highestChurnSegment(segments []ChurnSummaryRow) *ChurnSummaryRow {
	var worst *ChurnSummaryRow
	for i := range segments {
		if worst == nil || segments[i].ChurnRatePercent > worst.ChurnRatePercent {
			worst = &segments[i]
		}
	}
	return worst
}

func topRevenueCombination(revenue []RevenueRow) *RevenueRow {
	var top *RevenueRow
	for i := range revenue {
		if top == nil || revenue[i].TotalMonthlyRevenue > top.TotalMonthlyRevenue {
			top = &revenue[i]
		}
	}
	return top
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
