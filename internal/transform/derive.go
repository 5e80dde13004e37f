package transform

import "churnetl/internal/schema"

// Tenure segment labels.
const (
	SegmentNew     = "New"
	SegmentGrowing = "Growing"
	SegmentLoyal   = "Loyal"
)

// deriveFields computes the two derived columns. Total and pure over the
// already-coerced numerics, so it can safely rerun after a range repair.
func deriveFields(c *schema.Customer) {
	if c.TenureMonths > 0 {
		c.AvgMonthlyRevenue = c.TotalCharge / float64(c.TenureMonths)
	} else {
		// Too new for an aggregate total; the monthly charge is the
		// best available estimate.
		c.AvgMonthlyRevenue = c.MonthlyCharge
	}
	c.CustomerSegment = segmentFor(c.TenureMonths)
}

// segmentFor buckets tenure with inclusive upper bounds: 12 months is
// still New, 36 is still Growing.
func segmentFor(tenureMonths int) string {
	switch {
	case tenureMonths <= 12:
		return SegmentNew
	case tenureMonths <= 36:
		return SegmentGrowing
	default:
		return SegmentLoyal
	}
}
