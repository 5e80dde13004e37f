package transform

import "churnetl/internal/schema"

// gate applies the data-quality policy in fixed order: duplicate
// resolution first, then range repair. Nothing here is fatal; every
// intervention is repair-not-reject and lands in the report counters.
func gate(records []schema.Customer, rep *Report) []schema.Customer {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]

	for _, c := range records {
		if _, dup := seen[c.CustomerID]; dup {
			// First occurrence in file order wins.
			rep.DuplicatesRemoved++
			continue
		}
		seen[c.CustomerID] = struct{}{}

		repaired := false
		if c.TenureMonths < 0 {
			c.TenureMonths = 0
			rep.TenureRepairs++
			repaired = true
		}
		if c.MonthlyCharge < 0 {
			c.MonthlyCharge = 0
			rep.ChargeRepairs++
			repaired = true
		}
		if repaired {
			// Keep the derived columns consistent with the repaired
			// numerics.
			deriveFields(&c)
		}
		out = append(out, c)
	}
	return out
}
