package transform

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"churnetl/internal/schema"
)

const sampleSize = 3

// Report is the transformation summary for one run. It is written beside
// the staging output and echoed to the log.
type Report struct {
	InitialRows       int                       `json:"initial_rows"`
	FinalRows         int                       `json:"final_rows"`
	RowsRemoved       int                       `json:"rows_removed"`
	NullCells         int                       `json:"null_cells"`
	NullsByColumn     map[string]int            `json:"nulls_by_column,omitempty"`
	DuplicatesRemoved int                       `json:"duplicates_removed"`
	TenureRepairs     int                       `json:"tenure_repairs"`
	ChargeRepairs     int                       `json:"charge_repairs"`
	UnknownCategories map[string]map[string]int `json:"unknown_categories,omitempty"`
	Fingerprint       string                    `json:"fingerprint"`
	Sample            []schema.Customer         `json:"sample"`
}

// finish fills the derived report fields from the final record set. The
// fingerprint covers everything except the load timestamp, so two runs
// over the same input produce the same value.
func (r *Report) finish(records []schema.Customer) {
	r.FinalRows = len(records)
	r.RowsRemoved = r.InitialRows - r.FinalRows
	r.Fingerprint = Fingerprint(records)

	n := len(records)
	if n > sampleSize {
		n = sampleSize
	}
	r.Sample = append([]schema.Customer(nil), records[:n]...)
}

// Fingerprint hashes the full record set in order. Used to verify that
// re-running the pipeline on the same input replaces the staging table
// with an identical set.
func Fingerprint(records []schema.Customer) string {
	h := xxh3.New()
	for i := range records {
		c := &records[i]
		writeField(h, c.CustomerID)
		writeField(h, c.Gender)
		writeBool(h, c.SeniorCitizen)
		writeBool(h, c.Partner)
		writeBool(h, c.Dependents)
		writeField(h, strconv.Itoa(c.TenureMonths))
		writeBool(h, c.PhoneService)
		writeField(h, c.MultipleLines)
		writeField(h, c.InternetService)
		writeField(h, c.OnlineSecurity)
		writeField(h, c.OnlineBackup)
		writeField(h, c.DeviceProtection)
		writeField(h, c.TechSupport)
		writeField(h, c.StreamingTV)
		writeField(h, c.StreamingMovies)
		writeField(h, c.ContractType)
		writeBool(h, c.PaperlessBilling)
		writeField(h, c.PaymentMethod)
		writeFloat(h, c.MonthlyCharge)
		writeFloat(h, c.TotalCharge)
		writeFloat(h, c.AvgMonthlyRevenue)
		writeField(h, c.CustomerSegment)
		writeBool(h, c.Churned)
		h.WriteString("\x1e")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func writeField(h *xxh3.Hasher, s string) {
	h.WriteString(s)
	h.WriteString("\x1f")
}

func writeBool(h *xxh3.Hasher, b bool) {
	writeField(h, strconv.FormatBool(b))
}

func writeFloat(h *xxh3.Hasher, f float64) {
	writeField(h, strconv.FormatFloat(f, 'g', -1, 64))
}
