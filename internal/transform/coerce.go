package transform

import (
	"fmt"
	"strconv"
	"strings"

	"churnetl/internal/schema"
)

// yesNo is the closed value set for the Yes/No flag columns. The two
// sentinel values appear when a customer has no phone or internet plan
// at all; both mean the flag is off.
var yesNo = map[string]bool{
	"Yes":                 true,
	"No":                  false,
	"No phone service":    false,
	"No internet service": false,
}

// zeroOne covers the senior citizen column, which the source encodes
// numerically.
var zeroOne = map[string]bool{
	"1": true,
	"0": false,
}

// CoercionError reports a flag value outside its closed set. It is fatal
// to the run: an unmapped flag value means the source schema changed.
type CoercionError struct {
	Field string
	Value string
	Line  int
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("line %d: field %s has unmapped value %q", e.Line, e.Field, e.Value)
}

// coercer converts raw string cells to typed values and tallies the
// cells that could not be parsed. Unparseable numeric cells are the
// source's placeholder for "unknown" (a single space on brand-new
// customers), so they coerce to zero instead of failing the row.
type coercer struct {
	nulls map[string]int
}

func newCoercer() *coercer {
	return &coercer{nulls: make(map[string]int)}
}

func (co *coercer) floatField(rec schema.RawRecord, field string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[field]), 64)
	if err != nil {
		co.nulls[field]++
		return 0
	}
	return v
}

// intField parses through float so fractional raw values truncate
// toward zero instead of failing.
func (co *coercer) intField(rec schema.RawRecord, field string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[field]), 64)
	if err != nil {
		co.nulls[field]++
		return 0
	}
	return int(v)
}

func (co *coercer) boolField(rec schema.RawRecord, field string, set map[string]bool, line int) (bool, error) {
	raw := rec[field]
	v, ok := set[raw]
	if !ok {
		return false, &CoercionError{Field: field, Value: raw, Line: line}
	}
	return v, nil
}

func (co *coercer) total() int {
	n := 0
	for _, c := range co.nulls {
		n += c
	}
	return n
}

// coerceRecord builds a typed Customer from one raw row. Categorical
// string columns are copied as-is; the canonicalizer rewrites them
// afterwards.
func (co *coercer) coerceRecord(rec schema.RawRecord, line int) (schema.Customer, error) {
	c := schema.Customer{
		CustomerID:       rec["customer_id"],
		Gender:           rec["gender"],
		MultipleLines:    rec["multiple_lines"],
		InternetService:  rec["internet_service"],
		OnlineSecurity:   rec["online_security"],
		OnlineBackup:     rec["online_backup"],
		DeviceProtection: rec["device_protection"],
		TechSupport:      rec["tech_support"],
		StreamingTV:      rec["streaming_tv"],
		StreamingMovies:  rec["streaming_movies"],
		ContractType:     rec["contract_type"],
		PaymentMethod:    rec["payment_method"],

		TenureMonths:  co.intField(rec, "tenure_months"),
		MonthlyCharge: co.floatField(rec, "monthly_charge"),
		TotalCharge:   co.floatField(rec, "total_charge"),
	}

	var err error
	if c.SeniorCitizen, err = co.boolField(rec, "senior_citizen", zeroOne, line); err != nil {
		return c, err
	}
	if c.Partner, err = co.boolField(rec, "partner", yesNo, line); err != nil {
		return c, err
	}
	if c.Dependents, err = co.boolField(rec, "dependents", yesNo, line); err != nil {
		return c, err
	}
	if c.PhoneService, err = co.boolField(rec, "phone_service", yesNo, line); err != nil {
		return c, err
	}
	if c.PaperlessBilling, err = co.boolField(rec, "paperless_billing", yesNo, line); err != nil {
		return c, err
	}
	if c.Churned, err = co.boolField(rec, "churned", yesNo, line); err != nil {
		return c, err
	}
	return c, nil
}
