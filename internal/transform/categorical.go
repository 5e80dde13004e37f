package transform

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"churnetl/internal/schema"
)

// knownValues is the closed domain per categorical column after
// canonicalization. A value outside its set passes through unchanged
// but is counted and logged; rejecting would turn a vendor-side export
// tweak into a hard outage.
var knownValues = map[string]map[string]bool{
	"gender":           {"Male": true, "Female": true},
	"multiple_lines":   {"Yes": true, "No": true},
	"internet_service": {"DSL": true, "Fiber optic": true, "No": true},
	"contract_type":    {"Month-to-month": true, "One year": true, "Two year": true},
	"payment_method": {
		"Electronic check":          true,
		"Mailed check":              true,
		"Bank transfer (automatic)": true,
		"Credit card (automatic)":   true,
	},
}

var titleCaser = cases.Title(language.English)

// canonicalizer rewrites categorical columns into their canonical
// domains and tracks values it does not recognize.
type canonicalizer struct {
	unknown map[string]map[string]int
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{unknown: make(map[string]map[string]int)}
}

// apply title-cases gender, collapses the no-service sentinels to "No",
// and checks every categorical column against its known domain.
func (cz *canonicalizer) apply(c *schema.Customer) {
	c.Gender = titleCaser.String(c.Gender)
	cz.check("gender", c.Gender)

	if c.MultipleLines == "No phone service" {
		c.MultipleLines = "No"
	}
	cz.check("multiple_lines", c.MultipleLines)

	c.OnlineSecurity = cz.addOn("online_security", c.OnlineSecurity)
	c.OnlineBackup = cz.addOn("online_backup", c.OnlineBackup)
	c.DeviceProtection = cz.addOn("device_protection", c.DeviceProtection)
	c.TechSupport = cz.addOn("tech_support", c.TechSupport)
	c.StreamingTV = cz.addOn("streaming_tv", c.StreamingTV)
	c.StreamingMovies = cz.addOn("streaming_movies", c.StreamingMovies)

	cz.check("internet_service", c.InternetService)
	cz.check("contract_type", c.ContractType)
	cz.check("payment_method", c.PaymentMethod)
}

// addOn collapses the "No internet service" sentinel and validates the
// result against the shared Yes/No domain.
func (cz *canonicalizer) addOn(field, value string) string {
	if value == "No internet service" {
		value = "No"
	}
	if value != "Yes" && value != "No" {
		cz.note(field, value)
	}
	return value
}

func (cz *canonicalizer) check(field, value string) {
	if !knownValues[field][value] {
		cz.note(field, value)
	}
}

func (cz *canonicalizer) note(field, value string) {
	if cz.unknown[field] == nil {
		cz.unknown[field] = make(map[string]int)
	}
	cz.unknown[field][value]++
}
