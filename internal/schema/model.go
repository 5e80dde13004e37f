package schema

import "time"

// Customer is one cleaned staging row. Field order mirrors
// SilverColumns; Values depends on that.
type Customer struct {
	CustomerID        string  `db:"customer_id" json:"customer_id"`
	Gender            string  `db:"gender" json:"gender"`
	SeniorCitizen     bool    `db:"senior_citizen" json:"senior_citizen"`
	Partner           bool    `db:"partner" json:"partner"`
	Dependents        bool    `db:"dependents" json:"dependents"`
	TenureMonths      int     `db:"tenure_months" json:"tenure_months"`
	PhoneService      bool    `db:"phone_service" json:"phone_service"`
	MultipleLines     string  `db:"multiple_lines" json:"multiple_lines"`
	InternetService   string  `db:"internet_service" json:"internet_service"`
	OnlineSecurity    string  `db:"online_security" json:"online_security"`
	OnlineBackup      string  `db:"online_backup" json:"online_backup"`
	DeviceProtection  string  `db:"device_protection" json:"device_protection"`
	TechSupport       string  `db:"tech_support" json:"tech_support"`
	StreamingTV       string  `db:"streaming_tv" json:"streaming_tv"`
	StreamingMovies   string  `db:"streaming_movies" json:"streaming_movies"`
	ContractType      string  `db:"contract_type" json:"contract_type"`
	PaperlessBilling  bool    `db:"paperless_billing" json:"paperless_billing"`
	PaymentMethod     string  `db:"payment_method" json:"payment_method"`
	MonthlyCharge     float64 `db:"monthly_charge" json:"monthly_charge"`
	TotalCharge       float64 `db:"total_charge" json:"total_charge"`
	AvgMonthlyRevenue float64 `db:"avg_monthly_revenue" json:"avg_monthly_revenue"`
	CustomerSegment   string  `db:"customer_segment" json:"customer_segment"`
	Churned           bool    `db:"churned" json:"churned"`
}

// Values flattens the row for a bulk insert, appending the shared load
// timestamp as the final ingested_at column.
func (c *Customer) Values(ingestedAt time.Time) []any {
	return []any{
		c.CustomerID,
		c.Gender,
		c.SeniorCitizen,
		c.Partner,
		c.Dependents,
		c.TenureMonths,
		c.PhoneService,
		c.MultipleLines,
		c.InternetService,
		c.OnlineSecurity,
		c.OnlineBackup,
		c.DeviceProtection,
		c.TechSupport,
		c.StreamingTV,
		c.StreamingMovies,
		c.ContractType,
		c.PaperlessBilling,
		c.PaymentMethod,
		c.MonthlyCharge,
		c.TotalCharge,
		c.AvgMonthlyRevenue,
		c.CustomerSegment,
		c.Churned,
		ingestedAt,
	}
}
