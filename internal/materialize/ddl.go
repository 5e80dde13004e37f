package materialize

import (
	"context"
	"fmt"

	"churnetl/internal/storage"
)

// EnsureStaging bootstraps the silver (and gold) namespaces and the
// staging table for the repository's backend. Every statement is
// written to be idempotent, so reruns are no-ops.
func EnsureStaging(ctx context.Context, repo storage.Repository) error {
	stmts, ok := stagingDDL[repo.Kind()]
	if !ok {
		return fmt.Errorf("no staging DDL for storage kind %q", repo.Kind())
	}
	for _, stmt := range stmts {
		if _, err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap staging schema: %w", err)
		}
	}
	return nil
}

// stagingDDL holds the per-dialect bootstrap statements. Postgres and
// SQL Server get real silver/gold schemas; sqlite folds the layer into
// the table name.
var stagingDDL = map[string][]string{
	"postgres": {
		`CREATE SCHEMA IF NOT EXISTS silver`,
		`CREATE SCHEMA IF NOT EXISTS gold`,
		`CREATE TABLE IF NOT EXISTS silver.customers_staging (
			customer_id         VARCHAR(20) NOT NULL,
			gender              VARCHAR(10),
			senior_citizen      BOOLEAN,
			partner             BOOLEAN,
			dependents          BOOLEAN,
			tenure_months       INTEGER,
			phone_service       BOOLEAN,
			multiple_lines      VARCHAR(25),
			internet_service    VARCHAR(25),
			online_security     VARCHAR(25),
			online_backup       VARCHAR(25),
			device_protection   VARCHAR(25),
			tech_support        VARCHAR(25),
			streaming_tv        VARCHAR(25),
			streaming_movies    VARCHAR(25),
			contract_type       VARCHAR(20),
			paperless_billing   BOOLEAN,
			payment_method      VARCHAR(30),
			monthly_charge      DOUBLE PRECISION,
			total_charge        DOUBLE PRECISION,
			avg_monthly_revenue DOUBLE PRECISION,
			customer_segment    VARCHAR(10),
			churned             BOOLEAN,
			ingested_at         TIMESTAMP
		)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS silver_customers_staging (
			customer_id         TEXT NOT NULL,
			gender              TEXT,
			senior_citizen      BOOLEAN,
			partner             BOOLEAN,
			dependents          BOOLEAN,
			tenure_months       INTEGER,
			phone_service       BOOLEAN,
			multiple_lines      TEXT,
			internet_service    TEXT,
			online_security     TEXT,
			online_backup       TEXT,
			device_protection   TEXT,
			tech_support        TEXT,
			streaming_tv        TEXT,
			streaming_movies    TEXT,
			contract_type       TEXT,
			paperless_billing   BOOLEAN,
			payment_method      TEXT,
			monthly_charge      REAL,
			total_charge        REAL,
			avg_monthly_revenue REAL,
			customer_segment    TEXT,
			churned             BOOLEAN,
			ingested_at         DATETIME
		)`,
	},
	"mssql": {
		`IF NOT EXISTS (SELECT 1 FROM sys.schemas WHERE name = 'silver') EXEC('CREATE SCHEMA silver')`,
		`IF NOT EXISTS (SELECT 1 FROM sys.schemas WHERE name = 'gold') EXEC('CREATE SCHEMA gold')`,
		`IF OBJECT_ID('silver.customers_staging', 'U') IS NULL
		CREATE TABLE silver.customers_staging (
			customer_id         NVARCHAR(20) NOT NULL,
			gender              NVARCHAR(10),
			senior_citizen      BIT,
			partner             BIT,
			dependents          BIT,
			tenure_months       INT,
			phone_service       BIT,
			multiple_lines      NVARCHAR(25),
			internet_service    NVARCHAR(25),
			online_security     NVARCHAR(25),
			online_backup       NVARCHAR(25),
			device_protection   NVARCHAR(25),
			tech_support        NVARCHAR(25),
			streaming_tv        NVARCHAR(25),
			streaming_movies    NVARCHAR(25),
			contract_type       NVARCHAR(20),
			paperless_billing   BIT,
			payment_method      NVARCHAR(30),
			monthly_charge      FLOAT,
			total_charge        FLOAT,
			avg_monthly_revenue FLOAT,
			customer_segment    NVARCHAR(10),
			churned             BIT,
			ingested_at         DATETIME2
		)`,
	},
}
