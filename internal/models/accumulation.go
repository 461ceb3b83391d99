package models

import "time"

// TardinessAccumulation is the per-employee per-month ledger row. The
// formal-tardies counter is fully derived from the raw counters via the
// configured conversion ratios and is only ever written by the ledger.
type TardinessAccumulation struct {
	EmployeeID              string    `db:"employee_id" json:"employee_id"`
	Month                   int       `db:"month" json:"month"`
	Year                    int       `db:"year" json:"year"`
	LateArrivalsCount       int       `db:"late_arrivals_count" json:"late_arrivals_count"`
	DirectTardinessCount    int       `db:"direct_tardiness_count" json:"direct_tardiness_count"`
	FormalTardiesCount      int       `db:"formal_tardies_count" json:"formal_tardies_count"`
	AdministrativeActsCount int       `db:"administrative_acts_count" json:"administrative_acts_count"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// AccumulationFilter scopes ledger listing queries.
type AccumulationFilter struct {
	EmployeeID string
	Month      int
	Year       int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// AccumulationSummary aggregates an employee's recent ledger rows for
// reporting reads.
type AccumulationSummary struct {
	EmployeeID         string                  `json:"employee_id"`
	Months             []TardinessAccumulation `json:"months"`
	TotalFormalTardies int                     `json:"total_formal_tardies"`
	GeneratedAt        time.Time               `json:"generated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
