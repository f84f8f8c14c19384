package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is created once (seeded at bootstrap or assigned externally)
// and never mutated or deleted afterwards.
type Customer struct {
	ID        string    `json:"customer_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "ACTIVE"
	LoanStatusPaidOff LoanStatus = "PAID_OFF"
)

// Loan carries the figures fixed at origination. TotalAmount and
// MonthlyEMI are stored already rounded to 2 decimal places and never
// recomputed on read; every balance derived later starts from these
// stored values.
type Loan struct {
	ID           uuid.UUID       `json:"loan_id"`
	CustomerID   string          `json:"customer_id"`
	Principal    decimal.Decimal `json:"principal_amount"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"` // percent per year
	PeriodYears  int64           `json:"loan_period_years"`
	MonthlyEMI   decimal.Decimal `json:"monthly_emi"`
	Status       LoanStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Well-known payment types. The field is an open enumeration: any
// string is stored verbatim, these two are the documented values.
const (
	PaymentTypeEMI     = "EMI"
	PaymentTypeLumpSum = "LUMP_SUM"
)

// Payment is append-only: recorded once, never updated or deleted.
// The payment log is the system of record for amount paid.
type Payment struct {
	ID        uuid.UUID       `json:"payment_id"`
	LoanID    uuid.UUID       `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"payment_type"`
	Timestamp time.Time       `json:"payment_date"`
}
