package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banklend/pkg/models"
)

// ErrNotFound is returned when a referenced customer or loan row does
// not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the interface for database operations related to
// customers, loans and payments.
type Storage interface {
	// SeedCustomer inserts a customer if the id is not already present.
	SeedCustomer(customer *models.Customer) error
	GetCustomer(id string) (*models.Customer, error)
	GetAllCustomers() ([]*models.Customer, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	GetLoansForCustomer(customerID string) ([]*models.Loan, error)

	CreatePayment(payment *models.Payment) error
	// GetPaymentsForLoan returns the full payment history for a loan,
	// most recent first.
	GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error)
	// SumPaymentsForLoan returns the total amount paid against a loan,
	// zero when no payments exist.
	SumPaymentsForLoan(loanID uuid.UUID) (decimal.Decimal, error)

	Close() error
}
