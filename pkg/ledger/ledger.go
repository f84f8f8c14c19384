package ledger

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banklend/pkg/cache"
	"banklend/pkg/models"
	"banklend/pkg/store"
)

// Error taxonomy surfaced to callers. Storage failures pass through
// wrapped and match neither sentinel, so the three cases stay
// distinguishable at the boundary.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// Ledger handles the business logic for loans and payments. Balances
// are never stored: every read folds the payment log again.
type Ledger struct {
	storage   store.Storage
	customers cache.Cache
}

// New creates a Ledger backed by the given Storage, with a
// read-through cache for customer existence checks.
func New(s store.Storage, c cache.Cache) *Ledger {
	return &Ledger{storage: s, customers: c}
}

// LoanLedger is the derived view of one loan: its stored fields plus
// figures folded from the payment log at call time.
type LoanLedger struct {
	LoanID           uuid.UUID         `json:"loan_id"`
	CustomerID       string            `json:"customer_id"`
	Principal        decimal.Decimal   `json:"principal"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	MonthlyEMI       decimal.Decimal   `json:"monthly_emi"`
	AmountPaid       decimal.Decimal   `json:"amount_paid"`
	BalanceAmount    decimal.Decimal   `json:"balance_amount"`
	InstallmentsLeft int64             `json:"installments_left"`
	Transactions     []*models.Payment `json:"transactions"`
}

// LoanSummary is one loan's entry in a customer overview. It carries
// the same derived figures as LoanLedger without the transaction list.
type LoanSummary struct {
	LoanID           uuid.UUID       `json:"loan_id"`
	Principal        decimal.Decimal `json:"principal"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalInterest    decimal.Decimal `json:"total_interest"`
	EMIAmount        decimal.Decimal `json:"emi_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	InstallmentsLeft int64           `json:"installments_left"`
}

type CustomerOverview struct {
	CustomerID string         `json:"customer_id"`
	TotalLoans int            `json:"total_loans"`
	Loans      []*LoanSummary `json:"loans"`
}

// OriginateLoan creates a new simple-interest loan for an existing
// customer. Principal, period and rate are fixed for the life of the
// loan; total payable and the monthly installment are computed here,
// rounded, and stored.
func (l *Ledger) OriginateLoan(customerID string, principal decimal.Decimal, periodYears int64, yearlyRate decimal.Decimal) (*models.Loan, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidArgument)
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: loan amount must be positive", ErrInvalidArgument)
	}
	if periodYears <= 0 {
		return nil, fmt.Errorf("%w: loan period must be a positive number of years", ErrInvalidArgument)
	}
	if yearlyRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative", ErrInvalidArgument)
	}

	if err := l.ensureCustomer(customerID); err != nil {
		return nil, err
	}

	total := totalPayable(principal, periodYears, yearlyRate)
	emi := monthlyEMI(total, periodYears)

	loan := &models.Loan{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Principal:    principal,
		TotalAmount:  total,
		InterestRate: yearlyRate,
		PeriodYears:  periodYears,
		MonthlyEMI:   emi,
		Status:       models.LoanStatusActive,
		CreatedAt:    time.Now(),
	}
	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	return loan, nil
}

// totalPayable computes simple interest on the original principal for
// the full period: principal + principal*years*rate/100. Rounded to 2
// decimal places once, here; every later balance and installment
// figure derives from the stored rounded value, not the raw product.
func totalPayable(principal decimal.Decimal, years int64, rate decimal.Decimal) decimal.Decimal {
	interest := principal.Mul(decimal.NewFromInt(years)).Mul(rate.Div(hundred))
	return principal.Add(interest).Round(2)
}

// monthlyEMI divides the rounded total payable evenly across the
// period's months.
func monthlyEMI(total decimal.Decimal, years int64) decimal.Decimal {
	return total.Div(decimal.NewFromInt(years).Mul(monthsPerYear)).Round(2)
}

// ensureCustomer checks that a customer exists, consulting the cache
// first. Customers are immutable, so a cached entry never goes stale.
func (l *Ledger) ensureCustomer(id string) error {
	key := "customer:" + id
	if _, ok := l.customers.Get(key); ok {
		return nil
	}
	customer, err := l.storage.GetCustomer(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: customer %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to read customer: %w", err)
	}
	// Cache failures are not critical; the store remains authoritative.
	if err := l.customers.Set(key, customer.Name); err != nil {
		log.Printf("Warning: failed to cache customer %s: %v", id, err)
	}
	return nil
}

// RecordPayment appends an immutable payment against an existing loan
// and returns the post-payment ledger snapshot for caller feedback.
// The amount is stored verbatim: nothing clamps it against the
// remaining balance, so overpayment simply drives the derived balance
// negative. Loan existence is checked eagerly rather than letting the
// insert through and failing on the ledger re-read.
func (l *Ledger) RecordPayment(loanID uuid.UUID, amount decimal.Decimal, paymentType string) (*models.Payment, *LoanLedger, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidArgument)
	}
	if paymentType == "" {
		paymentType = models.PaymentTypeEMI
	}

	if _, err := l.storage.GetLoan(loanID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: loan %s", ErrNotFound, loanID)
		}
		return nil, nil, fmt.Errorf("failed to read loan: %w", err)
	}

	payment := &models.Payment{
		ID:        uuid.New(),
		LoanID:    loanID,
		Amount:    amount,
		Type:      paymentType,
		Timestamp: time.Now(),
	}
	if err := l.storage.CreatePayment(payment); err != nil {
		return nil, nil, fmt.Errorf("failed to store payment: %w", err)
	}

	// Read-your-writes: the append above is durable before this fold.
	snapshot, err := l.GetLedger(loanID)
	if err != nil {
		return nil, nil, err
	}
	return payment, snapshot, nil
}

// GetLedger derives the live view of a loan from its payment log.
// AmountPaid is folded over the same row set returned as
// Transactions, so the two are mutually consistent within one call
// even while payments are being appended concurrently.
func (l *Ledger) GetLedger(loanID uuid.UUID) (*LoanLedger, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %s", ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to read loan: %w", err)
	}

	payments, err := l.storage.GetPaymentsForLoan(loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}

	amountPaid := decimal.Zero
	for _, p := range payments {
		amountPaid = amountPaid.Add(p.Amount)
	}
	balance := loan.TotalAmount.Sub(amountPaid).Round(2)

	if payments == nil {
		payments = []*models.Payment{}
	}
	return &LoanLedger{
		LoanID:           loan.ID,
		CustomerID:       loan.CustomerID,
		Principal:        loan.Principal,
		TotalAmount:      loan.TotalAmount,
		MonthlyEMI:       loan.MonthlyEMI,
		AmountPaid:       amountPaid,
		BalanceAmount:    balance,
		InstallmentsLeft: installmentsLeft(balance, loan.MonthlyEMI),
		Transactions:     payments,
	}, nil
}

// installmentsLeft is ceil(balance/emi) clamped to a floor of zero:
// overpayment or exact payoff reports 0, never a negative count. A
// zero EMI only arises from a zero total payable, which leaves
// nothing to collect.
func installmentsLeft(balance, emi decimal.Decimal) int64 {
	if emi.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	left := balance.Div(emi).Ceil().IntPart()
	if left < 0 {
		return 0
	}
	return left
}

// GetOverview summarizes every loan a customer owns, applying the
// same fold as GetLedger per loan without materializing the
// transaction lists.
func (l *Ledger) GetOverview(customerID string) (*CustomerOverview, error) {
	loans, err := l.storage.GetLoansForCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read loans: %w", err)
	}
	if len(loans) == 0 {
		// An unknown customer and a customer with no loans are
		// indistinguishable here; both report NotFound.
		return nil, fmt.Errorf("%w: no loans for customer %s", ErrNotFound, customerID)
	}

	overview := &CustomerOverview{
		CustomerID: customerID,
		TotalLoans: len(loans),
		Loans:      make([]*LoanSummary, 0, len(loans)),
	}
	for _, loan := range loans {
		amountPaid, err := l.storage.SumPaymentsForLoan(loan.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum payments for loan %s: %w", loan.ID, err)
		}
		balance := loan.TotalAmount.Sub(amountPaid).Round(2)
		overview.Loans = append(overview.Loans, &LoanSummary{
			LoanID:           loan.ID,
			Principal:        loan.Principal,
			TotalAmount:      loan.TotalAmount,
			TotalInterest:    loan.TotalAmount.Sub(loan.Principal),
			EMIAmount:        loan.MonthlyEMI,
			AmountPaid:       amountPaid,
			InstallmentsLeft: installmentsLeft(balance, loan.MonthlyEMI),
		})
	}
	return overview, nil
}

// ListCustomers returns every known customer.
func (l *Ledger) ListCustomers() ([]*models.Customer, error) {
	customers, err := l.storage.GetAllCustomers()
	if err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return customers, nil
}
