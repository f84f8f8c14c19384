package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banklend/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Foreign keys are off by default in SQLite; WAL keeps concurrent
	// readers on a consistent snapshot while payments are appended.
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// We use TEXT for decimal fields in SQLite to ensure no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		loan_id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		principal_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		loan_period_years INTEGER NOT NULL,
		monthly_emi TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(customer_id) REFERENCES customers(customer_id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		payment_date DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(loan_id)
	);
	CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans(customer_id);
	CREATE INDEX IF NOT EXISTS idx_payments_loan ON payments(loan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SeedCustomer inserts a customer row, ignoring the insert when the id
// already exists. Existing rows are never overwritten.
func (s *SQLiteStore) SeedCustomer(customer *models.Customer) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO customers (customer_id, name, created_at) VALUES (?, ?, ?)`,
		customer.ID, customer.Name, customer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to seed customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer by its ID.
func (s *SQLiteStore) GetCustomer(id string) (*models.Customer, error) {
	var customer models.Customer
	row := s.db.QueryRow(`SELECT customer_id, name, created_at FROM customers WHERE customer_id = ?`, id)
	err := row.Scan(&customer.ID, &customer.Name, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// GetAllCustomers retrieves all customers.
func (s *SQLiteStore) GetAllCustomers() ([]*models.Customer, error) {
	rows, err := s.db.Query(`SELECT customer_id, name, created_at FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, &customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return customers, nil
}

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (loan_id, customer_id, principal_amount, total_amount, interest_rate, loan_period_years, monthly_emi, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.CustomerID, loan.Principal, loan.TotalAmount, loan.InterestRate, loan.PeriodYears, loan.MonthlyEMI, string(loan.Status), loan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	var loanIDStr, status string
	var created time.Time

	row := s.db.QueryRow(`SELECT loan_id, customer_id, principal_amount, total_amount, interest_rate, loan_period_years, monthly_emi, status, created_at FROM loans WHERE loan_id = ?`, id.String())
	err := row.Scan(&loanIDStr, &loan.CustomerID, &loan.Principal, &loan.TotalAmount, &loan.InterestRate, &loan.PeriodYears, &loan.MonthlyEMI, &status, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	loan.ID = uuid.MustParse(loanIDStr)
	loan.Status = models.LoanStatus(status)
	loan.CreatedAt = created
	return &loan, nil
}

// GetLoansForCustomer retrieves all loans owned by a customer, oldest first.
func (s *SQLiteStore) GetLoansForCustomer(customerID string) ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT loan_id, customer_id, principal_amount, total_amount, interest_rate, loan_period_years, monthly_emi, status, created_at FROM loans WHERE customer_id = ? ORDER BY created_at ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get loans for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		var loan models.Loan
		var loanIDStr, status string
		var created time.Time
		if err := rows.Scan(&loanIDStr, &loan.CustomerID, &loan.Principal, &loan.TotalAmount, &loan.InterestRate, &loan.PeriodYears, &loan.MonthlyEMI, &status, &created); err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loan.ID = uuid.MustParse(loanIDStr)
		loan.Status = models.LoanStatus(status)
		loan.CreatedAt = created
		loans = append(loans, &loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

// CreatePayment inserts a new payment into the database. The insert is
// a single atomic row write; there is no read-modify-write because no
// running balance is stored anywhere.
func (s *SQLiteStore) CreatePayment(payment *models.Payment) error {
	_, err := s.db.Exec(
		`INSERT INTO payments (payment_id, loan_id, amount, payment_type, payment_date)
		VALUES (?, ?, ?, ?, ?)`,
		payment.ID.String(), payment.LoanID.String(), payment.Amount, payment.Type, payment.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPaymentsForLoan retrieves all payments for a given loan ID, most
// recent first.
func (s *SQLiteStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.db.Query(`SELECT payment_id, loan_id, amount, payment_type, payment_date FROM payments WHERE loan_id = ? ORDER BY payment_date DESC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var paymentIDStr, loanIDStr string
		var timestamp time.Time
		if err := rows.Scan(&paymentIDStr, &loanIDStr, &payment.Amount, &payment.Type, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payment.ID = uuid.MustParse(paymentIDStr)
		payment.LoanID = uuid.MustParse(loanIDStr)
		payment.Timestamp = timestamp
		payments = append(payments, &payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan payments: %w", err)
	}
	return payments, nil
}

// SumPaymentsForLoan totals the amount paid against a loan. Amounts
// are stored as TEXT to preserve precision, so the fold happens here
// with decimal arithmetic instead of a SQL SUM through floats.
func (s *SQLiteStore) SumPaymentsForLoan(loanID uuid.UUID) (decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT amount FROM payments WHERE loan_id = ?`, loanID.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan payment amount: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error during rows iteration for payment amounts: %w", err)
	}
	return total, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
