package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"banklend/pkg/ledger"
)

// Server holds the ledger instance behind the HTTP handlers.
type Server struct {
	ledger *ledger.Ledger
}

func NewServer(l *ledger.Ledger) *Server {
	return &Server{ledger: l}
}

// Routes wires the API endpoints under /api/v1.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", s.originateLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{loan_id}/payments", s.recordPaymentHandler).Methods("POST")
	api.HandleFunc("/loans/{loan_id}/ledger", s.getLedgerHandler).Methods("GET")
	api.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	api.HandleFunc("/customers/{customer_id}/overview", s.getOverviewHandler).Methods("GET")

	return router
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses:
// InvalidArgument 400, NotFound 404, anything else is a storage
// failure reported as 500.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) originateLoanHandler(w http.ResponseWriter, r *http.Request) {
	// Pointer fields distinguish an absent field from a present zero:
	// a zero interest rate is valid, a missing one is not.
	var req struct {
		CustomerID         *string          `json:"customer_id"`
		LoanAmount         *decimal.Decimal `json:"loan_amount"`
		LoanPeriodYears    *int64           `json:"loan_period_years"`
		InterestRateYearly *decimal.Decimal `json:"interest_rate_yearly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CustomerID == nil || req.LoanAmount == nil || req.LoanPeriodYears == nil || req.InterestRateYearly == nil {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	loan, err := s.ledger.OriginateLoan(*req.CustomerID, *req.LoanAmount, *req.LoanPeriodYears, *req.InterestRateYearly)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"loan_id":              loan.ID,
		"customer_id":          loan.CustomerID,
		"total_amount_payable": loan.TotalAmount,
		"monthly_emi":          loan.MonthlyEMI,
	})
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loan_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	var req struct {
		Amount      *decimal.Decimal `json:"amount"`
		PaymentType string           `json:"payment_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "payment amount is required")
		return
	}

	payment, snapshot, err := s.ledger.RecordPayment(loanID, *req.Amount, req.PaymentType)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payment_id":        payment.ID,
		"loan_id":           payment.LoanID,
		"remaining_balance": snapshot.BalanceAmount,
		"installments_left": snapshot.InstallmentsLeft,
	})
}

func (s *Server) getLedgerHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loan_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	loanLedger, err := s.ledger.GetLedger(loanID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loanLedger)
}

func (s *Server) getOverviewHandler(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customer_id"]

	overview, err := s.ledger.GetOverview(customerID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := s.ledger.ListCustomers()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}
