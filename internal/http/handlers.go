package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/amqp"
	"vstack/internal/budget"
	"vstack/internal/core"
	"vstack/internal/report"
	"vstack/internal/sms"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type categoryPatchRequest struct {
	Name   *string          `json:"name"`
	Icon   *string          `json:"icon"`
	Budget *decimal.Decimal `json:"budget"`
	Spent  *decimal.Decimal `json:"spent"`
}

type addTransactionRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"`
}

type smsRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

type parsedSMSResponse struct {
	IsTransaction bool                  `json:"isTransaction"`
	Transaction   *parsedTransactionDTO `json:"transaction,omitempty"`
}

type parsedTransactionDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Merchant    string          `json:"merchant"`
}

type transactionResponse struct {
	Transaction core.Transaction `json:"transaction"`
	State       core.BudgetState `json:"state"`
}

type archivedMessageDTO struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Body          string    `json:"body"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transactionId,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
	ProcessedAt   time.Time `json:"processedAt"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.budgets.State())
}

func (s *Server) categoryExists(id string) bool {
	state := s.budgets.State()
	return state.CategoryByID(id) != nil
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.categoryExists(id) {
		writeError(w, http.StatusNotFound, "unknown category %q", id)
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "budget cannot be negative")
		return
	}

	state := s.budgets.Dispatch(r.Context(), budget.SetBudget{CategoryID: id, Amount: req.Amount})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetSpent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.categoryExists(id) {
		writeError(w, http.StatusNotFound, "unknown category %q", id)
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	// Negative values are clamped to zero by the transition.
	state := s.budgets.Dispatch(r.Context(), budget.SetSpent{CategoryID: id, Amount: req.Amount})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.categoryExists(id) {
		writeError(w, http.StatusNotFound, "unknown category %q", id)
		return
	}

	var req categoryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	patch := budget.CategoryPatch{Budget: req.Budget, Spent: req.Spent}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeError(w, http.StatusUnprocessableEntity, "category name cannot be empty")
			return
		}
		patch.Name = &name
	}
	if req.Icon != nil {
		icon := sanitizeInput(*req.Icon)
		patch.Icon = &icon
	}

	state := s.budgets.Dispatch(r.Context(), budget.UpdateCategory{CategoryID: id, Patch: patch})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	date := time.Now()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	tx := core.Transaction{
		ID:          core.NewTransactionID(date),
		Type:        core.TransactionType(req.Type),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	if tx.Type == core.Expense && !s.categoryExists(tx.Category) {
		writeError(w, http.StatusNotFound, "unknown category %q", tx.Category)
		return
	}

	state := s.budgets.Dispatch(r.Context(), budget.AddTransaction{Transaction: tx})
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx, State: state})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required (use %q for income)", core.IncomeCategoryID)
		return
	}

	state := s.budgets.Dispatch(r.Context(), budget.DeleteTransaction{TransactionID: id, CategoryID: category})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	state := s.budgets.Dispatch(r.Context(), budget.CarryOverBalance{})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAllocateSavings(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusUnprocessableEntity, "savings amount must be positive")
		return
	}

	state := s.budgets.Dispatch(r.Context(), budget.AllocateToSavings{Amount: req.Amount})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state := s.budgets.Dispatch(r.Context(), budget.ResetMonthlyBudget{})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleParseSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	parsed, ok := sms.Parse(req.Body, req.Sender)
	if !ok {
		writeJSON(w, http.StatusOK, parsedSMSResponse{IsTransaction: false})
		return
	}

	writeJSON(w, http.StatusOK, parsedSMSResponse{
		IsTransaction: true,
		Transaction: &parsedTransactionDTO{
			Amount:      parsed.Amount,
			Type:        string(parsed.Type),
			Description: parsed.Description,
			Category:    parsed.Category,
			Merchant:    parsed.Merchant,
		},
	})
}

func (s *Server) handleEnqueueSMS(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "SMS ingest queue is not configured")
		return
	}

	var req smsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusUnprocessableEntity, "sms body cannot be empty")
		return
	}

	msg := amqp.NewSMSReceivedMessage(req.Sender, req.Body)
	if err := s.publisher.PublishSMS(r.Context(), msg); err != nil {
		slog.ErrorContext(r.Context(), "Failed to enqueue SMS", "error", err)
		writeError(w, http.StatusBadGateway, "failed to enqueue SMS")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": msg.ID})
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	msgs, err := s.store.ListMessages(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list archived messages", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	out := make([]archivedMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, archivedMessageDTO{
			ID:            m.ID,
			Sender:        m.Sender,
			Body:          m.Body,
			Status:        string(m.Status),
			TransactionID: m.TransactionID,
			ReceivedAt:    m.ReceivedAt,
			ProcessedAt:   m.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.Build(s.budgets.State(), time.Now()))
}

func (s *Server) handleSendReport(w http.ResponseWriter, r *http.Request) {
	if err := s.checks.SendManually(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Manual report send failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to send report")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
