package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/report"
	"github.com/showbase-dev/showbase/backend/internal/utils"
)

func (h *Handler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	scope, from, to, ok := h.ledgerScope(w, r)
	if !ok {
		return
	}

	expenses, err := h.repository.GetExpenses(scope, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched expenses", expenses)
}

func (h *Handler) GetExpenseReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	scope, from, to, ok := h.ledgerScope(w, r)
	if !ok {
		return
	}

	expenses, err := h.repository.GetExpenses(scope, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeReport(w, r, report.ExpenseTable(expenses), format)
}

func parseAmount(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, errors.New(field + " must be a non-negative amount")
	}
	return v, nil
}

// CreateExpense reads a multipart form: receiptNumber, date, showNumber,
// details, net, hst, workerID and an optional receipt file.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.formFile(w, r, "receipt")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		h.uploadError(w, r, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	var req struct {
		ReceiptNumber string `validate:"required,max=64"`
		Date          string `validate:"required"`
		ShowNumber    int64  `validate:"required,gt=0"`
		Details       string `validate:"max=1000"`
		WorkerID      int64  `validate:"omitempty,gt=0"`
	}

	req.ReceiptNumber = r.FormValue("receiptNumber")
	req.Date = r.FormValue("date")
	req.Details = r.FormValue("details")
	if req.ShowNumber, err = strconv.ParseInt(r.FormValue("showNumber"), 10, 64); err != nil {
		h.errorResponse(w, r, "Show number must be a number")
		return
	}
	if raw := r.FormValue("workerID"); raw != "" {
		if req.WorkerID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			h.errorResponse(w, r, "Invalid worker ID")
			return
		}
	}

	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := utils.ParseExpenseDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	net, err := parseAmount("Net", r.FormValue("net"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	hst, err := parseAmount("HST", r.FormValue("hst"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	event, ok := h.eventByShowNumber(w, r, req.ShowNumber)
	if !ok {
		return
	}

	expense := &domain.Expense{
		ReceiptNumber:  req.ReceiptNumber,
		Date:           date,
		EventID:        event.ID,
		ShowName:       event.ShowName,
		ShowNumber:     event.ShowNumber,
		AccountManager: event.AccountManagerName,
		Location:       event.Location,
		Details:        req.Details,
		Net:            net,
		HST:            hst,
	}

	if req.WorkerID != 0 {
		worker, ok := h.ledgerWorker(w, r, req.WorkerID)
		if !ok {
			return
		}
		expense.WorkerID = &worker.ID
		expense.WorkerName = worker.FullName()
	}

	if file != nil {
		storedName, err := h.receipts.Save(header.Filename, file)
		if err != nil {
			h.uploadError(w, r, err)
			return
		}
		expense.ReceiptFilename = header.Filename
		expense.StoredName = storedName
	}

	if err := h.repository.CreateExpense(expense); err != nil {
		if rmErr := h.receipts.Remove(expense.StoredName); rmErr != nil {
			slog.Warn("failed to remove orphaned receipt file", "file", expense.StoredName, "error", rmErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Expense created", expense)
}

// DownloadReceipt serves the receipt to anyone whose ledger scope covers the expense.
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	event := r.Context().Value(EventCtx).(*domain.Event)
	expense := r.Context().Value(ExpenseCtx).(*domain.Expense)

	own := expense.WorkerID != nil && *expense.WorkerID == myInfo.ID
	if !own && !event.ManagedBy(myInfo) {
		h.errorResponse(w, r, "Expense not found")
		return
	}
	if expense.StoredName == "" {
		h.errorResponse(w, r, "This expense has no receipt")
		return
	}

	h.serveFile(w, r, h.receipts, expense.StoredName, expense.ReceiptFilename)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expense := r.Context().Value(ExpenseCtx).(*domain.Expense)

	if err := h.repository.DeleteExpense(expense.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.receipts.Remove(expense.StoredName); err != nil {
		slog.Warn("failed to remove receipt file", "expenseID", expense.ID, "file", expense.StoredName, "error", err)
	}

	h.successResponse(w, r, "Expense deleted", nil)
}
