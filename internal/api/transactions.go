package api

import (
	"fmt"      // Cache field formatting
	"net/http" // HTTP status codes

	"expense_ledger/internal/domain"     // Importing domain models
	"expense_ledger/internal/ledger"     // Ledger services
	"expense_ledger/internal/middleware" // Request logger
	"expense_ledger/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logging library
)

// TransactionRequest is the body of create and update calls
type TransactionRequest struct {
	Type          string          `json:"type"`                    // expense or income
	Amount        decimal.Decimal `json:"amount"`                  // Positive amount, sign comes from type
	Date          string          `json:"date" binding:"required"` // YYYY-MM-DD
	Subject       string          `json:"subject"`                 // Short description
	PaymentMethod string          `json:"payment_method"`          // cash, card, bank_transfer, other
	Notes         *string         `json:"notes"`                   // Optional notes
	CategoryID    *uint           `json:"category_id"`             // Optional category
	GroupID       *uint           `json:"group_id"`                // Optional group
}

// bindTransaction parses the body into a service input, answering 400 on failure
func bindTransaction(c *gin.Context) (ledger.TransactionInput, bool) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return ledger.TransactionInput{}, false
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		badRequest(c, "date", "must be a YYYY-MM-DD date")
		return ledger.TransactionInput{}, false
	}
	return ledger.TransactionInput{
		Type:          domain.TransactionType(req.Type),
		Amount:        req.Amount,
		Date:          date,
		Subject:       req.Subject,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
		CategoryID:    req.CategoryID,
		GroupID:       req.GroupID,
	}, true
}

// CreateTransactionHandler records an expense or income for the caller
func CreateTransactionHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c) // Get userID from context
		if !ok {
			return
		}
		in, ok := bindTransaction(c) // Parse request body
		if !ok {
			return
		}
		res, err := svc.Create(c.Request.Context(), userID, in)
		if err != nil {
			respondError(c, err, "Create transaction", logrus.Fields{"amount": in.Amount.String(), "type": in.Type})
			return
		}
		cache.Invalidate(c.Request.Context(), userID) // Balance and history changed
		middleware.Logger(c).WithFields(logrus.Fields{
			"transaction_id": res.Transaction.ID,                    // New transaction
			"amount":         res.Transaction.SignedAmount.String(), // Signed amount
			"touched":        res.Touched,                           // Deltas rewritten
		}).Info("Transaction created")
		c.JSON(http.StatusCreated, gin.H{"transaction": res.Transaction, "recalculated": res.Touched})
	}
}

// GetTransactionHandler returns one of the caller's transactions
func GetTransactionHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		t, err := svc.Get(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err, "Get transaction", logrus.Fields{"transaction_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": t})
	}
}

// UpdateTransactionHandler replaces the fields of one of the caller's transactions
func UpdateTransactionHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		in, ok := bindTransaction(c)
		if !ok {
			return
		}
		res, err := svc.Update(c.Request.Context(), id, userID, in)
		if err != nil {
			respondError(c, err, "Update transaction", logrus.Fields{"transaction_id": id})
			return
		}
		cache.Invalidate(c.Request.Context(), userID)
		middleware.Logger(c).WithFields(logrus.Fields{
			"transaction_id": id,          // Updated transaction
			"touched":        res.Touched, // Deltas rewritten, 0 for metadata edits
		}).Info("Transaction updated")
		c.JSON(http.StatusOK, gin.H{"transaction": res.Transaction, "recalculated": res.Touched})
	}
}

// DeleteTransactionHandler removes one of the caller's transactions
func DeleteTransactionHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		res, err := svc.Delete(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err, "Delete transaction", logrus.Fields{"transaction_id": id})
			return
		}
		cache.Invalidate(c.Request.Context(), userID)
		middleware.Logger(c).WithFields(logrus.Fields{
			"transaction_id": id,          // Deleted transaction
			"touched":        res.Touched, // Deltas rewritten
		}).Info("Transaction deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted", "recalculated": res.Touched})
	}
}

// historyPage is the cached shape of one history response
type historyPage struct {
	Transactions []ledger.HistoryEntry `json:"transactions"` // Page rows, newest first
	Page         int                   `json:"page"`         // Current page
	PageSize     int                   `json:"page_size"`    // Page size
	Total        int64                 `json:"total"`        // Rows matching the filter
	TotalPages   int                   `json:"total_pages"`  // Total pages
}

// ListTransactionsHandler returns the caller's ledger with running balances,
// optionally filtered by date range and type
func ListTransactionsHandler(balances *ledger.Balances, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		page, pageSize := parsePage(c)
		f := ledger.TransactionFilter{Page: page, PageSize: pageSize}
		if from := c.Query("from"); from != "" {
			d, err := domain.ParseDate(from)
			if err != nil {
				badRequest(c, "from", "must be a YYYY-MM-DD date")
				return
			}
			f.From = &d
		}
		if to := c.Query("to"); to != "" {
			d, err := domain.ParseDate(to)
			if err != nil {
				badRequest(c, "to", "must be a YYYY-MM-DD date")
				return
			}
			f.To = &d
		}
		if t := domain.TransactionType(c.Query("type")); t != "" {
			if !t.Valid() {
				badRequest(c, "type", "must be one of: expense income")
				return
			}
			f.Type = t
		}
		// One hash field per distinct query, all dropped together on invalidation
		field := fmt.Sprintf("page:%d:size:%d:from:%s:to:%s:type:%s", page, pageSize, c.Query("from"), c.Query("to"), f.Type)
		var resp historyPage
		cached, err := cache.History(c.Request.Context(), userID, field, &resp, func() (any, error) {
			entries, total, err := balances.History(c.Request.Context(), userID, f)
			if err != nil {
				return nil, err
			}
			return historyPage{
				Transactions: entries,
				Page:         page,
				PageSize:     pageSize,
				Total:        total,
				TotalPages:   totalPages(total, pageSize),
			}, nil
		})
		if err != nil {
			respondError(c, err, "List transactions", logrus.Fields{"page": page})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": resp.Transactions, // Page rows
			"page":         resp.Page,         // Current page
			"page_size":    resp.PageSize,     // Page size
			"total":        resp.Total,        // Total transactions
			"total_pages":  resp.TotalPages,   // Total pages
			"cached":       cached,            // Served from Redis
		})
	}
}
