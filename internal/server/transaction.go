package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
)

type createTransactionRequest struct {
	Kind          string         `json:"kind"`
	Amount        *float64       `json:"amount"`
	CustomerName  string         `json:"customer_name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	TaxAmount     float64        `json:"tax_amount"`
	PaymentMethod string         `json:"payment_method"`
	OccurredAt    string         `json:"occurred_at"`
	Metadata      map[string]any `json:"metadata"`
}

func (s *Server) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	occurredAt, err := parseOptionalTime(req.OccurredAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("occurred_at", "invalid_occurred_at", "invalid occurred_at"))
		return
	}

	resp, err := s.transactionSvc.Create(c.Request.Context(), ledgerdomain.CreateTransactionRequest{
		Kind:          strings.TrimSpace(req.Kind),
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		TaxAmount:     req.TaxAmount,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		OccurredAt:    occurredAt,
		Metadata:      req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type updateTransactionRequest struct {
	Kind          *string  `json:"kind"`
	Amount        *float64 `json:"amount"`
	CustomerName  *string  `json:"customer_name"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	TaxAmount     *float64 `json:"tax_amount"`
	PaymentMethod *string  `json:"payment_method"`
	OccurredAt    *string  `json:"occurred_at"`
}

func (s *Server) UpdateTransaction(c *gin.Context) {
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := ledgerdomain.TransactionPatch{
		Kind:          req.Kind,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		Description:   req.Description,
		Category:      req.Category,
		TaxAmount:     req.TaxAmount,
		PaymentMethod: req.PaymentMethod,
	}
	if req.OccurredAt != nil {
		occurredAt, err := parseOptionalTime(*req.OccurredAt, false)
		if err != nil || occurredAt == nil {
			AbortWithError(c, newValidationError("occurred_at", "invalid_occurred_at", "invalid occurred_at"))
			return
		}
		patch.OccurredAt = occurredAt
	}

	resp, err := s.transactionSvc.Update(c.Request.Context(), ledgerdomain.UpdateTransactionRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Patch: patch,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTransaction(c *gin.Context) {
	resp, err := s.transactionSvc.Delete(c.Request.Context(), ledgerdomain.DeleteTransactionRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTransaction(c *gin.Context) {
	resp, err := s.transactionSvc.Get(c.Request.Context(), ledgerdomain.GetTransactionRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Kind string `form:"kind"`
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}

	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.transactionSvc.List(c.Request.Context(), ledgerdomain.ListTransactionsRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Kind:      strings.TrimSpace(query.Kind),
		From:      from,
		To:        to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Dashboard(c *gin.Context) {
	var query struct {
		WindowDays int `form:"window_days"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if query.WindowDays < 0 || query.WindowDays > 366 {
		AbortWithError(c, newValidationError("window_days", "invalid_window_days", "invalid window_days"))
		return
	}

	resp, err := s.transactionSvc.Dashboard(c.Request.Context(), ledgerdomain.DashboardRequest{
		WindowDays: query.WindowDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
