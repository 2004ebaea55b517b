package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/scoring"
)

type createBusinessRequest struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	Phone     string `json:"phone"`
}

func (s *Server) CreateBusiness(c *gin.Context) {
	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.businessSvc.Create(c.Request.Context(), businessdomain.CreateBusinessRequest{
		Name:      strings.TrimSpace(req.Name),
		OwnerName: strings.TrimSpace(req.OwnerName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetBusiness(c *gin.Context) {
	resp, err := s.businessSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetScore recomputes the score from the live ledger window, persists it and
// returns the full breakdown. A read that always reflects current data.
func (s *Server) GetScore(c *gin.Context) {
	result, err := s.businessSvc.RecomputeScore(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"score":         result.Score,
		"loan_eligible": scoring.IsLoanEligible(result.Score),
		"breakdown":     result.Breakdown,
		"metrics":       result.Metrics,
	}})
}

// Resync rebuilds every counterparty aggregate and the score from the ledger.
func (s *Server) Resync(c *gin.Context) {
	result, err := s.transactionSvc.Resync(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
