package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
)

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomersRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	resp, err := s.customerSvc.GetByName(c.Request.Context(), customerdomain.GetCustomerRequest{
		Name: strings.TrimSpace(c.Param("name")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RefreshCustomer rebuilds one counterparty aggregate from the ledger.
// Repair endpoint; normal mutations refresh inline.
func (s *Server) RefreshCustomer(c *gin.Context) {
	resp, err := s.customerSvc.Refresh(c.Request.Context(), customerdomain.RefreshRequest{
		Name: strings.TrimSpace(c.Param("name")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
