package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
)

type createTransactionRequest struct {
	PackageID    string `json:"packageId" binding:"required"`
	CustomerName string `json:"customerName" binding:"required"`
	ResellerID   string `json:"resellerId"`
}

func (s *Server) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transactionSvc.Create(c.Request.Context(), transactiondomain.CreateRequest{
		PackageID:    strings.TrimSpace(req.PackageID),
		CustomerName: strings.TrimSpace(req.CustomerName),
		ResellerID:   strings.TrimSpace(req.ResellerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ResellerID string `form:"resellerId"`
		Query      string `form:"q"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.transactionSvc.List(c.Request.Context(), transactiondomain.ListRequest{
		Pagination: query.Pagination,
		ResellerID: strings.TrimSpace(query.ResellerID),
		Query:      strings.TrimSpace(query.Query),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Transactions, "page_info": resp.PageInfo})
}

func (s *Server) GetTransaction(c *gin.Context) {
	resp, err := s.transactionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTransaction(c *gin.Context) {
	if err := s.transactionSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
