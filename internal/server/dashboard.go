package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/smallbiznis/cicilan/internal/dashboard/domain"
)

func (s *Server) GetStats(c *gin.Context) {
	resp, err := s.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Search(c *gin.Context) {
	var query struct {
		Query string `form:"q"`
		Type  string `form:"type"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	searchType := strings.ToLower(strings.TrimSpace(query.Type))
	if searchType == "" {
		searchType = dashboarddomain.SearchAll
	}
	resp, err := s.dashboardSvc.Search(c.Request.Context(), dashboarddomain.SearchRequest{
		Query: strings.TrimSpace(query.Query),
		Type:  searchType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReportSummary(c *gin.Context) {
	var query struct {
		ResellerID string `form:"resellerId"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.Report(c.Request.Context(), dashboarddomain.ReportRequest{
		ResellerID: strings.TrimSpace(query.ResellerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
