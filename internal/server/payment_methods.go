package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentmethoddomain "github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
)

type paymentMethodRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required"`
	AccountNumber string `json:"accountNumber"`
	AccountHolder string `json:"accountHolder"`
	Logo          string `json:"logo"`
}

func (r paymentMethodRequest) toDomain() paymentmethoddomain.Request {
	return paymentmethoddomain.Request{
		Name:          strings.TrimSpace(r.Name),
		Type:          strings.TrimSpace(r.Type),
		AccountNumber: strings.TrimSpace(r.AccountNumber),
		AccountHolder: strings.TrimSpace(r.AccountHolder),
		Logo:          strings.TrimSpace(r.Logo),
	}
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	resp, err := s.paymentMethodSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentMethod(c *gin.Context) {
	resp, err := s.paymentMethodSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentMethodSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "payment_method.create", "payment_method", resp.ID.String(), map[string]any{"name": resp.Name, "type": resp.Type})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdatePaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentMethodSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "payment_method.update", "payment_method", resp.ID.String(), map[string]any{"name": resp.Name, "type": resp.Type})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePaymentMethod(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.paymentMethodSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "payment_method.delete", "payment_method", id, nil)
	c.Status(http.StatusNoContent)
}
