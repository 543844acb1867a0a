package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
)

const headerIdempotencyKey = "Idempotency-Key"

type submitPaymentRequest struct {
	TransactionID  string           `json:"transactionId" binding:"required"`
	WeekNumbers    []int            `json:"weekNumbers" binding:"required"`
	PaymentMethod  string           `json:"paymentMethod" binding:"required"`
	Amount         *decimal.Decimal `json:"amount"`
	BankName       string           `json:"bankName"`
	ProofImage     string           `json:"proofImage"`
	Note           string           `json:"note"`
	IdempotencyKey string           `json:"idempotencyKey"`
}

type rejectPaymentRequest struct {
	Note string `json:"note"`
}

func (s *Server) SubmitPayment(c *gin.Context) {
	var req submitPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	resp, err := s.paymentSvc.Submit(c.Request.Context(), paymentdomain.SubmitRequest{
		TransactionID:  strings.TrimSpace(req.TransactionID),
		WeekNumbers:    req.WeekNumbers,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		Amount:         amount,
		BankName:       strings.TrimSpace(req.BankName),
		ProofImage:     strings.TrimSpace(req.ProofImage),
		Note:           strings.TrimSpace(req.Note),
		IdempotencyKey: key,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("payment_id", resp.ID.String())
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status        string `form:"status"`
		ResellerID    string `form:"resellerId"`
		TransactionID string `form:"transactionId"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListRequest{
		Pagination:    query.Pagination,
		Status:        strings.TrimSpace(query.Status),
		ResellerID:    strings.TrimSpace(query.ResellerID),
		TransactionID: strings.TrimSpace(query.TransactionID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payments, "page_info": resp.PageInfo})
}

func (s *Server) GetPayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("payment_id", id)

	resp, err := s.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("payment_id", id)

	receipt, err := s.paymentSvc.Receipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+receipt.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", receipt.Content)
}

func (s *Server) ConfirmPayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("payment_id", id)

	resp, err := s.paymentSvc.Confirm(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectPayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set("payment_id", id)

	var req rejectPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	resp, err := s.paymentSvc.Reject(c.Request.Context(), id, strings.TrimSpace(req.Note))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
