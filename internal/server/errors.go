package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/authorization"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	dashboarddomain "github.com/smallbiznis/cicilan/internal/dashboard/domain"
	"github.com/smallbiznis/cicilan/internal/ledger"
	obslogger "github.com/smallbiznis/cicilan/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	paymentmethoddomain "github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
	"github.com/smallbiznis/cicilan/internal/providers/storage"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError {
			obslogger.FromContext(c.Request.Context()).Error("request failed",
				zap.String("route", c.FullPath()),
				zap.Error(lastErr.Err),
			)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog feeds error_type and error_code into the request log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" {
		code = http.StatusText(status)
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, usercontext.ErrUnauthenticated),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, usercontext.ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, paymentdomain.ErrInvalidStateTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state_transition",
			Code:    paymentdomain.ErrInvalidStateTransition.Error(),
			Message: "payment is no longer in process",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case errors.Is(err, paymentdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	ledger.ErrInvalidWeekNumbers,
	ledger.ErrInvalidAmount,
	authdomain.ErrInvalidID,
	authdomain.ErrInvalidEmail,
	authdomain.ErrInvalidName,
	authdomain.ErrInvalidRole,
	authdomain.ErrWeakPassword,
	authdomain.ErrPasswordReused,
	authdomain.ErrCannotDeleteSelf,
	catalogdomain.ErrInvalidID,
	catalogdomain.ErrInvalidName,
	catalogdomain.ErrInvalidPricePerWeek,
	catalogdomain.ErrInvalidTenor,
	catalogdomain.ErrInvalidPackageType,
	paymentmethoddomain.ErrInvalidID,
	paymentmethoddomain.ErrInvalidName,
	paymentmethoddomain.ErrInvalidType,
	transactiondomain.ErrInvalidID,
	transactiondomain.ErrInvalidCustomerName,
	transactiondomain.ErrInvalidReseller,
	transactiondomain.ErrInvalidPageToken,
	paymentdomain.ErrInvalidID,
	paymentdomain.ErrInvalidStatus,
	paymentdomain.ErrInvalidPaymentMethod,
	paymentdomain.ErrInvalidPageToken,
	dashboarddomain.ErrInvalidQuery,
	dashboarddomain.ErrInvalidSearchType,
	dashboarddomain.ErrInvalidReseller,
	auditdomain.ErrInvalidPageToken,
	pagination.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
	storage.ErrEmptyFile,
	storage.ErrFileTooLarge,
	storage.ErrUnsupportedFormat,
	storage.ErrInvalidUploadScope,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var conflictErrors = []error{
	ErrConflict,
	authdomain.ErrUserExists,
	catalogdomain.ErrPackageTypeExists,
	catalogdomain.ErrPackageTypeInUse,
	paymentdomain.ErrWeekAlreadyPaid,
	paymentdomain.ErrWeekReserved,
	paymentdomain.ErrIdempotencyKeyReused,
}

func isConflictError(err error) bool {
	return conflictCode(err) != ""
}

func conflictCode(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ""
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, catalogdomain.ErrPackageNotFound),
		errors.Is(err, catalogdomain.ErrPackageTypeNotFound),
		errors.Is(err, paymentmethoddomain.ErrNotFound),
		errors.Is(err, transactiondomain.ErrTransactionNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "invalid_request"
}

var validationFields = map[string]string{
	"invalid_request":        "request",
	"invalid_week_numbers":   "weekNumbers",
	"invalid_amount":         "amount",
	"invalid_customer_name":  "customerName",
	"invalid_reseller":       "resellerId",
	"invalid_page_token":     "page_token",
	"invalid_price_per_week": "pricePerWeek",
	"invalid_package_type":   "packageTypeId",
	"invalid_payment_method": "paymentMethod",
	"invalid_search_type":    "type",
	"invalid_query":          "q",
	"invalid_time_range":     "start_at",
	"weak_password":          "password",
	"password_reused":        "password",
	"cannot_delete_self":     "id",
	"empty_file":             "file",
	"file_too_large":         "file",
	"unsupported_file_type":  "file",
	"invalid_upload_scope":   "scope",
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	return strings.TrimPrefix(code, "invalid_")
}

var validationMessages = map[string]string{
	"invalid_request":       "invalid request",
	"invalid_week_numbers":  "week numbers must be distinct and within the tenor",
	"invalid_amount":        "amount must equal the number of weeks times the weekly price",
	"weak_password":         "password is too short",
	"password_reused":       "new password must be different",
	"cannot_delete_self":    "you cannot delete your own account",
	"empty_file":            "file is empty",
	"file_too_large":        "file is too large",
	"unsupported_file_type": "only jpeg, png and webp images are accepted",
}

func validationErrorMessage(code string) string {
	if message, ok := validationMessages[code]; ok {
		return message
	}
	return "invalid value"
}
