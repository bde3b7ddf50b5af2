package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"corebank/internal/common"
	"corebank/internal/server/models"
)

type singleMovementFunc func(ctx context.Context, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error)

// writeError translates service errors into HTTP status codes. Token
// problems become 401; failing an ownership or lock check on an existing
// resource is 403.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenRevoked):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrUnauthorized):
		status = http.StatusForbidden
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Store internals stay out of responses.
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func writeBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func accountView(a *models.Account) gin.H {
	return gin.H{
		"account_number": a.Number,
		"holder":         a.Holder,
		"name":           a.Name,
		"type":           string(a.Type),
		"balance":        a.Balance.StringFixed(2),
		"is_locked":      a.IsLocked,
		"created_at":     a.CreatedAt,
	}
}

func transactionView(t *models.Transaction) gin.H {
	return gin.H{
		"transaction_id": t.ID,
		"type":           string(t.Type),
		"account_from":   t.AccountFrom,
		"account_to":     t.AccountTo,
		"amount":         t.Amount.StringFixed(2),
		"description":    t.Description,
		"reference_code": t.ReferenceCode,
		"status":         string(t.Status),
		"reason":         t.Reason,
		"balance_after":  t.BalanceAfter.StringFixed(2),
		"timestamp":      t.Timestamp,
	}
}
