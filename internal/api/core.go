package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

func getApp(c *gin.Context) *invest.App {
	return c.MustGet("app").(*invest.App)
}

// currentUser resolves the authenticated user row. Auth middleware has
// already validated the token.
func currentUser(c *gin.Context) (invest.User, bool) {
	app := getApp(c)
	userId := c.GetUint("user_id")
	var user invest.User
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown user"})
		return invest.User{}, false
	}
	if user.Status == invest.StatusSuspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
		return invest.User{}, false
	}
	return user, true
}

// failWith maps domain errors onto HTTP responses. Policy errors carry their
// message; consistency and configuration errors surface a generic failure.
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invest.ErrInsufficientFunds),
		errors.Is(err, invest.ErrInsufficientWithdrawable),
		errors.Is(err, invest.ErrDailyLimitExceeded),
		errors.Is(err, invest.ErrAmountExceedsLimit),
		errors.Is(err, invest.ErrWithdrawalInProgress),
		errors.Is(err, invest.ErrActiveWithdrawalBlocking),
		errors.Is(err, invest.ErrWithdrawCoolDown),
		errors.Is(err, invest.ErrTaskQuotaReached),
		errors.Is(err, invest.ErrTransactionNotStarted),
		errors.Is(err, invest.ErrTransactionFailed),
		errors.Is(err, invest.ErrRejectReasonRequired),
		errors.Is(err, invest.ErrBadState),
		errors.Is(err, invest.ErrWalletPoolExhausted),
		errors.Is(err, invest.ErrWrongDepositAddress),
		errors.Is(err, invest.ErrTransactionUsed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, invest.ErrMissingConfig),
		errors.Is(err, invest.ErrNoMatchingTier),
		errors.Is(err, invest.ErrBadSplitTable),
		errors.Is(err, invest.ErrInvariantViolation):
		// Operator problems: log loudly, say little.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
