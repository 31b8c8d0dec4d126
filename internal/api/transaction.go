package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type depositParams struct {
	Chain string `json:"chain" binding:"required"`
	Token string `json:"token" binding:"required"`
}

type confirmDepositParams struct {
	RecordId      uint   `json:"record_id" binding:"required"`
	TransactionId string `json:"transaction_id" binding:"required"`
}

type withdrawParams struct {
	Amount    float64 `json:"amount" binding:"required"`
	ToAddress string  `json:"to_address" binding:"required"`
	Chain     string  `json:"chain" binding:"required"`
	Token     string  `json:"token" binding:"required"`
}

type transferParams struct {
	ToCode  string  `json:"to_code" binding:"required"` // recipient's invitation code
	Amount  float64 `json:"amount" binding:"required"`
	Message string  `json:"message"`
}

// RequestDeposit draws a system wallet and opens an unconfirmed deposit.
func RequestDeposit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params depositParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, wallet, err := invest.RequestDeposit(app.Db, user, params.Chain, params.Token)
	if err != nil {
		failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record":          record,
		"deposit_address": wallet.Address,
	})
}

// ConfirmDeposit supplies the observed on-chain hash and settles the deposit
// once the verifier confirms it.
func ConfirmDeposit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params confirmDepositParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Ownership gates the call itself: a foreign user must not be able to
	// trigger settlement of somebody else's deposit.
	var pending invest.Transaction
	res := app.Db.Where("id = ? AND type = ?", params.RecordId, invest.TxDeposit).First(&pending)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown deposit"})
		return
	}
	if pending.ToUserId != user.Id {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your deposit"})
		return
	}
	record, err := invest.ConfirmDeposit(c, app.Db, app.Rdb, app.Verifier, app.Pricer, params.RecordId, params.TransactionId)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, user.Id)
	c.JSON(http.StatusOK, record)
}

func Withdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params withdrawParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	config, err := invest.LoadConfig(c, app.Rdb, app.Db)
	if err != nil {
		failWith(c, err)
		return
	}
	record, err := invest.RequestWithdrawal(app.Db, config, user, params.Amount, params.ToAddress, params.Chain, params.Token)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, user.Id)
	c.JSON(http.StatusOK, record)
}

func Transfer(c *gin.Context) {
	sender, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params transferParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var recipient invest.User
	res := app.Db.Where("my_invitation_code = ?", params.ToCode).First(&recipient)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown recipient"})
		return
	}
	config, err := invest.LoadConfig(c, app.Rdb, app.Db)
	if err != nil {
		failWith(c, err)
		return
	}
	record, err := invest.Transfer(app.Db, config, sender, recipient, params.Amount, params.Message)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, sender.Id)
	invest.PublishSync(c, app.Rdb, app.Db, recipient.Id)
	c.JSON(http.StatusOK, record)
}

// GetTransactionsList returns the user's transactions, newest first.
func GetTransactionsList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	var transactions []invest.Transaction
	app.Db.Where("from_user_id = ? OR to_user_id = ?", user.Id, user.Id).
		Order("start_date DESC").
		Find(&transactions)
	c.JSON(http.StatusOK, paginateTx(transactions, page, size))
}
