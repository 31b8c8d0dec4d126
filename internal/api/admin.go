package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

// Admin operations are a closed set of endpoints, each with its own typed
// payload and validation. There is no string-keyed action dispatch.

type approveWithdrawalParams struct {
	TransactionId string `json:"transaction_id" binding:"required"`
}

type finalizeWithdrawalParams struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

type addWalletParams struct {
	Chain   string `json:"chain" binding:"required"`
	Address string `json:"address" binding:"required"`
}

func withdrawalId(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func ApproveWithdrawal(c *gin.Context) {
	app := getApp(c)
	id, ok := withdrawalId(c)
	if !ok {
		return
	}
	var params approveWithdrawalParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := invest.ApproveWithdrawal(c, app.Db, app.Verifier, id, params.TransactionId)
	if err != nil {
		failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func FinalizeWithdrawal(c *gin.Context) {
	app := getApp(c)
	id, ok := withdrawalId(c)
	if !ok {
		return
	}
	var params finalizeWithdrawalParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := invest.FinalizeWithdrawal(app.Db, id, params.Success, params.Reason)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, record.FromUserId)
	c.JSON(http.StatusOK, record)
}

func GetConfig(c *gin.Context) {
	app := getApp(c)
	config, err := invest.LoadConfig(c, app.Rdb, app.Db)
	if err != nil {
		failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func UpdateConfig(c *gin.Context) {
	app := getApp(c)
	var config invest.AppConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := invest.SaveConfig(c, app.Rdb, app.Db, config); err != nil {
		failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// UpsertTier creates or replaces one tier row keyed by level.
func UpsertTier(c *gin.Context) {
	app := getApp(c)
	var tier invest.Tier
	if err := c.ShouldBindJSON(&tier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var existing invest.Tier
	res := app.Db.Where("level = ?", tier.Level).First(&existing)
	if res.RowsAffected == 1 {
		tier.Id = existing.Id
	}
	if res := app.Db.Save(&tier); res.Error != nil {
		failWith(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, tier)
}

// UpsertTrustPlan creates or replaces one plan row keyed by name.
func UpsertTrustPlan(c *gin.Context) {
	app := getApp(c)
	var plan invest.TrustPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if plan.DurationDays < 1 || plan.DailyInterestRate < 0 || plan.MinAmount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}
	var existing invest.TrustPlan
	res := app.Db.Where("name = ?", plan.Name).First(&existing)
	if res.RowsAffected == 1 {
		plan.Id = existing.Id
	}
	if res := app.Db.Save(&plan); res.Error != nil {
		failWith(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// AddWallet replenishes the single-use deposit wallet pool.
func AddWallet(c *gin.Context) {
	app := getApp(c)
	var params addWalletParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wallet := invest.CentralWallet{
		Chain:   params.Chain,
		Address: params.Address,
	}
	if res := app.Db.Create(&wallet); res.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate address"})
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// ReleaseTrustFunds is the manual trigger for the matured-fund batch; the
// worker runs the same batch on a schedule.
func ReleaseTrustFunds(c *gin.Context) {
	app := getApp(c)
	released, err := invest.ReleaseMaturedTrustFunds(app.Db, time.Now())
	if err != nil {
		failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}
