package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type activateTrustParams struct {
	PlanId uint    `json:"plan_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

func GetTrustPlans(c *gin.Context) {
	app := getApp(c)
	var plans []invest.TrustPlan
	app.Db.Order("duration_days ASC").Find(&plans)
	c.JSON(http.StatusOK, plans)
}

func ActivateTrustFund(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params activateTrustParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var plan invest.TrustPlan
	res := app.Db.Where("id = ?", params.PlanId).First(&plan)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	fund, err := invest.ActivateTrustFund(app.Db, user, plan, params.Amount)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, user.Id)
	c.JSON(http.StatusOK, fund)
}

func GetTrustFunds(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var funds []invest.TrustFund
	app.Db.Where("user_id = ?", user.Id).
		Order("start_date DESC").
		Find(&funds)
	c.JSON(http.StatusOK, funds)
}
