package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type registerParams struct {
	Email          string `json:"email"`
	InvitationCode string `json:"invitation_code"` // inviter's code; empty only for the root account
}

// Register provisions a platform account for a token the identity service
// has already issued. Idempotent: an existing row is returned as-is.
func Register(c *gin.Context) {
	app := getApp(c)
	userId := c.GetUint("user_id")
	role := c.GetString("role")

	var existing invest.User
	res := app.Db.Where("id = ?", userId).First(&existing)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusOK, existing.Data())
		return
	}
	var params registerParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := invest.CreateUser(app.Db, params.Email, role, params.InvitationCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invitation code"})
		return
	}
	c.JSON(http.StatusOK, user.Data())
}

func GetUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	data := user.Data()
	if tier, err := invest.UserTier(app.Db, user); err == nil {
		data.TierLevel = tier.Level
	}
	c.JSON(http.StatusOK, data)
}

func GetRewards(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	var rewards []invest.RewardRecord
	app.Db.Where("user_id = ?", user.Id).
		Order("start_date DESC").
		Find(&rewards)
	c.JSON(http.StatusOK, paginateRewards(rewards, page, size))
}
