package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type refResponse struct {
	Stats       invest.RefData   `json:"stats"`
	ActiveTotal uint             `json:"active_members"`
	Results     PaginatedRewards `json:"commissions"`
}

// GetReferrals returns per-level commission stats plus the paginated feed of
// team commission records.
func GetReferrals(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	page, size, ok := pageParams(c)
	if !ok {
		return
	}
	active, err := invest.ActiveMemberCount(app.Db, user)
	if err != nil {
		failWith(c, err)
		return
	}
	var commissions []invest.RewardRecord
	app.Db.Where("user_id = ? AND type = ?", user.Id, invest.RewardTeamCommission).
		Order("start_date DESC").
		Find(&commissions)
	c.JSON(http.StatusOK, refResponse{
		Stats:       invest.GetRefStats(app.Db, user),
		ActiveTotal: active,
		Results:     paginateRewards(commissions, page, size),
	})
}
