package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustvest/internal/invest"
)

type completeTaskParams struct {
	TaskId uint `json:"task_id" binding:"required"`
}

// CompleteDailyTask settles one daily task: per-task reward from the derived
// tier, fanned out across the upline per the split table.
func CompleteDailyTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	app := getApp(c)
	var params completeTaskParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	config, err := invest.LoadConfig(c, app.Rdb, app.Db)
	if err != nil {
		failWith(c, err)
		return
	}
	completion, records, err := invest.CompleteDailyTask(app.Db, config, user, params.TaskId)
	if err != nil {
		failWith(c, err)
		return
	}
	invest.PublishSync(c, app.Rdb, app.Db, user.Id)
	for _, record := range records {
		if record.UserId != user.Id {
			invest.PublishSync(c, app.Rdb, app.Db, record.UserId)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"completion": completion,
		"rewards":    records,
	})
}
