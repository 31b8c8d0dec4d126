package invest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const MessageTargetSync = "sync"

// WsResponseData is the payload pushed over the websocket sync channel after
// money-moving events.
type WsResponseData struct {
	Target        string   `json:"target"`
	User          UserData `json:"user"`
	ReferralStats RefData  `json:"referral_stats"`
}

func SyncChannel(userId uint) string {
	return fmt.Sprintf("sync_ch@%d", userId)
}

// SyncUserStats serializes the current balances and referral stats for a
// user. Returns nil on marshal failure.
func SyncUserStats(db *gorm.DB, user User) (jsonData []byte) {
	data := WsResponseData{
		Target:        MessageTargetSync,
		User:          user.Data(),
		ReferralStats: GetRefStats(db, user),
	}
	if tier, err := UserTier(db, user); err == nil {
		data.User.TierLevel = tier.Level
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return jsonData
}

// PublishSync refreshes a user's row and pushes their stats to the sync
// channel. Best effort: delivery failures only log.
func PublishSync(ctx context.Context, rdb *redis.Client, db *gorm.DB, userId uint) {
	var user User
	if res := db.Where("id = ?", userId).First(&user); res.Error != nil {
		return
	}
	jsonData := SyncUserStats(db, user)
	if jsonData == nil {
		return
	}
	if err := rdb.Publish(ctx, SyncChannel(userId), jsonData).Err(); err != nil {
		fmt.Println("[Sync] publish:", err)
	}
}
