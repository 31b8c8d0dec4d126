package invest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const configCacheKey = "app_config"

// AppConfig is the single global settings row. Every money-moving request
// loads one snapshot up front and carries it through guard checks and ledger
// mutations; a missing row is fatal for the request.
type AppConfig struct {
	Id                          uint       `json:"id" gorm:"primarykey"`
	UpdatedAt                   time.Time  `json:"updated_at"`
	TransferFee                 float64    `json:"transfer_fee"` // percent of the transferred amount
	DailyTransferMaxLimit       float64    `json:"daily_transfer_max_limit"`
	DailyNumOfTransferLimit     int64      `json:"daily_num_of_transfer_limit"`
	WithdrawMaxLimit            float64    `json:"withdraw_max_limit"`
	WithdrawPeriodHours         int64      `json:"withdraw_period_hours"`
	FirstDepositBonusPercentage float64    `json:"first_deposit_bonus_percentage"`
	FirstDepositBonusPeriodDays int64      `json:"first_deposit_bonus_period_days"`
	Split                       SplitTable `json:"split" gorm:"embedded;embeddedPrefix:split_"`
}

// SplitTable drives the reward fan-out. Percentages must sum to exactly 100.
type SplitTable struct {
	SelfPercent     float64 `json:"self_percent"`
	LvlOnePercent   float64 `json:"lvl_one_percent"`
	LvlTwoPercent   float64 `json:"lvl_two_percent"`
	LvlThreePercent float64 `json:"lvl_three_percent"`
}

func (s SplitTable) Validate() error {
	if RoundFloat(s.SelfPercent+s.LvlOnePercent+s.LvlTwoPercent+s.LvlThreePercent, 2) != 100 {
		return ErrBadSplitTable
	}
	return nil
}

func (s SplitTable) LevelPercent(lvl int) float64 {
	switch lvl {
	case 1:
		return s.LvlOnePercent
	case 2:
		return s.LvlTwoPercent
	case 3:
		return s.LvlThreePercent
	}
	return 0
}

var DefaultAppConfig = AppConfig{
	Id:                          1,
	TransferFee:                 1,
	DailyTransferMaxLimit:       5000,
	DailyNumOfTransferLimit:     5,
	WithdrawMaxLimit:            10000,
	WithdrawPeriodHours:         24,
	FirstDepositBonusPercentage: 5,
	FirstDepositBonusPeriodDays: 30,
	Split: SplitTable{
		SelfPercent:     72,
		LvlOnePercent:   18,
		LvlTwoPercent:   7,
		LvlThreePercent: 3,
	},
}

// LoadConfig returns a per-request snapshot: redis first, db on a miss.
func LoadConfig(ctx context.Context, rdb *redis.Client, db *gorm.DB) (AppConfig, error) {
	var config AppConfig
	if rdb != nil {
		cached, _ := rdb.Get(ctx, configCacheKey).Result()
		if len(cached) > 0 {
			if err := json.Unmarshal([]byte(cached), &config); err == nil {
				return config, nil
			}
		}
	}
	res := db.Where("id = ?", 1).First(&config)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return AppConfig{}, ErrMissingConfig
		}
		return AppConfig{}, res.Error
	}
	if err := config.Split.Validate(); err != nil {
		return AppConfig{}, err
	}
	if rdb != nil {
		raw, _ := json.Marshal(config)
		rdb.Set(ctx, configCacheKey, raw, 0)
	}
	return config, nil
}

// SaveConfig persists an admin update and refreshes the redis snapshot so
// new requests pick it up; in-flight requests keep the snapshot they loaded.
func SaveConfig(ctx context.Context, rdb *redis.Client, db *gorm.DB, config AppConfig) error {
	if err := config.Split.Validate(); err != nil {
		return err
	}
	config.Id = 1
	res := db.Save(&config)
	if res.Error != nil {
		return res.Error
	}
	if rdb != nil {
		raw, _ := json.Marshal(config)
		rdb.Set(ctx, configCacheKey, raw, 0)
	}
	return nil
}
