package invest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDbSeq uint64

// newTestDb opens a fresh in-memory database per test. The shared-cache name
// keeps all pooled connections on the same database.
func newTestDb(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("trustvest_test_%d", atomic.AddUint64(&testDbSeq, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, inviterCode string, asset, withdrawable float64) User {
	t.Helper()
	user, err := CreateUser(db, fmt.Sprintf("u%d@example.com", atomic.AddUint64(&testDbSeq, 1)), RoleUser, inviterCode)
	require.NoError(t, err)
	user.Status = StatusActive
	user.TotalAssetValue = asset
	user.TotalWithdrawable = withdrawable
	require.NoError(t, db.Save(&user).Error)
	return user
}

// seedTiers installs a three-bracket table covering all account values.
func seedTiers(t *testing.T, db *gorm.DB) []Tier {
	t.Helper()
	tiers := []Tier{
		{
			Level:                      1,
			StartAccountValue:          0,
			EndAccountValue:            100,
			DailyTasksCountAllowed:     3,
			DailyTasksRewardPercentage: 6,
		},
		{
			Level:                      2,
			StartAccountValue:          100,
			EndAccountValue:            5000,
			DailyTasksCountAllowed:     5,
			DailyTasksRewardPercentage: 10,
			PromotionReward:            10,
			UplineDepositReward:        5,
			MinDepositForUplineReward:  100,
		},
		{
			Level:                      3,
			StartAccountValue:          5000,
			DailyTasksCountAllowed:     6,
			DailyTasksRewardPercentage: 12,
			PromotionReward:            50,
			UplineDepositReward:        20,
			MinDepositForUplineReward:  500,
		},
	}
	for i := range tiers {
		require.NoError(t, db.Create(&tiers[i]).Error)
	}
	return tiers
}

func seedConfig(t *testing.T, db *gorm.DB) AppConfig {
	t.Helper()
	config := DefaultAppConfig
	require.NoError(t, db.Save(&config).Error)
	return config
}

func reload(t *testing.T, db *gorm.DB, userId uint) User {
	t.Helper()
	var user User
	require.NoError(t, db.Where("id = ?", userId).First(&user).Error)
	return user
}
