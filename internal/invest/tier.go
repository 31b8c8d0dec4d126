package invest

import (
	"time"

	"gorm.io/gorm"
)

// Tier is a VIP bracket. Range ends of 0 are unbounded. A user's effective
// tier is always derived from current account value and active downline
// count, never stored on the user row.
type Tier struct {
	Id                         uint      `json:"id" gorm:"primarykey"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
	Level                      uint      `gorm:"uniqueIndex;not null" json:"level"`
	StartAccountValue          float64   `json:"start_account_value"`
	EndAccountValue            float64   `json:"end_account_value"` // 0 = unbounded
	StartActiveMembers         uint      `json:"start_active_members"`
	EndActiveMembers           uint      `json:"end_active_members"` // 0 = unbounded
	DailyTasksCountAllowed     uint      `json:"daily_tasks_count_allowed"`
	DailyTasksRewardPercentage float64   `json:"daily_tasks_reward_percentage"` // percent of account value across a full day of tasks
	PromotionReward            float64   `json:"promotion_reward"`
	UplineDepositReward        float64   `json:"upline_deposit_reward"`
	MinDepositForUplineReward  float64   `json:"min_deposit_for_upline_reward"`
}

func (t Tier) contains(accountValue float64, activeMembers uint) bool {
	if accountValue < t.StartAccountValue {
		return false
	}
	if t.EndAccountValue > 0 && accountValue >= t.EndAccountValue {
		return false
	}
	if activeMembers < t.StartActiveMembers {
		return false
	}
	if t.EndActiveMembers > 0 && activeMembers >= t.EndActiveMembers {
		return false
	}
	return true
}

// ResolveTier returns the highest tier whose both ranges contain the inputs.
// Tiers are scanned ascending by level, so contiguous configs resolve
// deterministically. ErrNoMatchingTier means the admin-configured table has
// a hole, which money-moving paths treat as fatal.
func ResolveTier(tiers []Tier, accountValue float64, activeMembers uint) (Tier, error) {
	found := false
	var best Tier
	for _, tier := range tiers {
		if tier.contains(accountValue, activeMembers) {
			if !found || tier.Level > best.Level {
				best = tier
				found = true
			}
		}
	}
	if !found {
		return Tier{}, ErrNoMatchingTier
	}
	return best, nil
}

// UserTier derives the effective tier for a user at evaluation time.
func UserTier(db *gorm.DB, user User) (Tier, error) {
	var tiers []Tier
	res := db.Order("level ASC").Find(&tiers)
	if res.Error != nil {
		return Tier{}, res.Error
	}
	active, err := ActiveMemberCount(db, user)
	if err != nil {
		return Tier{}, err
	}
	return ResolveTier(tiers, user.TotalAssetValue, active)
}

// PerTaskReward is the reward for completing one daily task: the tier's daily
// percentage split evenly across the allowed task count, applied to the
// account value at completion time.
func PerTaskReward(tier Tier, accountValue float64) float64 {
	if tier.DailyTasksCountAllowed == 0 {
		return 0
	}
	perTaskPct := tier.DailyTasksRewardPercentage / float64(tier.DailyTasksCountAllowed)
	return RoundFloat(accountValue*perTaskPct/100, 2)
}
