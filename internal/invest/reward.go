package invest

import "time"

const (
	RewardDailyTask      = "daily_task"
	RewardTeamCommission = "team_commission"
	RewardPromotion      = "promotion"
	RewardUplineDeposit  = "upline_deposit"
	RewardTrustInterest  = "trust_interest"
	RewardFirstDeposit   = "first_deposit_bonus"
)

// RewardRecord is an append-only log entry for any credited amount. Only the
// Released flag is ever touched after creation.
type RewardRecord struct {
	Id           uint      `json:"id" gorm:"primarykey"`
	UserId       uint      `json:"user_id" gorm:"index;not null"`
	SourceUserId uint      `json:"source_user_id"` // user whose activity produced the reward; for own rewards equals UserId
	Type         string    `json:"type" gorm:"index;not null"`
	Level        uint      `json:"level"` // upline level for team_commission, tier level for promotion, else 0
	Amount       float64   `json:"amount"`
	Released     bool      `json:"released" gorm:"index"`
	StartDate    time.Time `json:"start_date"`
	ReleaseAfter time.Time `json:"release_after"` // only meaningful for first_deposit_bonus
}
