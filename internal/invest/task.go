package invest

import (
	"time"

	"gorm.io/gorm"
)

const (
	TaskCompleted = 1
)

// TaskCompletion records one finished daily task. The day's completions gate
// the tier quota.
type TaskCompletion struct {
	Id           uint      `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time `json:"created_at"`
	UserId       uint      `json:"user_id" gorm:"index;not null"`
	TaskId       uint      `json:"task_id" gorm:"index"`
	Status       uint      `json:"status"`
	RewardAmount float64   `json:"reward_amount"`
}

func countTasksToday(db *gorm.DB, userId uint, now time.Time) (int64, error) {
	var count int64
	res := db.Model(&TaskCompletion{}).
		Where("user_id = ? AND created_at >= ?", userId, startOfDay(now)).
		Count(&count)
	return count, res.Error
}

// CompleteDailyTask pays one daily task. The reward is the tier's daily
// percentage divided by the allowed task count, applied to the account value
// as it stands at completion time, then fanned out through the split table.
// Completion record, every credit and every reward record commit together.
func CompleteDailyTask(db *gorm.DB, config AppConfig, user User, taskId uint) (TaskCompletion, []RewardRecord, error) {
	tier, err := UserTier(db, user)
	if err != nil {
		return TaskCompletion{}, nil, err
	}
	now := time.Now()
	done, err := countTasksToday(db, user.Id, now)
	if err != nil {
		return TaskCompletion{}, nil, err
	}
	if done >= int64(tier.DailyTasksCountAllowed) {
		return TaskCompletion{}, nil, ErrTaskQuotaReached
	}
	// Re-read the balance: account value may have moved since task start.
	var fresh User
	if res := db.Where("id = ?", user.Id).First(&fresh); res.Error != nil {
		return TaskCompletion{}, nil, res.Error
	}
	reward := PerTaskReward(tier, fresh.TotalAssetValue)
	completion := TaskCompletion{
		UserId:       user.Id,
		TaskId:       taskId,
		Status:       TaskCompleted,
		RewardAmount: reward,
	}
	var records []RewardRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		if res := tx.Create(&completion); res.Error != nil {
			return res.Error
		}
		records, err = Distribute(tx, config.Split, fresh, reward)
		return err
	})
	if err != nil {
		return TaskCompletion{}, nil, err
	}
	return completion, records, nil
}
