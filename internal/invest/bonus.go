package invest

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// grantFirstDepositBonus credits the configured percentage of a user's first
// confirmed deposit to the account value only. Leaving withdrawable untouched
// locks the bonus by construction; the release worker merges it into the
// withdrawable pot once the bonus period has elapsed.
func grantFirstDepositBonus(tx *gorm.DB, config AppConfig, user User, depositUSD float64, now time.Time) error {
	if config.FirstDepositBonusPercentage <= 0 {
		return nil
	}
	bonus := RoundFloat(depositUSD*config.FirstDepositBonusPercentage/100, 2)
	if bonus <= 0 {
		return nil
	}
	record := RewardRecord{
		UserId:       user.Id,
		SourceUserId: user.Id,
		Type:         RewardFirstDeposit,
		Amount:       bonus,
		Released:     false,
		StartDate:    now,
		ReleaseAfter: now.AddDate(0, 0, int(config.FirstDepositBonusPeriodDays)),
	}
	if res := tx.Create(&record); res.Error != nil {
		return res.Error
	}
	_, err := ApplyDeltas(tx, user.Id,
		Delta{Field: FieldAssetValue, Amount: bonus, Reason: RewardFirstDeposit},
	)
	return err
}

// ReleaseMaturedDepositBonuses merges matured first-deposit bonuses into the
// withdrawable balance and flips their Released flag, one transaction per
// record so a retry never double-credits.
func ReleaseMaturedDepositBonuses(db *gorm.DB, now time.Time) (released int, firstErr error) {
	var due []RewardRecord
	res := db.Where("type = ? AND released = ? AND release_after <= ?", RewardFirstDeposit, false, now).Find(&due)
	if res.Error != nil {
		return 0, res.Error
	}
	for _, record := range due {
		err := db.Transaction(func(tx *gorm.DB) error {
			var locked RewardRecord
			if res := forUpdate(tx).Where("id = ?", record.Id).First(&locked); res.Error != nil {
				return res.Error
			}
			if locked.Released {
				return nil
			}
			if _, err := ApplyDeltas(tx, locked.UserId,
				Delta{Field: FieldWithdrawable, Amount: locked.Amount, Reason: RewardFirstDeposit},
			); err != nil {
				return err
			}
			locked.Released = true
			return tx.Save(&locked).Error
		})
		if err != nil {
			fmt.Printf("[Bonus] release failed for record %d: %v\n", record.Id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		released++
	}
	return released, firstErr
}

// grantUplineDepositReward pays the direct inviter a flat bonus when an
// invitee's confirmed deposit reaches the inviter tier's minimum threshold.
func grantUplineDepositReward(tx *gorm.DB, depositor User, depositUSD float64, now time.Time) error {
	ancestors, err := Upline(tx, depositor, 1)
	if err != nil || len(ancestors) == 0 {
		return err
	}
	inviter := ancestors[0]
	tier, err := UserTier(tx, inviter)
	if err != nil {
		if err == ErrNoMatchingTier {
			return nil // inviter outside every bracket earns nothing
		}
		return err
	}
	if tier.UplineDepositReward <= 0 || depositUSD < tier.MinDepositForUplineReward {
		return nil
	}
	record := RewardRecord{
		UserId:       inviter.Id,
		SourceUserId: depositor.Id,
		Type:         RewardUplineDeposit,
		Amount:       tier.UplineDepositReward,
		Released:     true,
		StartDate:    now,
	}
	if res := tx.Create(&record); res.Error != nil {
		return res.Error
	}
	_, err = CreditReward(tx, inviter.Id, tier.UplineDepositReward, RewardUplineDeposit)
	return err
}

// grantPromotionReward pays the flat promotion bonus the first time a user's
// derived tier reaches a level. Earlier promotion records gate re-payment.
func grantPromotionReward(tx *gorm.DB, user User, now time.Time) error {
	// Reload: the caller may have credited balances after fetching the user.
	var current User
	if res := tx.Where("id = ?", user.Id).First(&current); res.Error != nil {
		return res.Error
	}
	tier, err := UserTier(tx, current)
	if err != nil {
		if err == ErrNoMatchingTier {
			return nil
		}
		return err
	}
	if tier.PromotionReward <= 0 {
		return nil
	}
	var count int64
	res := tx.Model(&RewardRecord{}).
		Where("user_id = ? AND type = ? AND level >= ?", current.Id, RewardPromotion, tier.Level).
		Count(&count)
	if res.Error != nil {
		return res.Error
	}
	if count > 0 {
		return nil
	}
	record := RewardRecord{
		UserId:       current.Id,
		SourceUserId: current.Id,
		Type:         RewardPromotion,
		Level:        tier.Level,
		Amount:       tier.PromotionReward,
		Released:     true,
		StartDate:    now,
	}
	if res := tx.Create(&record); res.Error != nil {
		return res.Error
	}
	_, err = CreditReward(tx, current.Id, tier.PromotionReward, RewardPromotion)
	return err
}
