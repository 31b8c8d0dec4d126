package invest

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Distribute fans a base reward out across the beneficiary and up to three
// upline ancestors according to the split table. Shares of missing upline
// levels roll back to the beneficiary, so the credited total always equals
// baseAmount exactly. The whole fan-out runs inside one transaction: either
// every credit and record lands, or none do.
func Distribute(db *gorm.DB, split SplitTable, beneficiary User, baseAmount float64) ([]RewardRecord, error) {
	if err := split.Validate(); err != nil {
		return nil, err
	}
	if baseAmount <= 0 {
		return nil, nil
	}
	ancestors, err := Upline(db, beneficiary, MaxUplineDepth)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	uplineShares := make([]float64, 0, len(ancestors))
	uplineTotal := float64(0)
	for lvl := 1; lvl <= len(ancestors); lvl++ {
		share := RoundFloat(baseAmount*split.LevelPercent(lvl)/100, 2)
		uplineShares = append(uplineShares, share)
		uplineTotal = RoundFloat(uplineTotal+share, 2)
	}
	// The shares of missing upline levels roll back to the beneficiary as a
	// second own-balance record. The remainder is computed by subtraction so
	// the fan-out stays conservative under rounding.
	for lvl := len(ancestors) + 1; lvl <= MaxUplineDepth; lvl++ {
		uplineTotal = RoundFloat(uplineTotal+RoundFloat(baseAmount*split.LevelPercent(lvl)/100, 2), 2)
	}
	rolled := RoundFloat(uplineTotal, 2)
	for i := range uplineShares {
		rolled = RoundFloat(rolled-uplineShares[i], 2)
	}
	selfShare := RoundFloat(baseAmount-uplineTotal, 2)

	var records []RewardRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		selfRecord := RewardRecord{
			UserId:       beneficiary.Id,
			SourceUserId: beneficiary.Id,
			Type:         RewardDailyTask,
			Amount:       selfShare,
			Released:     true,
			StartDate:    now,
		}
		if res := tx.Create(&selfRecord); res.Error != nil {
			return res.Error
		}
		if _, err := CreditReward(tx, beneficiary.Id, selfShare, RewardDailyTask); err != nil {
			return err
		}
		records = append(records, selfRecord)
		if rolled > 0 {
			rolledRecord := RewardRecord{
				UserId:       beneficiary.Id,
				SourceUserId: beneficiary.Id,
				Type:         RewardDailyTask,
				Amount:       rolled,
				Released:     true,
				StartDate:    now,
			}
			if res := tx.Create(&rolledRecord); res.Error != nil {
				return res.Error
			}
			if _, err := CreditReward(tx, beneficiary.Id, rolled, RewardDailyTask); err != nil {
				return err
			}
			records = append(records, rolledRecord)
		}
		for i, ancestor := range ancestors {
			lvl := uint(i + 1)
			commission := RewardRecord{
				UserId:       ancestor.Id,
				SourceUserId: beneficiary.Id,
				Type:         RewardTeamCommission,
				Level:        lvl,
				Amount:       uplineShares[i],
				Released:     true,
				StartDate:    now,
			}
			if res := tx.Create(&commission); res.Error != nil {
				return res.Error
			}
			if _, err := CreditReward(tx, ancestor.Id, uplineShares[i], RewardTeamCommission); err != nil {
				return err
			}
			records = append(records, commission)
		}
		return nil
	})
	if err != nil {
		fmt.Println("[Distribute] rolled back:", err)
		return nil, err
	}
	return records, nil
}
