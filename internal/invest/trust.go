package invest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrustPlan struct {
	Id                uint      `json:"id" gorm:"primarykey"`
	CreatedAt         time.Time `json:"created_at"`
	Name              string    `json:"name"`
	DurationDays      int64     `json:"duration_days"`
	DailyInterestRate float64   `json:"daily_interest_rate"` // fraction per day, e.g. 0.002
	MinAmount         float64   `json:"min_amount"`
}

type TrustFund struct {
	Id                uint      `json:"id" gorm:"primarykey"`
	OrderId           string    `gorm:"uniqueIndex;not null" json:"order_id"`
	UserId            uint      `json:"user_id" gorm:"index;not null"`
	TrustPlanId       uint      `json:"trust_plan_id"`
	Amount            float64   `json:"amount"`
	DailyInterestRate float64   `json:"daily_interest_rate"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	Released          bool      `json:"released" gorm:"index"`
}

// ActivateTrustFund locks part of the withdrawable balance into a fixed-term
// package. The total asset value is unchanged: the money only moves from the
// withdrawable pot into the locked one. Activation is refused while a
// withdrawal is in flight so the same principal cannot back both.
func ActivateTrustFund(db *gorm.DB, user User, plan TrustPlan, amount float64) (TrustFund, error) {
	if amount <= 0 || amount < plan.MinAmount {
		return TrustFund{}, ErrAmountExceedsLimit
	}
	if amount > user.TotalWithdrawable {
		return TrustFund{}, ErrInsufficientWithdrawable
	}
	inFlight, err := hasWithdrawalInFlight(db, user.Id)
	if err != nil {
		return TrustFund{}, err
	}
	if inFlight {
		return TrustFund{}, ErrActiveWithdrawalBlocking
	}
	now := time.Now()
	fund := TrustFund{
		OrderId:           uuid.NewString(),
		UserId:            user.Id,
		TrustPlanId:       plan.Id,
		Amount:            amount,
		DailyInterestRate: plan.DailyInterestRate,
		StartDate:         now,
		EndDate:           now.AddDate(0, 0, int(plan.DurationDays)),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := ApplyDeltas(tx, user.Id,
			Delta{Field: FieldWithdrawable, Amount: -amount, Reason: "trust_fund_lock"},
			Delta{Field: FieldInTrustFund, Amount: amount, Reason: "trust_fund_lock"},
		); err != nil {
			return err
		}
		return tx.Create(&fund).Error
	})
	if err != nil {
		return TrustFund{}, err
	}
	return fund, nil
}

// Interest accrued over the full term.
func (f TrustFund) Interest() float64 {
	days := f.EndDate.Sub(f.StartDate).Hours() / 24
	return RoundFloat(f.Amount*f.DailyInterestRate*days, 2)
}

// ReleaseTrustFund returns principal plus accrued interest once the fund has
// matured. Calling it again after release is a no-op.
func ReleaseTrustFund(db *gorm.DB, fundId uint, now time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var fund TrustFund
		res := forUpdate(tx).Where("id = ?", fundId).First(&fund)
		if res.Error != nil {
			return res.Error
		}
		if fund.Released {
			return nil
		}
		if now.Before(fund.EndDate) {
			return ErrBadState
		}
		if _, err := ApplyDeltas(tx, fund.UserId,
			Delta{Field: FieldInTrustFund, Amount: -fund.Amount, Reason: "trust_fund_release"},
			Delta{Field: FieldWithdrawable, Amount: fund.Amount, Reason: "trust_fund_release"},
		); err != nil {
			return err
		}
		interest := fund.Interest()
		if interest > 0 {
			record := RewardRecord{
				UserId:       fund.UserId,
				SourceUserId: fund.UserId,
				Type:         RewardTrustInterest,
				Amount:       interest,
				Released:     true,
				StartDate:    now,
			}
			if res := tx.Create(&record); res.Error != nil {
				return res.Error
			}
			if _, err := CreditReward(tx, fund.UserId, interest, RewardTrustInterest); err != nil {
				return err
			}
		}
		fund.Released = true
		return tx.Save(&fund).Error
	})
}

// ReleaseMaturedTrustFunds is the batch entry point the worker runs. Each fund
// releases in its own transaction, so one bad row does not pin the rest.
func ReleaseMaturedTrustFunds(db *gorm.DB, now time.Time) (released int, firstErr error) {
	var due []TrustFund
	res := db.Where("released = ? AND end_date <= ?", false, now).Find(&due)
	if res.Error != nil {
		return 0, res.Error
	}
	for _, fund := range due {
		if err := ReleaseTrustFund(db, fund.Id, now); err != nil {
			fmt.Printf("[Trust] release failed for fund %d: %v\n", fund.Id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		released++
	}
	return released, firstErr
}
