package invest

import (
	"time"

	"gorm.io/gorm"
)

func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// hasWithdrawalInFlight reports whether the user has a withdrawal that has
// not been finalized yet, or one finalized with a release date in the future.
func hasWithdrawalInFlight(db *gorm.DB, userId uint) (bool, error) {
	var count int64
	res := db.Model(&Transaction{}).
		Where("type = ? AND from_user_id = ?", TxWithdraw, userId).
		Where("release_date IS NULL OR release_date > ?", time.Now()).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func countTransfersToday(db *gorm.DB, userId uint, now time.Time) (int64, error) {
	var count int64
	res := db.Model(&Transaction{}).
		Where("type = ? AND from_user_id = ? AND start_date >= ?", TxTransfer, userId, startOfDay(now)).
		Count(&count)
	return count, res.Error
}

// CheckTransferAllowed runs every transfer guard against one config snapshot.
// All checks are read-only: a failure leaves no trace.
func CheckTransferAllowed(db *gorm.DB, config AppConfig, sender User, amount float64) error {
	if amount <= 0 {
		return ErrAmountExceedsLimit
	}
	now := time.Now()
	made, err := countTransfersToday(db, sender.Id, now)
	if err != nil {
		return err
	}
	if config.DailyNumOfTransferLimit-made <= 0 {
		return ErrDailyLimitExceeded
	}
	if amount > config.DailyTransferMaxLimit {
		return ErrAmountExceedsLimit
	}
	fee := TransferFeeFor(config, amount)
	if amount > RoundFloat(sender.TotalAssetValue-sender.TotalInTrustFund-fee, 2) {
		return ErrAmountExceedsLimit
	}
	inFlight, err := hasWithdrawalInFlight(db, sender.Id)
	if err != nil {
		return err
	}
	if inFlight {
		return ErrWithdrawalInProgress
	}
	return nil
}

// CheckWithdrawAllowed validates a withdrawal request: balance, per-request
// cap, no concurrent withdrawal, and the cool-down window since the last
// successful one.
func CheckWithdrawAllowed(db *gorm.DB, config AppConfig, user User, amount float64) error {
	if amount <= 0 {
		return ErrAmountExceedsLimit
	}
	if amount > config.WithdrawMaxLimit {
		return ErrAmountExceedsLimit
	}
	if amount > user.TotalWithdrawable {
		return ErrInsufficientWithdrawable
	}
	inFlight, err := hasWithdrawalInFlight(db, user.Id)
	if err != nil {
		return err
	}
	if inFlight {
		return ErrWithdrawalInProgress
	}
	if config.WithdrawPeriodHours > 0 {
		var last Transaction
		res := db.Where("type = ? AND from_user_id = ? AND status = ?", TxWithdraw, user.Id, TxSuccess).
			Order("release_date DESC").First(&last)
		if res.Error != nil && res.Error != gorm.ErrRecordNotFound {
			return res.Error
		}
		if res.RowsAffected == 1 && last.ReleaseDate != nil {
			window := time.Duration(config.WithdrawPeriodHours) * time.Hour
			if time.Since(*last.ReleaseDate) < window {
				return ErrWithdrawCoolDown
			}
		}
	}
	return nil
}

// TransferFeeFor computes the flat fee taken from the sender on top of the
// transferred amount.
func TransferFeeFor(config AppConfig, amount float64) float64 {
	return RoundFloat(amount*config.TransferFee/100, 2)
}
