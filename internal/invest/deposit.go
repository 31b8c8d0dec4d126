package invest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"trustvest/internal/chain"
)

// RequestDeposit opens an unconfirmed deposit record against a system wallet
// drawn at random from the chain's pool. The wallet is marked in use and
// stays that way: the pool is single-use and replenished by the admin.
func RequestDeposit(db *gorm.DB, user User, chainName string, token string) (Transaction, CentralWallet, error) {
	var wallet CentralWallet
	var record Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		res := forUpdate(tx).
			Where("chain = ? AND is_in_use = ?", chainName, false).
			Order("RANDOM()").
			First(&wallet)
		if res.Error != nil {
			if res.Error == gorm.ErrRecordNotFound {
				return ErrWalletPoolExhausted
			}
			return res.Error
		}
		wallet.IsInUse = true
		if res := tx.Save(&wallet); res.Error != nil {
			return res.Error
		}
		record = Transaction{
			OrderId:       uuid.NewString(),
			Type:          TxDeposit,
			Status:        TxPending,
			ToUserId:      user.Id,
			ToAddress:     wallet.Address,
			Chain:         chainName,
			Token:         token,
			TransactionId: TxIdNotSet,
			StartDate:     time.Now(),
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return Transaction{}, CentralWallet{}, err
	}
	return record, wallet, nil
}

// ConfirmDeposit takes the observed on-chain hash for a pending deposit,
// verifies it, prices the moved amount and finalizes the record. Verifier
// errors are transient and leave the record pending; an unconfirmed chain
// status is reported as ErrTransactionNotStarted with no state change.
func ConfirmDeposit(ctx context.Context, db *gorm.DB, rdb *redis.Client, verifier chain.Verifier, pricer chain.Pricer, recordId uint, transactionId string) (Transaction, error) {
	var record Transaction
	res := db.Where("id = ? AND type = ?", recordId, TxDeposit).First(&record)
	if res.Error != nil {
		return Transaction{}, res.Error
	}
	if record.Status == TxSuccess {
		return record, nil // already settled, idempotent
	}
	if record.Status != TxPending {
		return Transaction{}, ErrBadState
	}
	details, err := verifier.GetTxDetails(ctx, transactionId, record.Chain)
	if err != nil {
		return Transaction{}, err
	}
	switch details.Status {
	case chain.StatusConfirmed:
	case chain.StatusFailed:
		return Transaction{}, ErrTransactionFailed
	default:
		return Transaction{}, ErrTransactionNotStarted
	}
	// The transfer must have paid the wallet drawn for this deposit, not just
	// any address the chain confirms.
	if !strings.EqualFold(details.ToAddress, record.ToAddress) {
		return Transaction{}, ErrWrongDepositAddress
	}
	price, _, err := pricer.LatestPrice(ctx, record.Token)
	if err != nil {
		return Transaction{}, err
	}
	amountUSD := RoundFloat(details.Amount*price, 2)
	if amountUSD <= 0 {
		return Transaction{}, ErrTransactionFailed
	}
	config, err := LoadConfig(ctx, rdb, db)
	if err != nil {
		return Transaction{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Reload under lock so two confirm calls cannot both settle.
		res := forUpdate(tx).Where("id = ?", record.Id).First(&record)
		if res.Error != nil {
			return res.Error
		}
		if record.Status != TxPending {
			return ErrBadState
		}
		// One on-chain transfer settles one deposit. The locked lookup keeps
		// two confirm calls for different records from sharing a hash.
		var used int64
		res = tx.Model(&Transaction{}).
			Where("type = ? AND status = ? AND transaction_id = ? AND id <> ?",
				TxDeposit, TxSuccess, transactionId, record.Id).
			Count(&used)
		if res.Error != nil {
			return res.Error
		}
		if used > 0 {
			return ErrTransactionUsed
		}
		isFirst, err := isFirstDeposit(tx, record.ToUserId)
		if err != nil {
			return err
		}
		now := time.Now()
		record.Status = TxSuccess
		record.TransactionId = transactionId
		record.FromAddress = details.FromAddress
		record.AmountInUSD = amountUSD
		record.ReleaseDate = &now
		if res := tx.Save(&record); res.Error != nil {
			return res.Error
		}
		user, err := ApplyDeltas(tx, record.ToUserId,
			Delta{Field: FieldAssetValue, Amount: amountUSD, Reason: "deposit"},
			Delta{Field: FieldWithdrawable, Amount: amountUSD, Reason: "deposit"},
		)
		if err != nil {
			return err
		}
		if user.Status == StatusPending {
			user.Status = StatusActive
			if res := tx.Save(&user); res.Error != nil {
				return res.Error
			}
		}
		if isFirst {
			if err := grantFirstDepositBonus(tx, config, user, amountUSD, now); err != nil {
				return err
			}
		}
		if err := grantUplineDepositReward(tx, user, amountUSD, now); err != nil {
			return err
		}
		return grantPromotionReward(tx, user, now)
	})
	if err != nil {
		return Transaction{}, err
	}

	msg := fmt.Sprintf(
		`DEPOSIT CONFIRMED [Order: %s]
User: %d
Amount: %s USD`,
		EscapeMarkdownV2(record.OrderId),
		record.ToUserId,
		EscapeMarkdownV2(fmt.Sprintf("%.2f", record.AmountInUSD)),
	)
	if err := SendTelegramMessage(msg, "finance"); err != nil {
		fmt.Println("[Deposit] telegram notify:", err)
	}
	return record, nil
}

func isFirstDeposit(tx *gorm.DB, userId uint) (bool, error) {
	var count int64
	res := tx.Model(&Transaction{}).
		Where("type = ? AND status = ? AND to_user_id = ?", TxDeposit, TxSuccess, userId).
		Count(&count)
	return count == 0, res.Error
}

// ConfirmPendingDeposits is the worker sweep over pending deposits that
// already carry an on-chain hash: users sometimes supply the hash before the
// chain confirms, and this loop settles them once it does.
func ConfirmPendingDeposits(ctx context.Context, db *gorm.DB, rdb *redis.Client, verifier chain.Verifier, pricer chain.Pricer) {
	var pending []Transaction
	res := db.Where("type = ? AND status = ? AND transaction_id <> ?", TxDeposit, TxPending, TxIdNotSet).Find(&pending)
	if res.Error != nil {
		fmt.Println("[Deposit] pending sweep:", res.Error)
		return
	}
	for _, record := range pending {
		if _, err := ConfirmDeposit(ctx, db, rdb, verifier, pricer, record.Id, record.TransactionId); err != nil {
			if err != ErrTransactionNotStarted {
				fmt.Printf("[Deposit] confirm %d: %v\n", record.Id, err)
			}
		}
	}
}
