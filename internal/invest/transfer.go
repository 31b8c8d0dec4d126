package invest

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transfer moves funds between two platform users synchronously: no on-chain
// leg, no pending phase. Sender pays the amount plus the configured fee out
// of the unlocked part of the account value; the recipient receives the
// amount as spendable balance. Both legs and the audit record commit as one
// transaction.
func Transfer(db *gorm.DB, config AppConfig, sender User, recipient User, amount float64, note string) (Transaction, error) {
	if sender.Id == recipient.Id {
		return Transaction{}, ErrAmountExceedsLimit
	}
	if err := CheckTransferAllowed(db, config, sender, amount); err != nil {
		return Transaction{}, err
	}
	fee := TransferFeeFor(config, amount)
	now := time.Now()
	record := Transaction{
		OrderId:     uuid.NewString(),
		Type:        TxTransfer,
		Status:      TxSuccess,
		FromUserId:  sender.Id,
		ToUserId:    recipient.Id,
		AmountInUSD: amount,
		StartDate:   now,
		ReleaseDate: &now,
		Token:       "USD",
		Message:     note,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := DebitAsset(tx, sender.Id, amount+fee, "transfer_out"); err != nil {
			return err
		}
		if _, err := ApplyDeltas(tx, recipient.Id,
			Delta{Field: FieldAssetValue, Amount: amount, Reason: "transfer_in"},
			Delta{Field: FieldWithdrawable, Amount: amount, Reason: "transfer_in"},
		); err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return Transaction{}, err
	}
	return record, nil
}
