package invest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trustvest/internal/chain"
)

// RequestWithdrawal validates against the quota guard and places a
// pessimistic hold: the withdrawable and asset balances are debited at
// request time, so concurrent requests cannot double-spend the same funds.
func RequestWithdrawal(db *gorm.DB, config AppConfig, user User, amount float64, toAddress, chainName, token string) (Transaction, error) {
	if err := CheckWithdrawAllowed(db, config, user, amount); err != nil {
		return Transaction{}, err
	}
	record := Transaction{
		OrderId:       uuid.NewString(),
		Type:          TxWithdraw,
		Status:        TxRequested,
		FromUserId:    user.Id,
		ToAddress:     toAddress,
		Chain:         chainName,
		Token:         token,
		AmountInUSD:   amount,
		TransactionId: TxIdNotSet,
		StartDate:     time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := ApplyDeltas(tx, user.Id,
			Delta{Field: FieldWithdrawable, Amount: -amount, Reason: "withdraw_hold"},
			Delta{Field: FieldAssetValue, Amount: -amount, Reason: "withdraw_hold"},
		); err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return Transaction{}, err
	}
	msg := fmt.Sprintf(
		`WITHDRAWAL REQUESTED [Order: %s]
User: %d
Amount: %s USD
Address: %s`,
		EscapeMarkdownV2(record.OrderId),
		user.Id,
		EscapeMarkdownV2(fmt.Sprintf("%.2f", amount)),
		EscapeMarkdownV2(toAddress),
	)
	if err := SendTelegramMessage(msg, "finance"); err != nil {
		fmt.Println("[Withdraw] telegram notify:", err)
	}
	return record, nil
}

// ApproveWithdrawal is the first admin action: the operator supplies the
// on-chain reference of the payout they sent. A notStarted or failed verifier
// verdict rejects the call with no state change; anything else moves the
// record to pending with the verified hash attached.
func ApproveWithdrawal(ctx context.Context, db *gorm.DB, verifier chain.Verifier, recordId uint, transactionId string) (Transaction, error) {
	var record Transaction
	res := db.Where("id = ? AND type = ?", recordId, TxWithdraw).First(&record)
	if res.Error != nil {
		return Transaction{}, res.Error
	}
	if record.Status != TxRequested {
		return Transaction{}, ErrBadState
	}
	details, err := verifier.GetTxDetails(ctx, transactionId, record.Chain)
	if err != nil {
		return Transaction{}, err
	}
	if details.Status == chain.StatusNotStarted {
		return Transaction{}, ErrTransactionNotStarted
	}
	if details.Status == chain.StatusFailed {
		return Transaction{}, ErrTransactionFailed
	}
	record.Status = TxPending
	record.TransactionId = transactionId
	if res := db.Save(&record); res.Error != nil {
		return Transaction{}, res.Error
	}
	return record, nil
}

// FinalizeWithdrawal is the second admin action. Success stamps the release
// date; reject requires a reason and releases the hold, restoring the
// balances debited at request time.
func FinalizeWithdrawal(db *gorm.DB, recordId uint, success bool, reason string) (Transaction, error) {
	var record Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		res := forUpdate(tx).Where("id = ? AND type = ?", recordId, TxWithdraw).First(&record)
		if res.Error != nil {
			return res.Error
		}
		now := time.Now()
		if success {
			if record.Status != TxPending {
				return ErrBadState
			}
			record.Status = TxSuccess
			record.ReleaseDate = &now
			return tx.Save(&record).Error
		}
		if record.Status != TxRequested && record.Status != TxPending {
			return ErrBadState
		}
		if reason == "" {
			return ErrRejectReasonRequired
		}
		if _, err := ApplyDeltas(tx, record.FromUserId,
			Delta{Field: FieldWithdrawable, Amount: record.AmountInUSD, Reason: "withdraw_reject"},
			Delta{Field: FieldAssetValue, Amount: record.AmountInUSD, Reason: "withdraw_reject"},
		); err != nil {
			return err
		}
		record.Status = TxRejected
		record.RejectReason = reason
		record.ReleaseDate = &now
		return tx.Save(&record).Error
	})
	if err != nil {
		return Transaction{}, err
	}
	outcome := "FINALIZED"
	if record.Status == TxRejected {
		outcome = "REJECTED"
	}
	msg := fmt.Sprintf(
		`WITHDRAWAL %s [Order: %s]
User: %d
Amount: %s USD`,
		outcome,
		EscapeMarkdownV2(record.OrderId),
		record.FromUserId,
		EscapeMarkdownV2(fmt.Sprintf("%.2f", record.AmountInUSD)),
	)
	if err := SendTelegramMessage(msg, "finance"); err != nil {
		fmt.Println("[Withdraw] telegram notify:", err)
	}
	return record, nil
}
