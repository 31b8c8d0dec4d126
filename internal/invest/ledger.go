package invest

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceField selects one of the three balance columns on the user row.
type BalanceField int

const (
	FieldAssetValue BalanceField = iota
	FieldWithdrawable
	FieldInTrustFund
)

func (f BalanceField) String() string {
	switch f {
	case FieldAssetValue:
		return "total_asset_value"
	case FieldWithdrawable:
		return "total_withdrawable"
	case FieldInTrustFund:
		return "total_in_trust_fund"
	}
	return "unknown"
}

// Delta is a single signed balance mutation with its audit reason.
type Delta struct {
	Field  BalanceField
	Amount float64
	Reason string
}

// forUpdate applies a row lock on dialects that support it. The sqlite
// test database serializes writes on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ApplyDeltas loads the user under a row lock, applies every delta and saves
// the row once. It fails with ErrInsufficientFunds if any field would go
// negative and with ErrInvariantViolation if withdrawable plus locked funds
// would exceed the total asset value. Run it inside a transaction: the caller
// decides the unit of work, the ledger only guarantees per-user atomicity.
func ApplyDeltas(tx *gorm.DB, userId uint, deltas ...Delta) (User, error) {
	var user User
	res := forUpdate(tx).Where("id = ?", userId).First(&user)
	if res.Error != nil {
		return User{}, res.Error
	}
	for _, d := range deltas {
		switch d.Field {
		case FieldAssetValue:
			user.TotalAssetValue = RoundFloat(user.TotalAssetValue+d.Amount, 2)
		case FieldWithdrawable:
			user.TotalWithdrawable = RoundFloat(user.TotalWithdrawable+d.Amount, 2)
		case FieldInTrustFund:
			user.TotalInTrustFund = RoundFloat(user.TotalInTrustFund+d.Amount, 2)
		}
	}
	if user.TotalAssetValue < 0 || user.TotalWithdrawable < 0 || user.TotalInTrustFund < 0 {
		return User{}, ErrInsufficientFunds
	}
	if RoundFloat(user.TotalWithdrawable+user.TotalInTrustFund, 2) > user.TotalAssetValue {
		fmt.Printf("[Ledger] invariant violated for user %d: withdrawable %.2f + trust %.2f > asset %.2f\n",
			user.Id, user.TotalWithdrawable, user.TotalInTrustFund, user.TotalAssetValue)
		return User{}, ErrInvariantViolation
	}
	res = tx.Save(&user)
	if res.Error != nil {
		return User{}, res.Error
	}
	return user, nil
}

// DebitAsset removes value from the account total and pulls the withdrawable
// pot down to the spendable remainder when the debit undercuts it (transfer
// path). One locked load and save, so the intermediate state where
// withdrawable exceeds the shrunken asset value never hits the row.
func DebitAsset(tx *gorm.DB, userId uint, amount float64, reason string) (User, error) {
	var user User
	res := forUpdate(tx).Where("id = ?", userId).First(&user)
	if res.Error != nil {
		return User{}, res.Error
	}
	user.TotalAssetValue = RoundFloat(user.TotalAssetValue-amount, 2)
	if user.TotalAssetValue < 0 {
		return User{}, ErrInsufficientFunds
	}
	spendable := RoundFloat(user.TotalAssetValue-user.TotalInTrustFund, 2)
	if spendable < 0 {
		return User{}, ErrInsufficientFunds
	}
	if user.TotalWithdrawable > spendable {
		user.TotalWithdrawable = spendable
	}
	res = tx.Save(&user)
	if res.Error != nil {
		return User{}, res.Error
	}
	return user, nil
}

// CreditReward is the common "reward lands on an account" mutation: the
// amount shows up in both the account value and the withdrawable pot.
func CreditReward(tx *gorm.DB, userId uint, amount float64, reason string) (User, error) {
	return ApplyDeltas(tx, userId,
		Delta{Field: FieldAssetValue, Amount: amount, Reason: reason},
		Delta{Field: FieldWithdrawable, Amount: amount, Reason: reason},
	)
}
