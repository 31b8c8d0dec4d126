package invest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyDeltasRejectsOverdraft(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 100, 50)

	_, err := ApplyDeltas(db, user.Id, Delta{Field: FieldWithdrawable, Amount: -60, Reason: "test"})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	after := reload(t, db, user.Id)
	require.Equal(t, 100.0, after.TotalAssetValue)
	require.Equal(t, 50.0, after.TotalWithdrawable)
}

func TestApplyDeltasRejectsInvariantBreak(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 100, 50)

	// Withdrawable above the account value is never writable.
	_, err := ApplyDeltas(db, user.Id, Delta{Field: FieldWithdrawable, Amount: 60, Reason: "test"})
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.Equal(t, 50.0, reload(t, db, user.Id).TotalWithdrawable)
}

func TestApplyDeltasMultipleFields(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 100, 100)

	after, err := ApplyDeltas(db, user.Id,
		Delta{Field: FieldWithdrawable, Amount: -30, Reason: "lock"},
		Delta{Field: FieldInTrustFund, Amount: 30, Reason: "lock"},
	)
	require.NoError(t, err)
	require.Equal(t, 100.0, after.TotalAssetValue)
	require.Equal(t, 70.0, after.TotalWithdrawable)
	require.Equal(t, 30.0, after.TotalInTrustFund)
}

func TestDebitAssetClampsWithdrawable(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 100, 100)

	after, err := DebitAsset(db, user.Id, 40, "transfer_out")
	require.NoError(t, err)
	require.Equal(t, 60.0, after.TotalAssetValue)
	require.Equal(t, 60.0, after.TotalWithdrawable)

	_, err = DebitAsset(db, user.Id, 70, "transfer_out")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, 60.0, reload(t, db, user.Id).TotalAssetValue)
}

func TestDebitAssetRespectsLockedFunds(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 100, 20)
	_, err := ApplyDeltas(db, user.Id, Delta{Field: FieldInTrustFund, Amount: 50, Reason: "lock"})
	require.NoError(t, err)

	// Debiting past the locked principal must fail, not shrink it.
	_, err = DebitAsset(db, user.Id, 60, "transfer_out")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	after := reload(t, db, user.Id)
	require.Equal(t, 100.0, after.TotalAssetValue)
	require.Equal(t, 50.0, after.TotalInTrustFund)
}

func TestCreditReward(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 0, 0)

	after, err := CreditReward(db, user.Id, 12.34, RewardDailyTask)
	require.NoError(t, err)
	require.Equal(t, 12.34, after.TotalAssetValue)
	require.Equal(t, 12.34, after.TotalWithdrawable)
}
