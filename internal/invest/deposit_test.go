package invest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trustvest/internal/chain"
)

type stubPricer struct {
	price float64
	err   error
}

func (s stubPricer) LatestPrice(ctx context.Context, token string) (float64, time.Time, error) {
	return s.price, time.Now(), s.err
}

func seedWallet(t *testing.T, db *gorm.DB, chainName, address string) CentralWallet {
	t.Helper()
	wallet := CentralWallet{Chain: chainName, Address: address}
	require.NoError(t, db.Create(&wallet).Error)
	return wallet
}

func TestRequestDepositDrawsWallet(t *testing.T) {
	db := newTestDb(t)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")

	record, wallet, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)
	require.Equal(t, TxPending, record.Status)
	require.Equal(t, TxIdNotSet, record.TransactionId)
	require.Equal(t, wallet.Address, record.ToAddress)
	require.True(t, wallet.IsInUse)

	// The pool is single-use: a second request finds nothing.
	_, _, err = RequestDeposit(db, user, "eth", "usdt")
	require.ErrorIs(t, err, ErrWalletPoolExhausted)
}

func TestConfirmDepositSettlesAndCredits(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	inviter := newTestUser(t, db, "", 150, 150) // level 2: $5 on invitee deposits over $100
	user, err := CreateUser(db, "invitee@example.com", RoleUser, inviter.MyInvitationCode)
	require.NoError(t, err)
	require.Equal(t, StatusPending, user.Status)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 2, FromAddress: "0xsender", ToAddress: record.ToAddress}}
	done, err := ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 100}, record.Id, "0xhash")
	require.NoError(t, err)
	require.Equal(t, TxSuccess, done.Status)
	require.Equal(t, 200.0, done.AmountInUSD)
	require.Equal(t, "0xsender", done.FromAddress)
	require.NotNil(t, done.ReleaseDate)

	after := reload(t, db, user.Id)
	require.Equal(t, StatusActive, after.Status)
	// 200 deposit + 10 locked first-deposit bonus + 10 promotion to level 2.
	require.Equal(t, 220.0, after.TotalAssetValue)
	require.Equal(t, 210.0, after.TotalWithdrawable)

	boss := reload(t, db, inviter.Id)
	require.Equal(t, 155.0, boss.TotalAssetValue)

	var bonus RewardRecord
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.Id, RewardFirstDeposit).First(&bonus).Error)
	require.False(t, bonus.Released)
	require.Equal(t, 10.0, bonus.Amount)

	var promo RewardRecord
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.Id, RewardPromotion).First(&promo).Error)
	require.Equal(t, uint(2), promo.Level)
}

func TestConfirmDepositIdempotent(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: record.ToAddress}}
	_, err = ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 50}, record.Id, "0xhash")
	require.NoError(t, err)
	first := reload(t, db, user.Id).TotalAssetValue

	_, err = ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 50}, record.Id, "0xhash")
	require.NoError(t, err)
	require.Equal(t, first, reload(t, db, user.Id).TotalAssetValue)
}

func TestConfirmDepositUnconfirmedChainState(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusPending, ToAddress: record.ToAddress}}, stubPricer{price: 50}, record.Id, "0xhash")
	require.ErrorIs(t, err, ErrTransactionNotStarted)

	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusFailed, ToAddress: record.ToAddress}}, stubPricer{price: 50}, record.Id, "0xhash")
	require.ErrorIs(t, err, ErrTransactionFailed)

	require.Equal(t, 0.0, reload(t, db, user.Id).TotalAssetValue)
	require.Equal(t, TxPending, reloadTx(t, db, record.Id).Status)
}

func TestConfirmDepositRejectsForeignAddress(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	// A real transfer that paid some other address settles nothing.
	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: "0xunrelated"}}
	_, err = ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 100}, record.Id, "0xhash")
	require.ErrorIs(t, err, ErrWrongDepositAddress)

	require.Equal(t, TxPending, reloadTx(t, db, record.Id).Status)
	require.Equal(t, 0.0, reload(t, db, user.Id).TotalAssetValue)
}

func TestConfirmDepositAddressCompareIsCaseInsensitive(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0xAbCd")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: "0xABCD"}}
	_, err = ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 100}, record.Id, "0xhash")
	require.NoError(t, err)
	require.Equal(t, TxSuccess, reloadTx(t, db, record.Id).Status)
}

func TestConfirmDepositRejectsReusedHash(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	seedWallet(t, db, "eth", "0x2222")

	first, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)
	second, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: first.ToAddress}},
		stubPricer{price: 100}, first.Id, "0xhash")
	require.NoError(t, err)
	settled := reload(t, db, user.Id).TotalAssetValue

	// The same on-chain transfer cannot fund a second record, even against
	// the second record's own wallet.
	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: second.ToAddress}},
		stubPricer{price: 100}, second.Id, "0xhash")
	require.ErrorIs(t, err, ErrTransactionUsed)

	require.Equal(t, TxPending, reloadTx(t, db, second.Id).Status)
	require.Equal(t, settled, reload(t, db, user.Id).TotalAssetValue)
}

func TestSecondDepositGetsNoFirstBonus(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	seedWallet(t, db, "eth", "0x2222")

	first, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)
	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: first.ToAddress}},
		stubPricer{price: 100}, first.Id, "0xh1")
	require.NoError(t, err)

	second, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)
	_, err = ConfirmDeposit(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: second.ToAddress}},
		stubPricer{price: 100}, second.Id, "0xh2")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&RewardRecord{}).
		Where("user_id = ? AND type = ?", user.Id, RewardFirstDeposit).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestReleaseMaturedDepositBonuses(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	config := seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 2, ToAddress: record.ToAddress}}
	_, err = ConfirmDeposit(context.Background(), db, nil, verifier, stubPricer{price: 100}, record.Id, "0xhash")
	require.NoError(t, err)
	before := reload(t, db, user.Id)

	// Not matured yet.
	released, err := ReleaseMaturedDepositBonuses(db, time.Now())
	require.NoError(t, err)
	require.Zero(t, released)

	matured := time.Now().AddDate(0, 0, int(config.FirstDepositBonusPeriodDays)+1)
	released, err = ReleaseMaturedDepositBonuses(db, matured)
	require.NoError(t, err)
	require.Equal(t, 1, released)

	after := reload(t, db, user.Id)
	require.Equal(t, before.TotalAssetValue, after.TotalAssetValue)
	require.Equal(t, RoundFloat(before.TotalWithdrawable+10, 2), after.TotalWithdrawable)

	// A retry finds nothing left.
	released, err = ReleaseMaturedDepositBonuses(db, matured)
	require.NoError(t, err)
	require.Zero(t, released)
}

func TestConfirmPendingDepositsSweep(t *testing.T) {
	db := newTestDb(t)
	seedTiers(t, db)
	seedConfig(t, db)
	user := newTestUser(t, db, "", 0, 0)
	seedWallet(t, db, "eth", "0x1111")
	record, _, err := RequestDeposit(db, user, "eth", "usdt")
	require.NoError(t, err)

	// User supplied the hash while the chain was still catching up.
	record.TransactionId = "0xhash"
	require.NoError(t, db.Save(&record).Error)

	ConfirmPendingDeposits(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusPending, ToAddress: record.ToAddress}}, stubPricer{price: 100})
	require.Equal(t, TxPending, reloadTx(t, db, record.Id).Status)

	ConfirmPendingDeposits(context.Background(), db, nil,
		stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: record.ToAddress}}, stubPricer{price: 100})
	require.Equal(t, TxSuccess, reloadTx(t, db, record.Id).Status)
	require.Equal(t, 100.0, reloadTx(t, db, record.Id).AmountInUSD)
}

func reloadTx(t *testing.T, db *gorm.DB, id uint) Transaction {
	t.Helper()
	var record Transaction
	require.NoError(t, db.Where("id = ?", id).First(&record).Error)
	return record
}
