package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trustvest/internal/chain"
	"trustvest/internal/invest"
)

type stubVerifier struct {
	details chain.TxDetails
}

func (s stubVerifier) GetTxDetails(ctx context.Context, transactionId string, chainName string) (chain.TxDetails, error) {
	return s.details, nil
}

type stubPricer struct {
	price float64
}

func (s stubPricer) LatestPrice(ctx context.Context, token string) (float64, time.Time, error) {
	return s.price, time.Now(), nil
}

func newTestApp(t *testing.T, verifier chain.Verifier, pricer chain.Pricer) *invest.App {
	t.Helper()
	dsn := fmt.Sprintf("file:api_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, invest.Migrate(db))
	return &invest.App{
		Db: db,
		// Unreachable endpoint: publish attempts fail and get logged, which
		// is the best-effort contract anyway.
		Rdb:      redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		Verifier: verifier,
		Pricer:   pricer,
	}
}

func confirmRouter(app *invest.App, userId uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("app", app)
		c.Set("user_id", userId)
		c.Set("role", invest.RoleUser)
	})
	router.POST("/tx/deposit/confirm", ConfirmDeposit)
	return router
}

func postConfirm(t *testing.T, router *gin.Engine, recordId uint) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"record_id":%d,"transaction_id":"0xhash"}`, recordId)
	req := httptest.NewRequest(http.MethodPost, "/tx/deposit/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConfirmDepositOwnershipGatesSettlement(t *testing.T) {
	verifier := stubVerifier{details: chain.TxDetails{Status: chain.StatusConfirmed, Amount: 1, ToAddress: "0x1111"}}
	app := newTestApp(t, verifier, stubPricer{price: 100})
	db := app.Db

	config := invest.DefaultAppConfig
	require.NoError(t, db.Save(&config).Error)
	require.NoError(t, db.Create(&invest.Tier{Level: 1, DailyTasksCountAllowed: 1}).Error)
	owner, err := invest.CreateUser(db, "owner@example.com", invest.RoleUser, "")
	require.NoError(t, err)
	attacker, err := invest.CreateUser(db, "attacker@example.com", invest.RoleUser, "")
	require.NoError(t, err)
	attacker.Status = invest.StatusActive
	require.NoError(t, db.Save(&attacker).Error)
	require.NoError(t, db.Create(&invest.CentralWallet{Chain: "eth", Address: "0x1111"}).Error)
	record, _, err := invest.RequestDeposit(db, owner, "eth", "usdt")
	require.NoError(t, err)

	// A foreign user is refused before any settlement side effect.
	w := postConfirm(t, confirmRouter(app, attacker.Id), record.Id)
	require.Equal(t, http.StatusForbidden, w.Code)

	var pending invest.Transaction
	require.NoError(t, db.Where("id = ?", record.Id).First(&pending).Error)
	require.Equal(t, invest.TxPending, pending.Status)
	var untouched invest.User
	require.NoError(t, db.Where("id = ?", owner.Id).First(&untouched).Error)
	require.Equal(t, 0.0, untouched.TotalAssetValue)

	w = postConfirm(t, confirmRouter(app, attacker.Id), record.Id+100)
	require.Equal(t, http.StatusNotFound, w.Code)

	// The owner settles normally.
	owner.Status = invest.StatusActive
	require.NoError(t, db.Save(&owner).Error)
	w = postConfirm(t, confirmRouter(app, owner.Id), record.Id)
	require.Equal(t, http.StatusOK, w.Code)
	var settled invest.Transaction
	require.NoError(t, db.Where("id = ?", record.Id).First(&settled).Error)
	require.Equal(t, invest.TxSuccess, settled.Status)
}
