package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"trustvest/internal/api"
	apijwt "trustvest/internal/api/jwt"
	"trustvest/internal/api/middleware"
	"trustvest/internal/invest"
)

var App *invest.App

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func ApiInit() { // Run Api Server
	App = invest.Init()
	SetLogger()
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// This makes it so each ip can only make 100 requests per second
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", mw, wsHandler)
	router.GET("/trust/plans", mw, api.GetTrustPlans)
	users := router.Group("/users/").Use(middleware.Auth())
	{
		users.POST("/register", mw, api.Register)
		users.GET("/me", mw, api.GetUser)
		users.GET("/rewards", mw, api.GetRewards)
		users.GET("/tx", mw, api.GetTransactionsList)
		users.GET("/ref", mw, api.GetReferrals)
	}
	tx := router.Group("/tx/").Use(middleware.Auth())
	{
		tx.POST("/deposit", mw, api.RequestDeposit)
		tx.POST("/deposit/confirm", mw, api.ConfirmDeposit)
		tx.POST("/withdraw", mw, api.Withdraw)
		tx.POST("/transfer", mw, api.Transfer)
	}
	tasks := router.Group("/tasks/").Use(middleware.Auth())
	{
		tasks.POST("/complete", mw, api.CompleteDailyTask)
	}
	trust := router.Group("/trust/").Use(middleware.Auth())
	{
		trust.POST("/activate", mw, api.ActivateTrustFund)
		trust.GET("", mw, api.GetTrustFunds)
	}
	admin := router.Group("/admin/").Use(middleware.Auth(), middleware.AdminOnly())
	{
		admin.POST("/withdrawals/:id/approve", mw, api.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/finalize", mw, api.FinalizeWithdrawal)
		admin.GET("/config", mw, api.GetConfig)
		admin.PUT("/config", mw, api.UpdateConfig)
		admin.PUT("/tiers", mw, api.UpsertTier)
		admin.PUT("/trust/plans", mw, api.UpsertTrustPlan)
		admin.POST("/wallets", mw, api.AddWallet)
		admin.POST("/trust/release", mw, api.ReleaseTrustFunds)
	}
	fmt.Println("[ Trustvest Backend is up and listening to :8000 ]")
	if err := router.Run(":8000"); err != nil {
		log.Fatal("Failed to run Trustvest Backend on :8000: ", err)
	}
}

// forwardSync copies published payloads to the socket until the subscription
// channel closes or a write fails.
func forwardSync(conn *websocket.Conn, mu *sync.Mutex, ch <-chan *redis.Message) {
	for msg := range ch {
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
		mu.Unlock()
		if err != nil {
			_ = conn.Close()
			return
		}
	}
}

func wsHandler(c *gin.Context) {
	token := c.DefaultQuery("token", "")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userId, _, err := apijwt.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	app := c.MustGet("app").(*invest.App)
	var user invest.User
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()

	lastPong := time.Now()
	conn.SetPongHandler(func(string) error {
		lastPong = time.Now()
		return nil
	})
	pingPeriod := 3 * time.Second
	timeout := 30 * time.Second
	var mu sync.Mutex // serializes writes to the websocket connection

	if jsonData := invest.SyncUserStats(app.Db, user); jsonData != nil {
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			fmt.Println("Socket: Failed to send data:", err)
			return
		}
	}
	// Forward balance updates published by money-moving handlers. Closing
	// the subscription on handler exit ends the forwarder even when no
	// update ever arrives for an idle connection.
	pubsub := app.Rdb.Subscribe(context.Background(), invest.SyncChannel(user.Id))
	defer pubsub.Close()
	go forwardSync(conn, &mu, pubsub.Channel())
	// Client commands: "sync" re-sends the current stats.
	go func() {
		defer conn.Close()
		for {
			messageType, p, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType == websocket.TextMessage && string(p) == "sync" {
				_ = app.Db.Where("id = ?", user.Id).First(&user)
				if jsonData := invest.SyncUserStats(app.Db, user); jsonData != nil {
					mu.Lock()
					if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
						mu.Unlock()
						return
					}
					mu.Unlock()
				}
			}
		}
	}()
	for {
		if time.Since(lastPong) > timeout {
			log.Println("Socket: Client did not respond to ping, closing connection")
			return
		}
		mu.Lock()
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			mu.Unlock()
			return
		}
		mu.Unlock()
		time.Sleep(pingPeriod)
	}
}
