package invest

import (
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"trustvest/internal/chain"
)

// App carries the shared handles of the API server process.
type App struct {
	Rdb      *redis.Client
	Db       *gorm.DB
	Aqc      *asynq.Client
	Verifier chain.Verifier
	Pricer   chain.Pricer
}

// AppWorker carries the handles of the background worker process.
type AppWorker struct {
	Rdb      *redis.Client
	Db       *gorm.DB
	Aqs      *asynq.Server
	Aqc      *asynq.Client
	Verifier chain.Verifier
	Pricer   chain.Pricer
}

func Init() *App {
	loadEnv()
	return &App{
		Rdb:      setupRedis(),
		Db:       setupDb(),
		Aqc:      setupAsynqClient(),
		Verifier: chain.NewEvmVerifier(),
		Pricer:   chain.NewHttpPricer(),
	}
}

func InitWorker() *AppWorker {
	loadEnv()
	return &AppWorker{
		Rdb:      setupRedis(),
		Db:       setupDb(),
		Aqs:      setupAsynqServer(),
		Aqc:      setupAsynqClient(),
		Verifier: chain.NewEvmVerifier(),
		Pricer:   chain.NewHttpPricer(),
	}
}

func setupRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

func setupDb() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect to the db")
	}
	if err := Migrate(db); err != nil {
		panic("failed to run migrations")
	}
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Tier{},
		&RewardRecord{},
		&TrustPlan{},
		&TrustFund{},
		&Transaction{},
		&TaskCompletion{},
		&CentralWallet{},
		&AppConfig{},
	)
}

func setupAsynqClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func setupAsynqServer() *asynq.Server {
	concurrency, err := strconv.Atoi(os.Getenv("WORKER_CONCURRENCY"))
	if err != nil {
		concurrency = 10
	}
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"release": 1,
			},
		},
	)
}

func loadEnv() {
	env := os.Getenv("APP_ENV")
	if "" == env {
		env = "development"
	}

	godotenv.Load(".env." + env + ".local")

	if "test" != env {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load()
}
