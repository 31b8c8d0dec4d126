package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"trustvest/internal/invest"
	"trustvest/internal/worker"
)

const (
	TaskTrustRelease = "trust:release"
	TaskBonusRelease = "bonus:release"
)

var AppWorker *invest.AppWorker

// WorkerInit runs the background process: an asynq server draining the
// release tasks, a ticker that enqueues them, and the pending-deposit sweep.
// Asynq's retry covers transient failures of a whole batch.
func WorkerInit() {
	AppWorker = invest.InitWorker()
	SetLogger()
	poolSize, err := strconv.Atoi(os.Getenv("RELEASE_POOL_SIZE"))
	if err != nil {
		poolSize = 4
	}
	pool := worker.NewPool(poolSize, 64)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTrustRelease, func(ctx context.Context, t *asynq.Task) error {
		return releaseTrustBatch(AppWorker.Db, pool)
	})
	mux.HandleFunc(TaskBonusRelease, func(ctx context.Context, t *asynq.Task) error {
		_, err := invest.ReleaseMaturedDepositBonuses(AppWorker.Db, time.Now())
		return err
	})

	go func() {
		if err := AppWorker.Aqs.Run(mux); err != nil {
			log.Fatal("Failed to run release worker: ", err)
		}
	}()
	go invest.DoEvery(10*time.Minute, func(now time.Time) {
		enqueueRelease(AppWorker.Aqc, TaskTrustRelease)
		enqueueRelease(AppWorker.Aqc, TaskBonusRelease)
	})
	go invest.DoEvery(time.Minute, func(now time.Time) {
		invest.ConfirmPendingDeposits(context.Background(), AppWorker.Db, AppWorker.Rdb, AppWorker.Verifier, AppWorker.Pricer)
	})
	fmt.Println("[ Trustvest Worker is running ]")
	for {
		time.Sleep(10 * time.Minute)
	}
}

func enqueueRelease(client *asynq.Client, taskType string) {
	task := asynq.NewTask(taskType, nil)
	if _, err := client.Enqueue(task, asynq.Queue("release"), asynq.MaxRetry(3)); err != nil {
		fmt.Printf("[Worker] enqueue %s: %v\n", taskType, err)
	}
}

type releaseFundTask struct {
	db     *gorm.DB
	fundId uint
	now    time.Time
	wg     *sync.WaitGroup
	errs   chan<- error
}

func (t releaseFundTask) Execute() {
	defer t.wg.Done()
	if err := invest.ReleaseTrustFund(t.db, t.fundId, t.now); err != nil {
		select {
		case t.errs <- err:
		default:
		}
	}
}

// releaseTrustBatch fans matured funds out over the pool. Each fund releases
// in its own transaction, so a failed one surfaces without blocking the rest;
// the first error is returned so asynq retries the batch (releases are
// idempotent).
func releaseTrustBatch(db *gorm.DB, pool *worker.Pool) error {
	now := time.Now()
	var due []invest.TrustFund
	res := db.Where("released = ? AND end_date <= ?", false, now).Find(&due)
	if res.Error != nil {
		return res.Error
	}
	if len(due) == 0 {
		return nil
	}
	var wg sync.WaitGroup
	errs := make(chan error, 1)
	for _, fund := range due {
		wg.Add(1)
		pool.Exec(releaseFundTask{db: db, fundId: fund.Id, now: now, wg: &wg, errs: errs})
	}
	wg.Wait()
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
