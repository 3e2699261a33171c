package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/gigconnect/backend/internal/logger"
)

// Queue weights mirror the relative throughput each class of work needs.
// Payouts move money and get priority over notification fan-out; the
// scheduled jobs run alone.
var queueWeights = map[string]int{
	QueuePayouts:        5,
	QueueNotifications:  10,
	QueueReconciliation: 1,
	QueueCleanup:        1,
}

// NewServer builds the task server. Callers register handlers on a mux
// and pass it to Run.
func NewServer(redisAddr, redisPassword string) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword},
		asynq.Config{
			Concurrency: 10,
			Queues:      queueWeights,
			Logger:      logger.Log,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Log.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"error":     err,
				}).Error("task failed")
			}),
		},
	)
}

// NewScheduler registers the recurring jobs: ledger reconciliation every
// night at 2 AM and storage cleanup on Sunday mornings.
func NewScheduler(redisAddr, redisPassword string) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword},
		&asynq.SchedulerOpts{Logger: logger.Log},
	)

	if _, err := scheduler.Register("0 2 * * *", NewReconciliationTask()); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("0 3 * * 0", NewCleanupTask()); err != nil {
		return nil, err
	}

	return scheduler, nil
}
