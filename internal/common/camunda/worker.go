package camunda

import (
	"time"

	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job and completes or fails it itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType.
func NewWorker(client zbc.Client, taskType string, maxJobsActive int, timeout time.Duration, handler JobHandler, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	active := metrics.WorkerJobsActive.WithLabelValues(taskType)

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			active.Inc()
			defer active.Dec()
			handler.Handle(jc, job)
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{"maxJobsActive": maxJobsActive})
	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
