package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/paintworks/paintworks/internal/formulations"
	jobmetrics "github.com/paintworks/paintworks/internal/jobs"
	"github.com/paintworks/paintworks/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRefreshCosts recomputes the cost record of every formulated item at its reference volume.
	TaskRefreshCosts = "formulations:refresh-costs"
)

// RefreshCostsPayload records who scheduled the refresh. RequestedAt is empty for cron runs.
type RefreshCostsPayload struct {
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// NewRefreshCostsTask constructs an Asynq task for the cost refresh.
func NewRefreshCostsTask(payload RefreshCostsPayload) (*asynq.Task, error) {
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRefreshCosts, body, asynq.Queue(QueueDefault)), nil
}

// CostRefresher is implemented by the formulations service.
type CostRefresher interface {
	RefreshCosts(ctx context.Context) (formulations.RefreshResult, error)
}

// RefreshCostsJob runs the cost refresh inside the worker. When Redis is set,
// overlapping runs are skipped while another one holds the lock.
type RefreshCostsJob struct {
	Service CostRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Redis   *redis.Client
	LockTTL time.Duration
}

// NewRefreshCostsJob constructs the job handler.
func NewRefreshCostsJob(service CostRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshCostsJob {
	return &RefreshCostsJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes the cost refresh.
func (j *RefreshCostsJob) Handle(ctx context.Context, task *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("refresh costs: dependencies not configured")
	}
	var payload RefreshCostsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	acquired, release, err := j.lock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		j.log().Info("refresh costs already running, skipping", slog.String("trigger", payload.Trigger))
		return nil
	}
	defer release()

	tracker := j.Metrics.Track(TaskRefreshCosts)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	result, err := j.Service.RefreshCosts(ctx)
	if err != nil {
		j.log().Error("refresh costs", slog.String("trigger", payload.Trigger), slog.Any("error", err))
		return err
	}
	j.Metrics.AddRecords(TaskRefreshCosts, "updated", result.Updated)
	j.Metrics.AddRecords(TaskRefreshCosts, "failed", len(result.Failed))
	j.log().Info("costs refreshed",
		slog.String("trigger", payload.Trigger),
		slog.Int("updated", result.Updated),
		slog.Any("failed", result.Failed),
	)
	return nil
}

func (j *RefreshCostsJob) lock(ctx context.Context) (bool, func(), error) {
	if j.Redis == nil {
		return true, func() {}, nil
	}
	ttl := j.LockTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	key := shared.JobLockKey(TaskRefreshCosts)
	ok, err := j.Redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("refresh costs lock: %w", err)
	}
	if !ok {
		return false, nil, nil
	}
	return true, func() {
		if err := j.Redis.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			j.log().Warn("release refresh lock", slog.Any("error", err))
		}
	}, nil
}

func (j *RefreshCostsJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
