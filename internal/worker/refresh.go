package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CurrentRefresher refreshes the current air quality summary.
type CurrentRefresher interface {
	RefreshSummary(ctx context.Context) error
}

// PredictionRefresher refreshes prediction service data.
type PredictionRefresher interface {
	RefreshForecast(ctx context.Context, hours int) error
	RefreshRecommendations(ctx context.Context) error
	RefreshModelMetrics(ctx context.Context) error
}

// SensorRefresher refreshes a sensor snapshot.
type SensorRefresher interface {
	Refresh(ctx context.Context, sensorID string) error
}

// errNotConfigured marks a task whose service is missing.
var errNotConfigured = errors.New("service not configured")

// RefreshJob handles cache refresh operations.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	current    CurrentRefresher
	prediction PredictionRefresher
	sensors    SensorRefresher

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	SuccessfulRefresh  int64
	FailedRefreshes    int64
	SkippedRefreshes   int64
	RefreshesByKind    map[TaskKind]int64
	FailuresByKind     map[TaskKind]int64
	ConsecutiveFailing int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Logger     zerolog.Logger
	Current    CurrentRefresher
	Prediction PredictionRefresher
	Sensors    SensorRefresher
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:     cfg.Config.withDefaults(),
		logger:     cfg.Logger,
		current:    cfg.Current,
		prediction: cfg.Prediction,
		sensors:    cfg.Sensors,
		metrics: &RefreshMetrics{
			RefreshesByKind: make(map[TaskKind]int64),
			FailuresByKind:  make(map[TaskKind]int64),
		},
	}
}

// Config returns the job's effective configuration.
func (j *RefreshJob) Config() RefreshConfig {
	return j.config
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalTasks int
	Successful int
	Failed     int
	Skipped    int
	Errors     []RefreshError
}

// RefreshError represents a failed task.
type RefreshError struct {
	Task  Task
	Error string
}

// Healthy reports whether at least as many tasks succeeded as failed.
func (r *RefreshResult) Healthy() bool {
	return r.Failed <= r.Successful
}

// Run executes the refresh job for all configured tasks.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.RunTasks(ctx, j.config.Tasks())
}

// RunTasks refreshes the given tasks on the job's worker pool.
func (j *RefreshJob) RunTasks(ctx context.Context, tasks []Task) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:  startTime,
		TotalTasks: len(tasks),
	}

	j.logger.Info().
		Int("total_tasks", result.TotalTasks).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache refresh job")

	tasksChan := make(chan Task, len(tasks))
	resultsChan := make(chan taskResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, tasksChan, resultsChan)
		}()
	}

	for _, t := range tasks {
		tasksChan <- t
	}
	close(tasksChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	byKind := make(map[TaskKind]int64)
	failedByKind := make(map[TaskKind]int64)
	for tr := range resultsChan {
		switch {
		case errors.Is(tr.err, errNotConfigured):
			result.Skipped++
		case tr.err != nil:
			result.Failed++
			failedByKind[tr.task.Kind]++
			result.Errors = append(result.Errors, RefreshError{
				Task:  tr.task,
				Error: tr.err.Error(),
			})
		default:
			result.Successful++
			byKind[tr.task.Kind]++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result, byKind, failedByKind)

	for _, e := range result.Errors {
		j.logger.Warn().
			Str("task", e.Task.String()).
			Str("error", e.Error).
			Msg("cache refresh task failed")
	}

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("cache refresh job completed")

	return result
}

type taskResult struct {
	task Task
	err  error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, tasks <-chan Task, results chan<- taskResult) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- taskResult{task: task, err: ctx.Err()}
		default:
			results <- taskResult{task: task, err: j.refreshTask(ctx, task)}
		}
	}
}

func (j *RefreshJob) refreshTask(ctx context.Context, task Task) error {
	taskCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	switch task.Kind {
	case TaskCurrent:
		if j.current == nil {
			return errNotConfigured
		}
		return j.current.RefreshSummary(taskCtx)
	case TaskForecast:
		if j.prediction == nil {
			return errNotConfigured
		}
		return j.prediction.RefreshForecast(taskCtx, task.Hours)
	case TaskRecommendations:
		if j.prediction == nil {
			return errNotConfigured
		}
		return j.prediction.RefreshRecommendations(taskCtx)
	case TaskModelMetrics:
		if j.prediction == nil {
			return errNotConfigured
		}
		return j.prediction.RefreshModelMetrics(taskCtx)
	case TaskSensor:
		if j.sensors == nil {
			return errNotConfigured
		}
		return j.sensors.Refresh(taskCtx, task.SensorID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult, byKind, failedByKind map[TaskKind]int64) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.SkippedRefreshes += int64(result.Skipped)
	for k, n := range byKind {
		j.metrics.RefreshesByKind[k] += n
	}
	for k, n := range failedByKind {
		j.metrics.FailuresByKind[k] += n
	}
	if result.Healthy() {
		j.metrics.ConsecutiveFailing = 0
	} else {
		j.metrics.ConsecutiveFailing++
	}
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	byKind := make(map[TaskKind]int64, len(j.metrics.RefreshesByKind))
	for k, v := range j.metrics.RefreshesByKind {
		byKind[k] = v
	}
	failedByKind := make(map[TaskKind]int64, len(j.metrics.FailuresByKind))
	for k, v := range j.metrics.FailuresByKind {
		failedByKind[k] = v
	}

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		SkippedRefreshes:    j.metrics.SkippedRefreshes,
		RefreshesByKind:     byKind,
		FailuresByKind:      failedByKind,
		ConsecutiveFailing:  j.metrics.ConsecutiveFailing,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	snapshot := map[string]interface{}{
		"total_runs":            m.TotalRuns,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"skipped_refreshes":     m.SkippedRefreshes,
		"consecutive_failing":   m.ConsecutiveFailing,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
	for _, kind := range []TaskKind{TaskCurrent, TaskForecast, TaskRecommendations, TaskModelMetrics, TaskSensor} {
		snapshot[string(kind)+"_refreshes"] = m.RefreshesByKind[kind]
	}
	return snapshot
}
