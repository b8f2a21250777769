// Package worker keeps the ClearSkies upstream caches warm in the background.
package worker

import (
	"fmt"
	"slices"
	"time"

	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/sensor"
)

// TaskKind identifies which cached dataset a task refreshes.
type TaskKind string

const (
	TaskCurrent         TaskKind = "current"
	TaskForecast        TaskKind = "forecast"
	TaskRecommendations TaskKind = "recommendations"
	TaskModelMetrics    TaskKind = "model_metrics"
	TaskSensor          TaskKind = "sensor"
)

// Task is one unit of refresh work.
type Task struct {
	Kind TaskKind

	// Hours is set for forecast tasks.
	Hours int

	// SensorID is set for sensor tasks.
	SensorID string
}

// String renders the task for logs and error reports.
func (t Task) String() string {
	switch t.Kind {
	case TaskForecast:
		return fmt.Sprintf("%s:%dh", t.Kind, t.Hours)
	case TaskSensor:
		return fmt.Sprintf("%s:%s", t.Kind, t.SensorID)
	default:
		return string(t.Kind)
	}
}

// RefreshConfig holds configuration for the cache refresh job.
type RefreshConfig struct {
	// Horizons are the forecast horizons to warm, in hours.
	// If empty, uses forecast.Horizons.
	Horizons []int

	// SensorIDs are the sensors whose snapshots are warmed.
	SensorIDs []string

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	RefreshCurrent         bool
	RefreshForecasts       bool
	RefreshRecommendations bool
	RefreshModelMetrics    bool
	RefreshSensors         bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Horizons:               slices.Clone(forecast.Horizons),
		SensorIDs:              []string{sensor.DefaultSensorID},
		Concurrency:            3,
		Timeout:                30 * time.Second,
		RefreshCurrent:         true,
		RefreshForecasts:       true,
		RefreshRecommendations: true,
		RefreshModelMetrics:    true,
		RefreshSensors:         true,
	}
}

// withDefaults fills zero-valued limits from DefaultRefreshConfig.
func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Horizons) == 0 {
		c.Horizons = def.Horizons
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// Tasks returns the tasks this configuration enables. The current summary
// comes first since the dashboard depends on it most.
func (c RefreshConfig) Tasks() []Task {
	var tasks []Task
	if c.RefreshCurrent {
		tasks = append(tasks, Task{Kind: TaskCurrent})
	}
	if c.RefreshForecasts {
		seen := make(map[int]bool, len(c.Horizons))
		for _, h := range c.Horizons {
			if h <= 0 || h > forecast.MaxHorizonHours || seen[h] {
				continue
			}
			seen[h] = true
			tasks = append(tasks, Task{Kind: TaskForecast, Hours: h})
		}
	}
	if c.RefreshRecommendations {
		tasks = append(tasks, Task{Kind: TaskRecommendations})
	}
	if c.RefreshModelMetrics {
		tasks = append(tasks, Task{Kind: TaskModelMetrics})
	}
	if c.RefreshSensors {
		for _, id := range c.SensorIDs {
			if sensor.ValidSensorID(id) {
				tasks = append(tasks, Task{Kind: TaskSensor, SensorID: id})
			}
		}
	}
	return tasks
}

// TotalTasks returns the number of tasks to run.
func (c RefreshConfig) TotalTasks() int {
	return len(c.Tasks())
}
