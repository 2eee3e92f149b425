package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "swarmpilot"

// Metrics holds all swarmpilot metric instruments.
type Metrics struct {
	TasksDispatched metric.Int64Counter
	TasksCompleted  metric.Int64Counter
	TasksFailed     metric.Int64Counter
	DispatchMisses  metric.Int64Counter
	QueueDepth      metric.Int64UpDownCounter
	ExecDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksDispatched, err = meter.Int64Counter("swarmpilot.tasks.dispatched",
		metric.WithDescription("Number of tasks accepted and enqueued"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("swarmpilot.tasks.completed",
		metric.WithDescription("Number of tasks completed successfully"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("swarmpilot.tasks.failed",
		metric.WithDescription("Number of tasks that failed"))
	if err != nil {
		return nil, err
	}

	m.DispatchMisses, err = meter.Int64Counter("swarmpilot.dispatch.misses",
		metric.WithDescription("Number of instructions with no suitable agent"))
	if err != nil {
		return nil, err
	}

	m.QueueDepth, err = meter.Int64UpDownCounter("swarmpilot.queue.depth",
		metric.WithDescription("Current number of queued tasks"))
	if err != nil {
		return nil, err
	}

	m.ExecDuration, err = meter.Float64Histogram("swarmpilot.task.duration_seconds",
		metric.WithDescription("Task execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
