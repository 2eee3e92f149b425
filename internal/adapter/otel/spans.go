package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "swarmpilot"

// StartDispatchSpan starts a span covering agent selection and enqueue.
func StartDispatchSpan(ctx context.Context, instruction string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.Int("instruction.length", len(instruction)),
		),
	)
}

// StartExecuteSpan starts a span covering one task execution.
func StartExecuteSpan(ctx context.Context, taskID, agentID, intent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "execute",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("agent.id", agentID),
			attribute.String("task.intent", intent),
		),
	)
}
