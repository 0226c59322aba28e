package navigation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-drift/navsync/pkg/transaction"
)

var tracer = otel.Tracer("navsync.navigation")

// startTransition opens a span for one reconcile transition. The span ends
// when task completes, so its duration covers any animation.
func startTransition(kind Kind, transition string, id any, tx transaction.Transaction) (context.Context, trace.Span) {
	return tracer.Start(context.Background(), "navigation."+transition,
		trace.WithAttributes(
			attribute.String("navsync.kind", kind.String()),
			attribute.String("navsync.id", fmt.Sprint(id)),
			attribute.Bool("navsync.animated", tx.IsAnimated()),
		),
	)
}

func endWithTask(span trace.Span, task *transaction.Task) {
	if task == nil {
		span.SetStatus(codes.Ok, "")
		span.End()
		return
	}
	task.OnDone(func() {
		if task.IsCanceled() {
			span.SetStatus(codes.Error, "canceled")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	})
}
