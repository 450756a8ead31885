package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// fanOut calls fn on every handler and concatenates the results in
// registration order. A failing handler contributes no rows.
//
// Each handler writes into its own slot; slots are merged only after every
// call has returned, so the merge order is the same whether or not the calls
// ran concurrently.
func fanOut[H source.Locator, R any](
	ctx context.Context,
	e *BasicQueryEngine,
	kind, operation string,
	handlers []H,
	fn func(context.Context, H) ([]R, error),
) []R {
	if len(handlers) == 0 {
		return nil
	}

	slots := make([][]R, len(handlers))
	if e.cfg.ParallelFanout && len(handlers) > 1 {
		var g errgroup.Group
		if e.cfg.MaxConcurrency > 0 {
			g.SetLimit(e.cfg.MaxConcurrency)
		}
		for i, h := range handlers {
			g.Go(func() error {
				slots[i] = callHandler(ctx, e, kind, operation, i, h, fn)
				return nil
			})
		}
		_ = g.Wait() // handler errors are absorbed by callHandler
	} else {
		for i, h := range handlers {
			slots[i] = callHandler(ctx, e, kind, operation, i, h, fn)
		}
	}

	total := 0
	for _, rows := range slots {
		total += len(rows)
	}
	merged := make([]R, 0, total)
	for _, rows := range slots {
		merged = append(merged, rows...)
	}
	return merged
}

func callHandler[H source.Locator, R any](
	ctx context.Context,
	e *BasicQueryEngine,
	kind, operation string,
	index int,
	h H,
	fn func(context.Context, H) ([]R, error),
) []R {
	start := time.Now()
	rows, err := fn(ctx, h)
	elapsed := time.Since(start)
	HandlerCallDuration.WithLabelValues(kind, operation).Observe(elapsed.Seconds())

	log := e.log(ctx)
	if err != nil {
		HandlerCallsTotal.WithLabelValues(kind, operation, "error").Inc()
		log.Warnw("handler failed, contributing no rows",
			logger.FieldKind, kind,
			logger.FieldOperation, operation,
			logger.FieldHandler, index,
			logger.FieldEndpoint, h.DbPathOrURL(),
			logger.FieldDurationMS, elapsed.Milliseconds(),
			logger.FieldError, err,
		)
		return nil
	}

	status := "ok"
	if len(rows) == 0 {
		status = "empty"
	}
	HandlerCallsTotal.WithLabelValues(kind, operation, status).Inc()
	log.Debugw("handler answered",
		logger.FieldKind, kind,
		logger.FieldOperation, operation,
		logger.FieldHandler, index,
		logger.FieldRows, len(rows),
		logger.FieldDurationMS, elapsed.Milliseconds(),
	)
	return rows
}
