package impl

import (
	"context"
	"log/slog"
	"time"

	"bizdir/internal/domain/entity"
	"bizdir/internal/domain/repository"

	"github.com/pkg/errors"
)

// compensation undoes one resource created earlier in the same approval.
type compensation struct {
	resource string
	undo     func(ctx context.Context) error
}

// compensationStack holds the undo actions of one approval. Actions are pushed only after a
// resource is created, never for resources that already existed, and run last-in first-out.
type compensationStack struct {
	items []compensation
}

func (s *compensationStack) push(resource string, undo func(ctx context.Context) error) {
	s.items = append(s.items, compensation{resource: resource, undo: undo})
}

func (s *compensationStack) size() int {
	return len(s.items)
}

// unwind runs every pending action, newest first, on a context detached from ctx's cancellation
// and bounded by timeout. A failed action is logged and recorded; the remaining actions still run.
// An action refused with repository.ErrResourceInUse is recorded as skipped and does not count as a failure.
// The stack is empty afterwards.
func (s *compensationStack) unwind(ctx context.Context, timeout time.Duration, trace *traceRecorder, logger *slog.Logger) error {
	if len(s.items) == 0 {
		return nil
	}

	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var failed []string
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]

		err := item.undo(undoCtx)
		if errors.Is(err, repository.ErrResourceInUse) {
			trace.record(entity.StepCompensating, entity.StepStatusSkipped, item.resource+": "+err.Error())
			logger.Warn("Compensation skipped, resource is shared", slog.String("resource", item.resource), slog.Any("reason", err))

			continue
		}
		if err != nil {
			failed = append(failed, item.resource)
			trace.record(entity.StepCompensating, entity.StepStatusFailed, item.resource+": "+err.Error())
			logger.Error("Compensation failed, resource left behind",
				slog.String("resource", item.resource),
				slog.Any("error", err),
			)

			continue
		}

		trace.record(entity.StepCompensating, entity.StepStatusSucceeded, item.resource)
		logger.Info("Compensated resource", slog.String("resource", item.resource))
	}
	s.items = nil

	if len(failed) > 0 {
		return errors.Errorf("compensation incomplete for %v", failed)
	}

	return nil
}
