package impl

import (
	"time"

	"bizdir/internal/domain/entity"
)

// traceRecorder accumulates the step events of one approval.
type traceRecorder struct {
	events entity.ApprovalTrace
	now    func() time.Time
}

func newTraceRecorder(now func() time.Time) *traceRecorder {
	return &traceRecorder{now: now}
}

func (r *traceRecorder) record(step entity.ApprovalStep, status entity.StepStatus, detail string) {
	r.events = append(r.events, entity.StepEvent{
		Step:   step,
		Status: status,
		Detail: detail,
		At:     r.now().UTC(),
	})
}

// snapshot returns a copy that later records do not affect.
func (r *traceRecorder) snapshot() entity.ApprovalTrace {
	out := make(entity.ApprovalTrace, len(r.events))
	copy(out, r.events)

	return out
}
