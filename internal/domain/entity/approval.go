package entity

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStep names a state of the partner-approval flow.
type ApprovalStep string

const (
	StepAuthenticating        ApprovalStep = "authenticating"
	StepLoadingBusiness       ApprovalStep = "loading_business"
	StepResolvingIdentity     ApprovalStep = "resolving_identity"
	StepProvisioningProfile   ApprovalStep = "provisioning_profile"
	StepLinkingPartnership    ApprovalStep = "linking_partnership"
	StepTransitioningApproval ApprovalStep = "transitioning_approval"
	StepNotifying             ApprovalStep = "notifying"
	StepPublishing            ApprovalStep = "publishing"
	StepCompensating          ApprovalStep = "compensating"
	StepDone                  ApprovalStep = "done"
	StepFailed                ApprovalStep = "failed"
)

// StepStatus is the outcome recorded for a step.
type StepStatus string

const (
	StepStatusStarted   StepStatus = "started"
	StepStatusSucceeded StepStatus = "succeeded"
	// StepStatusReused marks a step that found its resource already present and created nothing.
	StepStatusReused StepStatus = "reused"
	StepStatusFailed StepStatus = "failed"
	// StepStatusSkipped marks a best-effort step that failed without affecting the outcome, or a
	// compensation left undone because another partnership still depends on the resource.
	StepStatusSkipped StepStatus = "skipped"
)

// StepEvent is one entry of the per-invocation trace.
type StepEvent struct {
	Step   ApprovalStep `json:"step"`
	Status StepStatus   `json:"status"`
	Detail string       `json:"detail,omitempty"`
	At     time.Time    `json:"at"`
}

// ApprovalTrace is the ordered list of step events of one approval invocation.
type ApprovalTrace []StepEvent

// Steps returns the step names in order, collapsing consecutive events of the same step.
func (t ApprovalTrace) Steps() []ApprovalStep {
	steps := make([]ApprovalStep, 0, len(t))
	for _, ev := range t {
		if n := len(steps); n > 0 && steps[n-1] == ev.Step {
			continue
		}
		steps = append(steps, ev.Step)
	}

	return steps
}

// Last returns the final event, or the zero value for an empty trace.
func (t ApprovalTrace) Last() StepEvent {
	if len(t) == 0 {
		return StepEvent{}
	}

	return t[len(t)-1]
}

// Find returns the last event recorded for step with the given status.
func (t ApprovalTrace) Find(step ApprovalStep, status StepStatus) (StepEvent, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Step == step && t[i].Status == status {
			return t[i], true
		}
	}

	return StepEvent{}, false
}

// ApprovalCredentials is returned to the approving administrator.
// Password is only meaningful when IdentityCreated is true.
type ApprovalCredentials struct {
	Email           string
	Password        string
	LoginURL        string
	IdentityCreated bool
}

// ApprovalLog is the audit row written together with the approved status.
type ApprovalLog struct {
	ID              uuid.UUID
	BusinessID      uuid.UUID
	ApprovedBy      uuid.UUID
	IdentityID      uuid.UUID
	IdentityCreated bool
	PlanType        PlanType
	Trace           ApprovalTrace
	CreatedAt       time.Time
}
