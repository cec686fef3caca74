package impl

import (
	"context"
	"log/slog"
	"time"

	"bizdir/config"
	deliverycontext "bizdir/internal/delivery/context"
	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/domain/service"
	"bizdir/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// PasswordPlaceholder is reported instead of a password when an existing login was reused.
const PasswordPlaceholder = "(unchanged)"

const (
	defaultStepTimeout         = 10 * time.Second
	defaultCompensationTimeout = 30 * time.Second
)

// approvalService implements the ApprovalUsecase interface.
type approvalService struct {
	auth        usecase.AdminAuthenticator
	businesses  repository.BusinessRepository
	profiles    repository.ProfileRepository
	partners    repository.PartnerRepository
	txManager   repository.TransactionManager
	identities  service.IdentityProvider
	passwords   service.PasswordGenerator
	renderer    service.WelcomeRenderer
	mailer      service.Mailer
	publisher   service.EventPublisher
	plans       map[entity.PlanType]entity.PlanLimits
	loginURL    string
	stepTimeout time.Duration
	undoTimeout time.Duration
	// compensateOnPersistFailure extends rollback to a failed status transition.
	compensateOnPersistFailure bool
	logger                     *slog.Logger
	now                        func() time.Time
}

// ApprovalServiceParams holds dependencies for ApprovalService, injected by Fx.
type ApprovalServiceParams struct {
	fx.In

	Auth       usecase.AdminAuthenticator
	Businesses repository.BusinessRepository
	Profiles   repository.ProfileRepository
	Partners   repository.PartnerRepository
	TxManager  repository.TransactionManager
	Identities service.IdentityProvider
	Passwords  service.PasswordGenerator
	Renderer   service.WelcomeRenderer
	Mailer     service.Mailer
	Publisher  service.EventPublisher `optional:"true"`
	Config     *config.Config
	Logger     *slog.Logger
}

// NewApprovalService is the constructor for approvalService.
func NewApprovalService(params ApprovalServiceParams) usecase.ApprovalUsecase {
	srv := &approvalService{
		auth:        params.Auth,
		businesses:  params.Businesses,
		profiles:    params.Profiles,
		partners:    params.Partners,
		txManager:   params.TxManager,
		identities:  params.Identities,
		passwords:   params.Passwords,
		renderer:    params.Renderer,
		mailer:      params.Mailer,
		publisher:   params.Publisher,
		stepTimeout: defaultStepTimeout,
		undoTimeout: defaultCompensationTimeout,
		plans: map[entity.PlanType]entity.PlanLimits{
			entity.PlanTypeBasic:   {MaxCoupons: 1, MaxPhotos: 5},
			entity.PlanTypePremium: {MaxCoupons: 10, MaxPhotos: 20},
		},
		logger: params.Logger,
		now:    time.Now,
	}

	if cfg := params.Config; cfg != nil {
		if cfg.Approval != nil {
			srv.loginURL = cfg.Approval.LoginURL
			srv.compensateOnPersistFailure = cfg.Approval.CompensateOnPersistFailure
			if cfg.Approval.StepTimeout > 0 {
				srv.stepTimeout = cfg.Approval.StepTimeout
			}
			if cfg.Approval.CompensationTimeout > 0 {
				srv.undoTimeout = cfg.Approval.CompensationTimeout
			}
		}
		if cfg.Plans != nil {
			srv.plans[entity.PlanTypeBasic] = entity.PlanLimits(cfg.Plans.Basic)
			srv.plans[entity.PlanTypePremium] = entity.PlanLimits(cfg.Plans.Premium)
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *approvalService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// approvalRun is the state of one ApproveBusiness invocation.
type approvalRun struct {
	trace  *traceRecorder
	undo   compensationStack
	logger *slog.Logger

	adminID         uuid.UUID
	business        *entity.Business
	email           string
	plan            entity.PlanType
	identity        *entity.Identity
	identityCreated bool
	password        string
}

// ApproveBusiness runs the approval steps in order. A step fails the run only after the
// resources created earlier in the run have been compensated; notification never fails it.
func (srv *approvalService) ApproveBusiness(ctx context.Context, input usecase.ApproveBusinessInput) (*usecase.ApproveBusinessOutput, error) {
	run := &approvalRun{
		trace:  newTraceRecorder(srv.now),
		logger: srv.log(ctx).With(slog.String("business_id", input.BusinessID.String())),
	}

	steps := []struct {
		step entity.ApprovalStep
		fn   func(context.Context, *approvalRun, usecase.ApproveBusinessInput) error
	}{
		{entity.StepAuthenticating, srv.authenticate},
		{entity.StepLoadingBusiness, srv.loadBusiness},
		{entity.StepResolvingIdentity, srv.resolveIdentity},
		{entity.StepProvisioningProfile, srv.provisionProfile},
		{entity.StepLinkingPartnership, srv.linkPartnership},
		{entity.StepTransitioningApproval, srv.transitionApproval},
	}

	for _, s := range steps {
		run.trace.record(s.step, entity.StepStatusStarted, "")
		if err := s.fn(ctx, run, input); err != nil {
			return nil, srv.fail(ctx, run, s.step, err)
		}
	}

	run.trace.record(entity.StepNotifying, entity.StepStatusStarted, "")
	sent := srv.notify(ctx, run)
	srv.publishApproved(ctx, run)

	run.trace.record(entity.StepDone, entity.StepStatusSucceeded, "")
	run.logger.Info("Business approved",
		slog.String("identity_id", run.identity.ID.String()),
		slog.Bool("identity_created", run.identityCreated),
		slog.String("plan_type", string(run.plan)),
		slog.Bool("notification_sent", sent),
	)

	password := PasswordPlaceholder
	if run.identityCreated {
		password = run.password
	}

	return &usecase.ApproveBusinessOutput{
		BusinessID: run.business.ID,
		IdentityID: run.identity.ID,
		ApprovedBy: run.adminID,
		PlanType:   run.plan,
		Credentials: entity.ApprovalCredentials{
			Email:           run.email,
			Password:        password,
			LoginURL:        srv.loginURL,
			IdentityCreated: run.identityCreated,
		},
		NotificationSent: sent,
		Trace:            run.trace.snapshot(),
	}, nil
}

// fail records the failure, unwinds compensations when the failed step calls for it and wraps
// the error with the trace.
func (srv *approvalService) fail(ctx context.Context, run *approvalRun, step entity.ApprovalStep, err error) error {
	run.trace.record(step, entity.StepStatusFailed, err.Error())

	if srv.compensates(step) && run.undo.size() > 0 {
		run.trace.record(entity.StepCompensating, entity.StepStatusStarted, "")
		if undoErr := run.undo.unwind(ctx, srv.undoTimeout, run.trace, run.logger); undoErr != nil {
			run.logger.Error("Approval rollback incomplete", slog.Any("error", undoErr))
		}
	}

	run.trace.record(entity.StepFailed, entity.StepStatusFailed, string(step))

	level := slog.LevelWarn
	if appErr, ok := asAppError(err); ok && appErr.HTTPCode() >= 500 {
		level = slog.LevelError
	}
	run.logger.Log(ctx, level, "Business approval failed",
		slog.String("step", string(step)),
		slog.Any("error", err),
	)

	return &usecase.ApprovalError{Step: step, Trace: run.trace.snapshot(), Err: err}
}

// compensates reports whether a failure at step rolls back what the run created.
func (srv *approvalService) compensates(step entity.ApprovalStep) bool {
	switch step {
	case entity.StepProvisioningProfile, entity.StepLinkingPartnership:
		return true
	case entity.StepTransitioningApproval:
		return srv.compensateOnPersistFailure
	default:
		return false
	}
}

// withTimeout bounds a single external call of a step.
func (srv *approvalService) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, srv.stepTimeout)
	defer cancel()

	return fn(callCtx)
}

func asAppError(err error) (domainerrors.AppError, bool) {
	var appErr domainerrors.AppError
	ok := errors.As(err, &appErr)

	return appErr, ok
}
