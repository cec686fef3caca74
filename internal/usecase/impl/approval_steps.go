package impl

import (
	"context"
	"log/slog"

	deliverycontext "bizdir/internal/delivery/context"
	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/domain/service"
	"bizdir/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (srv *approvalService) authenticate(ctx context.Context, run *approvalRun, input usecase.ApproveBusinessInput) error {
	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		adminID, err := srv.auth.Authenticate(ctx, input.Token)
		run.adminID = adminID

		return err
	})
	if err != nil {
		return err
	}

	run.logger = run.logger.With(slog.String("approved_by", run.adminID.String()))
	run.trace.record(entity.StepAuthenticating, entity.StepStatusSucceeded, "")

	return nil
}

func (srv *approvalService) loadBusiness(ctx context.Context, run *approvalRun, input usecase.ApproveBusinessInput) error {
	if input.PlanType != "" && !input.PlanType.IsValid() {
		return domainerrors.ErrInvalidBody.WithDetails("unknown plan type " + string(input.PlanType))
	}

	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		business, err := srv.businesses.FindByID(ctx, input.BusinessID)
		run.business = business

		return err
	})
	if errors.Is(err, repository.ErrBusinessNotFound) {
		return domainerrors.ErrBusinessNotFound
	}
	if err != nil {
		return domainerrors.ErrInternalError.Wrap(err, "failed to load business")
	}

	run.email = run.business.ContactEmail()
	if run.email == "" {
		return domainerrors.ErrMissingContact
	}

	run.plan = run.business.PlanType
	if input.PlanType != "" {
		run.plan = input.PlanType
	}
	if !run.plan.IsValid() {
		run.plan = entity.PlanTypeBasic
	}

	run.trace.record(entity.StepLoadingBusiness, entity.StepStatusSucceeded, string(run.business.Status))

	return nil
}

// resolveIdentity finds the login for the contact email or creates one with a temporary password.
// Losing a creation race to a concurrent approval means the login now exists, so it is re-read.
func (srv *approvalService) resolveIdentity(ctx context.Context, run *approvalRun, _ usecase.ApproveBusinessInput) error {
	identity, err := srv.findIdentity(ctx, run.email)
	if err == nil {
		run.identity = identity
		run.trace.record(entity.StepResolvingIdentity, entity.StepStatusReused, identity.ID.String())

		return nil
	}
	if !errors.Is(err, service.ErrIdentityNotFound) {
		return domainerrors.ErrIdentityProvisionFailed.Wrap(err, "identity lookup failed")
	}

	password, err := srv.passwords.Generate()
	if err != nil {
		return domainerrors.ErrInternalError.Wrap(err, "failed to generate temporary password")
	}

	err = srv.withTimeout(ctx, func(ctx context.Context) error {
		identity, err = srv.identities.Create(ctx, entity.NewIdentity{
			Email:          run.email,
			Password:       password,
			EmailConfirmed: true,
			Metadata: map[string]any{
				"name": run.business.DisplayName(),
				"role": entity.RolePartner.String(),
			},
		})

		return err
	})
	if errors.Is(err, service.ErrIdentityAlreadyExists) {
		identity, err = srv.findIdentity(ctx, run.email)
		if err != nil {
			return domainerrors.ErrIdentityProvisionFailed.Wrap(err, "identity created concurrently but could not be read back")
		}

		run.identity = identity
		run.trace.record(entity.StepResolvingIdentity, entity.StepStatusReused, identity.ID.String()+" (concurrent create)")

		return nil
	}
	if err != nil {
		return domainerrors.ErrIdentityProvisionFailed.Wrap(err, "identity provider rejected the login")
	}

	run.identity = identity
	run.identityCreated = true
	run.password = password
	identityID, businessID := identity.ID, run.business.ID
	run.undo.push("identity "+identityID.String(), func(ctx context.Context) error {
		if err := srv.ensureUnshared(ctx, identityID, businessID); err != nil {
			return err
		}

		return srv.identities.Delete(ctx, identityID)
	})
	run.trace.record(entity.StepResolvingIdentity, entity.StepStatusSucceeded, identityID.String())

	return nil
}

func (srv *approvalService) findIdentity(ctx context.Context, email string) (*entity.Identity, error) {
	var identity *entity.Identity
	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		identity, err = srv.identities.FindByEmail(ctx, email)

		return err
	})

	return identity, err
}

// ensureUnshared fails with repository.ErrResourceInUse when a partnership with another business
// depends on the identity. A concurrent approval may have reused a login this run created, and
// rolling back must not pull it out from under that partnership.
func (srv *approvalService) ensureUnshared(ctx context.Context, identityID, businessID uuid.UUID) error {
	partners, err := srv.partners.ListByIdentity(ctx, identityID)
	if err != nil {
		return errors.Wrap(err, "failed to list partnerships of identity")
	}
	for _, partner := range partners {
		if partner.BusinessID != businessID {
			return errors.Wrapf(repository.ErrResourceInUse, "identity is a partner of business %s", partner.BusinessID)
		}
	}

	return nil
}

// provisionProfile ensures the partner profile keyed by the identity id exists.
func (srv *approvalService) provisionProfile(ctx context.Context, run *approvalRun, _ usecase.ApproveBusinessInput) error {
	identityID, businessID := run.identity.ID, run.business.ID

	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		_, err := srv.profiles.FindByID(ctx, identityID)

		return err
	})
	if err == nil {
		run.trace.record(entity.StepProvisioningProfile, entity.StepStatusReused, identityID.String())

		return nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return domainerrors.ErrProfileProvisionFailed.Wrap(err, "profile lookup failed")
	}

	err = srv.withTimeout(ctx, func(ctx context.Context) error {
		return srv.profiles.Create(ctx, &entity.Profile{
			ID:   identityID,
			Name: run.business.DisplayName(),
			Role: entity.RolePartner,
		})
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		run.trace.record(entity.StepProvisioningProfile, entity.StepStatusReused, identityID.String()+" (concurrent create)")

		return nil
	}
	if err != nil {
		return domainerrors.ErrProfileProvisionFailed.Wrap(err, "profile insert failed")
	}

	run.undo.push("profile "+identityID.String(), func(ctx context.Context) error {
		if err := srv.ensureUnshared(ctx, identityID, businessID); err != nil {
			return err
		}

		return srv.profiles.Delete(ctx, identityID)
	})
	run.trace.record(entity.StepProvisioningProfile, entity.StepStatusSucceeded, identityID.String())

	return nil
}

// linkPartnership ensures exactly one active partnership joins the identity to the business.
func (srv *approvalService) linkPartnership(ctx context.Context, run *approvalRun, _ usecase.ApproveBusinessInput) error {
	identityID, businessID := run.identity.ID, run.business.ID

	var existing *entity.Partner
	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		existing, err = srv.partners.FindByIdentityAndBusiness(ctx, identityID, businessID)

		return err
	})
	if err == nil {
		run.trace.record(entity.StepLinkingPartnership, entity.StepStatusReused, existing.ID.String())

		return nil
	}
	if !errors.Is(err, repository.ErrPartnerNotFound) {
		return domainerrors.ErrPartnershipLinkFailed.Wrap(err, "partnership lookup failed")
	}

	partner := &entity.Partner{
		IdentityID: identityID,
		BusinessID: businessID,
		Status:     entity.PartnerStatusActive,
		ApprovedBy: run.adminID,
	}
	err = srv.withTimeout(ctx, func(ctx context.Context) error {
		return srv.partners.Create(ctx, partner)
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		run.trace.record(entity.StepLinkingPartnership, entity.StepStatusReused, "concurrent create")

		return nil
	}
	if err != nil {
		return domainerrors.ErrPartnershipLinkFailed.Wrap(err, "partnership insert failed")
	}

	partnerID := partner.ID
	run.undo.push("partner "+partnerID.String(), func(ctx context.Context) error {
		return srv.partners.Delete(ctx, partnerID)
	})
	run.trace.record(entity.StepLinkingPartnership, entity.StepStatusSucceeded, partnerID.String())

	return nil
}

// transitionApproval flips the business to approved and appends the audit row in one transaction.
func (srv *approvalService) transitionApproval(ctx context.Context, run *approvalRun, _ usecase.ApproveBusinessInput) error {
	limits := srv.plans[run.plan]
	approvedAt := srv.now().UTC()

	// The audit row stores the trace as it stands once this step commits.
	committed := entity.StepEvent{
		Step:   entity.StepTransitioningApproval,
		Status: entity.StepStatusSucceeded,
		Detail: string(run.plan),
		At:     approvedAt,
	}
	auditTrace := append(run.trace.snapshot(), committed)

	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		return srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
			if err := repos.BusinessRepo().ApplyApproval(ctx, run.business.ID, entity.ApprovalPatch{
				Status:     entity.BusinessStatusApproved,
				PlanType:   run.plan,
				MaxCoupons: limits.MaxCoupons,
				MaxPhotos:  limits.MaxPhotos,
				ApprovedAt: approvedAt,
				ApprovedBy: run.adminID,
			}); err != nil {
				return err
			}

			return repos.ApprovalLogRepo().Create(ctx, &entity.ApprovalLog{
				BusinessID:      run.business.ID,
				ApprovedBy:      run.adminID,
				IdentityID:      run.identity.ID,
				IdentityCreated: run.identityCreated,
				PlanType:        run.plan,
				Trace:           auditTrace,
			})
		})
	})
	if err != nil {
		return domainerrors.ErrApprovalPersistFailed.Wrap(err, "approval update failed")
	}
	run.trace.events = append(run.trace.events, committed)

	run.business.Status = entity.BusinessStatusApproved
	run.business.PlanType = run.plan
	run.business.MaxCoupons = limits.MaxCoupons
	run.business.MaxPhotos = limits.MaxPhotos
	run.business.ApprovedAt = &approvedAt
	run.business.ApprovedBy = &run.adminID

	return nil
}

// notify sends the welcome email. Failures are logged and reported through the return value only.
func (srv *approvalService) notify(ctx context.Context, run *approvalRun) bool {
	password := PasswordPlaceholder
	if run.identityCreated {
		password = run.password
	}
	limits := srv.plans[run.plan]

	subject, html, err := srv.renderer.RenderWelcome(service.WelcomeEmail{
		To:              run.email,
		PartnerName:     run.business.DisplayName(),
		BusinessName:    run.business.Name,
		Password:        password,
		IdentityCreated: run.identityCreated,
		PlanType:        string(run.plan),
		MaxCoupons:      limits.MaxCoupons,
		MaxPhotos:       limits.MaxPhotos,
		LoginURL:        srv.loginURL,
	})
	if err == nil {
		err = srv.withTimeout(ctx, func(ctx context.Context) error {
			return srv.mailer.Send(ctx, run.email, subject, html)
		})
	}
	if err != nil {
		notifyErr := domainerrors.ErrNotificationFailed.Wrap(err, run.email)
		run.trace.record(entity.StepNotifying, entity.StepStatusSkipped, notifyErr.Error())
		run.logger.Warn("Welcome email not delivered, credentials must be handed over manually", slog.Any("error", notifyErr))

		return false
	}

	run.trace.record(entity.StepNotifying, entity.StepStatusSucceeded, run.email)

	return true
}

// publishApproved emits the BusinessApproved event, best-effort like the email.
func (srv *approvalService) publishApproved(ctx context.Context, run *approvalRun) {
	if srv.publisher == nil {
		return
	}
	run.trace.record(entity.StepPublishing, entity.StepStatusStarted, "")

	event := &service.BusinessApprovedEvent{
		RequestID:       deliverycontext.GetRequestIDFromContext(ctx),
		BusinessID:      run.business.ID.String(),
		IdentityID:      run.identity.ID.String(),
		ApprovedBy:      run.adminID.String(),
		PlanType:        string(run.plan),
		IdentityCreated: run.identityCreated,
	}
	if run.business.ApprovedAt != nil {
		event.ApprovedAt = *run.business.ApprovedAt
	}

	err := srv.withTimeout(ctx, func(ctx context.Context) error {
		return srv.publisher.PublishBusinessApproved(ctx, event)
	})
	if err != nil {
		run.trace.record(entity.StepPublishing, entity.StepStatusSkipped, err.Error())
		run.logger.Warn("Failed to publish business approved event", slog.Any("error", err))

		return
	}

	run.trace.record(entity.StepPublishing, entity.StepStatusSucceeded, event.BusinessID)
}
