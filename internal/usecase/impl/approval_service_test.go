package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"bizdir/config"
	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/service"
	"bizdir/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-token"

// approvalServiceFixtures holds all test dependencies for approval service tests.
type approvalServiceFixtures struct {
	service   usecase.ApprovalUsecase
	store     *memStore
	mailer    *mockMailer
	publisher *mockEventPublisher
	adminID   uuid.UUID
}

func createTestApprovalService(t *testing.T, approvalCfg *config.ApprovalConfig) approvalServiceFixtures {
	t.Helper()

	store := newMemStore()
	adminID := uuid.New()
	mailer := new(mockMailer)
	publisher := new(mockEventPublisher)

	if approvalCfg == nil {
		approvalCfg = &config.ApprovalConfig{}
	}
	approvalCfg.LoginURL = "https://partners.example.com/login"

	svc := NewApprovalService(ApprovalServiceParams{
		Auth:       stubAuthenticator{admins: map[string]uuid.UUID{adminToken: adminID}},
		Businesses: memBusinessRepo{store},
		Profiles:   memProfileRepo{store},
		Partners:   memPartnerRepo{store},
		TxManager:  memTxManager{store},
		Identities: memIdentityProvider{store},
		Passwords:  &sequencePasswordGenerator{},
		Renderer:   stubRenderer{},
		Mailer:     mailer,
		Publisher:  publisher,
		Config: &config.Config{
			Approval: approvalCfg,
			Plans: &config.PlansConfig{
				Basic:   config.PlanLimit{MaxCoupons: 1, MaxPhotos: 5},
				Premium: config.PlanLimit{MaxCoupons: 10, MaxPhotos: 20},
			},
		},
		Logger: newDiscardLogger(),
	})

	t.Cleanup(func() {
		mailer.AssertExpectations(t)
	})

	return approvalServiceFixtures{
		service:   svc,
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		adminID:   adminID,
	}
}

func (f approvalServiceFixtures) expectDeliveries() {
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishBusinessApproved", mock.Anything, mock.Anything).Return(nil)
}

func (f approvalServiceFixtures) approve(t *testing.T, businessID uuid.UUID) (*usecase.ApproveBusinessOutput, error) {
	t.Helper()

	return f.service.ApproveBusiness(context.Background(), usecase.ApproveBusinessInput{
		Token:      adminToken,
		BusinessID: businessID,
	})
}

func requireApprovalError(t *testing.T, err error, sentinel error) *usecase.ApprovalError {
	t.Helper()

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var approvalErr *usecase.ApprovalError
	require.True(t, errors.As(err, &approvalErr))
	assert.Equal(t, entity.StepFailed, approvalErr.Trace.Last().Step)

	return approvalErr
}

func TestApprovalService_ApproveBusiness_NewPartner(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.True(t, out.Credentials.IdentityCreated)
	assert.Equal(t, "a@x.com", out.Credentials.Email)
	assert.Len(t, out.Credentials.Password, 12)
	assert.Equal(t, "https://partners.example.com/login", out.Credentials.LoginURL)
	assert.True(t, out.NotificationSent)
	assert.Equal(t, f.adminID, out.ApprovedBy)

	assert.Equal(t, 1, f.store.identityCreates)
	assert.Equal(t, 1, f.store.profileCreates)
	assert.Equal(t, 1, f.store.partnerCreates)

	profile := f.store.profiles[out.IdentityID]
	require.NotNil(t, profile)
	assert.Equal(t, entity.RolePartner, profile.Role)

	identity := f.store.identities["a@x.com"]
	require.NotNil(t, identity)
	assert.NotNil(t, identity.EmailConfirmedAt, "administrator-vouched email is pre-confirmed")
	assert.Equal(t, out.Credentials.Password, f.store.passwords[identity.ID])

	partner, err := memPartnerRepo{f.store}.FindByIdentityAndBusiness(context.Background(), out.IdentityID, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PartnerStatusActive, partner.Status)
	assert.Equal(t, f.adminID, partner.ApprovedBy)

	approved := f.store.business(b1.ID)
	assert.Equal(t, entity.BusinessStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.adminID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, 1, approved.MaxCoupons)
	assert.Equal(t, 5, approved.MaxPhotos)

	assert.Equal(t, []entity.ApprovalStep{
		entity.StepAuthenticating,
		entity.StepLoadingBusiness,
		entity.StepResolvingIdentity,
		entity.StepProvisioningProfile,
		entity.StepLinkingPartnership,
		entity.StepTransitioningApproval,
		entity.StepNotifying,
		entity.StepPublishing,
		entity.StepDone,
	}, out.Trace.Steps())

	require.Len(t, f.store.logs, 1)
	assert.True(t, f.store.logs[0].IdentityCreated)
	assert.Equal(t, entity.StepTransitioningApproval, f.store.logs[0].Trace.Last().Step)

	f.publisher.AssertCalled(t, "PublishBusinessApproved", mock.Anything, mock.MatchedBy(func(ev *service.BusinessApprovedEvent) bool {
		return ev.BusinessID == b1.ID.String() && ev.IdentityCreated && ev.PlanType == "basic"
	}))
}

func TestApprovalService_ApproveBusiness_SharedIdentityAcrossBusinesses(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")
	b2 := f.store.addBusiness("a@x.com")

	first, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	second, err := f.approve(t, b2.ID)
	require.NoError(t, err)

	assert.Equal(t, first.IdentityID, second.IdentityID)
	assert.False(t, second.Credentials.IdentityCreated)
	assert.Equal(t, PasswordPlaceholder, second.Credentials.Password)

	assert.Equal(t, 1, f.store.identityCreates, "no new identity for the second business")
	assert.Equal(t, 1, f.store.profileCreates, "no new profile for the second business")
	assert.Equal(t, 2, f.store.partnerCreates)
	assert.Equal(t, 2, f.store.partnerCount())
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b2.ID).Status)

	_, reused := second.Trace.Find(entity.StepResolvingIdentity, entity.StepStatusReused)
	assert.True(t, reused)
	_, reused = second.Trace.Find(entity.StepProvisioningProfile, entity.StepStatusReused)
	assert.True(t, reused)
}

func TestApprovalService_ApproveBusiness_Idempotent(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	first, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	second, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.Equal(t, first.IdentityID, second.IdentityID)
	assert.Equal(t, "a@x.com", second.Credentials.Email)
	assert.Equal(t, PasswordPlaceholder, second.Credentials.Password)
	assert.Equal(t, 1, f.store.identityCreates)
	assert.Equal(t, 1, f.store.profileCreates)
	assert.Equal(t, 1, f.store.partnerCreates)

	_, reused := second.Trace.Find(entity.StepLinkingPartnership, entity.StepStatusReused)
	assert.True(t, reused)
}

func TestApprovalService_ApproveBusiness_PartialStateRecovery(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	// A previous run created the identity and profile, then died before linking.
	identity := f.store.insertIdentity("a@x.com")
	f.store.profiles[identity.ID] = &entity.Profile{ID: identity.ID, Name: "Owner", Role: entity.RolePartner}

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.Equal(t, identity.ID, out.IdentityID)
	assert.Equal(t, 0, f.store.identityCreates)
	assert.Equal(t, 0, f.store.profileCreates)
	assert.Equal(t, 1, f.store.partnerCreates)
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b1.ID).Status)
}

func TestApprovalService_ApproveBusiness_RollbackOnLateFailure(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["partners.Create"] = errStorageDown

	out, err := f.approve(t, b1.ID)
	assert.Nil(t, out)
	approvalErr := requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)
	assert.Equal(t, entity.StepLinkingPartnership, approvalErr.Step)

	assert.Empty(t, f.store.identities, "new identity removed")
	assert.Empty(t, f.store.profiles, "new profile removed")
	assert.Equal(t, []string{"profile", "identity"}, f.store.deleted, "compensation runs newest first")
	assert.Equal(t, entity.BusinessStatusPending, f.store.business(b1.ID).Status)

	steps := approvalErr.Trace.Steps()
	assert.Equal(t, []entity.ApprovalStep{
		entity.StepAuthenticating,
		entity.StepLoadingBusiness,
		entity.StepResolvingIdentity,
		entity.StepProvisioningProfile,
		entity.StepLinkingPartnership,
		entity.StepCompensating,
		entity.StepFailed,
	}, steps)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApprovalService_ApproveBusiness_RollbackKeepsIdentityReusedByConcurrentApproval(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")
	b2 := f.store.addBusiness("a@x.com")

	// The approval of b2 reuses the login created for b1 and completes while b1's partner insert
	// is in flight. The b1 insert then fails.
	var concurrent *usecase.ApproveBusinessOutput
	var concurrentErr error
	f.store.beforePartnerCreate = func(partner *entity.Partner) error {
		if partner.BusinessID != b1.ID {
			return nil
		}
		concurrent, concurrentErr = f.approve(t, b2.ID)

		return errStorageDown
	}

	_, err := f.approve(t, b1.ID)
	approvalErr := requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)

	require.NoError(t, concurrentErr)
	assert.False(t, concurrent.Credentials.IdentityCreated)
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b2.ID).Status)
	assert.Equal(t, entity.BusinessStatusPending, f.store.business(b1.ID).Status)

	assert.Equal(t, 1, f.store.identityCount(), "login shared with b2 survives the rollback")
	assert.Contains(t, f.store.profiles, concurrent.IdentityID)
	assert.Equal(t, 1, f.store.partnerCount())
	assert.Empty(t, f.store.deleted)

	skipped := 0
	for _, ev := range approvalErr.Trace {
		if ev.Step == entity.StepCompensating && ev.Status == entity.StepStatusSkipped {
			skipped++
			assert.Contains(t, ev.Detail, b2.ID.String())
		}
	}
	assert.Equal(t, 2, skipped, "profile and identity undo are both skipped")
	_, failed := approvalErr.Trace.Find(entity.StepCompensating, entity.StepStatusFailed)
	assert.False(t, failed)
}

func TestApprovalService_ApproveBusiness_ProfileFailureRemovesNewIdentity(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["profiles.Create"] = errStorageDown

	_, err := f.approve(t, b1.ID)
	requireApprovalError(t, err, domainerrors.ErrProfileProvisionFailed)

	assert.Empty(t, f.store.identities)
	assert.Equal(t, []string{"identity"}, f.store.deleted)
	assert.Equal(t, entity.BusinessStatusPending, f.store.business(b1.ID).Status)
}

func TestApprovalService_ApproveBusiness_NoCompensationOfPreexistingResources(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	identity := f.store.insertIdentity("a@x.com")
	f.store.profiles[identity.ID] = &entity.Profile{ID: identity.ID, Name: "Owner", Role: entity.RolePartner}
	f.store.failures["partners.Create"] = errStorageDown

	_, err := f.approve(t, b1.ID)
	approvalErr := requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)

	assert.Contains(t, f.store.identities, "a@x.com")
	assert.Contains(t, f.store.profiles, identity.ID)
	assert.Empty(t, f.store.deleted)
	assert.NotContains(t, approvalErr.Trace.Steps(), entity.StepCompensating)
}

func TestApprovalService_ApproveBusiness_CompensationIgnoresCancelledRequest(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["partners.Create"] = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Deletes must still run when the caller has already gone away.
	f.store.beforeIdentityCreate = func(string) { cancel() }

	_, err := f.service.ApproveBusiness(ctx, usecase.ApproveBusinessInput{Token: adminToken, BusinessID: b1.ID})
	requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)
	assert.Empty(t, f.store.identities)
	assert.Empty(t, f.store.profiles)
}

func TestApprovalService_ApproveBusiness_CompensationFailureKeepsOriginalError(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["partners.Create"] = errStorageDown
	f.store.failures["identities.Delete"] = errors.New("provider unavailable")

	_, err := f.approve(t, b1.ID)
	approvalErr := requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)

	assert.Empty(t, f.store.profiles, "remaining compensations still run")
	_, failed := approvalErr.Trace.Find(entity.StepCompensating, entity.StepStatusFailed)
	assert.True(t, failed)
}

func TestApprovalService_ApproveBusiness_PersistFailure(t *testing.T) {
	tests := []struct {
		name       string
		compensate bool
	}{
		{name: "default keeps provisioned resources", compensate: false},
		{name: "configured to roll back", compensate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestApprovalService(t, &config.ApprovalConfig{CompensateOnPersistFailure: tt.compensate})
			b1 := f.store.addBusiness("a@x.com")
			f.store.failures["businesses.ApplyApproval"] = errStorageDown

			_, err := f.approve(t, b1.ID)
			approvalErr := requireApprovalError(t, err, domainerrors.ErrApprovalPersistFailed)
			assert.Equal(t, entity.StepTransitioningApproval, approvalErr.Step)
			assert.Equal(t, entity.BusinessStatusPending, f.store.business(b1.ID).Status)
			assert.Empty(t, f.store.logs)

			if tt.compensate {
				assert.Empty(t, f.store.identities)
				assert.Empty(t, f.store.profiles)
				assert.Zero(t, f.store.partnerCount())
				assert.Equal(t, []string{"partner", "profile", "identity"}, f.store.deleted)
			} else {
				assert.Len(t, f.store.identities, 1)
				assert.Len(t, f.store.profiles, 1)
				assert.Equal(t, 1, f.store.partnerCount())
				assert.Empty(t, f.store.deleted)
			}
		})
	}
}

func TestApprovalService_ApproveBusiness_AuditLogFailureRollsBackStatus(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["approvalLogs.Create"] = errStorageDown

	_, err := f.approve(t, b1.ID)
	requireApprovalError(t, err, domainerrors.ErrApprovalPersistFailed)
	assert.Equal(t, entity.BusinessStatusPending, f.store.business(b1.ID).Status)
}

func TestApprovalService_ApproveBusiness_NotificationNeverBlocks(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.mailer.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	f.publisher.On("PublishBusinessApproved", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	b1 := f.store.addBusiness("a@x.com")

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.False(t, out.NotificationSent)
	assert.Len(t, out.Credentials.Password, 12)
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b1.ID).Status)
	assert.Equal(t, entity.StepDone, out.Trace.Last().Step)

	ev, skipped := out.Trace.Find(entity.StepNotifying, entity.StepStatusSkipped)
	require.True(t, skipped)
	assert.Contains(t, ev.Detail, "smtp down")

	ev, skipped = out.Trace.Find(entity.StepPublishing, entity.StepStatusSkipped)
	require.True(t, skipped)
	assert.Contains(t, ev.Detail, "broker down")
}

func TestApprovalService_ApproveBusiness_NotificationTimeoutSwallowed(t *testing.T) {
	f := createTestApprovalService(t, &config.ApprovalConfig{StepTimeout: 20 * time.Millisecond})
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)
	f.publisher.On("PublishBusinessApproved", mock.Anything, mock.Anything).Return(nil)
	b1 := f.store.addBusiness("a@x.com")

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)
	assert.False(t, out.NotificationSent)
}

func TestApprovalService_ApproveBusiness_PlanOverride(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	out, err := f.service.ApproveBusiness(context.Background(), usecase.ApproveBusinessInput{
		Token:      adminToken,
		BusinessID: b1.ID,
		PlanType:   entity.PlanTypePremium,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PlanTypePremium, out.PlanType)
	approved := f.store.business(b1.ID)
	assert.Equal(t, entity.PlanTypePremium, approved.PlanType)
	assert.Equal(t, 10, approved.MaxCoupons)
	assert.Equal(t, 20, approved.MaxPhotos)
}

func TestApprovalService_ApproveBusiness_EarlyFailures(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		email    string
		plan     entity.PlanType
		unknown  bool
		sentinel error
		step     entity.ApprovalStep
	}{
		{name: "missing token", token: "", email: "a@x.com", sentinel: domainerrors.ErrUnauthenticated, step: entity.StepAuthenticating},
		{name: "invalid token", token: "garbage", email: "a@x.com", sentinel: domainerrors.ErrUnauthenticated, step: entity.StepAuthenticating},
		{name: "not an administrator", token: "user-token", email: "a@x.com", sentinel: domainerrors.ErrForbidden, step: entity.StepAuthenticating},
		{name: "unknown business", token: adminToken, email: "a@x.com", unknown: true, sentinel: domainerrors.ErrBusinessNotFound, step: entity.StepLoadingBusiness},
		{name: "missing contact", token: adminToken, email: "", sentinel: domainerrors.ErrMissingContact, step: entity.StepLoadingBusiness},
		{name: "blank contact", token: adminToken, email: "   ", sentinel: domainerrors.ErrMissingContact, step: entity.StepLoadingBusiness},
		{name: "invalid plan", token: adminToken, email: "a@x.com", plan: "gold", sentinel: domainerrors.ErrInvalidBody, step: entity.StepLoadingBusiness},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTestApprovalService(t, nil)
			b := f.store.addBusiness(tt.email)
			businessID := b.ID
			if tt.unknown {
				businessID = uuid.New()
			}

			_, err := f.service.ApproveBusiness(context.Background(), usecase.ApproveBusinessInput{
				Token:      tt.token,
				BusinessID: businessID,
				PlanType:   tt.plan,
			})
			approvalErr := requireApprovalError(t, err, tt.sentinel)
			assert.Equal(t, tt.step, approvalErr.Step)

			assert.Zero(t, f.store.identityCreates)
			assert.Empty(t, f.store.deleted)
			assert.Equal(t, entity.BusinessStatusPending, f.store.business(b.ID).Status)
		})
	}
}

func TestApprovalService_ApproveBusiness_IdentityProviderFailure(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.failures["identities.Create"] = errors.New("provider rejected email")

	_, err := f.approve(t, b1.ID)
	approvalErr := requireApprovalError(t, err, domainerrors.ErrIdentityProvisionFailed)
	assert.Equal(t, entity.StepResolvingIdentity, approvalErr.Step)
	assert.Empty(t, f.store.deleted)
	assert.Empty(t, f.store.profiles)
}

func TestApprovalService_ApproveBusiness_IdentityCreateRace(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	// Another approval for the same email wins the insert between lookup and create.
	var winner *entity.Identity
	f.store.beforeIdentityCreate = func(email string) {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		winner = f.store.insertIdentity(email)
	}

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, out.IdentityID)
	assert.False(t, out.Credentials.IdentityCreated)
	assert.Equal(t, PasswordPlaceholder, out.Credentials.Password)
	assert.Len(t, f.store.identities, 1)
}

func TestApprovalService_ApproveBusiness_ProfileCreateRace(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	// Another approval inserts the profile between lookup and create.
	f.store.beforeProfileCreate = func(id uuid.UUID) {
		f.store.insertProfile(id)
	}

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.profileCreates)
	assert.Contains(t, f.store.profiles, out.IdentityID)
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b1.ID).Status)

	ev, reused := out.Trace.Find(entity.StepProvisioningProfile, entity.StepStatusReused)
	require.True(t, reused)
	assert.Contains(t, ev.Detail, "concurrent create")
}

func TestApprovalService_ApproveBusiness_ProfileCreateRaceIsNotCompensated(t *testing.T) {
	f := createTestApprovalService(t, nil)
	b1 := f.store.addBusiness("a@x.com")
	f.store.beforeProfileCreate = func(id uuid.UUID) {
		f.store.insertProfile(id)
	}
	f.store.failures["partners.Create"] = errStorageDown

	_, err := f.approve(t, b1.ID)
	requireApprovalError(t, err, domainerrors.ErrPartnershipLinkFailed)

	assert.Len(t, f.store.profiles, 1, "profile written by the other approval is kept")
	assert.Equal(t, []string{"identity"}, f.store.deleted)
}

func TestApprovalService_ApproveBusiness_PartnerCreateRace(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	// A duplicate request for the same business links the partner between lookup and create.
	f.store.beforePartnerCreate = func(partner *entity.Partner) error {
		f.store.insertPartner(partner.IdentityID, partner.BusinessID)

		return nil
	}

	out, err := f.approve(t, b1.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.partnerCreates)
	assert.Equal(t, 1, f.store.partnerCount())
	assert.Equal(t, entity.BusinessStatusApproved, f.store.business(b1.ID).Status)

	ev, reused := out.Trace.Find(entity.StepLinkingPartnership, entity.StepStatusReused)
	require.True(t, reused)
	assert.Contains(t, ev.Detail, "concurrent create")
}

func TestApprovalService_ApproveBusiness_ConcurrentSameEmail(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()

	businesses := make([]*entity.Business, 8)
	for i := range businesses {
		businesses[i] = f.store.addBusiness("shared@x.com")
	}

	var wg sync.WaitGroup
	outs := make([]*usecase.ApproveBusinessOutput, len(businesses))
	errs := make([]error, len(businesses))
	for i, b := range businesses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outs[i], errs[i] = f.approve(t, b.ID)
		}()
	}
	wg.Wait()

	created := 0
	for i := range businesses {
		require.NoError(t, errs[i])
		assert.Equal(t, outs[0].IdentityID, outs[i].IdentityID)
		if outs[i].Credentials.IdentityCreated {
			created++
		}
	}

	assert.Equal(t, 1, created)
	assert.Len(t, f.store.identities, 1)
	assert.Len(t, f.store.profiles, 1)
	assert.Equal(t, len(businesses), f.store.partnerCount())
}

func TestApprovalService_ApproveBusiness_ConcurrentSameBusiness(t *testing.T) {
	f := createTestApprovalService(t, nil)
	f.expectDeliveries()
	b1 := f.store.addBusiness("a@x.com")

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.approve(t, b1.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.partnerCount())
	assert.Len(t, f.store.identities, 1)
	assert.Len(t, f.store.profiles, 1)
}
