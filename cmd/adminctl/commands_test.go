package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"bizdir/internal/domain/entity"
	"bizdir/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentityProvider struct {
	existing *entity.Identity
	findErr  error
	created  *entity.NewIdentity
}

func (p *stubIdentityProvider) FindByEmail(_ context.Context, _ string) (*entity.Identity, error) {
	if p.existing != nil {
		return p.existing, nil
	}
	if p.findErr != nil {
		return nil, p.findErr
	}

	return nil, service.ErrIdentityNotFound
}

func (p *stubIdentityProvider) Create(_ context.Context, input entity.NewIdentity) (*entity.Identity, error) {
	p.created = &input

	return &entity.Identity{ID: uuid.New(), Email: input.Email}, nil
}

func (p *stubIdentityProvider) Delete(context.Context, uuid.UUID) error {
	return nil
}

type fixedPassword string

func (p fixedPassword) Generate() (string, error) {
	return string(p), nil
}

func TestResolveAdminIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("existing identity is reused", func(t *testing.T) {
		existing := &entity.Identity{ID: uuid.New(), Email: "ops@x.com"}
		provider := &stubIdentityProvider{existing: existing}

		got, err := resolveAdminIdentity(ctx, provider, fixedPassword("unused"), "ops@x.com", grantOptions{}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
		assert.Nil(t, provider.created)
	})

	t.Run("missing identity without -create fails", func(t *testing.T) {
		_, err := resolveAdminIdentity(ctx, &stubIdentityProvider{}, fixedPassword("unused"), "ops@x.com", grantOptions{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-create")
	})

	t.Run("created with generated password", func(t *testing.T) {
		provider := &stubIdentityProvider{}
		var out bytes.Buffer

		got, err := resolveAdminIdentity(ctx, provider, fixedPassword("Gen3rated#Pw"), "ops@x.com", grantOptions{create: true}, &out)
		require.NoError(t, err)
		assert.Equal(t, "ops@x.com", got.Email)
		require.NotNil(t, provider.created)
		assert.Equal(t, "Gen3rated#Pw", provider.created.Password)
		assert.True(t, provider.created.EmailConfirmed)
		assert.Contains(t, out.String(), "Gen3rated#Pw")
	})

	t.Run("explicit password is not echoed", func(t *testing.T) {
		provider := &stubIdentityProvider{}
		var out bytes.Buffer

		_, err := resolveAdminIdentity(ctx, provider, fixedPassword("unused"), "ops@x.com", grantOptions{create: true, password: "Chosen#Pw123"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "Chosen#Pw123", provider.created.Password)
		assert.Empty(t, out.String())
	})

	t.Run("lookup failure is surfaced", func(t *testing.T) {
		provider := &stubIdentityProvider{findErr: errors.New("connection refused")}

		_, err := resolveAdminIdentity(ctx, provider, fixedPassword("unused"), "ops@x.com", grantOptions{create: true}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Nil(t, provider.created)
	})
}

func TestNewPendingBusiness(t *testing.T) {
	business, err := newPendingBusiness(businessOptions{name: " Cafe ", email: "owner@x.com", contact: "Ana", plan: "premium"})
	require.NoError(t, err)
	assert.Equal(t, "Cafe", business.Name)
	require.NotNil(t, business.ResponsibleEmail)
	assert.Equal(t, "owner@x.com", *business.ResponsibleEmail)
	assert.Equal(t, entity.BusinessStatusPending, business.Status)
	assert.Equal(t, entity.PlanTypePremium, business.PlanType)

	business, err = newPendingBusiness(businessOptions{name: "No Contact", plan: "basic"})
	require.NoError(t, err)
	assert.Nil(t, business.ResponsibleEmail)

	_, err = newPendingBusiness(businessOptions{name: "", plan: "basic"})
	require.Error(t, err)

	_, err = newPendingBusiness(businessOptions{name: "Cafe", plan: "gold"})
	require.Error(t, err)
}

func TestWriteHistory(t *testing.T) {
	businessID := uuid.New()
	adminID := uuid.New()
	identityID := uuid.New()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	logs := []*entity.ApprovalLog{{
		BusinessID:      businessID,
		ApprovedBy:      adminID,
		IdentityID:      identityID,
		IdentityCreated: true,
		PlanType:        entity.PlanTypePremium,
		CreatedAt:       at,
		Trace: entity.ApprovalTrace{
			{Step: entity.StepResolvingIdentity, Status: entity.StepStatusSucceeded, Detail: identityID.String()},
			{Step: entity.StepTransitioningApproval, Status: entity.StepStatusSucceeded, Detail: "premium"},
		},
	}}

	t.Run("summary only", func(t *testing.T) {
		var out bytes.Buffer
		writeHistory(&out, businessID, logs, false)

		assert.Contains(t, out.String(), "2026-03-01T09:30:00Z")
		assert.Contains(t, out.String(), "approved_by="+adminID.String())
		assert.Contains(t, out.String(), "identity_created=true plan=premium")
		assert.NotContains(t, out.String(), string(entity.StepResolvingIdentity))
	})

	t.Run("with trace", func(t *testing.T) {
		var out bytes.Buffer
		writeHistory(&out, businessID, logs, true)

		assert.Contains(t, out.String(), string(entity.StepResolvingIdentity))
		assert.Contains(t, out.String(), string(entity.StepTransitioningApproval))
	})

	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		writeHistory(&out, businessID, nil, true)

		assert.Equal(t, "No approvals recorded for "+businessID.String()+"\n", out.String())
	})
}
