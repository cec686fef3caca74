package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for the tables and the identity provider, enforcing the
// same uniqueness constraints as the real schema.
type memStore struct {
	mu sync.Mutex

	businesses map[uuid.UUID]*entity.Business
	identities map[string]*entity.Identity
	passwords  map[uuid.UUID]string
	profiles   map[uuid.UUID]*entity.Profile
	partners   map[uuid.UUID]*entity.Partner
	logs       []*entity.ApprovalLog

	// failures makes the named operation return the error.
	failures map[string]error
	// The before* hooks run just before an insert, outside the lock, letting tests simulate a racing
	// approval. A non-nil error from beforePartnerCreate fails the insert.
	beforeIdentityCreate func(email string)
	beforeProfileCreate  func(id uuid.UUID)
	beforePartnerCreate  func(partner *entity.Partner) error

	identityCreates int
	profileCreates  int
	partnerCreates  int
	deleted         []string
}

func newMemStore() *memStore {
	return &memStore{
		businesses: map[uuid.UUID]*entity.Business{},
		identities: map[string]*entity.Identity{},
		passwords:  map[uuid.UUID]string{},
		profiles:   map[uuid.UUID]*entity.Profile{},
		partners:   map[uuid.UUID]*entity.Partner{},
		failures:   map[string]error{},
	}
}

func (s *memStore) fail(op string) error {
	return s.failures[op]
}

func (s *memStore) addBusiness(email string) *entity.Business {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &entity.Business{
		ID:              uuid.New(),
		Name:            "Business " + email,
		ResponsibleName: "Owner",
		Status:          entity.BusinessStatusPending,
		PlanType:        entity.PlanTypeBasic,
	}
	if email != "" {
		e := email
		b.ResponsibleEmail = &e
	}
	s.businesses[b.ID] = b

	return b
}

func (s *memStore) insertIdentity(email string) *entity.Identity {
	identity := &entity.Identity{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	s.identities[email] = identity

	return identity
}

func (s *memStore) insertProfile(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[id] = &entity.Profile{ID: id, Name: "Owner", Role: entity.RolePartner}
}

func (s *memStore) insertPartner(identityID, businessID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.partners[id] = &entity.Partner{ID: id, IdentityID: identityID, BusinessID: businessID, Status: entity.PartnerStatusActive}
}

func (s *memStore) identityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.identities)
}

func (s *memStore) partnerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.partners)
}

func (s *memStore) business(id uuid.UUID) entity.Business {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.businesses[id]
}

// --- service.IdentityProvider ---

type memIdentityProvider struct{ s *memStore }

func (p memIdentityProvider) FindByEmail(_ context.Context, email string) (*entity.Identity, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.s.fail("identities.FindByEmail"); err != nil {
		return nil, err
	}
	identity, ok := p.s.identities[email]
	if !ok {
		return nil, service.ErrIdentityNotFound
	}

	return identity, nil
}

func (p memIdentityProvider) Create(_ context.Context, input entity.NewIdentity) (*entity.Identity, error) {
	if hook := p.s.beforeIdentityCreate; hook != nil {
		hook(input.Email)
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.s.fail("identities.Create"); err != nil {
		return nil, err
	}
	if _, ok := p.s.identities[input.Email]; ok {
		return nil, service.ErrIdentityAlreadyExists
	}

	now := time.Now()
	identity := p.s.insertIdentity(input.Email)
	if input.EmailConfirmed {
		identity.EmailConfirmedAt = &now
	}
	identity.Metadata = input.Metadata
	p.s.passwords[identity.ID] = input.Password
	p.s.identityCreates++

	return identity, nil
}

func (p memIdentityProvider) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.s.fail("identities.Delete"); err != nil {
		return err
	}
	for email, identity := range p.s.identities {
		if identity.ID == id {
			delete(p.s.identities, email)
		}
	}
	p.s.deleted = append(p.s.deleted, "identity")

	return nil
}

// --- repository.BusinessRepository ---

type memBusinessRepo struct{ s *memStore }

func (r memBusinessRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fail("businesses.FindByID"); err != nil {
		return nil, err
	}
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	cp := *b

	return &cp, nil
}

func (r memBusinessRepo) Create(_ context.Context, business *entity.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *business
	r.s.businesses[business.ID] = &cp

	return nil
}

func (r memBusinessRepo) ApplyApproval(_ context.Context, id uuid.UUID, patch entity.ApprovalPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fail("businesses.ApplyApproval"); err != nil {
		return err
	}
	b, ok := r.s.businesses[id]
	if !ok {
		return repository.ErrBusinessNotFound
	}
	b.Status = patch.Status
	b.PlanType = patch.PlanType
	b.MaxCoupons = patch.MaxCoupons
	b.MaxPhotos = patch.MaxPhotos
	approvedAt, approvedBy := patch.ApprovedAt, patch.ApprovedBy
	b.ApprovedAt = &approvedAt
	b.ApprovedBy = &approvedBy

	return nil
}

// --- repository.ProfileRepository ---

type memProfileRepo struct{ s *memStore }

func (r memProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}

	return p, nil
}

func (r memProfileRepo) Create(_ context.Context, profile *entity.Profile) error {
	if hook := r.s.beforeProfileCreate; hook != nil {
		hook(profile.ID)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fail("profiles.Create"); err != nil {
		return err
	}
	if _, ok := r.s.profiles[profile.ID]; ok {
		return repository.ErrAlreadyExists
	}
	cp := *profile
	r.s.profiles[profile.ID] = &cp
	r.s.profileCreates++

	return nil
}

func (r memProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.partners {
		if p.IdentityID == id {
			return repository.ErrResourceInUse
		}
	}
	delete(r.s.profiles, id)
	r.s.deleted = append(r.s.deleted, "profile")

	return nil
}

// --- repository.PartnerRepository ---

type memPartnerRepo struct{ s *memStore }

func (r memPartnerRepo) FindByIdentityAndBusiness(_ context.Context, identityID, businessID uuid.UUID) (*entity.Partner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.partners {
		if p.IdentityID == identityID && p.BusinessID == businessID {
			return p, nil
		}
	}

	return nil, repository.ErrPartnerNotFound
}

func (r memPartnerRepo) Create(_ context.Context, partner *entity.Partner) error {
	if hook := r.s.beforePartnerCreate; hook != nil {
		if err := hook(partner); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fail("partners.Create"); err != nil {
		return err
	}
	for _, p := range r.s.partners {
		if p.IdentityID == partner.IdentityID && p.BusinessID == partner.BusinessID {
			return repository.ErrAlreadyExists
		}
	}
	partner.ID = uuid.New()
	cp := *partner
	r.s.partners[partner.ID] = &cp
	r.s.partnerCreates++

	return nil
}

func (r memPartnerRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.partners, id)
	r.s.deleted = append(r.s.deleted, "partner")

	return nil
}

func (r memPartnerRepo) ListByIdentity(_ context.Context, identityID uuid.UUID) ([]*entity.Partner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Partner
	for _, p := range r.s.partners {
		if p.IdentityID == identityID {
			out = append(out, p)
		}
	}

	return out, nil
}

// --- repository.ApprovalLogRepository / TransactionManager ---

type memApprovalLogRepo struct{ s *memStore }

func (r memApprovalLogRepo) Create(_ context.Context, log *entity.ApprovalLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fail("approvalLogs.Create"); err != nil {
		return err
	}
	r.s.logs = append(r.s.logs, log)

	return nil
}

func (r memApprovalLogRepo) ListByBusiness(_ context.Context, businessID uuid.UUID) ([]*entity.ApprovalLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.ApprovalLog
	for _, l := range r.s.logs {
		if l.BusinessID == businessID {
			out = append(out, l)
		}
	}

	return out, nil
}

// memTxManager applies the callback's writes only when it succeeds, like a rolled-back transaction.
type memTxManager struct{ s *memStore }

type memRepoFactory struct{ s *memStore }

func (f memRepoFactory) BusinessRepo() repository.BusinessRepository {
	return memBusinessRepo(f)
}

func (f memRepoFactory) ApprovalLogRepo() repository.ApprovalLogRepository {
	return memApprovalLogRepo(f)
}

func (m memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	m.s.mu.Lock()
	snapshot := make(map[uuid.UUID]entity.Business, len(m.s.businesses))
	for id, b := range m.s.businesses {
		snapshot[id] = *b
	}
	logCount := len(m.s.logs)
	m.s.mu.Unlock()

	if err := fn(memRepoFactory(m)); err != nil {
		m.s.mu.Lock()
		for id, b := range snapshot {
			restored := b
			m.s.businesses[id] = &restored
		}
		m.s.logs = m.s.logs[:logCount]
		m.s.mu.Unlock()

		return err
	}

	return nil
}

// --- collaborators ---

type stubAuthenticator struct {
	admins map[string]uuid.UUID
}

func (a stubAuthenticator) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, domainerrors.ErrUnauthenticated
	}
	id, ok := a.admins[token]
	if !ok {
		if token == "user-token" {
			return uuid.Nil, domainerrors.ErrForbidden
		}

		return uuid.Nil, domainerrors.ErrUnauthenticated
	}

	return id, nil
}

type sequencePasswordGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequencePasswordGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	passwords := []string{"Xy7#kPq9mZr2", "Ab3$cDe4fGh5", "Mn8&pQr2sTu6"}

	return passwords[(g.n-1)%len(passwords)], nil
}

type stubRenderer struct{}

func (stubRenderer) RenderWelcome(email service.WelcomeEmail) (string, string, error) {
	return "Welcome " + email.BusinessName, "<p>" + email.Password + "</p>", nil
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, html string) error {
	return m.Called(ctx, to, subject, html).Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishBusinessApproved(ctx context.Context, event *service.BusinessApprovedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventPublisher) Close() error {
	return m.Called().Error(0)
}

var errStorageDown = errors.New("storage unavailable")
