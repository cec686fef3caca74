// Package identity contains the login providers behind service.IdentityProvider.
package identity

import (
	"context"
	"strings"
	"time"

	"bizdir/internal/domain/entity"
	"bizdir/internal/domain/service"
	"bizdir/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const pgUniqueViolation = "23505"

// postgresProvider keeps logins in the identities table with bcrypt password hashes.
type postgresProvider struct {
	db     *gorm.DB
	hasher service.PasswordHasher
	now    func() time.Time
}

// NewPostgresProvider is the constructor for postgresProvider.
func NewPostgresProvider(db *gorm.DB, hasher service.PasswordHasher) service.IdentityProvider {
	return &postgresProvider{
		db:     db,
		hasher: hasher,
		now:    time.Now,
	}
}

// FindByEmail reads from the primary so a login created a moment ago by a concurrent approval is visible.
func (p *postgresProvider) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var identityM model.IdentityModel

	if err := p.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("email = ?", normalizeEmail(email)).
		First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrIdentityNotFound
		}

		return nil, errors.Wrap(err, "failed to find identity by email")
	}

	return toIdentityDomain(&identityM), nil
}

func (p *postgresProvider) Create(ctx context.Context, input entity.NewIdentity) (*entity.Identity, error) {
	hash, err := p.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate identity id")
	}

	identityM := &model.IdentityModel{
		ID:           id,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		Metadata:     datatypes.JSONMap(input.Metadata),
	}
	if input.EmailConfirmed {
		confirmedAt := p.now()
		identityM.EmailConfirmedAt = &confirmedAt
	}

	if err := p.db.WithContext(ctx).Create(identityM).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, service.ErrIdentityAlreadyExists
		}

		return nil, errors.Wrap(err, "failed to create identity")
	}

	return toIdentityDomain(identityM), nil
}

func (p *postgresProvider) Delete(ctx context.Context, id uuid.UUID) error {
	if err := p.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.IdentityModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete identity")
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	return &entity.Identity{
		ID:               data.ID,
		Email:            data.Email,
		EmailConfirmedAt: data.EmailConfirmedAt,
		Metadata:         map[string]any(data.Metadata),
		CreatedAt:        data.CreatedAt,
	}
}
