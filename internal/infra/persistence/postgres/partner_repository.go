package postgres

import (
	"context"

	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

type partnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository is the constructor for partnerRepository.
func NewPartnerRepository(db *gorm.DB) repository.PartnerRepository {
	return &partnerRepository{
		db: db,
	}
}

func (repo *partnerRepository) FindByIdentityAndBusiness(ctx context.Context, identityID, businessID uuid.UUID) (*entity.Partner, error) {
	var partnerM model.PartnerModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("identity_id = ? AND business_id = ?", identityID, businessID).
		First(&partnerM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPartnerNotFound
		}

		return nil, errors.Wrap(err, "failed to find partner by identity and business")
	}

	return toPartnerDomain(&partnerM), nil
}

func (repo *partnerRepository) Create(ctx context.Context, partner *entity.Partner) error {
	if partner.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "failed to generate partner id")
		}
		partner.ID = id
	}

	partnerM := fromPartnerDomain(partner)
	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(partnerM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isForeignKeyConstraintViolation(err) {
			if violatedConstraint(err) == model.FKPartnersProfile {
				return repository.ErrProfileNotFound
			}

			return repository.ErrBusinessNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create partner")
	}

	partner.CreatedAt = partnerM.CreatedAt

	return nil
}

func (repo *partnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.PartnerModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete partner")
	}

	if result.RowsAffected == 0 {
		return repository.ErrPartnerNotFound
	}

	return nil
}

func (repo *partnerRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*entity.Partner, error) {
	var partnerModels []*model.PartnerModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("identity_id = ?", identityID).
		Order("created_at DESC").
		Find(&partnerModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list partners by identity")
	}

	partners := make([]*entity.Partner, 0, len(partnerModels))
	for _, partnerM := range partnerModels {
		partners = append(partners, toPartnerDomain(partnerM))
	}

	return partners, nil
}

// --- Mapper Functions ---

func toPartnerDomain(data *model.PartnerModel) *entity.Partner {
	if data == nil {
		return nil
	}

	return &entity.Partner{
		ID:         data.ID,
		IdentityID: data.IdentityID,
		BusinessID: data.BusinessID,
		Status:     entity.PartnerStatus(data.Status),
		ApprovedBy: data.ApprovedBy,
		CreatedAt:  data.CreatedAt,
	}
}

func fromPartnerDomain(data *entity.Partner) *model.PartnerModel {
	if data == nil {
		return nil
	}

	return &model.PartnerModel{
		ID:         data.ID,
		IdentityID: data.IdentityID,
		BusinessID: data.BusinessID,
		Status:     string(data.Status),
		ApprovedBy: data.ApprovedBy,
		CreatedAt:  data.CreatedAt,
	}
}
