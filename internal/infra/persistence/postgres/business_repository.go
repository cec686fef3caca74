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
	"gorm.io/plugin/dbresolver"
)

// businessRepository implements the repository.BusinessRepository interface.
type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository is the constructor for businessRepository.
func NewBusinessRepository(db *gorm.DB) repository.BusinessRepository {
	return &businessRepository{
		db: db,
	}
}

// FindByID reads from the primary: an approval decision must not be based on a lagging replica.
func (repo *businessRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	var businessM model.BusinessModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("id = ?", id).
		First(&businessM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBusinessNotFound
		}

		return nil, errors.Wrap(err, "failed to find business by ID")
	}

	return toBusinessDomain(&businessM), nil
}

func (repo *businessRepository) Create(ctx context.Context, business *entity.Business) error {
	if business.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "failed to generate business id")
		}
		business.ID = id
	}
	if business.Status == "" {
		business.Status = entity.BusinessStatusPending
	}
	if business.PlanType == "" {
		business.PlanType = entity.PlanTypeBasic
	}

	businessM := fromBusinessDomain(business)
	if err := repo.db.WithContext(ctx).Create(businessM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrAlreadyExists
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required business information")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("business status or plan type out of range")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create business")
	}

	business.CreatedAt = businessM.CreatedAt
	business.UpdatedAt = businessM.UpdatedAt

	return nil
}

// ApplyApproval writes status, plan, limits and approver in a single UPDATE.
func (repo *businessRepository) ApplyApproval(ctx context.Context, id uuid.UUID, patch entity.ApprovalPatch) error {
	result := repo.db.WithContext(ctx).
		Model(&model.BusinessModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      string(patch.Status),
			"plan_type":   string(patch.PlanType),
			"max_coupons": patch.MaxCoupons,
			"max_photos":  patch.MaxPhotos,
			"approved_at": patch.ApprovedAt,
			"approved_by": patch.ApprovedBy,
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to apply business approval")
	}

	if result.RowsAffected == 0 {
		return repository.ErrBusinessNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toBusinessDomain(data *model.BusinessModel) *entity.Business {
	if data == nil {
		return nil
	}

	return &entity.Business{
		ID:               data.ID,
		Name:             data.Name,
		ResponsibleEmail: data.ResponsibleEmail,
		ResponsibleName:  data.ResponsibleName,
		Status:           entity.BusinessStatus(data.Status),
		PlanType:         entity.PlanType(data.PlanType),
		MaxCoupons:       data.MaxCoupons,
		MaxPhotos:        data.MaxPhotos,
		ApprovedAt:       data.ApprovedAt,
		ApprovedBy:       data.ApprovedBy,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

func fromBusinessDomain(data *entity.Business) *model.BusinessModel {
	if data == nil {
		return nil
	}

	return &model.BusinessModel{
		ID:               data.ID,
		Name:             data.Name,
		ResponsibleEmail: data.ResponsibleEmail,
		ResponsibleName:  data.ResponsibleName,
		Status:           string(data.Status),
		PlanType:         string(data.PlanType),
		MaxCoupons:       data.MaxCoupons,
		MaxPhotos:        data.MaxPhotos,
		ApprovedAt:       data.ApprovedAt,
		ApprovedBy:       data.ApprovedBy,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}
