package postgres

import (
	"context"

	"bizdir/internal/domain/repository"
	"bizdir/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository is the constructor for adminRepository.
func NewAdminRepository(db *gorm.DB) repository.AdminRepository {
	return &adminRepository{
		db: db,
	}
}

func (repo *adminRepository) IsAdmin(ctx context.Context, identityID uuid.UUID) (bool, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.AdminModel{}).
		Where("identity_id = ?", identityID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check admin membership")
	}

	return count > 0, nil
}

func (repo *adminRepository) Grant(ctx context.Context, identityID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.AdminModel{IdentityID: identityID}).Error; err != nil {
		return errors.Wrap(err, "failed to grant admin")
	}

	return nil
}
