package postgres

import (
	"context"
	"encoding/json"

	"bizdir/internal/domain/entity"
	domainerrors "bizdir/internal/domain/errors"
	"bizdir/internal/domain/repository"
	"bizdir/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type approvalLogRepository struct {
	db *gorm.DB
}

// NewApprovalLogRepository is the constructor for approvalLogRepository.
func NewApprovalLogRepository(db *gorm.DB) repository.ApprovalLogRepository {
	return &approvalLogRepository{
		db: db,
	}
}

func (repo *approvalLogRepository) Create(ctx context.Context, log *entity.ApprovalLog) error {
	if log.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "failed to generate approval log id")
		}
		log.ID = id
	}

	logM, err := fromApprovalLogDomain(log)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(logM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create approval log")
	}

	log.CreatedAt = logM.CreatedAt

	return nil
}

func (repo *approvalLogRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*entity.ApprovalLog, error) {
	var logModels []*model.ApprovalLogModel

	if err := repo.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&logModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list approval logs by business")
	}

	logs := make([]*entity.ApprovalLog, 0, len(logModels))
	for _, logM := range logModels {
		log, err := toApprovalLogDomain(logM)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, nil
}

// --- Mapper Functions ---

func toApprovalLogDomain(data *model.ApprovalLogModel) (*entity.ApprovalLog, error) {
	var trace entity.ApprovalTrace
	if len(data.Trace) > 0 {
		if err := json.Unmarshal(data.Trace, &trace); err != nil {
			return nil, errors.Wrap(err, "failed to decode approval trace")
		}
	}

	return &entity.ApprovalLog{
		ID:              data.ID,
		BusinessID:      data.BusinessID,
		ApprovedBy:      data.ApprovedBy,
		IdentityID:      data.IdentityID,
		IdentityCreated: data.IdentityCreated,
		PlanType:        entity.PlanType(data.PlanType),
		Trace:           trace,
		CreatedAt:       data.CreatedAt,
	}, nil
}

func fromApprovalLogDomain(data *entity.ApprovalLog) (*model.ApprovalLogModel, error) {
	trace, err := json.Marshal(data.Trace)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode approval trace")
	}

	return &model.ApprovalLogModel{
		ID:              data.ID,
		BusinessID:      data.BusinessID,
		ApprovedBy:      data.ApprovedBy,
		IdentityID:      data.IdentityID,
		IdentityCreated: data.IdentityCreated,
		PlanType:        string(data.PlanType),
		Trace:           datatypes.JSON(trace),
		CreatedAt:       data.CreatedAt,
	}, nil
}
