package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

type userRoleRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRoleRepository creates a new user role repository
func NewUserRoleRepository(db *gorm.DB, logger *zap.Logger) domainRepo.UserRoleRepository {
	return &userRoleRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRoleRepository) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	record := &model.UserRole{
		UserID: userID,
		Role:   role,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(record).Error

	if err != nil {
		r.logger.Error("Failed to set user role",
			zap.String("user_id", userID.String()),
			zap.String("role", role),
			zap.Error(err))
		return fmt.Errorf("failed to set user role: %w", err)
	}

	return nil
}

func (r *userRoleRepository) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var record model.UserRole

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RoleResearcher, nil
		}
		r.logger.Error("Failed to get user role",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return "", fmt.Errorf("failed to get user role: %w", err)
	}

	return record.Role, nil
}
