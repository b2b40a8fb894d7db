package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
)

// planningItemRepository implements the PlanningItemRepository interface
type planningItemRepository struct {
	db *gorm.DB
}

// NewPlanningItemRepository creates a new planning item repository
func NewPlanningItemRepository(db *gorm.DB) repositories.PlanningItemRepository {
	return &planningItemRepository{db: db}
}

// ListByHuddle returns all planning items for a huddle in creation order
func (r *planningItemRepository) ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.PlanningItem, error) {
	var items []*entities.PlanningItem
	err := r.db.WithContext(ctx).
		Where("huddle_id = ?", huddleID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyBatch applies the whole plan inside one transaction. Partial
// application is never observable: any failure rolls everything back,
// including the chunk outcome.
func (r *planningItemRepository) ApplyBatch(ctx context.Context, plan *repositories.BatchPlan) error {
	if plan == nil {
		return errors.New("batch plan cannot be nil")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range plan.Inserts {
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		for _, item := range plan.Updates {
			if err := tx.Save(item).Error; err != nil {
				return err
			}
		}
		if len(plan.Deletes) > 0 {
			if err := tx.
				Where("huddle_id = ? AND id IN ?", plan.HuddleID, plan.Deletes).
				Delete(&entities.PlanningItem{}).Error; err != nil {
				return err
			}
		}
		if plan.ChunkMetadata != nil {
			if err := tx.Model(&entities.TranscriptChunk{}).
				Where("id = ?", plan.ChunkID).
				Update("metadata", *plan.ChunkMetadata).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.ErrDBTransactionFailed(err)
	}
	return nil
}
