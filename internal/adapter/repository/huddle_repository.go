package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
)

// huddleRepository implements the HuddleRepository interface
type huddleRepository struct {
	db *gorm.DB
}

// NewHuddleRepository creates a new huddle repository
func NewHuddleRepository(db *gorm.DB) repositories.HuddleRepository {
	return &huddleRepository{db: db}
}

// Create creates a new huddle
func (r *huddleRepository) Create(ctx context.Context, huddle *entities.Huddle) error {
	return r.db.WithContext(ctx).Create(huddle).Error
}

// FindByID retrieves a huddle by its ID
func (r *huddleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Huddle, error) {
	var huddle entities.Huddle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&huddle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &huddle, nil
}

// NextSequence advances the huddle's transcript counter in a single
// conditional update. Two concurrent calls can never compute the same value;
// the database serializes the increment.
func (r *huddleRepository) NextSequence(ctx context.Context, huddleID uuid.UUID) (int64, error) {
	var seq int64
	res := r.db.WithContext(ctx).Raw(
		`UPDATE huddles SET next_sequence = next_sequence + 1, updated_at = NOW() WHERE id = ? RETURNING next_sequence`,
		huddleID,
	).Scan(&seq)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return seq, nil
}
