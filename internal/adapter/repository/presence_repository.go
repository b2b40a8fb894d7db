package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
)

// presenceRepository implements the PresenceRepository interface
type presenceRepository struct {
	db *gorm.DB
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(db *gorm.DB) repositories.PresenceRepository {
	return &presenceRepository{db: db}
}

// Heartbeat upserts the participant's liveness record. A heartbeat from a
// previously demoted participant restores their role.
func (r *presenceRepository) Heartbeat(ctx context.Context, p *entities.ParticipantPresence) error {
	q := `INSERT INTO participant_presences (id, huddle_id, participant_id, display_name, role, last_heartbeat, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (huddle_id, participant_id) DO UPDATE SET last_heartbeat = EXCLUDED.last_heartbeat, display_name = EXCLUDED.display_name, role = EXCLUDED.role`
	return r.db.WithContext(ctx).Exec(q,
		p.ID, p.HuddleID, p.ParticipantID, p.DisplayName, p.Role, p.LastHeartbeat, time.Now(),
	).Error
}

// ListByHuddle returns all presence records for a huddle
func (r *presenceRepository) ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.ParticipantPresence, error) {
	var presences []*entities.ParticipantPresence
	err := r.db.WithContext(ctx).
		Where("huddle_id = ?", huddleID).
		Order("display_name ASC").
		Find(&presences).Error
	if err != nil {
		return nil, err
	}
	return presences, nil
}

// DemoteStale downgrades speakers whose heartbeat stopped before the cutoff
func (r *presenceRepository) DemoteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.ParticipantPresence{}).
		Where("last_heartbeat < ? AND role <> ?", cutoff, entities.RoleObserver).
		Update("role", entities.RoleObserver)
	return res.RowsAffected, res.Error
}

// EvictStale removes presence records whose heartbeat stopped before the cutoff
func (r *presenceRepository) EvictStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("last_heartbeat < ?", cutoff).
		Delete(&entities.ParticipantPresence{})
	return res.RowsAffected, res.Error
}
