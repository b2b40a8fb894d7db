package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
	"github.com/huddleplan/huddle-pipeline/internal/infrastructure/metrics"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// Service tracks who is in a huddle and how fresh their heartbeat is
type Service interface {
	Heartbeat(ctx context.Context, huddleID, participantID uuid.UUID, displayName string, role entities.ParticipantRole) error
	ListParticipants(ctx context.Context, huddleID uuid.UUID) ([]*entities.ParticipantPresence, error)
}

type service struct {
	presences repositories.PresenceRepository
	logger    *zap.Logger
}

// NewService creates the presence service
func NewService(presences repositories.PresenceRepository, logger *zap.Logger) Service {
	return &service{presences: presences, logger: logger}
}

func (s *service) Heartbeat(ctx context.Context, huddleID, participantID uuid.UUID, displayName string, role entities.ParticipantRole) error {
	presence := entities.NewParticipantPresence(huddleID, participantID, displayName, role)
	if err := s.presences.Heartbeat(ctx, presence); err != nil {
		return apperrors.ErrInternal(err)
	}
	return nil
}

func (s *service) ListParticipants(ctx context.Context, huddleID uuid.UUID) ([]*entities.ParticipantPresence, error) {
	participants, err := s.presences.ListByHuddle(ctx, huddleID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	return participants, nil
}

// Reaper periodically demotes speakers whose heartbeats have gone quiet and
// evicts records that have been stale long enough to be abandoned.
type Reaper struct {
	presences repositories.PresenceRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger

	sweepInterval time.Duration
	demoteAfter   time.Duration
	evictAfter    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReaper creates a presence reaper from config
func NewReaper(presences repositories.PresenceRepository, cfg config.PresenceConfig, m *metrics.Metrics, logger *zap.Logger) *Reaper {
	return &Reaper{
		presences:     presences,
		metrics:       m,
		logger:        logger,
		sweepInterval: cfg.SweepInterval,
		demoteAfter:   cfg.DemoteAfter,
		evictAfter:    cfg.EvictAfter,
	}
}

// Start launches the sweep loop. Stop cancels it and waits for the current
// sweep to finish.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, _, err := r.SweepOnce(ctx, now); err != nil {
					r.logger.Error("presence sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop shuts the reaper down
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// SweepOnce runs a single demote-then-evict pass and returns the row counts
func (r *Reaper) SweepOnce(ctx context.Context, now time.Time) (demoted, evicted int64, err error) {
	demoted, err = r.presences.DemoteStale(ctx, now.Add(-r.demoteAfter))
	if err != nil {
		return 0, 0, err
	}
	evicted, err = r.presences.EvictStale(ctx, now.Add(-r.evictAfter))
	if err != nil {
		return demoted, 0, err
	}

	if r.metrics != nil {
		r.metrics.PresenceDemoted.Add(float64(demoted))
		r.metrics.PresenceEvicted.Add(float64(evicted))
	}
	if demoted > 0 || evicted > 0 {
		r.logger.Info("presence sweep complete",
			zap.Int64("demoted", demoted),
			zap.Int64("evicted", evicted),
		)
	}
	return demoted, evicted, nil
}
