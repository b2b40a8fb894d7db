package presence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

type memPresenceRepo struct {
	mu        sync.Mutex
	records   map[string]*entities.ParticipantPresence
	demoteCut time.Time
	evictCut  time.Time
	demoteErr error
}

func newMemPresenceRepo() *memPresenceRepo {
	return &memPresenceRepo{records: make(map[string]*entities.ParticipantPresence)}
}

func (m *memPresenceRepo) key(p *entities.ParticipantPresence) string {
	return p.HuddleID.String() + ":" + p.ParticipantID.String()
}

func (m *memPresenceRepo) Heartbeat(ctx context.Context, p *entities.ParticipantPresence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[m.key(p)]; ok {
		existing.LastHeartbeat = p.LastHeartbeat
		existing.DisplayName = p.DisplayName
		existing.Role = p.Role
		return nil
	}
	m.records[m.key(p)] = p
	return nil
}

func (m *memPresenceRepo) ListByHuddle(ctx context.Context, huddleID uuid.UUID) ([]*entities.ParticipantPresence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.ParticipantPresence
	for _, p := range m.records {
		if p.HuddleID == huddleID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPresenceRepo) DemoteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.demoteErr != nil {
		return 0, m.demoteErr
	}
	m.demoteCut = cutoff
	var n int64
	for _, p := range m.records {
		if p.LastHeartbeat.Before(cutoff) && p.Role != entities.RoleObserver {
			p.Role = entities.RoleObserver
			n++
		}
	}
	return n, nil
}

func (m *memPresenceRepo) EvictStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictCut = cutoff
	var n int64
	for key, p := range m.records {
		if p.LastHeartbeat.Before(cutoff) {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func seedPresence(repo *memPresenceRepo, huddleID uuid.UUID, age time.Duration, role entities.ParticipantRole) {
	p := entities.NewParticipantPresence(huddleID, uuid.New(), "p", role)
	p.LastHeartbeat = time.Now().Add(-age)
	_ = repo.Heartbeat(context.Background(), p)
}

func testPresenceConfig() config.PresenceConfig {
	return config.PresenceConfig{
		SweepInterval: 30 * time.Second,
		DemoteAfter:   2 * time.Minute,
		EvictAfter:    10 * time.Minute,
	}
}

func TestSweepOnceDemotesAndEvicts(t *testing.T) {
	repo := newMemPresenceRepo()
	huddleID := uuid.New()
	seedPresence(repo, huddleID, time.Minute, entities.RoleSpeaker)    // fresh
	seedPresence(repo, huddleID, 5*time.Minute, entities.RoleSpeaker)  // stale speaker
	seedPresence(repo, huddleID, 20*time.Minute, entities.RoleSpeaker) // abandoned

	r := NewReaper(repo, testPresenceConfig(), nil, zap.NewNop())
	now := time.Now()
	demoted, evicted, err := r.SweepOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}

	// Both stale records cross the demote line; only the abandoned one
	// crosses the evict line.
	if demoted != 2 {
		t.Fatalf("expected 2 demotions, got %d", demoted)
	}
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}

	wantDemote := now.Add(-2 * time.Minute)
	if !repo.demoteCut.Equal(wantDemote) {
		t.Fatalf("wrong demote cutoff: %v", repo.demoteCut)
	}
	wantEvict := now.Add(-10 * time.Minute)
	if !repo.evictCut.Equal(wantEvict) {
		t.Fatalf("wrong evict cutoff: %v", repo.evictCut)
	}

	remaining, _ := repo.ListByHuddle(context.Background(), huddleID)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining records, got %d", len(remaining))
	}
}

func TestSweepOnceFreshParticipantsUntouched(t *testing.T) {
	repo := newMemPresenceRepo()
	huddleID := uuid.New()
	seedPresence(repo, huddleID, 10*time.Second, entities.RoleSpeaker)

	r := NewReaper(repo, testPresenceConfig(), nil, zap.NewNop())
	demoted, evicted, err := r.SweepOnce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if demoted != 0 || evicted != 0 {
		t.Fatalf("fresh participant was reaped: demoted=%d evicted=%d", demoted, evicted)
	}

	remaining, _ := repo.ListByHuddle(context.Background(), huddleID)
	if remaining[0].Role != entities.RoleSpeaker {
		t.Fatal("fresh speaker must keep their role")
	}
}

func TestSweepOncePropagatesErrors(t *testing.T) {
	repo := newMemPresenceRepo()
	repo.demoteErr = fmt.Errorf("connection refused")

	r := NewReaper(repo, testPresenceConfig(), nil, zap.NewNop())
	if _, _, err := r.SweepOnce(context.Background(), time.Now()); err == nil {
		t.Fatal("expected the repository error to propagate")
	}
}

func TestReaperStartStop(t *testing.T) {
	repo := newMemPresenceRepo()
	cfg := testPresenceConfig()
	cfg.SweepInterval = 5 * time.Millisecond

	r := NewReaper(repo, cfg, nil, zap.NewNop())
	r.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	r.Stop()

	// Stop must be idempotent-safe to call once and return promptly; the
	// loop must have run without records to reap.
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.demoteCut.IsZero() {
		t.Fatal("expected at least one sweep to have run")
	}
}

func TestHeartbeatUpsertsPresence(t *testing.T) {
	repo := newMemPresenceRepo()
	svc := NewService(repo, zap.NewNop())
	huddleID, participantID := uuid.New(), uuid.New()

	if err := svc.Heartbeat(context.Background(), huddleID, participantID, "ana", entities.RoleSpeaker); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	if err := svc.Heartbeat(context.Background(), huddleID, participantID, "ana", entities.RoleSpeaker); err != nil {
		t.Fatalf("second Heartbeat failed: %v", err)
	}

	participants, err := svc.ListParticipants(context.Background(), huddleID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected a single upserted record, got %d", len(participants))
	}
}
