package turn

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/internal/domain/repositories"
)

// Resolver turns one chunk's ordered edit actions into a mutation plan
// against a snapshot of the huddle's planning items. It is pure: the plan is
// applied atomically by the store, so a failed batch leaves no trace.
//
// Actions address items by conversation-scoped itemKey, not durable
// identity, because the extraction service cannot know the identity of an
// item it asked to create moments ago. The key index is threaded forward
// through the batch so later actions can reference items created earlier in
// the same batch.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new action resolver
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolution is the outcome of resolving one batch
type Resolution struct {
	Plan    repositories.BatchPlan
	Outcome entities.ActionOutcome

	// Skipped counts actions dropped for unresolved keys or immutable
	// targets. Never an error: the referenced item may have been removed
	// earlier in the same batch or never existed.
	Skipped int
}

// Resolve applies the actions in order against the item snapshot.
func (r *Resolver) Resolve(
	huddleID, chunkID uuid.UUID,
	requestID string,
	items []*entities.PlanningItem,
	actions []entities.EditAction,
) (*Resolution, error) {
	byID := make(map[uuid.UUID]*entities.PlanningItem, len(items))
	keyIndex := make(map[string]uuid.UUID)
	for _, item := range items {
		byID[item.ID] = item
		// Items lacking a provenance key are simply not addressable by key.
		if key := item.Provenance.ItemKey; key != "" {
			keyIndex[key] = item.ID
		}
	}

	res := &Resolution{
		Plan: repositories.BatchPlan{HuddleID: huddleID, ChunkID: chunkID},
	}
	inserted := make(map[uuid.UUID]bool)
	updated := make(map[uuid.UUID]bool)

	markUpdated := func(item *entities.PlanningItem) {
		// Items created in this batch are already carried by the insert; a
		// second plan entry would double-write them.
		if inserted[item.ID] || updated[item.ID] {
			return
		}
		updated[item.ID] = true
		res.Plan.Updates = append(res.Plan.Updates, item)
	}

	for i := range actions {
		action := &actions[i]
		switch action.Type {
		case entities.ActionCreateItem:
			payload := action.Create
			item := entities.NewPlanningItem(huddleID, payload.Kind, payload.Text)
			item.SpeakerLabel = payload.SpeakerLabel
			item.BlockedBy = r.resolveKeys(payload.BlockedByKeys, keyIndex)
			item.Provenance = entities.ItemProvenance{
				ItemKey:   payload.ItemKey,
				ChunkID:   &chunkID,
				RequestID: requestID,
			}

			byID[item.ID] = item
			keyIndex[payload.ItemKey] = item.ID
			inserted[item.ID] = true
			res.Plan.Inserts = append(res.Plan.Inserts, item)
			res.Outcome.Created = append(res.Outcome.Created, outcomeOf(item))

		case entities.ActionUpdateItem:
			payload := action.Update
			item, ok := r.lookup(payload.TargetKey, keyIndex, byID)
			if !ok {
				r.skip(res, "update", payload.TargetKey)
				continue
			}
			if payload.Patch.Text != nil {
				item.Text = *payload.Patch.Text
			}
			if payload.Patch.BlockedByKeys != nil {
				// A present key list fully replaces the dependency set.
				item.BlockedBy = r.resolveKeys(*payload.Patch.BlockedByKeys, keyIndex)
			}
			markUpdated(item)
			res.Outcome.Updated = append(res.Outcome.Updated, outcomeOf(item))

		case entities.ActionRemoveItem:
			payload := action.Remove
			item, ok := r.lookup(payload.TargetKey, keyIndex, byID)
			if !ok {
				r.skip(res, "remove", payload.TargetKey)
				continue
			}
			if !item.Removable() {
				res.Skipped++
				r.logger.Warn("remove rejected, summary items are immutable",
					zap.String("target_key", payload.TargetKey),
					zap.String("item_id", item.ID.String()),
				)
				continue
			}

			delete(byID, item.ID)
			delete(keyIndex, payload.TargetKey)

			if inserted[item.ID] {
				// Created and removed within the same batch: drop the insert
				// rather than writing and deleting.
				delete(inserted, item.ID)
				res.Plan.Inserts = removeItem(res.Plan.Inserts, item.ID)
			} else {
				res.Plan.Deletes = append(res.Plan.Deletes, item.ID)
			}

			// Referential-integrity cleanup: the deleted identity must not
			// survive in any other item's dependency set, and it must go in
			// the same logical operation as the deletion.
			for _, other := range byID {
				if other.PruneBlockedBy(item.ID) {
					markUpdated(other)
				}
			}

			res.Outcome.Removed = append(res.Outcome.Removed, outcomeOf(item))

		default:
			return nil, fmt.Errorf("unknown edit action %q", action.Type)
		}
	}

	return res, nil
}

// resolveKeys maps conversation keys to identities, silently omitting
// entries that do not resolve.
func (r *Resolver) resolveKeys(keys []string, keyIndex map[string]uuid.UUID) []uuid.UUID {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, ok := keyIndex[key]
		if !ok {
			r.logger.Debug("dropping unresolved dependency key", zap.String("item_key", key))
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func (r *Resolver) lookup(key string, keyIndex map[string]uuid.UUID, byID map[uuid.UUID]*entities.PlanningItem) (*entities.PlanningItem, bool) {
	id, ok := keyIndex[key]
	if !ok {
		return nil, false
	}
	item, ok := byID[id]
	return item, ok
}

func (r *Resolver) skip(res *Resolution, op, key string) {
	res.Skipped++
	r.logger.Debug("skipping action with unresolved target",
		zap.String("op", op),
		zap.String("target_key", key),
	)
}

func outcomeOf(item *entities.PlanningItem) entities.ItemOutcome {
	return entities.ItemOutcome{
		ID:      item.ID,
		ItemKey: item.Provenance.ItemKey,
		Kind:    item.Kind,
		Text:    item.Text,
	}
}

func removeItem(items []*entities.PlanningItem, id uuid.UUID) []*entities.PlanningItem {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
