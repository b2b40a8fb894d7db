package turn

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
)

func strptr(s string) *string { return &s }

func existingItem(huddleID uuid.UUID, key string, kind entities.ItemKind, text string) *entities.PlanningItem {
	item := entities.NewPlanningItem(huddleID, kind, text)
	item.Provenance = entities.ItemProvenance{ItemKey: key}
	return item
}

func createAction(key string, kind entities.ItemKind, text string, blockedBy ...string) entities.EditAction {
	return entities.EditAction{
		Type: entities.ActionCreateItem,
		Create: &entities.CreateItemPayload{
			ItemKey:       key,
			Kind:          kind,
			Text:          text,
			BlockedByKeys: blockedBy,
		},
	}
}

func updateAction(key string, patch entities.ItemPatch) entities.EditAction {
	return entities.EditAction{
		Type:   entities.ActionUpdateItem,
		Update: &entities.UpdateItemPayload{TargetKey: key, Patch: patch},
	}
}

func removeAction(key string) entities.EditAction {
	return entities.EditAction{
		Type:   entities.ActionRemoveItem,
		Remove: &entities.RemoveItemPayload{TargetKey: key},
	}
}

func TestResolveCreateThenReferenceInSameBatch(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID, chunkID := uuid.New(), uuid.New()

	res, err := r.Resolve(huddleID, chunkID, "req-1", nil, []entities.EditAction{
		createAction("t1", entities.ItemKindTask, "ship the landing page"),
		createAction("t2", entities.ItemKindTask, "write the copy", "t1"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Plan.Inserts) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(res.Plan.Inserts))
	}
	first, second := res.Plan.Inserts[0], res.Plan.Inserts[1]
	if len(second.BlockedBy) != 1 || second.BlockedBy[0] != first.ID {
		t.Fatalf("expected t2 blocked by t1's new identity, got %v", second.BlockedBy)
	}
	if first.Provenance.ItemKey != "t1" || first.Provenance.RequestID != "req-1" {
		t.Fatalf("unexpected provenance %+v", first.Provenance)
	}
	if first.Provenance.ChunkID == nil || *first.Provenance.ChunkID != chunkID {
		t.Fatal("expected provenance chunk id set")
	}
	if len(res.Outcome.Created) != 2 {
		t.Fatalf("expected 2 created outcomes, got %d", len(res.Outcome.Created))
	}
}

func TestResolveUpdateUnresolvedKeySkipsSilently(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", nil, []entities.EditAction{
		updateAction("ghost", entities.ItemPatch{Text: strptr("nothing")}),
		removeAction("ghost"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !res.Plan.Empty() {
		t.Fatalf("expected an empty plan, got %+v", res.Plan)
	}
	if res.Skipped != 2 {
		t.Fatalf("expected 2 skipped actions, got %d", res.Skipped)
	}
	if len(res.Outcome.Updated)+len(res.Outcome.Removed) != 0 {
		t.Fatal("skipped actions must not appear in the outcome")
	}
}

func TestResolveUpdatePatchesExistingItem(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()
	item := existingItem(huddleID, "t1", entities.ItemKindTask, "old text")

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", []*entities.PlanningItem{item}, []entities.EditAction{
		updateAction("t1", entities.ItemPatch{Text: strptr("new text")}),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Plan.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(res.Plan.Updates))
	}
	if res.Plan.Updates[0].Text != "new text" {
		t.Fatalf("expected patched text, got %q", res.Plan.Updates[0].Text)
	}
	if len(res.Outcome.Updated) != 1 || res.Outcome.Updated[0].Text != "new text" {
		t.Fatalf("unexpected outcome %+v", res.Outcome.Updated)
	}
}

func TestResolveUpdateReplacesDependencySet(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()
	a := existingItem(huddleID, "a", entities.ItemKindTask, "a")
	b := existingItem(huddleID, "b", entities.ItemKindTask, "b")
	c := existingItem(huddleID, "c", entities.ItemKindTask, "c")
	c.BlockedBy = []uuid.UUID{a.ID}

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", []*entities.PlanningItem{a, b, c}, []entities.EditAction{
		updateAction("c", entities.ItemPatch{BlockedByKeys: &[]string{"b", "ghost"}}),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Full replacement: the old dependency is gone, the unresolved key is
	// dropped without error.
	if len(res.Plan.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(res.Plan.Updates))
	}
	got := res.Plan.Updates[0].BlockedBy
	if len(got) != 1 || got[0] != b.ID {
		t.Fatalf("expected blocked_by [b], got %v", got)
	}
}

func TestResolveSelfReferenceAllowed(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", nil, []entities.EditAction{
		createAction("t1", entities.ItemKindTask, "circular"),
		updateAction("t1", entities.ItemPatch{BlockedByKeys: &[]string{"t1"}}),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	item := res.Plan.Inserts[0]
	if len(item.BlockedBy) != 1 || item.BlockedBy[0] != item.ID {
		t.Fatalf("expected self-reference to resolve, got %v", item.BlockedBy)
	}
	// The item was created this batch, so the patch rides on the insert.
	if len(res.Plan.Updates) != 0 {
		t.Fatalf("expected no separate update row, got %d", len(res.Plan.Updates))
	}
}

func TestResolveRemoveSummaryRejected(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()
	summary := existingItem(huddleID, "s1", entities.ItemKindSummary, "standup recap")

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", []*entities.PlanningItem{summary}, []entities.EditAction{
		removeAction("s1"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !res.Plan.Empty() {
		t.Fatalf("summary removal must produce no mutation, got %+v", res.Plan)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped action, got %d", res.Skipped)
	}
	if len(res.Outcome.Removed) != 0 {
		t.Fatal("rejected removal must not appear in the outcome")
	}
}

func TestResolveRemovePrunesBlockedBy(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()
	dep := existingItem(huddleID, "dep", entities.ItemKindTask, "the dependency")
	blocked := existingItem(huddleID, "blocked", entities.ItemKindTask, "the dependent")
	blocked.BlockedBy = []uuid.UUID{dep.ID}

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", []*entities.PlanningItem{dep, blocked}, []entities.EditAction{
		removeAction("dep"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Plan.Deletes) != 1 || res.Plan.Deletes[0] != dep.ID {
		t.Fatalf("expected dep deleted, got %v", res.Plan.Deletes)
	}
	// The prune rides in the same plan as the delete.
	if len(res.Plan.Updates) != 1 {
		t.Fatalf("expected 1 pruning update, got %d", len(res.Plan.Updates))
	}
	if len(res.Plan.Updates[0].BlockedBy) != 0 {
		t.Fatalf("expected blocked_by pruned, got %v", res.Plan.Updates[0].BlockedBy)
	}
}

func TestResolveCreateThenRemoveInSameBatch(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", nil, []entities.EditAction{
		createAction("t1", entities.ItemKindIdea, "half a thought"),
		removeAction("t1"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Plan.Inserts) != 0 {
		t.Fatalf("expected the insert dropped, got %d", len(res.Plan.Inserts))
	}
	if len(res.Plan.Deletes) != 0 {
		t.Fatalf("expected no delete for an unwritten item, got %d", len(res.Plan.Deletes))
	}
	// Both actions still happened from the conversation's point of view.
	if len(res.Outcome.Created) != 1 || len(res.Outcome.Removed) != 1 {
		t.Fatalf("unexpected outcome %+v", res.Outcome)
	}
}

func TestResolveRemovedKeyUnaddressable(t *testing.T) {
	r := NewResolver(zap.NewNop())
	huddleID := uuid.New()
	item := existingItem(huddleID, "t1", entities.ItemKindTask, "doomed")

	res, err := r.Resolve(huddleID, uuid.New(), "req-1", []*entities.PlanningItem{item}, []entities.EditAction{
		removeAction("t1"),
		updateAction("t1", entities.ItemPatch{Text: strptr("too late")}),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(res.Plan.Deletes) != 1 {
		t.Fatalf("expected 1 delete, got %d", len(res.Plan.Deletes))
	}
	if len(res.Plan.Updates) != 0 {
		t.Fatalf("update after remove must be skipped, got %d updates", len(res.Plan.Updates))
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped action, got %d", res.Skipped)
	}
}

func TestResolveUnknownActionType(t *testing.T) {
	r := NewResolver(zap.NewNop())
	_, err := r.Resolve(uuid.New(), uuid.New(), "req-1", nil, []entities.EditAction{
		{Type: "merge_items"},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown action type")
	}
}
