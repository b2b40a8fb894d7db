package entities

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestEditActionUnmarshalVariants(t *testing.T) {
	tests := []struct {
		name string
		json string
		want ActionType
	}{
		{
			name: "create",
			json: `{"action":"create_item","item_key":"t1","kind":"task","text":"ship it","blocked_by_keys":["t0"]}`,
			want: ActionCreateItem,
		},
		{
			name: "update",
			json: `{"action":"update_item","target_key":"t1","patch":{"text":"ship it today"}}`,
			want: ActionUpdateItem,
		},
		{
			name: "remove",
			json: `{"action":"remove_item","target_key":"t1"}`,
			want: ActionRemoveItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a EditAction
			if err := json.Unmarshal([]byte(tt.json), &a); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if a.Type != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, a.Type)
			}
			if err := a.Validate(); err != nil {
				t.Fatalf("validate failed: %v", err)
			}
		})
	}
}

func TestEditActionUnmarshalCreateFields(t *testing.T) {
	var a EditAction
	data := `{"action":"create_item","item_key":"t1","kind":"task","text":"ship it","speaker_label":"ana","blocked_by_keys":["a","b"]}`
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	c := a.Create
	if c.ItemKey != "t1" || c.Kind != ItemKindTask || c.Text != "ship it" || c.SpeakerLabel != "ana" {
		t.Fatalf("unexpected payload %+v", c)
	}
	if len(c.BlockedByKeys) != 2 {
		t.Fatalf("expected 2 blocked_by_keys, got %v", c.BlockedByKeys)
	}
}

func TestEditActionUnknownAction(t *testing.T) {
	var a EditAction
	if err := json.Unmarshal([]byte(`{"action":"merge_items"}`), &a); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestEditActionRoundTrip(t *testing.T) {
	text := "revised"
	keys := []string{"t0"}
	actions := []EditAction{
		{Type: ActionCreateItem, Create: &CreateItemPayload{ItemKey: "t1", Kind: ItemKindRisk, Text: "latency"}},
		{Type: ActionUpdateItem, Update: &UpdateItemPayload{TargetKey: "t1", Patch: ItemPatch{Text: &text, BlockedByKeys: &keys}}},
		{Type: ActionRemoveItem, Remove: &RemoveItemPayload{TargetKey: "t1"}},
	}

	for _, a := range actions {
		b, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back EditAction
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.Type != a.Type {
			t.Fatalf("type lost in round trip: %q vs %q", back.Type, a.Type)
		}
	}
}

func TestEditActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  EditAction
		wantErr bool
	}{
		{"create missing key", EditAction{Type: ActionCreateItem, Create: &CreateItemPayload{Kind: ItemKindTask}}, true},
		{"create invalid kind", EditAction{Type: ActionCreateItem, Create: &CreateItemPayload{ItemKey: "t1", Kind: "epic"}}, true},
		{"create missing payload", EditAction{Type: ActionCreateItem}, true},
		{"update missing target", EditAction{Type: ActionUpdateItem, Update: &UpdateItemPayload{}}, true},
		{"remove missing target", EditAction{Type: ActionRemoveItem, Remove: &RemoveItemPayload{}}, true},
		{"valid summary create", EditAction{Type: ActionCreateItem, Create: &CreateItemPayload{ItemKey: "s1", Kind: ItemKindSummary}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPruneBlockedBy(t *testing.T) {
	huddleID := uuid.New()
	item := NewPlanningItem(huddleID, ItemKindTask, "x")
	other := NewPlanningItem(huddleID, ItemKindTask, "y")
	item.BlockedBy = append(item.BlockedBy, other.ID)

	if !item.PruneBlockedBy(other.ID) {
		t.Fatal("expected a prune")
	}
	if len(item.BlockedBy) != 0 {
		t.Fatalf("expected empty blocked_by, got %v", item.BlockedBy)
	}
	if item.PruneBlockedBy(other.ID) {
		t.Fatal("second prune must be a no-op")
	}
}
