package entities

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates the closed set of edit action variants
type ActionType string

const (
	ActionCreateItem ActionType = "create_item"
	ActionUpdateItem ActionType = "update_item"
	ActionRemoveItem ActionType = "remove_item"
)

// CreateItemPayload creates a new planning item addressed by ItemKey.
// BlockedByKeys reference other items by their conversation-scoped keys;
// entries that do not resolve are dropped, never an error.
type CreateItemPayload struct {
	ItemKey       string   `json:"item_key"`
	Kind          ItemKind `json:"kind"`
	Text          string   `json:"text"`
	SpeakerLabel  string   `json:"speaker_label,omitempty"`
	BlockedByKeys []string `json:"blocked_by_keys,omitempty"`
}

// ItemPatch carries only the fields an update touches. A present
// BlockedByKeys fully replaces the item's dependency set.
type ItemPatch struct {
	Text          *string   `json:"text,omitempty"`
	BlockedByKeys *[]string `json:"blocked_by_keys,omitempty"`
}

// UpdateItemPayload patches the item addressed by TargetKey
type UpdateItemPayload struct {
	TargetKey string    `json:"target_key"`
	Patch     ItemPatch `json:"patch"`
}

// RemoveItemPayload deletes the item addressed by TargetKey
type RemoveItemPayload struct {
	TargetKey string `json:"target_key"`
}

// EditAction is the tagged union of edit action variants. Exactly one of
// the payload pointers is set, matching Type.
type EditAction struct {
	Type   ActionType
	Create *CreateItemPayload
	Update *UpdateItemPayload
	Remove *RemoveItemPayload
}

// editActionWire is the flat JSON envelope used on the extraction wire
type editActionWire struct {
	Action       ActionType `json:"action"`
	ItemKey      string     `json:"item_key,omitempty"`
	Kind         ItemKind   `json:"kind,omitempty"`
	Text         string     `json:"text,omitempty"`
	SpeakerLabel string     `json:"speaker_label,omitempty"`

	BlockedByKeys []string `json:"blocked_by_keys,omitempty"`

	TargetKey string     `json:"target_key,omitempty"`
	Patch     *ItemPatch `json:"patch,omitempty"`
}

// UnmarshalJSON decodes the wire envelope into the tagged union
func (a *EditAction) UnmarshalJSON(data []byte) error {
	var wire editActionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Action {
	case ActionCreateItem:
		a.Type = ActionCreateItem
		a.Create = &CreateItemPayload{
			ItemKey:       wire.ItemKey,
			Kind:          wire.Kind,
			Text:          wire.Text,
			SpeakerLabel:  wire.SpeakerLabel,
			BlockedByKeys: wire.BlockedByKeys,
		}
	case ActionUpdateItem:
		a.Type = ActionUpdateItem
		payload := &UpdateItemPayload{TargetKey: wire.TargetKey}
		if wire.Patch != nil {
			payload.Patch = *wire.Patch
		}
		a.Update = payload
	case ActionRemoveItem:
		a.Type = ActionRemoveItem
		a.Remove = &RemoveItemPayload{TargetKey: wire.TargetKey}
	default:
		return fmt.Errorf("unknown edit action %q", wire.Action)
	}
	return nil
}

// MarshalJSON encodes the tagged union back into the wire envelope
func (a EditAction) MarshalJSON() ([]byte, error) {
	wire := editActionWire{Action: a.Type}
	switch a.Type {
	case ActionCreateItem:
		if a.Create == nil {
			return nil, fmt.Errorf("create_item action missing payload")
		}
		wire.ItemKey = a.Create.ItemKey
		wire.Kind = a.Create.Kind
		wire.Text = a.Create.Text
		wire.SpeakerLabel = a.Create.SpeakerLabel
		wire.BlockedByKeys = a.Create.BlockedByKeys
	case ActionUpdateItem:
		if a.Update == nil {
			return nil, fmt.Errorf("update_item action missing payload")
		}
		wire.TargetKey = a.Update.TargetKey
		patch := a.Update.Patch
		wire.Patch = &patch
	case ActionRemoveItem:
		if a.Remove == nil {
			return nil, fmt.Errorf("remove_item action missing payload")
		}
		wire.TargetKey = a.Remove.TargetKey
	default:
		return nil, fmt.Errorf("unknown edit action %q", a.Type)
	}
	return json.Marshal(wire)
}

// Validate checks the variant payload is well-formed
func (a *EditAction) Validate() error {
	switch a.Type {
	case ActionCreateItem:
		if a.Create == nil {
			return fmt.Errorf("create_item action missing payload")
		}
		if a.Create.ItemKey == "" {
			return fmt.Errorf("create_item requires item_key")
		}
		if !a.Create.Kind.Valid() {
			return fmt.Errorf("create_item has invalid kind %q", a.Create.Kind)
		}
		return nil
	case ActionUpdateItem:
		if a.Update == nil {
			return fmt.Errorf("update_item action missing payload")
		}
		if a.Update.TargetKey == "" {
			return fmt.Errorf("update_item requires target_key")
		}
		return nil
	case ActionRemoveItem:
		if a.Remove == nil {
			return fmt.Errorf("remove_item action missing payload")
		}
		if a.Remove.TargetKey == "" {
			return fmt.Errorf("remove_item requires target_key")
		}
		return nil
	default:
		return fmt.Errorf("unknown edit action %q", a.Type)
	}
}
