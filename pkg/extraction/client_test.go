package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.ExtractionConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestExtractActions_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/v1/extract" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Fatalf("missing api key header")
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		clip, err := base64.StdEncoding.DecodeString(payload["clip"].(string))
		if err != nil || string(clip) != "opus-bytes" {
			t.Fatalf("clip not base64 encoded: %v", err)
		}
		if payload["conversation_token"] != "tok-1" {
			t.Fatalf("conversation token not forwarded: %v", payload["conversation_token"])
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"actions": []map[string]interface{}{
				{"action": "create_item", "item_key": "t1", "kind": "task", "text": "ship it"},
				{"action": "update_item", "target_key": "t1", "patch": map[string]interface{}{"text": "ship it today"}},
			},
			"rationale":          "speaker committed to a task",
			"conversation_token": "tok-2",
		})
	}))
	defer ts.Close()

	resp, err := testClient(ts.URL).ExtractActions(context.Background(), &Request{
		HuddleID:          "h1",
		SpeakerID:         "s1",
		Clip:              []byte("opus-bytes"),
		MimeType:          "audio/webm",
		ConversationToken: "tok-1",
	})
	if err != nil {
		t.Fatalf("ExtractActions failed: %v", err)
	}

	if len(resp.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(resp.Actions))
	}
	if resp.Actions[0].Type != entities.ActionCreateItem || resp.Actions[0].Create.ItemKey != "t1" {
		t.Fatalf("unexpected first action %+v", resp.Actions[0])
	}
	if resp.Actions[1].Type != entities.ActionUpdateItem || *resp.Actions[1].Update.Patch.Text != "ship it today" {
		t.Fatalf("unexpected second action %+v", resp.Actions[1])
	}
	if resp.ConversationToken != "tok-2" {
		t.Fatalf("expected tok-2, got %q", resp.ConversationToken)
	}
}

func TestExtractActions_MalformedAction(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"actions": []map[string]interface{}{
				// kind missing from the closed set
				{"action": "create_item", "item_key": "t1", "kind": "epic", "text": "x"},
			},
		})
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).ExtractActions(context.Background(), &Request{Clip: []byte("x")})
	if err == nil {
		t.Fatal("expected a validation error for an invalid kind")
	}
}

func TestExtractActions_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).ExtractActions(context.Background(), &Request{Clip: []byte("x")})
	if err == nil {
		t.Fatal("expected an error for a 5xx response")
	}
}

func TestExtractActions_RequiresClip(t *testing.T) {
	if _, err := testClient("http://unused").ExtractActions(context.Background(), &Request{}); err == nil {
		t.Fatal("expected an error for an empty clip")
	}
}
