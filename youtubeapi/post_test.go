package youtubeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/onnwee/livechat/testutil"
)

func TestPostMessage(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	api.Handlers["/youtube/v3/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Snippet struct {
				LiveChatId         string `json:"liveChatId"`
				Type               string `json:"type"`
				TextMessageDetails struct {
					MessageText string `json:"messageText"`
				} `json:"textMessageDetails"`
			} `json:"snippet"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode insert body: %v", err)
		}
		if body.Snippet.LiveChatId != "chat-1" {
			t.Errorf("liveChatId = %q, want chat-1", body.Snippet.LiveChatId)
		}
		if body.Snippet.Type != "textMessageEvent" {
			t.Errorf("type = %q, want textMessageEvent", body.Snippet.Type)
		}
		if body.Snippet.TextMessageDetails.MessageText != "hello chat" {
			t.Errorf("messageText = %q, want hello chat", body.Snippet.TextMessageDetails.MessageText)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "posted-1",
			"snippet": body.Snippet,
		})
	}

	client, _ := newTestClient(t, api, testConfig())

	res, err := client.PostMessage(context.Background(), "chat-1", "hello chat")
	if err != nil {
		t.Fatalf("PostMessage() error: %v", err)
	}
	if res.Id != "posted-1" {
		t.Errorf("posted id = %q, want posted-1", res.Id)
	}
}

func TestPostMessageRequiresChatID(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	client, _ := newTestClient(t, api, testConfig())

	if _, err := client.PostMessage(context.Background(), "", "hi"); err == nil {
		t.Error("expected error for empty liveChatID")
	}
}
