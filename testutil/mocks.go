package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockYouTubeServer creates a test server that mocks YouTube Data API responses.
// Point the youtube service at it with option.WithEndpoint(srv.URL).
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a new mock YouTube API server. Handlers are
// keyed by URL path (e.g. "/youtube/v3/channels"); unhandled paths return 404.
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockChannelsResponse adds a handler for channels.list returning the given ids.
func (m *MockYouTubeServer) MockChannelsResponse(channelIDs ...string) {
	items := make([]map[string]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		items = append(items, map[string]string{"id": id})
	}
	m.Handlers["/youtube/v3/channels"] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"items": items})
	}
}

// MockSearchLiveResponse adds a handler for search.list returning the given live video ids.
func (m *MockYouTubeServer) MockSearchLiveResponse(videoIDs ...string) {
	items := make([]map[string]interface{}, 0, len(videoIDs))
	for _, id := range videoIDs {
		items = append(items, map[string]interface{}{"id": map[string]string{"videoId": id}})
	}
	m.Handlers["/youtube/v3/search"] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"items": items})
	}
}

// MockVideoDetailsResponse adds a handler for videos.list with the given active
// live chat id. An empty chat id models a broadcast with chat disabled.
func (m *MockYouTubeServer) MockVideoDetailsResponse(activeLiveChatID string) {
	details := map[string]string{}
	if activeLiveChatID != "" {
		details["activeLiveChatId"] = activeLiveChatID
	}
	m.Handlers["/youtube/v3/videos"] = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"items": []map[string]interface{}{{"liveStreamingDetails": details}},
		})
	}
}

// ChatPage is one canned liveChatMessages.list response.
type ChatPage struct {
	Messages      []ChatMessage
	NextPageToken string
	PollingMillis int64
	StatusCode    int // 0 means 200
}

// ChatMessage is a minimal inbound message for canned pages.
type ChatMessage struct {
	ID     string
	Author string
	Text   string
}

// MockLiveChatPages serves the given pages in order for successive list calls;
// the last page repeats once exhausted.
func (m *MockYouTubeServer) MockLiveChatPages(pages ...ChatPage) {
	call := 0
	m.Handlers["/youtube/v3/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		idx := call
		if idx >= len(pages) {
			idx = len(pages) - 1
		}
		call++
		page := pages[idx]
		if page.StatusCode != 0 && page.StatusCode != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(page.StatusCode)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck // test mock response
				"error": map[string]interface{}{
					"code":    page.StatusCode,
					"message": http.StatusText(page.StatusCode),
				},
			})
			return
		}
		items := make([]map[string]interface{}, 0, len(page.Messages))
		for _, msg := range page.Messages {
			items = append(items, map[string]interface{}{
				"id": msg.ID,
				"snippet": map[string]interface{}{
					"type": "textMessageEvent",
					"textMessageDetails": map[string]string{
						"messageText": msg.Text,
					},
				},
				"authorDetails": map[string]string{
					"displayName": msg.Author,
				},
			})
		}
		writeJSON(w, map[string]interface{}{
			"items":                 items,
			"nextPageToken":         page.NextPageToken,
			"pollingIntervalMillis": page.PollingMillis,
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
}
