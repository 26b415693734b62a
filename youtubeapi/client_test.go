package youtubeapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/onnwee/livechat/config"
	"github.com/onnwee/livechat/crypto"
	"github.com/onnwee/livechat/telemetry"
	"github.com/onnwee/livechat/testutil"
)

// memStore implements TokenStore in memory for tests.
type memStore struct {
	tok   *oauth2.Token
	saves int
}

func (m *memStore) Load(_ context.Context) (*oauth2.Token, error) {
	cp := *m.tok
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, tok *oauth2.Token) error {
	m.tok = tok
	m.saves++
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		YTClientID:           "client-id",
		YTClientSecret:       "client-secret",
		YTScopes:             "https://www.googleapis.com/auth/youtube",
		MinPoll:              2 * time.Second,
		MaxPoll:              60 * time.Second,
		ChannelCacheTTL:      time.Hour,
		ChatCacheTTL:         30 * time.Second,
		QuotaTargetUnits:     10000,
		QuotaUnitsPerRequest: 5,
		QuotaWindow:          3 * time.Hour,
	}
}

// newTestClient builds a Client pointed at the mock API server with a token
// that does not need refreshing.
func newTestClient(t *testing.T, srv *testutil.MockYouTubeServer, cfg *config.Config) (*Client, *memStore) {
	t.Helper()
	telemetry.Init()
	store := &memStore{tok: &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}}
	client, err := NewClient(context.Background(), cfg, store,
		option.WithEndpoint(srv.URL), option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client, store
}

// newRefreshEndpoint serves OAuth token refreshes with the given access token.
func newRefreshEndpoint(t *testing.T, accessToken string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  accessToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnsureValidPersistsOnChange(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	cfg := testConfig()
	client, store := newTestClient(t, api, cfg)

	refresh := newRefreshEndpoint(t, "fresh-access", 0)
	client.oauth.Endpoint = oauth2.Endpoint{TokenURL: refresh.URL}
	client.tok = &oauth2.Token{
		AccessToken:  "stale-access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Minute),
	}

	client.ensureValid(context.Background())

	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if store.tok.AccessToken != "fresh-access" {
		t.Errorf("stored access token = %q, want fresh-access", store.tok.AccessToken)
	}
	if client.tok.AccessToken != "fresh-access" {
		t.Errorf("client token = %q, want fresh-access", client.tok.AccessToken)
	}
}

func TestEnsureValidSkipsPersistWhenUnchanged(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	cfg := testConfig()
	client, store := newTestClient(t, api, cfg)

	refresh := newRefreshEndpoint(t, "stale-access", 0)
	client.oauth.Endpoint = oauth2.Endpoint{TokenURL: refresh.URL}
	client.tok = &oauth2.Token{
		AccessToken:  "stale-access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Minute),
	}

	client.ensureValid(context.Background())

	if store.saves != 0 {
		t.Errorf("saves = %d, want 0 (token value unchanged)", store.saves)
	}
}

func TestEnsureValidKeepsStaleOnRefreshFailure(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	cfg := testConfig()
	client, store := newTestClient(t, api, cfg)

	refresh := newRefreshEndpoint(t, "", http.StatusInternalServerError)
	client.oauth.Endpoint = oauth2.Endpoint{TokenURL: refresh.URL}
	client.tok = &oauth2.Token{
		AccessToken:  "stale-access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Minute),
	}

	client.ensureValid(context.Background())

	if client.tok.AccessToken != "stale-access" {
		t.Errorf("client token = %q, want stale-access kept", client.tok.AccessToken)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestEnsureValidNoopWithValidToken(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	cfg := testConfig()
	client, store := newTestClient(t, api, cfg)

	// No refresh endpoint configured: a refresh attempt would fail loudly.
	client.ensureValid(context.Background())

	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestNewClientMissingTokenFile(t *testing.T) {
	store := &FileTokenStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, err := NewClient(context.Background(), testConfig(), store)
	if err == nil {
		t.Error("expected error for missing token file")
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage", "token.json")
	store := &FileTokenStore{Path: path}
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Errorf("Load() = %s/%s, want access/refresh", got.AccessToken, got.RefreshToken)
	}
}

func TestFileTokenStoreEncrypted(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytesRepeat(0x42, 32))
	enc, err := crypto.NewAESEncryptor(key)
	if err != nil {
		t.Fatalf("NewAESEncryptor() error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "token.json")
	store := &FileTokenStore{Path: path, Enc: enc}
	ctx := context.Background()

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if json.Valid(raw) {
		t.Error("token file is plaintext JSON, want sealed content")
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.AccessToken != "access" {
		t.Errorf("Load() access = %q, want access", got.AccessToken)
	}

	// a pre-encryption plaintext file still loads
	plain, _ := json.Marshal(tok)
	if err := os.WriteFile(path, plain, 0o600); err != nil {
		t.Fatalf("write plaintext token: %v", err)
	}
	if _, err := store.Load(ctx); err != nil {
		t.Errorf("Load() of plaintext file with encryption enabled: %v", err)
	}
}

func bytesRepeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestSetChannelIDBypassesDiscovery(t *testing.T) {
	api := testutil.NewMockYouTubeServer(t)
	cfg := testConfig()
	cfg.ChannelID = "UCconfigured"
	client, _ := newTestClient(t, api, cfg)

	id, ok := client.cache.ChannelID()
	if !ok || id != "UCconfigured" {
		t.Errorf("cached channel id = %q/%v, want UCconfigured/true", id, ok)
	}
}
