// Package youtubeapi wraps Google OAuth2 client config and the YouTube Data API
// for live-chat polling: it discovers the active live chat for the authorized
// channel, runs the quota-governed poll loop, and posts replies back into chat.
// Tokens are persisted via the provided TokenStore interface so they can be
// refreshed and reused across restarts.
package youtubeapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/config"
)

// Client talks to the YouTube Data API on behalf of a single authorized channel.
// It is driven by one goroutine at a time; only SetChannelID is safe to call
// concurrently with a running poll.
type Client struct {
	cfg   *config.Config
	oauth *oauth2.Config
	store TokenStore
	tok   *oauth2.Token
	svc   *yt.Service
	cache *discoveryCache

	// extra client options, applied after the oauth transport (tests override
	// the endpoint and http client here)
	opts []option.ClientOption
}

// NewClient loads the stored token and builds the YouTube service. A missing or
// unreadable token is a construction error; run the auth flow first to create one.
func NewClient(ctx context.Context, cfg *config.Config, store TokenStore, opts ...option.ClientOption) (*Client, error) {
	tok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored token: %w", err)
	}

	scopes := strings.Fields(strings.ReplaceAll(cfg.YTScopes, ",", " "))
	oc := &oauth2.Config{
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.YTRedirectURI,
		Scopes:       scopes,
	}

	c := &Client{cfg: cfg, oauth: oc, store: store, tok: tok, cache: newDiscoveryCache(), opts: opts}
	if err := c.rebuildService(ctx); err != nil {
		return nil, fmt.Errorf("build youtube service: %w", err)
	}
	if cfg.ChannelID != "" {
		c.SetChannelID(cfg.ChannelID, cfg.ChannelCacheTTL)
	}
	return c, nil
}

// OAuthConfig returns the oauth2 client config, shared with the proactive
// refresher so both paths mint tokens the same way.
func (c *Client) OAuthConfig() *oauth2.Config {
	return c.oauth
}

// SetChannelID caches a known channel id, bypassing channels.list discovery.
// Useful for separate bot accounts where the channel id is known out-of-band.
func (c *Client) SetChannelID(channelID string, ttl time.Duration) {
	c.cache.SetChannelID(channelID, ttl)
	slog.Info("channel id set", slog.String("channel_id", channelID), slog.Duration("ttl", ttl))
}

// ensureValid refreshes the credential if it is expired and refreshable. The
// refreshed token is persisted only when the access token value actually
// changed, and the API service is rebuilt on change. Refresh failure is
// non-fatal: the stale credential stays in place and the next remote call
// surfaces the failure through the ordinary error path.
func (c *Client) ensureValid(ctx context.Context) {
	if c.tok == nil || c.tok.Valid() || c.tok.RefreshToken == "" {
		return
	}
	before := c.tok.AccessToken
	fresh, err := c.oauth.TokenSource(ctx, c.tok).Token()
	if err != nil {
		slog.Warn("token refresh failed; keeping stale credential", slog.Any("err", err))
		return
	}
	c.tok = fresh
	if fresh.AccessToken == before {
		return
	}
	if err := c.store.Save(ctx, fresh); err != nil {
		slog.Warn("token persist failed", slog.Any("err", err))
	}
	if err := c.rebuildService(ctx); err != nil {
		slog.Warn("youtube service rebuild failed", slog.Any("err", err))
	}
	slog.Info("credentials refreshed and saved")
}

func (c *Client) rebuildService(ctx context.Context) error {
	base := []option.ClientOption{option.WithHTTPClient(meteredClient(c.oauth.Client(ctx, c.tok)))}
	svc, err := yt.NewService(ctx, append(base, c.opts...)...)
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}
