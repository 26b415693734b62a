// Package oauth provides proactive refresh scheduling for the stored YouTube
// credential. It performs jittered checks and refreshes when expiry falls
// within a configured window, complementing the lazy refresh done by the API
// client before each remote call.
package oauth

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/oauth2"

	"github.com/onnwee/livechat/youtubeapi"
)

// StartRefresher launches a goroutine that periodically checks the stored token
// and refreshes it when its remaining lifetime is <= window. The refreshed
// token is persisted only when the access token value changed, matching the
// client's write-on-change policy.
func StartRefresher(ctx context.Context, store youtubeapi.TokenStore, oc *oauth2.Config, interval, window time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	// Randomize initial delay to spread load across instances.
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
	initialJitter := time.Duration(rand.Int63n(int64(interval/2) + 1))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			// Per-iteration jitter (+-20% of interval) for scheduling diversity.
			jitterRange := int64(interval / 5)
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			jitter := time.Duration(rand.Int63n(jitterRange*2+1) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
			tok, err := store.Load(ctx)
			if err != nil {
				continue
			}
			if tok.RefreshToken == "" {
				continue
			}
			if time.Until(tok.Expiry) > window {
				continue
			}
			// Force a refresh call even though the access token may still be
			// valid: hand the token source only the refresh token.
			ctx2, cancel := context.WithTimeout(ctx, 15*time.Second)
			fresh, err := oc.TokenSource(ctx2, &oauth2.Token{RefreshToken: tok.RefreshToken}).Token()
			cancel()
			if err != nil {
				slog.Warn("proactive token refresh failed", slog.Any("err", err))
				continue
			}
			if fresh.RefreshToken == "" {
				fresh.RefreshToken = tok.RefreshToken
			}
			if fresh.AccessToken == tok.AccessToken {
				continue
			}
			if err := store.Save(ctx, fresh); err != nil {
				slog.Warn("token persist failed", slog.Any("err", err))
				continue
			}
			slog.Info("token refreshed", slog.Time("expiry", fresh.Expiry))
		}
	}()
}
