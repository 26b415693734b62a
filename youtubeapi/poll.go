package youtubeapi

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/telemetry"
)

const (
	// server pacing assumed when the response omits pollingIntervalMillis
	defaultServerPaceMillis = 2000
	baseBackoff             = time.Second
	// one fetch returns up to this many messages, amortizing quota cost
	fetchPageSize = 200
)

// Handler consumes one inbound live chat message. Errors (and panics) are
// logged and isolated per message; they never abort the poll loop or skip the
// rest of the page.
type Handler func(ctx context.Context, msg *yt.LiveChatMessage) error

// PollOptions tune one PollChat invocation. Zero values fall back to the
// configured defaults.
type PollOptions struct {
	MinPoll    time.Duration
	MaxPoll    time.Duration
	QuotaFloor time.Duration // quota-derived minimum sleep; only ever lengthens the wait
	PageToken  string        // resume position; empty starts at the feed head
}

// PollChat fetches pages of live chat messages forever, dispatching each
// message to handler and sleeping between fetches per server pacing, local
// bounds, and the optional quota floor. Transient and permanent remote
// failures are treated identically (the API does not reliably distinguish
// chat-deletion from rate limiting): log, back off exponentially, retry from
// the same page token. The loop exits only when ctx is cancelled, returning
// ctx.Err().
func (c *Client) PollChat(ctx context.Context, liveChatID string, handler Handler, opts PollOptions) error {
	if liveChatID == "" {
		return fmt.Errorf("liveChatID is required")
	}
	minPoll := opts.MinPoll
	if minPoll <= 0 {
		minPoll = c.cfg.MinPoll
	}
	maxPoll := opts.MaxPoll
	if maxPoll <= 0 {
		maxPoll = c.cfg.MaxPoll
	}

	pageToken := opts.PageToken
	errorBackoff := baseBackoff

	slog.Info("polling live chat",
		slog.String("live_chat_id", liveChatID),
		slog.Duration("min_poll", minPoll),
		slog.Duration("max_poll", maxPoll),
		slog.Duration("quota_floor", opts.QuotaFloor))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.ensureValid(ctx)
		telemetry.PollCycles.Inc()

		call := c.svc.LiveChatMessages.List(liveChatID, []string{"snippet", "authorDetails"}).
			MaxResults(fetchPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		start := time.Now()
		resp, err := call.Do()
		telemetry.FetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			telemetry.PollErrors.Inc()
			wait := clampBackoff(errorBackoff, maxPoll)
			slog.Warn("live chat fetch failed",
				slog.Any("err", err),
				slog.Bool("transient", isTransient(err)),
				slog.Duration("backoff", wait))
			telemetry.BackoffSeconds.Set(wait.Seconds())
			// page token unchanged: the next fetch retries from the same position
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			errorBackoff = nextBackoff(errorBackoff, maxPoll)
			continue
		}

		for _, msg := range resp.Items {
			dispatch(ctx, handler, msg)
		}
		telemetry.MessagesDispatched.Add(float64(len(resp.Items)))

		// Absent continuation token means "no further pages right now", not end
		// of stream; adopt it unconditionally.
		pageToken = resp.NextPageToken
		errorBackoff = baseBackoff
		telemetry.BackoffSeconds.Set(0)

		sleep := computeSleep(resp.PollingIntervalMillis, minPoll, maxPoll, opts.QuotaFloor)
		telemetry.SleepSeconds.Set(sleep.Seconds())
		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
	}
}

// PollChatWithQuota is a convenience wrapper that plans a fetch interval from
// the budget and polls with it as the sleep floor. The server may still demand
// slower polling; the effective sleep is the maximum of the two.
func (c *Client) PollChatWithQuota(ctx context.Context, liveChatID string, handler Handler, budget QuotaBudget) error {
	floor, err := budget.Interval(c.cfg.MinPoll, c.cfg.MaxPoll)
	if err != nil {
		return err
	}
	slog.Info("quota budget active",
		slog.Int64("target_units", budget.TargetUnits),
		slog.Int64("units_per_request", budget.UnitsPerRequest),
		slog.Duration("window", budget.Window),
		slog.Duration("interval", floor))
	telemetry.QuotaIntervalSeconds.Set(floor.Seconds())
	return c.PollChat(ctx, liveChatID, handler, PollOptions{QuotaFloor: floor})
}

func dispatch(ctx context.Context, handler Handler, msg *yt.LiveChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.HandlerErrors.Inc()
			slog.Error("message handler panic",
				slog.Any("panic", r),
				slog.String("message_id", msg.Id),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	if err := handler(ctx, msg); err != nil {
		telemetry.HandlerErrors.Inc()
		slog.Error("message handler error", slog.Any("err", err), slog.String("message_id", msg.Id))
	}
}

// computeSleep converts server pacing plus local bounds and the quota floor
// into the next sleep. The quota floor is applied after clamping so it can only
// lengthen the wait, never shorten below what the server demands.
func computeSleep(serverMillis int64, minPoll, maxPoll, quotaFloor time.Duration) time.Duration {
	if serverMillis <= 0 {
		serverMillis = defaultServerPaceMillis
	}
	d := time.Duration(serverMillis) * time.Millisecond
	if d < minPoll {
		d = minPoll
	}
	if d > maxPoll {
		d = maxPoll
	}
	if quotaFloor > d {
		d = quotaFloor
	}
	return d
}

// nextBackoff doubles the error backoff, capped at maxPoll.
func nextBackoff(cur, maxPoll time.Duration) time.Duration {
	cur *= 2
	if cur > maxPoll {
		cur = maxPoll
	}
	return cur
}

// clampBackoff bounds the error backoff into [baseBackoff, maxPoll].
func clampBackoff(backoff, maxPoll time.Duration) time.Duration {
	if backoff < baseBackoff {
		backoff = baseBackoff
	}
	if backoff > maxPoll {
		backoff = maxPoll
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
