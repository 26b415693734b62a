package youtubeapi

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/livechat/telemetry"
)

// Resolve finds the active live chat for the authorized channel via a three-step
// lookup (channel -> live video -> chat id), consulting the discovery cache
// before each remote call and populating it after.
//
// Return semantics:
//   - ("", "", nil): no channel for this token, or the channel is not live.
//     Expected steady state, not an error; re-resolve after a delay.
//   - ("", videoID, nil): a live video exists but its chat is not accessible
//     (chat disabled).
//   - ("", "", err): a remote call failed. Resolve never retries internally;
//     the caller re-invokes on its own schedule.
func (c *Client) Resolve(ctx context.Context) (liveChatID, videoID string, err error) {
	if ref, ok := c.cache.LiveChat(); ok {
		return ref.ChatID, ref.VideoID, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "youtubeapi", "resolve")
	defer span.End()
	telemetry.ResolveCalls.Inc()

	c.ensureValid(ctx)

	channelID, err := c.channelID(ctx)
	if err != nil {
		telemetry.ResolveErrors.Inc()
		telemetry.RecordError(span, err)
		return "", "", err
	}
	if channelID == "" {
		return "", "", nil
	}
	span.SetAttributes(attribute.String("channel_id", channelID))

	// Search is the most expensive call (100 units); request a single match.
	sres, err := c.svc.Search.List([]string{"id"}).
		Type("video").
		EventType("live").
		ChannelId(channelID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		telemetry.ResolveErrors.Inc()
		telemetry.RecordError(span, err)
		return "", "", fmt.Errorf("search live videos: %w", err)
	}
	if len(sres.Items) == 0 {
		slog.Debug("no active live video for channel", slog.String("channel_id", channelID))
		return "", "", nil
	}
	videoID = sres.Items[0].Id.VideoId
	slog.Info("found live video", slog.String("video_id", videoID))

	vres, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		telemetry.ResolveErrors.Inc()
		telemetry.RecordError(span, err)
		return "", videoID, fmt.Errorf("fetch live streaming details: %w", err)
	}
	if len(vres.Items) == 0 || vres.Items[0].LiveStreamingDetails == nil {
		slog.Warn("live video has no streaming details", slog.String("video_id", videoID))
		return "", videoID, nil
	}
	liveChatID = vres.Items[0].LiveStreamingDetails.ActiveLiveChatId
	if liveChatID == "" {
		// Chat disabled is distinguishable from "not live": the video id is
		// still informative to the caller.
		slog.Warn("live video has no active chat (chat may be disabled)", slog.String("video_id", videoID))
		return "", videoID, nil
	}

	c.cache.SetLiveChat(liveChatRef{ChatID: liveChatID, VideoID: videoID}, c.cfg.ChatCacheTTL)
	telemetry.SetSpanSuccess(span)
	return liveChatID, videoID, nil
}

// channelID returns the cached channel id or fetches it via channels.list(mine).
// Empty result with nil error means the token does not belong to a channel
// owner, a permanent-for-this-token condition that is not retried here.
func (c *Client) channelID(ctx context.Context) (string, error) {
	if id, ok := c.cache.ChannelID(); ok {
		telemetry.ChannelCacheHits.Inc()
		return id, nil
	}
	res, err := c.svc.Channels.List([]string{"id"}).
		Mine(true).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	if len(res.Items) == 0 {
		slog.Warn("channels.list(mine) returned no items; token may not belong to a channel owner")
		return "", nil
	}
	id := res.Items[0].Id
	c.cache.SetChannelID(id, c.cfg.ChannelCacheTTL)
	slog.Info("authorized channel resolved", slog.String("channel_id", id))
	return id, nil
}
