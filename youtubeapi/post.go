package youtubeapi

import (
	"context"
	"fmt"

	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/telemetry"
)

// PostMessage inserts a text message into the given live chat and returns the
// inserted resource.
func (c *Client) PostMessage(ctx context.Context, liveChatID, text string) (*yt.LiveChatMessage, error) {
	if liveChatID == "" {
		return nil, fmt.Errorf("liveChatID is required")
	}
	ctx, span := telemetry.StartSpan(ctx, "youtubeapi", "post-message")
	defer span.End()

	c.ensureValid(ctx)
	msg := &yt.LiveChatMessage{
		Snippet: &yt.LiveChatMessageSnippet{
			LiveChatId: liveChatID,
			Type:       "textMessageEvent",
			TextMessageDetails: &yt.LiveChatTextMessageDetails{
				MessageText: text,
			},
		},
	}
	res, err := c.svc.LiveChatMessages.Insert([]string{"snippet"}, msg).Context(ctx).Do()
	if err != nil {
		telemetry.PostErrors.Inc()
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("insert live chat message: %w", err)
	}
	telemetry.MessagesPosted.Inc()
	telemetry.SetSpanSuccess(span)
	return res, nil
}
