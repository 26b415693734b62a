package chat

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/db"
	"github.com/onnwee/livechat/telemetry"
	"github.com/onnwee/livechat/youtubeapi"
)

const defaultIdleWait = 10 * time.Second

// Watcher owns the resolve-then-poll loop for a single authorized channel.
type Watcher struct {
	client   *youtubeapi.Client
	database *sql.DB // optional; enables message recording
	handler  youtubeapi.Handler
	budget   youtubeapi.QuotaBudget
	idleWait time.Duration

	mu     sync.Mutex
	status Status
}

// Status is a snapshot of the watcher state, served by the /status endpoint.
type Status struct {
	State      string    `json:"state"` // "idle" or "polling"
	LiveChatID string    `json:"live_chat_id,omitempty"`
	VideoID    string    `json:"video_id,omitempty"`
	Since      time.Time `json:"since"`
}

// NewWatcher wires a watcher. handler may be nil (messages are then only
// recorded, if a database is configured). database may be nil.
func NewWatcher(client *youtubeapi.Client, database *sql.DB, handler youtubeapi.Handler, budget youtubeapi.QuotaBudget) *Watcher {
	return &Watcher{
		client:   client,
		database: database,
		handler:  handler,
		budget:   budget,
		idleWait: defaultIdleWait,
		status:   Status{State: "idle", Since: time.Now().UTC()},
	}
}

// Snapshot returns the current watcher status.
func (w *Watcher) Snapshot() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Watcher) setStatus(s Status) {
	s.Since = time.Now().UTC()
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

// Run blocks until ctx is cancelled. Each iteration resolves the active live
// chat; when one is found it polls until shutdown, otherwise it idles briefly
// and re-resolves. Resolution failures are logged and retried on the same
// schedule; they never terminate the loop.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("chat watcher started", slog.Duration("idle_wait", w.idleWait))
	for {
		if ctx.Err() != nil {
			slog.Info("chat watcher stopped")
			return
		}
		liveChatID, videoID, err := w.client.Resolve(ctx)
		switch {
		case err != nil:
			slog.Warn("live chat resolution failed", slog.Any("err", err))
		case liveChatID == "":
			if videoID != "" {
				slog.Debug("live video found but chat not accessible", slog.String("video_id", videoID))
			} else {
				slog.Debug("no active live stream")
			}
		default:
			w.watch(ctx, liveChatID, videoID)
			// PollChat only returns on cancellation; fall through to exit.
			continue
		}
		if err := sleepCtx(ctx, w.idleWait); err != nil {
			slog.Info("chat watcher stopped")
			return
		}
	}
}

// watch polls one live chat session until ctx is cancelled.
func (w *Watcher) watch(ctx context.Context, liveChatID, videoID string) {
	corr := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, corr)
	logger := telemetry.LoggerWithCorr(ctx)
	logger.Info("watching live chat",
		slog.String("live_chat_id", liveChatID),
		slog.String("video_id", videoID))

	w.setStatus(Status{State: "polling", LiveChatID: liveChatID, VideoID: videoID})
	telemetry.SetWatchingLive(true)
	defer func() {
		telemetry.SetWatchingLive(false)
		w.setStatus(Status{State: "idle"})
	}()

	handler := w.sessionHandler(liveChatID, videoID)
	if err := w.client.PollChatWithQuota(ctx, liveChatID, handler, w.budget); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("poll loop exited", slog.Any("err", err))
	}
}

// sessionHandler records the message (when a database is configured) and then
// invokes the user handler. Recording failure does not suppress dispatch.
func (w *Watcher) sessionHandler(liveChatID, videoID string) youtubeapi.Handler {
	return func(ctx context.Context, msg *yt.LiveChatMessage) error {
		if w.database != nil {
			if err := db.InsertChatMessage(ctx, w.database, liveChatID, videoID, msg); err != nil {
				slog.Warn("chat message record failed", slog.Any("err", err), slog.String("message_id", msg.Id))
			}
		}
		if w.handler == nil {
			return nil
		}
		return w.handler(ctx, msg)
	}
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
