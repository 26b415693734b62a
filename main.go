// Command livechat is the main entrypoint for the YouTube live-chat bot engine.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres (token store + chat message log) and runs
//     idempotent migrations; otherwise tokens live in a JSON file.
//   - Builds the YouTube API client from the stored OAuth token.
//   - Starts the chat watcher (resolve the live broadcast, poll its chat under
//     the quota budget) and the proactive token refresher.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/chat"
	"github.com/onnwee/livechat/config"
	"github.com/onnwee/livechat/crypto"
	"github.com/onnwee/livechat/db"
	"github.com/onnwee/livechat/oauth"
	"github.com/onnwee/livechat/server"
	"github.com/onnwee/livechat/telemetry"
	"github.com/onnwee/livechat/youtubeapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("livechat", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Token encryption at rest (optional; requires a base64 32-byte ENCRYPTION_KEY)
	var encryptor crypto.Encryptor
	if cfg.EncryptionKey != "" {
		encryptor, err = crypto.NewAESEncryptor(cfg.EncryptionKey)
		if err != nil {
			slog.Error("encryption init failed", slog.Any("err", err))
			os.Exit(1)
		}
		slog.Info("token encryption enabled (AES-256-GCM)")
	} else {
		slog.Warn("ENCRYPTION_KEY not set, tokens stored in plaintext (not recommended for production)")
	}

	// Token store: Postgres when DB_DSN is set, JSON file otherwise.
	var database *sql.DB
	var store youtubeapi.TokenStore = &youtubeapi.FileTokenStore{Path: cfg.TokenPath, Enc: encryptor}
	if cfg.DBDsn != "" {
		database, err = db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		if err := db.Migrate(ctx, database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
		store = &db.TokenStore{DB: database, Enc: encryptor}
		slog.Info("using postgres token store")
	} else {
		slog.Info("using file token store", slog.String("path", cfg.TokenPath))
	}

	client, err := youtubeapi.NewClient(ctx, cfg, store)
	if err != nil {
		slog.Error("youtube client init failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Proactive token refresher (the client also refreshes lazily before calls)
	if err := cfg.ValidateOAuthReady(); err == nil {
		oauth.StartRefresher(ctx, store, client.OAuthConfig(), 10*time.Minute, 20*time.Minute)
	} else {
		slog.Warn("proactive token refresh disabled", slog.Any("err", err))
	}

	// Default handler logs inbound messages; deployments wanting replies plug a
	// mention-detection + generation pipeline here and call client.PostMessage.
	msgHandler := func(ctx context.Context, msg *yt.LiveChatMessage) error {
		var author, text string
		if msg.AuthorDetails != nil {
			author = msg.AuthorDetails.DisplayName
		}
		if msg.Snippet != nil && msg.Snippet.TextMessageDetails != nil {
			text = msg.Snippet.TextMessageDetails.MessageText
		}
		telemetry.LoggerWithCorr(ctx).Info("chat message",
			slog.String("author", author),
			slog.String("text", text))
		return nil
	}

	watcher := chat.NewWatcher(client, database, msgHandler, youtubeapi.QuotaBudget{
		TargetUnits:     cfg.QuotaTargetUnits,
		UnitsPerRequest: cfg.QuotaUnitsPerRequest,
		Window:          cfg.QuotaWindow,
	})
	go watcher.Run(ctx)

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, database, watcher.Snapshot, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
