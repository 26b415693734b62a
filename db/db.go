// Package db provides database connection helpers, schema migration, and the
// Postgres-backed token store and chat-message log.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
	"golang.org/x/oauth2"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat/crypto"
)

const provider = "youtube"

// Connect opens a Postgres connection and verifies it with a ping.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty dsn")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return database, nil
}

// Migrate applies the embedded schema (idempotent).
func Migrate(ctx context.Context, database *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS oauth_tokens (
			provider TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TIMESTAMPTZ,
			raw TEXT,
			encryption_version INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`ALTER TABLE oauth_tokens ADD COLUMN IF NOT EXISTS encryption_version INTEGER NOT NULL DEFAULT 0`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			live_chat_id TEXT NOT NULL,
			video_id TEXT,
			message_id TEXT UNIQUE,
			author_channel_id TEXT,
			author_name TEXT,
			message TEXT,
			published_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_live_chat ON chat_messages (live_chat_id, published_at)`,
	}
	for _, stmt := range stmts {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// TokenStore persists the YouTube OAuth token in the oauth_tokens table. It
// implements youtubeapi.TokenStore. With Enc set, token columns are sealed at
// rest; encryption_version records whether a row is plaintext (0) or
// AES-256-GCM (1) so pre-encryption rows remain loadable.
type TokenStore struct {
	DB  *sql.DB
	Enc crypto.Encryptor
}

func (s *TokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT access_token, COALESCE(refresh_token,''), COALESCE(expires_at, to_timestamp(0)), COALESCE(raw,''), encryption_version
		 FROM oauth_tokens WHERE provider=$1`, provider)
	var access, refresh, raw string
	var expiry time.Time
	var encVersion int
	if err := row.Scan(&access, &refresh, &expiry, &raw, &encVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no %s token stored", provider)
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	if encVersion > 0 {
		if s.Enc == nil {
			return nil, fmt.Errorf("stored token is encrypted but no encryption key is configured")
		}
		var err error
		if access, err = crypto.DecryptString(s.Enc, access); err != nil {
			return nil, fmt.Errorf("decrypt access token: %w", err)
		}
		if refresh, err = crypto.DecryptString(s.Enc, refresh); err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
		if raw, err = crypto.DecryptString(s.Enc, raw); err != nil {
			return nil, fmt.Errorf("decrypt token payload: %w", err)
		}
	}
	var tok oauth2.Token
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &tok)
	}
	if tok.AccessToken == "" {
		tok.AccessToken = access
	}
	tok.RefreshToken = refresh
	tok.Expiry = expiry
	return &tok, nil
}

func (s *TokenStore) Save(ctx context.Context, tok *oauth2.Token) error {
	rawBytes, _ := json.Marshal(tok)
	access, refresh, raw := tok.AccessToken, tok.RefreshToken, string(rawBytes)
	encVersion := 0
	if s.Enc != nil {
		var err error
		if access, err = crypto.EncryptString(s.Enc, access); err != nil {
			return fmt.Errorf("encrypt access token: %w", err)
		}
		if refresh, err = crypto.EncryptString(s.Enc, refresh); err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		if raw, err = crypto.EncryptString(s.Enc, raw); err != nil {
			return fmt.Errorf("encrypt token payload: %w", err)
		}
		encVersion = 1
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO oauth_tokens (provider, access_token, refresh_token, expires_at, raw, encryption_version, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		 ON CONFLICT (provider) DO UPDATE SET access_token=EXCLUDED.access_token, refresh_token=EXCLUDED.refresh_token,
		 expires_at=EXCLUDED.expires_at, raw=EXCLUDED.raw, encryption_version=EXCLUDED.encryption_version, updated_at=NOW()`,
		provider, access, refresh, tok.Expiry, raw, encVersion)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// InsertChatMessage records an observed live chat message (idempotent via the
// message_id unique constraint).
func InsertChatMessage(ctx context.Context, database *sql.DB, liveChatID, videoID string, msg *yt.LiveChatMessage) error {
	var authorChannel, authorName, text string
	var published time.Time
	if msg.AuthorDetails != nil {
		authorChannel = msg.AuthorDetails.ChannelId
		authorName = msg.AuthorDetails.DisplayName
	}
	if msg.Snippet != nil {
		if msg.Snippet.TextMessageDetails != nil {
			text = msg.Snippet.TextMessageDetails.MessageText
		}
		if t, err := time.Parse(time.RFC3339Nano, msg.Snippet.PublishedAt); err == nil {
			published = t
		}
	}
	_, err := database.ExecContext(ctx,
		`INSERT INTO chat_messages (live_chat_id, video_id, message_id, author_channel_id, author_name, message, published_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (message_id) DO NOTHING`,
		liveChatID, videoID, msg.Id, authorChannel, authorName, text, nullableTime(published))
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
