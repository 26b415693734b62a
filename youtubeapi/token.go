package youtubeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/onnwee/livechat/crypto"
)

// TokenStore abstracts durable storage for the OAuth token so the file-backed
// store (local runs) and the Postgres store (deployments) are interchangeable.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
}

// FileTokenStore reads and rewrites an oauth2 token as JSON at a fixed path.
// When Enc is set the file content is sealed at rest; a plaintext file is
// still accepted on load (seeding is done by hand) and gets sealed on the
// next save.
type FileTokenStore struct {
	Path string
	Enc  crypto.Encryptor
}

func (s *FileTokenStore) Load(_ context.Context) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("token file not found at %s (seed it with the OAuth token JSON before starting): %w", s.Path, err)
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	if s.Enc != nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		plain, err := crypto.DecryptString(s.Enc, string(bytes.TrimSpace(data)))
		if err != nil {
			return nil, fmt.Errorf("decrypt token file %s: %w", s.Path, err)
		}
		data = []byte(plain)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", s.Path, err)
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(_ context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if s.Enc != nil {
		sealed, err := crypto.EncryptString(s.Enc, string(data))
		if err != nil {
			return fmt.Errorf("encrypt token: %w", err)
		}
		data = []byte(sealed)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
