package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope は Vertex AI の呼び出しに必要な OAuth2 スコープです。
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// State は認証情報の状態です。
// Unset → (取得) → Valid → (期限切れ) → Expired → (リフレッシュ) → Valid と遷移します。
type State int

const (
	StateUnset State = iota
	StateValid
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	default:
		return "unset"
	}
}

// Credentials はサービスアカウント鍵から得たベアラートークンを管理します。
// トークンのリフレッシュは Token 呼び出し時に明示的に行われます。
type Credentials struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	token  *oauth2.Token
}

// NewCredentials はトークンソースを直接指定して初期化します。
// テストやカスタム認証経路で利用します。
func NewCredentials(source oauth2.TokenSource) *Credentials {
	return &Credentials{source: source}
}

// FromServiceAccountKey は鍵ファイルを読み込み、cloud-platform スコープの
// 認証情報を構成します。構成直後に一度リフレッシュして有効な状態にします。
func FromServiceAccountKey(ctx context.Context, keyPath string) (*Credentials, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key %s: %w", keyPath, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account key %s: %w", keyPath, err)
	}

	c := NewCredentials(creds.TokenSource)
	if _, err := c.Token(); err != nil {
		return nil, err
	}
	return c, nil
}

// Token は現在のアクセストークンを返します。
// 未取得または期限切れの場合はトークンソースからリフレッシュします。
func (c *Credentials) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		return "", errors.New("credentials not initialized")
	}
	if c.token == nil || !c.token.Valid() {
		token, err := c.source.Token()
		if err != nil {
			return "", fmt.Errorf("token refresh failed: %w", err)
		}
		c.token = token
	}
	return c.token.AccessToken, nil
}

// State は現在の状態を返します。ネットワークアクセスは行いません。
func (c *Credentials) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.token == nil:
		return StateUnset
	case c.token.Valid():
		return StateValid
	default:
		return StateExpired
	}
}

// Valid はトークンが現在有効かどうかを返します。
func (c *Credentials) Valid() bool {
	return c.State() == StateValid
}
