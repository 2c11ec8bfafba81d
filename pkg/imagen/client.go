package imagen

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/vertex-imagen-kit/pkg/auth"
	"github.com/shouni/vertex-imagen-kit/pkg/domain"
)

const (
	// DefaultLocation は Vertex AI の既定リージョンです。
	DefaultLocation = "us-central1"
	// DefaultModel は既定の Imagen モデルです。
	DefaultModel = "imagegeneration@006"
	// EnvCredentials は鍵ファイルパスを指す環境変数名です（Google Cloud の標準規約）。
	EnvCredentials = "GOOGLE_APPLICATION_CREDENTIALS"

	defaultRequestTimeout = 180 * time.Second
)

// supportedModels は predict エンドポイントで利用可能なモデルの固定リストです。
var supportedModels = []string{
	"imagegeneration@006",
	"imagegeneration@005",
	"imagegeneration@002",
	"imagen-3.0-generate-001",
	"imagen-3.0-generate-002",
	"imagen-3.0-fast-generate-001",
}

// Client は Vertex AI Imagen の predict エンドポイントを呼び出す薄いクライアントです。
// 認証情報スロット以外に共有可変状態を持たないため、複数の Generate を
// 並行に呼び出せます。
type Client struct {
	projectID string
	location  string
	baseURL   string

	httpClient HTTPDoer
	fetcher    httpkit.ClientInterface // 参照画像の HTTP 取得用（省略可）
	reader     remoteio.InputReader    // 参照画像の gs:// 読み込み用（省略可）
	log        *slog.Logger

	mu    sync.RWMutex
	creds TokenProvider
}

// ClientOption は Client の構成オプションです。
type ClientOption func(*Client)

// WithLocation は Vertex AI のリージョンを指定します。
func WithLocation(location string) ClientOption {
	return func(c *Client) { c.location = location }
}

// WithLogger はクライアントが使うロガーを差し替えます。
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithHTTPDoer は predict 呼び出しに使う HTTP クライアントを差し替えます。
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *Client) { c.httpClient = doer }
}

// WithFetcher は参照画像の HTTP 取得に使うクライアントを設定します。
func WithFetcher(fetcher httpkit.ClientInterface) ClientOption {
	return func(c *Client) { c.fetcher = fetcher }
}

// WithReader は参照画像の gs:// 読み込みに使うリーダーを設定します。
func WithReader(reader remoteio.InputReader) ClientOption {
	return func(c *Client) { c.reader = reader }
}

// NewClient は Client を初期化します。
// baseURL はリージョンから一度だけ組み立てられます。
func NewClient(projectID string, opts ...ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}

	c := &Client{
		projectID: projectID,
		location:  DefaultLocation,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	c.baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", c.location)

	return c, nil
}

// SetupCredentials はサービスアカウント鍵で認証を設定します。
// 既存の認証情報は丸ごと置き換えられます（マージはしません）。
func (c *Client) SetupCredentials(ctx context.Context, keyPath string) error {
	creds, err := auth.FromServiceAccountKey(ctx, keyPath)
	if err != nil {
		c.log.Error("認証の設定に失敗しました", "key_path", keyPath, "error", err)
		return &domain.AuthenticationError{Message: "failed to load service account key", Err: err}
	}

	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()

	c.log.Info("Google Cloud 認証に成功しました", "key_path", keyPath)
	return nil
}

// SetupCredentialsFromEnv は GOOGLE_APPLICATION_CREDENTIALS 環境変数が指す
// 鍵ファイルで認証を設定します。
func (c *Client) SetupCredentialsFromEnv(ctx context.Context) error {
	keyPath := os.Getenv(EnvCredentials)
	if keyPath == "" {
		return &domain.AuthenticationError{
			Message: fmt.Sprintf("%s environment variable is not set", EnvCredentials),
		}
	}
	return c.SetupCredentials(ctx, keyPath)
}

// SetCredentials は任意の TokenProvider を直接差し込みます。
// カスタム認証経路やテストで利用します。
func (c *Client) SetCredentials(provider TokenProvider) {
	c.mu.Lock()
	c.creds = provider
	c.mu.Unlock()
}

// IsAuthenticated は有効な認証情報を保持しているかどうかを返します。
// ネットワークアクセスは行いません。
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds != nil && c.creds.Valid()
}

// ListModels はサポートされるモデル名のコピーを返します。
func (c *Client) ListModels() []string {
	models := make([]string, len(supportedModels))
	copy(models, supportedModels)
	return models
}

// GenerateOne は1枚だけ画像を生成して返します。
// 生成枚数のオプションは無視され、常に sampleCount=1 で呼び出します。
func (c *Client) GenerateOne(ctx context.Context, prompt string, opts ...GenerateOption) (*domain.GeneratedImage, error) {
	all := make([]GenerateOption, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithCount(1))

	images, err := c.generate(ctx, prompt, all...)
	if err != nil {
		return nil, err
	}
	return images[0], nil
}

// Generate は要求した枚数の画像を応答順で返します。
func (c *Client) Generate(ctx context.Context, prompt string, opts ...GenerateOption) ([]*domain.GeneratedImage, error) {
	return c.generate(ctx, prompt, opts...)
}

func (c *Client) generate(ctx context.Context, prompt string, opts ...GenerateOption) ([]*domain.GeneratedImage, error) {
	// 認証情報のスナップショットだけをロック下で取り、通信中はロックを持たない
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	if creds == nil {
		return nil, &domain.AuthenticationError{
			Message: "credentials not configured: call SetupCredentials first",
		}
	}

	req, err := newGenerationRequest(prompt, opts...)
	if err != nil {
		return nil, err
	}

	if !isSupportedModel(req.Model) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("unsupported model: %s", req.Model),
		}
	}

	token, err := creds.Token()
	if err != nil {
		c.log.Error("アクセストークンの取得に失敗しました", "error", err)
		return nil, &domain.AuthenticationError{Message: "failed to obtain access token", Err: err}
	}

	c.log.Info("画像生成リクエストを送信します", "model", req.Model, "count", req.Count)

	images, err := c.callPredict(ctx, token, req)
	if err != nil {
		return nil, err
	}

	c.log.Info("画像生成が完了しました", "images", len(images))
	return images, nil
}

func isSupportedModel(model string) bool {
	for _, m := range supportedModels {
		if m == model {
			return true
		}
	}
	return false
}
