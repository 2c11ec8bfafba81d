package imagen

import (
	"context"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config は環境変数から読み込むクライアント設定です。
type Config struct {
	ProjectID       string `env:"GOOGLE_CLOUD_PROJECT" env-required:"true" env-description:"Google Cloud プロジェクト ID"`
	Location        string `env:"GOOGLE_CLOUD_LOCATION" env-default:"us-central1" env-description:"Vertex AI リージョン"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:"" env-description:"サービスアカウント鍵ファイルのパス"`
}

// LoadConfig は環境変数から Config を構成します。
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}
	return cfg, nil
}

// NewClientFromEnv は環境変数だけでクライアントを構成します。
// GOOGLE_APPLICATION_CREDENTIALS が設定されていれば認証設定まで行います。
func NewClientFromEnv(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	client, err := NewClient(cfg.ProjectID, append([]ClientOption{WithLocation(cfg.Location)}, opts...)...)
	if err != nil {
		return nil, err
	}

	if cfg.CredentialsFile != "" {
		if err := client.SetupCredentials(ctx, cfg.CredentialsFile); err != nil {
			return nil, err
		}
	}
	return client, nil
}
