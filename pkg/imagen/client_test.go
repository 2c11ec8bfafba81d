package imagen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/shouni/vertex-imagen-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func predictionsJSON(datas ...string) string {
	out := `{"predictions":[`
	for i, d := range datas {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"bytesBase64Encoded":%q,"mimeType":"image/png"}`, d)
	}
	return out + `]}`
}

func TestNewClient(t *testing.T) {
	t.Run("projectIDは必須であること", func(t *testing.T) {
		_, err := NewClient("")
		require.Error(t, err)
	})

	t.Run("リージョンからbaseURLが一度だけ組み立てられること", func(t *testing.T) {
		client, err := NewClient("my-project", WithLocation("asia-northeast1"))
		require.NoError(t, err)
		assert.Equal(t, "https://asia-northeast1-aiplatform.googleapis.com/v1", client.baseURL)
	})
}

func TestClient_Generate_Authentication(t *testing.T) {
	t.Run("認証前のGenerateはネットワークに到達しないこと", func(t *testing.T) {
		doer := &spyDoer{}
		client, err := NewClient("test-project", WithHTTPDoer(doer), WithLogger(quietLogger()))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "a whale")

		var authErr *domain.AuthenticationError
		require.True(t, errors.As(err, &authErr), "expected AuthenticationError, got %T", err)
		assert.Empty(t, doer.requests, "transport should record zero calls")
	})

	t.Run("トークン取得に失敗したらAuthenticationErrorになること", func(t *testing.T) {
		doer := &spyDoer{}
		client := newTestClient(t, doer)
		client.SetCredentials(&staticTokenProvider{err: errors.New("refresh failed")})

		_, err := client.Generate(context.Background(), "a whale")

		var authErr *domain.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		assert.Empty(t, doer.requests)
	})
}

func TestClient_Generate_Validation(t *testing.T) {
	t.Run("検証エラーはネットワークに到達しないこと", func(t *testing.T) {
		tests := []struct {
			name   string
			prompt string
			opts   []GenerateOption
		}{
			{"空白プロンプト", "   ", nil},
			{"枚数が範囲外", "a whale", []GenerateOption{WithCount(5)}},
			{"未対応の縦横比", "a whale", []GenerateOption{WithAspectRatio("2:1")}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				doer := &spyDoer{}
				client := newTestClient(t, doer)

				_, err := client.Generate(context.Background(), tt.prompt, tt.opts...)

				var vErr *domain.ValidationError
				require.True(t, errors.As(err, &vErr), "expected ValidationError, got %T", err)
				assert.Empty(t, doer.requests)
			})
		}
	})

	t.Run("未対応モデルはValidationErrorでネットワーク未到達であること", func(t *testing.T) {
		doer := &spyDoer{}
		client := newTestClient(t, doer)

		_, err := client.Generate(context.Background(), "a whale", WithModel("not-a-real-model"))

		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Contains(t, vErr.Message, "not-a-real-model")
		assert.Empty(t, doer.requests)
	})
}

func TestClient_GenerateOne(t *testing.T) {
	t.Run("単一の画像が直接返ること", func(t *testing.T) {
		doer := &spyDoer{response: predictionsJSON(b64("image-1"))}
		client := newTestClient(t, doer)

		img, err := client.GenerateOne(context.Background(), "a whale in the sky")

		require.NoError(t, err)
		require.NotNil(t, img)
		data, err := img.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte("image-1"), data)
	})

	t.Run("枚数オプションを指定してもsampleCount=1で送られること", func(t *testing.T) {
		doer := &spyDoer{response: predictionsJSON(b64("image-1"))}
		client := newTestClient(t, doer)

		_, err := client.GenerateOne(context.Background(), "a whale", WithCount(3))

		require.NoError(t, err)
		require.Len(t, doer.bodies, 1)
		assert.Contains(t, string(doer.bodies[0]), `"sampleCount":1`)
	})
}

func TestClient_Generate_Multiple(t *testing.T) {
	t.Run("3件の予測が応答順で返ること", func(t *testing.T) {
		doer := &spyDoer{response: predictionsJSON(b64("one"), b64("two"), b64("three"))}
		client := newTestClient(t, doer)

		images, err := client.Generate(context.Background(), "three whales", WithCount(3))

		require.NoError(t, err)
		require.Len(t, images, 3)
		for i, want := range []string{"one", "two", "three"} {
			data, err := images[i].Bytes()
			require.NoError(t, err)
			assert.Equal(t, []byte(want), data)
		}
	})
}

func TestClient_Generate_APIErrors(t *testing.T) {
	t.Run("非200応答はステータスコードと本文を保持すること", func(t *testing.T) {
		doer := &spyDoer{status: 403, response: `{"error":"permission denied on project"}`}
		client := newTestClient(t, doer)

		_, err := client.Generate(context.Background(), "a whale")

		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr), "expected APIError, got %T", err)
		assert.Equal(t, 403, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "permission denied on project")
		assert.Contains(t, apiErr.Error(), "403")
	})

	t.Run("予測が空の200応答は失敗になること", func(t *testing.T) {
		doer := &spyDoer{response: `{"predictions":[]}`}
		client := newTestClient(t, doer)

		_, err := client.Generate(context.Background(), "a whale")

		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "no images produced", apiErr.Message)
		assert.Zero(t, apiErr.StatusCode)
	})

	t.Run("通信自体の失敗もAPIErrorとして返ること", func(t *testing.T) {
		doer := &spyDoer{err: errors.New("connection reset")}
		client := newTestClient(t, doer)

		_, err := client.Generate(context.Background(), "a whale")

		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, apiErr.Message, "connection reset")
	})
}

func TestClient_Generate_PromptFallback(t *testing.T) {
	t.Run("予測にプロンプトが無い場合のフォールバックが非対称であること", func(t *testing.T) {
		// Prompt は空のまま、EnhancedPrompt だけ要求時のプロンプトへ落ちる
		doer := &spyDoer{response: predictionsJSON(b64("img"))}
		client := newTestClient(t, doer)

		img, err := client.GenerateOne(context.Background(), "original prompt")

		require.NoError(t, err)
		assert.Equal(t, "", img.Prompt())
		assert.Equal(t, "original prompt", img.EnhancedPrompt())
	})

	t.Run("予測のプロンプトがあればそちらが優先されること", func(t *testing.T) {
		response := fmt.Sprintf(`{"predictions":[{"bytesBase64Encoded":%q,"prompt":"enhanced version"}]}`, b64("img"))
		doer := &spyDoer{response: response}
		client := newTestClient(t, doer)

		img, err := client.GenerateOne(context.Background(), "original prompt")

		require.NoError(t, err)
		assert.Equal(t, "enhanced version", img.Prompt())
		assert.Equal(t, "enhanced version", img.EnhancedPrompt())
	})
}

func TestClient_ListModels(t *testing.T) {
	t.Run("返されたリストを書き換えても内部状態が変わらないこと", func(t *testing.T) {
		client := newTestClient(t, &spyDoer{})

		models := client.ListModels()
		require.NotEmpty(t, models)
		models[0] = "tampered"

		assert.Equal(t, "imagegeneration@006", client.ListModels()[0])
	})

	t.Run("既定モデルが含まれること", func(t *testing.T) {
		client := newTestClient(t, &spyDoer{})
		assert.Contains(t, client.ListModels(), DefaultModel)
	})
}

func TestClient_IsAuthenticated(t *testing.T) {
	client, err := NewClient("test-project", WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.False(t, client.IsAuthenticated())

	client.SetCredentials(&staticTokenProvider{token: "t", valid: true})
	assert.True(t, client.IsAuthenticated())

	// 置き換えはマージではなく丸ごと差し替え
	client.SetCredentials(&staticTokenProvider{token: "t", valid: false})
	assert.False(t, client.IsAuthenticated())
}

func TestClient_SetupCredentials(t *testing.T) {
	t.Run("存在しない鍵ファイルはAuthenticationErrorになること", func(t *testing.T) {
		client := newTestClient(t, &spyDoer{})

		err := client.SetupCredentials(context.Background(), "/no/such/key.json")

		var authErr *domain.AuthenticationError
		require.True(t, errors.As(err, &authErr))
	})

	t.Run("環境変数が未設定ならAuthenticationErrorになること", func(t *testing.T) {
		t.Setenv(EnvCredentials, "")
		client := newTestClient(t, &spyDoer{})

		err := client.SetupCredentialsFromEnv(context.Background())

		var authErr *domain.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		assert.Contains(t, authErr.Message, EnvCredentials)
	})
}
