package imagen

import "net/http"

// HTTPDoer は predict 呼び出しを実行する最小の HTTP インターフェースです。
// 既定では 180 秒タイムアウトの *http.Client が使われます。
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider はベアラートークンの供給元です。
// pkg/auth の Credentials がこれを満たします。
type TokenProvider interface {
	// Token は現在のトークンを返します。必要に応じてリフレッシュします。
	Token() (string, error)
	// Valid はトークンが現在有効かどうかを返します（ネットワークアクセスなし）。
	Valid() bool
}
