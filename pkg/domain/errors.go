package domain

import "fmt"

// Error は Imagen クライアントの基底エラーです。
// 他の分類に当てはまらない失敗（base64 デコード失敗など）をこの型で表現します。
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError は生成パラメータの検証失敗を表します。
// ネットワークアクセスの前に必ず検出されます。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthenticationError は認証情報の欠落・不正を表します。
// ネットワークアクセスの前、または代わりに発生します。
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// APIError は predict エンドポイントの非200応答、
// または予測が空だった200応答を表します。
// StatusCode は取得できた場合のみ設定されます（それ以外は 0）。
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}
