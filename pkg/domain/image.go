package domain

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shouni/vertex-imagen-kit/pkg/imgutil"
)

// GeneratedImage は predict 応答の1件の予測から作られた生成画像です。
// 構築後は不変で、バイナリへのデコードは初回アクセス時に1度だけ行われます。
type GeneratedImage struct {
	base64Data     string
	prompt         string
	enhancedPrompt string

	once sync.Once
	data []byte
	err  error
}

// NewGeneratedImage は生成画像を構築します。
// enhancedPrompt が空の場合は prompt をそのまま引き継ぎます。
func NewGeneratedImage(base64Data, prompt, enhancedPrompt string) *GeneratedImage {
	if enhancedPrompt == "" {
		enhancedPrompt = prompt
	}
	return &GeneratedImage{
		base64Data:     base64Data,
		prompt:         prompt,
		enhancedPrompt: enhancedPrompt,
	}
}

// Base64Data は API から受信したままの base64 文字列を返します。
func (g *GeneratedImage) Base64Data() string { return g.base64Data }

// Prompt は予測に含まれていたプロンプトを返します（無ければ空文字）。
func (g *GeneratedImage) Prompt() string { return g.prompt }

// EnhancedPrompt はモデルが改善したプロンプトを返します。
// API が返さなかった場合は元のプロンプトにフォールバックします。
func (g *GeneratedImage) EnhancedPrompt() string { return g.enhancedPrompt }

// Bytes は画像のバイナリデータを返します。
// デコードは初回のみ実行され、結果（エラー含む）はキャッシュされます。
func (g *GeneratedImage) Bytes() ([]byte, error) {
	g.once.Do(func() {
		data, err := base64.StdEncoding.DecodeString(g.base64Data)
		if err != nil {
			g.err = &Error{Message: "failed to decode base64 image data", Err: err}
			return
		}
		g.data = data
	})
	return g.data, g.err
}

// Size は画像のバイト数を返します。
func (g *GeneratedImage) Size() (int, error) {
	data, err := g.Bytes()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Save は画像を path に書き出します。親ディレクトリが無ければ作成します。
func (g *GeneratedImage) Save(path string) error {
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// SaveAsJPEG は画像を JPEG に再圧縮して path に書き出します。
// quality は jpeg.Encode と同じ 1-100 の範囲です。
func (g *GeneratedImage) SaveAsJPEG(path string, quality int) error {
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	compressed, err := imgutil.CompressToJPEG(data, quality)
	if err != nil {
		return fmt.Errorf("failed to compress image to JPEG: %w", err)
	}
	return writeFile(path, compressed)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
