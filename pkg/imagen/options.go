package imagen

import "github.com/shouni/vertex-imagen-kit/pkg/domain"

// GenerateOption は生成パラメータを調整する関数オプションです。
type GenerateOption func(*domain.GenerationRequest)

// WithModel は使用する Imagen モデルを指定します。
func WithModel(model string) GenerateOption {
	return func(r *domain.GenerationRequest) { r.Model = model }
}

// WithAspectRatio は生成画像の縦横比を指定します。
func WithAspectRatio(ratio domain.AspectRatio) GenerateOption {
	return func(r *domain.GenerationRequest) { r.AspectRatio = ratio }
}

// WithCount は生成する画像の枚数を指定します（1-4）。
func WithCount(n int) GenerateOption {
	return func(r *domain.GenerationRequest) { r.Count = n }
}

// WithNegativePrompt は生成から除外したい内容を指定します。
func WithNegativePrompt(prompt string) GenerateOption {
	return func(r *domain.GenerationRequest) { r.NegativePrompt = prompt }
}

// WithSeed は再現性のためのシード値を固定します。
func WithSeed(seed int64) GenerateOption {
	return func(r *domain.GenerationRequest) { r.Seed = &seed }
}

// WithSafetySetting は安全フィルターの遮断レベルを指定します。
func WithSafetySetting(setting domain.SafetySetting) GenerateOption {
	return func(r *domain.GenerationRequest) { r.SafetySetting = setting }
}

// WithEnhancePrompt はプロンプト自動改善の有効・無効を切り替えます。
func WithEnhancePrompt(enabled bool) GenerateOption {
	return func(r *domain.GenerationRequest) { r.EnhancePrompt = enabled }
}

// WithReferenceURL は image-to-image 生成の参照画像 URL を指定します。
// http(s) URL または gs:// URI を受け付けます。
func WithReferenceURL(url string) GenerateOption {
	return func(r *domain.GenerationRequest) { r.ReferenceURL = url }
}

// newGenerationRequest は既定値にオプションを適用し、検証済みの要求を返します。
// 検証に失敗した場合、部分的に有効な要求が返ることはありません。
func newGenerationRequest(prompt string, opts ...GenerateOption) (domain.GenerationRequest, error) {
	req := domain.GenerationRequest{
		Prompt:        prompt,
		Model:         DefaultModel,
		AspectRatio:   domain.AspectRatio1x1,
		Count:         1,
		SafetySetting: domain.SafetyBlockMediumAndAbove,
		EnhancePrompt: true,
	}
	for _, opt := range opts {
		opt(&req)
	}
	if err := req.Validate(); err != nil {
		return domain.GenerationRequest{}, err
	}
	return req, nil
}
