package domain

import (
	"fmt"
	"strings"
)

// AspectRatio は生成画像の縦横比カテゴリです。
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
)

// AspectRatios は predict エンドポイントが受け付ける縦横比の固定リストを返します。
func AspectRatios() []AspectRatio {
	return []AspectRatio{
		AspectRatio1x1,
		AspectRatio3x4,
		AspectRatio4x3,
		AspectRatio16x9,
		AspectRatio9x16,
	}
}

// SafetySetting は安全フィルターの遮断レベルです。
type SafetySetting string

const (
	SafetyBlockNone           SafetySetting = "block_none"
	SafetyBlockOnlyHigh       SafetySetting = "block_only_high"
	SafetyBlockMediumAndAbove SafetySetting = "block_medium_and_above"
	SafetyBlockLowAndAbove    SafetySetting = "block_low_and_above"
)

// GenerationRequest は1回の画像生成要求です。
// Seed は nil でランダム、値指定で固定です。
// ReferenceURL を指定すると image-to-image 生成の参照画像として添付されます。
type GenerationRequest struct {
	Prompt         string
	Model          string
	AspectRatio    AspectRatio
	Count          int
	NegativePrompt string
	Seed           *int64
	SafetySetting  SafetySetting
	EnhancePrompt  bool
	ReferenceURL   string
}

// Validate は要求パラメータを検証します。
// 最初に見つかった問題を ValidationError として返し、以降の検証は行いません。
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Message: "prompt required"}
	}
	if r.Count < 1 || r.Count > 4 {
		return &ValidationError{Message: "count must be 1-4"}
	}
	valid := false
	for _, ratio := range AspectRatios() {
		if r.AspectRatio == ratio {
			valid = true
			break
		}
	}
	if !valid {
		return &ValidationError{
			Message: fmt.Sprintf("unsupported aspect ratio %q (valid: %v)", r.AspectRatio, AspectRatios()),
		}
	}
	return nil
}
